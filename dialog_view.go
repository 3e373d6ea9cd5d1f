package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bekirdag/admin-console/internal/dialog"
	"github.com/bekirdag/admin-console/internal/grid"
)

// dialogForm is the terminal face of a dialog controller.
type dialogForm struct {
	ctrl    *dialog.Controller
	grid    *grid.Controller
	fields  []dialog.Field
	inputs  map[string]*textinput.Model
	areas   map[string]*textarea.Model
	focus   int
	confirm textinput.Model
	width   int
}

func newDialogForm(ctrl *dialog.Controller, g *grid.Controller) *dialogForm {
	confirm := textinput.New()
	confirm.Prompt = "› "
	confirm.CharLimit = 64
	return &dialogForm{
		ctrl:    ctrl,
		grid:    g,
		fields:  ctrl.Config().Fields,
		confirm: confirm,
		width:   60,
	}
}

// Reset rebuilds the inputs from the controller's draft after it opened.
func (f *dialogForm) Reset() {
	f.inputs = map[string]*textinput.Model{}
	f.areas = map[string]*textarea.Model{}
	f.focus = 0
	for _, field := range f.fields {
		value := f.ctrl.Value(field.Key)
		if field.Kind == dialog.TextAreaField {
			area := textarea.New()
			area.ShowLineNumbers = false
			area.SetWidth(f.width - 4)
			area.SetHeight(4)
			area.SetValue(value)
			area.Blur()
			f.areas[field.Key] = &area
			continue
		}
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 512
		in.Width = f.width - 4
		in.SetValue(value)
		switch field.Kind {
		case dialog.NumberField:
			in.Placeholder = "0"
		case dialog.DateField:
			in.Placeholder = "YYYY-MM-DD"
		case dialog.SelectField:
			in.Placeholder = "←/→ choose"
		}
		in.Blur()
		f.inputs[field.Key] = &in
	}
	f.confirm.SetValue("")
	f.confirm.Placeholder = f.ctrl.Draft().TargetID
	if f.ctrl.Mode() == dialog.OpenForPurge {
		f.confirm.Focus()
	} else {
		f.confirm.Blur()
	}
	f.applyFocus()
}

func (f *dialogForm) SetWidth(width int) {
	if width < 30 {
		width = 30
	}
	f.width = width
	for _, in := range f.inputs {
		in.Width = width - 4
	}
	for _, area := range f.areas {
		area.SetWidth(width - 4)
	}
}

func (f *dialogForm) applyFocus() {
	for i, field := range f.fields {
		if in, ok := f.inputs[field.Key]; ok {
			if i == f.focus {
				in.Focus()
			} else {
				in.Blur()
			}
		}
		if area, ok := f.areas[field.Key]; ok {
			if i == f.focus {
				area.Focus()
			} else {
				area.Blur()
			}
		}
	}
}

func (f *dialogForm) focused() (dialog.Field, bool) {
	if f.focus < 0 || f.focus >= len(f.fields) {
		return dialog.Field{}, false
	}
	return f.fields[f.focus], true
}

func (f *dialogForm) moveFocus(delta int) {
	if len(f.fields) == 0 {
		return
	}
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	f.applyFocus()
}

// cycle steps a select or boolean field through its choices.
func (f *dialogForm) cycle(field dialog.Field, delta int) bool {
	in := f.inputs[field.Key]
	if in == nil {
		return false
	}
	var choices []string
	switch field.Kind {
	case dialog.BoolField:
		choices = []string{"false", "true"}
	case dialog.SelectField:
		choices = f.grid.Options(field.Facet)
		if !field.Required {
			choices = append([]string{""}, choices...)
		}
	default:
		return false
	}
	if len(choices) == 0 {
		return false
	}
	idx := slices.Index(choices, in.Value())
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(choices) - 1
	default:
		idx = (idx + delta + len(choices)) % len(choices)
	}
	in.SetValue(choices[idx])
	in.CursorEnd()
	f.ctrl.SetValue(field.Key, choices[idx])
	return true
}

// Update handles a key while the dialog is open and returns the command
// of a submission, if any.
func (f *dialogForm) Update(msg tea.KeyMsg) tea.Cmd {
	switch f.ctrl.Mode() {
	case dialog.OpenForCreate, dialog.OpenForEdit:
		return f.updateForm(msg)
	case dialog.OpenForDelete, dialog.OpenForRestore:
		switch msg.String() {
		case "esc", "n":
			f.ctrl.Cancel()
		case "enter", "y":
			if f.ctrl.Mode() == dialog.OpenForDelete {
				return f.ctrl.ConfirmDelete()
			}
			return f.ctrl.ConfirmRestore()
		}
	case dialog.OpenForPurge:
		switch msg.String() {
		case "esc":
			f.ctrl.Cancel()
			return nil
		case "enter":
			cmd, err := f.ctrl.ConfirmPurge(f.confirm.Value())
			if err != nil {
				return nil
			}
			return cmd
		}
		var cmd tea.Cmd
		f.confirm, cmd = f.confirm.Update(msg)
		return cmd
	}
	return nil
}

func (f *dialogForm) updateForm(msg tea.KeyMsg) tea.Cmd {
	field, ok := f.focused()
	switch msg.String() {
	case "esc":
		f.ctrl.Cancel()
		return nil
	case "ctrl+s":
		return f.ctrl.Submit()
	case "tab", "down":
		f.moveFocus(1)
		return nil
	case "shift+tab", "up":
		f.moveFocus(-1)
		return nil
	case "enter":
		if !ok || field.Kind != dialog.TextAreaField {
			return f.ctrl.Submit()
		}
	case "left", "right", " ":
		if ok && (field.Kind == dialog.BoolField || field.Kind == dialog.SelectField) {
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			if f.cycle(field, delta) {
				return nil
			}
		}
	}
	if !ok || f.ctrl.Submitting() {
		return nil
	}
	if field.Kind == dialog.BoolField {
		return nil
	}
	var cmd tea.Cmd
	if area, isArea := f.areas[field.Key]; isArea {
		*area, cmd = area.Update(msg)
		f.ctrl.SetValue(field.Key, area.Value())
		return cmd
	}
	if in := f.inputs[field.Key]; in != nil {
		*in, cmd = in.Update(msg)
		f.ctrl.SetValue(field.Key, in.Value())
	}
	return cmd
}

func (f *dialogForm) View(s styles, docs *docRenderer) string {
	var b strings.Builder
	cfg := f.ctrl.Config()
	noun := cfg.Noun
	mode := f.ctrl.Mode()

	switch mode {
	case dialog.OpenForCreate, dialog.OpenForEdit:
		title := "New " + noun
		if mode == dialog.OpenForEdit {
			title = fmt.Sprintf("Edit %s #%s", noun, f.ctrl.Draft().TargetID)
		}
		b.WriteString(s.cmdPrompt.Render(title))
		b.WriteString("\n\n")
		errs := f.ctrl.FieldErrors()
		for i, field := range f.fields {
			label := field.Label
			if field.Required {
				label += " *"
			}
			labelStyle := s.fieldLabel
			if i == f.focus {
				labelStyle = s.fieldFocused
			}
			b.WriteString(labelStyle.Render(label))
			b.WriteRune('\n')
			b.WriteString(f.fieldView(field))
			b.WriteRune('\n')
			if msg := errs[field.Key]; msg != "" {
				b.WriteString(s.fieldErr.Render(msg))
				b.WriteRune('\n')
			}
		}
		hints := []string{"tab next", "ctrl+s save", "esc cancel"}
		if field, ok := f.focused(); ok && (field.Kind == dialog.SelectField || field.Kind == dialog.BoolField) {
			hints = append([]string{"←/→ choose"}, hints...)
		}
		b.WriteString(f.footer(s, hints))
	case dialog.OpenForDelete, dialog.OpenForRestore, dialog.OpenForPurge:
		heading, warning := confirmText(mode, noun, cfg.SoftDelete)
		docs.SetWordWrap(f.width - 4)
		b.WriteString(docs.Render(confirmMarkdown(heading, warning, f.ctrl.Summary())))
		b.WriteString("\n\n")
		if mode == dialog.OpenForPurge {
			b.WriteString(s.danger.Render("Type the id to confirm"))
			b.WriteRune('\n')
			b.WriteString(f.confirm.View())
			b.WriteRune('\n')
			if errors.Is(f.ctrl.Err(), dialog.ErrConfirmMismatch) {
				b.WriteString(s.fieldErr.Render("The id does not match"))
				b.WriteRune('\n')
			}
			b.WriteString(f.footer(s, []string{"enter delete forever", "esc cancel"}))
		} else {
			b.WriteString(f.footer(s, []string{"y confirm", "n cancel"}))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f *dialogForm) footer(s styles, hints []string) string {
	if f.ctrl.Submitting() {
		return s.cmdHint.Render("Sending…")
	}
	return s.cmdHint.Render(strings.Join(hints, " • "))
}

func (f *dialogForm) fieldView(field dialog.Field) string {
	if area, ok := f.areas[field.Key]; ok {
		return area.View()
	}
	in := f.inputs[field.Key]
	if in == nil {
		return ""
	}
	if field.Kind == dialog.BoolField {
		mark := "[ ]"
		if grid.Truthy(in.Value()) {
			mark = "[" + grid.CheckMark + "]"
		}
		return lipgloss.NewStyle().Padding(0, 1).Render(mark)
	}
	return in.View()
}

func confirmText(mode dialog.Mode, noun string, soft bool) (heading, warning string) {
	switch mode {
	case dialog.OpenForDelete:
		if soft {
			return "Delete this " + noun + "?", "It can be restored later."
		}
		return "Delete this " + noun + "?", "This cannot be undone."
	case dialog.OpenForRestore:
		return "Restore this " + noun + "?", ""
	default:
		return "Permanently delete this " + noun + "?", "The record and its history are removed for good."
	}
}
