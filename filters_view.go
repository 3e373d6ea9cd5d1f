package main

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bekirdag/admin-console/internal/grid"
)

// filterForm edits the filter values of one grid before applying them.
type filterForm struct {
	grid   *grid.Controller
	inputs []textinput.Model
	focus  int
}

func newFilterForm(g *grid.Controller) *filterForm {
	f := &filterForm{grid: g}
	current := g.Query().Filters
	for _, filter := range g.Config().Filters {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 128
		in.Width = 32
		in.SetValue(current[filter.Key])
		switch filter.Kind {
		case grid.SelectFilter, grid.BoolFilter:
			in.Placeholder = "any"
		case grid.TextFilter:
			if dr := g.Config().DateRange; dr != nil && (filter.Key == dr.StartKey || filter.Key == dr.EndKey) {
				in.Placeholder = "YYYY-MM-DD"
			}
		}
		f.inputs = append(f.inputs, in)
	}
	f.setFocus(0)
	return f
}

func (f *filterForm) setFocus(idx int) {
	if len(f.inputs) == 0 {
		return
	}
	f.focus = (idx + len(f.inputs)) % len(f.inputs)
	for i := range f.inputs {
		if i == f.focus {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

// Values is what the form would apply.
func (f *filterForm) Values() map[string]string {
	out := map[string]string{}
	for i, filter := range f.grid.Config().Filters {
		out[filter.Key] = strings.TrimSpace(f.inputs[i].Value())
	}
	return out
}

func (f *filterForm) choices(filter grid.Filter) []string {
	switch filter.Kind {
	case grid.BoolFilter:
		return []string{"", "true", "false"}
	case grid.SelectFilter:
		return append([]string{""}, f.grid.Options(filter.Facet)...)
	}
	return nil
}

// Update returns done when the form should close, with the command that
// applies it.
func (f *filterForm) Update(msg tea.KeyMsg) (done bool, cmd tea.Cmd) {
	filters := f.grid.Config().Filters
	if len(filters) == 0 {
		return true, nil
	}
	filter := filters[f.focus]
	switch msg.String() {
	case "esc":
		return true, nil
	case "enter":
		return true, f.grid.ApplyFilters(f.Values())
	case "ctrl+r":
		return true, f.grid.ClearFilters()
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return false, nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return false, nil
	case "left", "right", " ":
		if choices := f.choices(filter); len(choices) > 0 {
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			idx := slices.Index(choices, f.inputs[f.focus].Value())
			if idx < 0 {
				idx = 0
			} else {
				idx = (idx + delta + len(choices)) % len(choices)
			}
			f.inputs[f.focus].SetValue(choices[idx])
			f.inputs[f.focus].CursorEnd()
			return false, nil
		}
	}
	if filter.Kind == grid.BoolFilter {
		return false, nil
	}
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return false, cmd
}

func (f *filterForm) View(s styles) string {
	var b strings.Builder
	b.WriteString(s.cmdPrompt.Render("Filter " + f.grid.Config().Title))
	b.WriteString("\n\n")
	for i, filter := range f.grid.Config().Filters {
		label := s.fieldLabel
		if i == f.focus {
			label = s.fieldFocused
		}
		b.WriteString(label.Render(filter.Label))
		b.WriteRune('\n')
		b.WriteString(f.inputs[i].View())
		b.WriteRune('\n')
	}
	if dr := f.grid.Config().DateRange; dr != nil {
		b.WriteString(s.muted.Render("Date range applies only when both ends are set"))
		b.WriteRune('\n')
	}
	b.WriteString(s.cmdHint.Render(strings.Join([]string{"tab next", "←/→ choose", "enter apply", "ctrl+r clear all", "esc cancel"}, " • ")))
	return b.String()
}
