package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/bekirdag/admin-console/internal/resources"
)

type paletteAction int

const (
	actionSwitch paletteAction = iota
	actionJob
	actionCreate
	actionRefresh
	actionClearFilters
	actionResetWidths
	actionTheme
	actionLimit
	actionSignOut
)

type paletteEntry struct {
	label       string
	description string
	action      paletteAction
	resource    string
	job         resources.Job
}

type paletteEntries []paletteEntry

func (p paletteEntries) String(i int) string { return p[i].label }
func (p paletteEntries) Len() int            { return len(p) }

func buildPaletteEntries(list []resources.Resource, theme markdownTheme) []paletteEntry {
	var out []paletteEntry
	for _, r := range list {
		out = append(out, paletteEntry{
			label:       "Go to " + r.Title,
			description: r.Grid.Resource,
			action:      actionSwitch,
			resource:    r.ID,
		})
	}
	for _, r := range list {
		out = append(out, paletteEntry{
			label:       "New " + r.Dialog.Noun,
			description: "Open an empty " + r.Dialog.Noun + " form",
			action:      actionCreate,
			resource:    r.ID,
		})
		for _, job := range r.Jobs {
			out = append(out, paletteEntry{
				label:       job.Label,
				description: "POST " + job.Path,
				action:      actionJob,
				resource:    r.ID,
				job:         job,
			})
		}
	}
	out = append(out,
		paletteEntry{label: "Refresh", description: "Reload rows and filter options", action: actionRefresh},
		paletteEntry{label: "Clear filters", description: "Drop filters and search", action: actionClearFilters},
		paletteEntry{label: "Reset column widths", description: "Forget resized columns of this table", action: actionResetWidths},
		paletteEntry{label: "Rows per page", description: "Cycle 10, 20, 50 and 100", action: actionLimit},
		paletteEntry{
			label:       "Theme: " + markdownThemeLabel(nextMarkdownTheme(theme)),
			description: "Currently " + markdownThemeLabel(theme),
			action:      actionTheme,
		},
		paletteEntry{label: "Sign out", description: "End the session and forget the token", action: actionSignOut},
	)
	return out
}

// matchPalette ranks entries against query; an empty query keeps them all.
func matchPalette(entries []paletteEntry, query string) []paletteEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return append([]paletteEntry(nil), entries...)
	}
	found := fuzzy.FindFrom(query, paletteEntries(entries))
	out := make([]paletteEntry, 0, len(found))
	for _, match := range found {
		out = append(out, entries[match.Index])
	}
	return out
}

type commandPalette struct {
	entries []paletteEntry
	matches []paletteEntry
	index   int
	input   textinput.Model
	pager   paginator.Model
}

func newCommandPalette() *commandPalette {
	in := textinput.New()
	in.Prompt = ": "
	in.Placeholder = "e.g. go orders"
	in.CharLimit = 64
	pager := paginator.New()
	pager.Type = paginator.Dots
	pager.PerPage = 8
	return &commandPalette{input: in, pager: pager}
}

func (p *commandPalette) Open(entries []paletteEntry) {
	p.entries = entries
	p.input.SetValue("")
	p.input.Focus()
	p.Filter()
}

func (p *commandPalette) Close() {
	p.input.Blur()
}

func (p *commandPalette) Filter() {
	p.matches = matchPalette(p.entries, p.input.Value())
	p.index = 0
	p.pager.Page = 0
	p.pager.SetTotalPages(len(p.matches))
}

func (p *commandPalette) Move(delta int) {
	if len(p.matches) == 0 {
		p.index = 0
		return
	}
	n := len(p.matches)
	p.index = (p.index + delta + n) % n
	p.pager.Page = p.index / p.pager.PerPage
}

func (p *commandPalette) Selected() (paletteEntry, bool) {
	if p.index < 0 || p.index >= len(p.matches) {
		return paletteEntry{}, false
	}
	return p.matches[p.index], true
}

func (p *commandPalette) View(s styles, width int) string {
	var lines []string
	lines = append(lines, p.input.View(), "")
	if len(p.matches) == 0 {
		lines = append(lines, s.muted.Render("No matches"))
	}
	start, end := p.pager.GetSliceBounds(len(p.matches))
	for i := start; i < end; i++ {
		entry := p.matches[i]
		line := entry.label
		if entry.description != "" {
			line += " · " + entry.description
		}
		style := s.listItem
		if i == p.index {
			style = s.listSel
		}
		lines = append(lines, style.Render(runewidth.Truncate(line, width-6, "…")))
	}
	hints := []string{"↑/↓ select", "enter run", "esc close"}
	if p.pager.TotalPages > 1 {
		hints = append(hints, fmt.Sprintf("page %s", p.pager.View()))
	}
	lines = append(lines, "", s.cmdHint.Render(strings.Join(hints, " • ")))
	return strings.Join(lines, "\n")
}
