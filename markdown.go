package main

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/bekirdag/admin-console/internal/dialog"
	"github.com/bekirdag/admin-console/internal/gateway"
	"github.com/bekirdag/admin-console/internal/grid"
)

type markdownTheme string

const (
	markdownThemeAuto  markdownTheme = "auto"
	markdownThemeDark  markdownTheme = "dark"
	markdownThemeLight markdownTheme = "light"
)

// docRenderer caches a glamour renderer for the current width and theme.
type docRenderer struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	err      error
	theme    markdownTheme
	wrap     int
}

func newDocRenderer(theme markdownTheme) *docRenderer {
	return &docRenderer{theme: theme, wrap: 80}
}

// Render returns terminal output for content, or content itself when
// glamour cannot be set up.
func (d *docRenderer) Render(content string) string {
	r := d.ensure()
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

func (d *docRenderer) ensure() *glamour.TermRenderer {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.renderer != nil && d.err == nil {
		return d.renderer
	}
	options := []glamour.TermRendererOption{glamour.WithWordWrap(d.wrap)}
	switch d.theme {
	case markdownThemeLight:
		options = append(options, glamour.WithStandardStyle("light"))
	case markdownThemeDark:
		options = append(options, glamour.WithStandardStyle("dark"))
	default:
		options = append(options, glamour.WithAutoStyle())
	}
	d.renderer, d.err = glamour.NewTermRenderer(options...)
	if d.err != nil {
		return nil
	}
	return d.renderer
}

func (d *docRenderer) SetWordWrap(width int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if width < 0 {
		width = 0
	}
	if d.wrap != width {
		d.wrap = width
		d.renderer, d.err = nil, nil
	}
}

func (d *docRenderer) SetTheme(theme markdownTheme) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if theme == "" {
		theme = markdownThemeAuto
	}
	if d.theme != theme {
		d.theme = theme
		d.renderer, d.err = nil, nil
	}
}

func (d *docRenderer) Theme() markdownTheme {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.theme
}

func (t markdownTheme) String() string { return string(t) }

func markdownThemeFromString(value string) markdownTheme {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dark":
		return markdownThemeDark
	case "light":
		return markdownThemeLight
	default:
		return markdownThemeAuto
	}
}

func markdownThemeLabel(theme markdownTheme) string {
	switch theme {
	case markdownThemeDark:
		return "Dark"
	case markdownThemeLight:
		return "Light"
	default:
		return "Auto"
	}
}

func nextMarkdownTheme(theme markdownTheme) markdownTheme {
	switch theme {
	case markdownThemeAuto:
		return markdownThemeDark
	case markdownThemeDark:
		return markdownThemeLight
	default:
		return markdownThemeAuto
	}
}

// recordMarkdown lists every field of rec: configured columns first in
// their order and formatting, then whatever else the server sent.
func recordMarkdown(title string, cols []grid.Column, rec gateway.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(title))
	b.WriteString("| Field | Value |\n|---|---|\n")
	seen := map[string]bool{}
	for _, col := range cols {
		seen[col.Key] = true
		fmt.Fprintf(&b, "| %s | %s |\n", escapeMarkdown(grid.HeaderTitle(col)), escapeMarkdown(grid.FormatCell(col, rec)))
	}
	var rest []string
	for key := range rec {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		fmt.Fprintf(&b, "| %s | %s |\n", escapeMarkdown(key), escapeMarkdown(rec.String(key)))
	}
	return b.String()
}

// confirmMarkdown is the body of a delete, restore or purge confirmation.
func confirmMarkdown(heading, warning string, lines []dialog.SummaryLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(heading))
	for _, line := range lines {
		fmt.Fprintf(&b, "- **%s**: %s\n", escapeMarkdown(line.Label), escapeMarkdown(line.Value))
	}
	if warning != "" {
		fmt.Fprintf(&b, "\n> %s\n", escapeMarkdown(warning))
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "\n", " ",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
