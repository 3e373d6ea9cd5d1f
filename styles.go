package main

import "github.com/charmbracelet/lipgloss"

var palette = struct {
	text, textMuted, border, selection lipgloss.AdaptiveColor
	accent, danger, warning, success   lipgloss.AdaptiveColor
}{
	text:      lipgloss.AdaptiveColor{Light: "#1f2328", Dark: "#e6edf3"},
	textMuted: lipgloss.AdaptiveColor{Light: "#656d76", Dark: "#8d96a0"},
	border:    lipgloss.AdaptiveColor{Light: "#d0d7de", Dark: "#30363d"},
	selection: lipgloss.AdaptiveColor{Light: "#ddf4ff", Dark: "#1f3a5f"},
	accent:    lipgloss.AdaptiveColor{Light: "#0969da", Dark: "#58a6ff"},
	danger:    lipgloss.AdaptiveColor{Light: "#cf222e", Dark: "#f85149"},
	warning:   lipgloss.AdaptiveColor{Light: "#9a6700", Dark: "#d29922"},
	success:   lipgloss.AdaptiveColor{Light: "#1a7f37", Dark: "#3fb950"},
}

type styles struct {
	app, topBar, columnTitle           lipgloss.Style
	panel, panelFocused                lipgloss.Style
	tabActive, tabInactive, tabsRow    lipgloss.Style
	queryBar, queryChip                lipgloss.Style
	statusBar, statusSeg, statusHint   lipgloss.Style
	noticeInfo, noticeSuccess          lipgloss.Style
	noticeWarning, noticeError         lipgloss.Style
	listItem, listSel                  lipgloss.Style
	cmdOverlay, cmdPrompt, cmdHint     lipgloss.Style
	fieldLabel, fieldFocused, fieldErr lipgloss.Style
	danger, muted                      lipgloss.Style
}

func newStyles() styles {
	base := lipgloss.NewStyle()
	panelBorder := lipgloss.NormalBorder()
	focusedBorder := lipgloss.DoubleBorder()

	return styles{
		app:           base,
		topBar:        base.Copy().Bold(true).Padding(0, 1),
		columnTitle:   base.Copy().Bold(true).Padding(0, 1),
		panel:         base.Copy().BorderStyle(panelBorder).BorderForeground(palette.border),
		panelFocused:  base.Copy().BorderStyle(focusedBorder).BorderForeground(palette.accent),
		tabActive:     base.Copy().Bold(true).Underline(true).Foreground(palette.accent).Padding(0, 1),
		tabInactive:   base.Copy().Foreground(palette.textMuted).Padding(0, 1),
		tabsRow:       base.Padding(0, 1),
		queryBar:      base.Copy().Foreground(palette.textMuted).Padding(0, 1),
		queryChip:     base.Copy().Foreground(palette.text).Background(palette.selection).Padding(0, 1).MarginRight(1),
		statusBar:     base.Padding(0, 1),
		statusSeg:     base.Padding(0, 1).MarginRight(1),
		statusHint:    base.Copy().Faint(true),
		noticeInfo:    base.Copy().Foreground(palette.accent),
		noticeSuccess: base.Copy().Foreground(palette.success),
		noticeWarning: base.Copy().Foreground(palette.warning),
		noticeError:   base.Copy().Bold(true).Foreground(palette.danger),
		listItem:      base.Padding(0, 1),
		listSel:       base.Copy().Padding(0, 1).Bold(true).Background(palette.selection),
		cmdOverlay:    base.Copy().Border(lipgloss.RoundedBorder()).BorderForeground(palette.border).Padding(1, 2),
		cmdPrompt:     base.Copy().Bold(true),
		cmdHint:       base.Copy().Faint(true),
		fieldLabel:    base.Copy().Foreground(palette.textMuted),
		fieldFocused:  base.Copy().Bold(true).Foreground(palette.accent),
		fieldErr:      base.Copy().Foreground(palette.danger),
		danger:        base.Copy().Bold(true).Foreground(palette.danger),
		muted:         base.Copy().Foreground(palette.textMuted),
	}
}
