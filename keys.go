package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	quit         key.Binding
	nextTab      key.Binding
	prevTab      key.Binding
	prevPage     key.Binding
	nextPage     key.Binding
	prevColumn   key.Binding
	nextColumn   key.Binding
	sort         key.Binding
	search       key.Binding
	filters      key.Binding
	clearFilters key.Binding
	create       key.Binding
	edit         key.Binding
	remove       key.Binding
	restore      key.Binding
	purge        key.Binding
	refresh      key.Binding
	limit        key.Binding
	widen        key.Binding
	narrow       key.Binding
	resetWidths  key.Binding
	detail       key.Binding
	copyID       key.Binding
	copyRow      key.Binding
	openPalette  key.Binding
	theme        key.Binding
	signOut      key.Binding
	dismiss      key.Binding
	toggleHelp   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		nextTab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next page")),
		prevTab:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev page")),
		prevPage:     key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev rows")),
		nextPage:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next rows")),
		prevColumn:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev column")),
		nextColumn:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next column")),
		sort:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		filters:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filters")),
		clearFilters: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),
		create:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		edit:         key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")),
		remove:       key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		restore:      key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "restore")),
		purge:        key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete forever")),
		refresh:      key.NewBinding(key.WithKeys("r", "f5"), key.WithHelp("r", "refresh")),
		limit:        key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "rows per page")),
		widen:        key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "widen column")),
		narrow:       key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "narrow column")),
		resetWidths:  key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset widths")),
		detail:       key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "details")),
		copyID:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		copyRow:      key.NewBinding(key.WithKeys("Y"), key.WithHelp("Y", "copy row")),
		openPalette:  key.NewBinding(key.WithKeys(":", "ctrl+p"), key.WithHelp(":", "command palette")),
		theme:        key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		signOut:      key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "sign out")),
		dismiss:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		toggleHelp:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.nextTab,
		k.prevPage,
		k.nextPage,
		k.sort,
		k.search,
		k.filters,
		k.create,
		k.edit,
		k.openPalette,
		k.toggleHelp,
		k.quit,
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.nextTab, k.prevTab, k.prevPage, k.nextPage, k.limit, k.refresh},
		{k.prevColumn, k.nextColumn, k.sort, k.widen, k.narrow, k.resetWidths},
		{k.search, k.filters, k.clearFilters, k.detail, k.copyID, k.copyRow},
		{k.create, k.edit, k.remove, k.restore, k.purge},
		{k.openPalette, k.theme, k.signOut, k.dismiss, k.toggleHelp, k.quit},
	}
}
