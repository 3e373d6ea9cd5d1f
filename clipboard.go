package main

import (
	"encoding/json"

	"github.com/atotto/clipboard"

	"github.com/bekirdag/admin-console/internal/notify"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

func (m *model) copySelectedID() {
	p := m.page()
	rec, ok := p.table.Selected()
	if !ok {
		m.notices.Notify("Select a row first", notify.Info)
		return
	}
	id := rec.ID(p.grid.Config().IDKey)
	if id == "" {
		m.notices.Notify("The selected row has no id", notify.Warning)
		return
	}
	if err := writeClipboard(id); err != nil {
		m.logger.Warn("copy id failed", "error", err)
		m.notices.Notify("Clipboard unavailable", notify.Warning)
		return
	}
	m.notices.Notify("Copied id "+id, notify.Success)
}

func (m *model) copySelectedRow() {
	rec, ok := m.page().table.Selected()
	if !ok {
		m.notices.Notify("Select a row first", notify.Info)
		return
	}
	encoded, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		m.notices.Notify("This row cannot be copied", notify.Error)
		return
	}
	if err := writeClipboard(string(encoded)); err != nil {
		m.logger.Warn("copy row failed", "error", err)
		m.notices.Notify("Clipboard unavailable", notify.Warning)
		return
	}
	m.notices.Notify("Row copied as JSON", notify.Success)
}
