package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/bekirdag/admin-console/internal/gateway"
	"github.com/bekirdag/admin-console/internal/grid"
)

const (
	// pxPerCell converts stored pixel widths to terminal cells.
	pxPerCell       = 8
	defaultColumnPx = 120
	// cellPadding is the horizontal padding the header and cell styles add.
	cellPadding = 2
	// headerGrab is how far from a column edge a press starts a resize.
	headerGrab = 1
)

func pxToCells(px int) int {
	if px <= 0 {
		px = defaultColumnPx
	}
	cells := (px + pxPerCell/2) / pxPerCell
	if cells < 1 {
		cells = 1
	}
	return cells
}

// gridTable renders a grid controller through a bubbles table.
type gridTable struct {
	title     string
	ctrl      *grid.Controller
	table     table.Model
	width     int
	height    int
	colCursor int
	firstCol  int
	dragX     int
}

func newGridTable(title string, ctrl *grid.Controller) *gridTable {
	model := table.New(
		table.WithFocused(true),
		table.WithHeight(10),
	)
	tStyles := table.DefaultStyles()
	tStyles.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(palette.textMuted).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(palette.border).
		BorderBottom(true).
		Padding(0, 1)
	tStyles.Cell = lipgloss.NewStyle().
		Padding(0, 1)
	tStyles.Selected = lipgloss.NewStyle().
		Foreground(palette.text).
		Background(palette.selection)
	model.SetStyles(tStyles)

	t := &gridTable{title: title, ctrl: ctrl, table: model}
	t.Sync()
	return t
}

// columnCells returns the rendered cell width of every column.
func (t *gridTable) columnCells() []int {
	cols := t.ctrl.Config().Columns
	out := make([]int, len(cols))
	for i := range cols {
		out[i] = pxToCells(t.ctrl.Width(i))
	}
	return out
}

// visibleRange returns the columns [first, end) that fit the panel.
func (t *gridTable) visibleRange() (int, int) {
	cells := t.columnCells()
	if t.colCursor < t.firstCol {
		t.firstCol = t.colCursor
	}
	avail := t.width - 2
	for {
		used, end := 0, t.firstCol
		for end < len(cells) {
			w := cells[end] + cellPadding
			if used+w > avail && end > t.firstCol {
				break
			}
			used += w
			end++
		}
		if t.colCursor < end || t.firstCol >= t.colCursor {
			return t.firstCol, end
		}
		t.firstCol++
	}
}

// Sync rebuilds headers and rows from the controller.
func (t *gridTable) Sync() {
	cfg := t.ctrl.Config()
	q := t.ctrl.Query()
	cells := t.columnCells()
	first, end := t.visibleRange()

	cols := make([]table.Column, 0, end-first)
	for i := first; i < end; i++ {
		cols = append(cols, table.Column{
			Title: headerLabel(cfg.Columns[i], q, i == t.colCursor),
			Width: cells[i],
		})
	}
	records := t.ctrl.Rows()
	rows := make([]table.Row, len(records))
	for r, rec := range records {
		row := make(table.Row, 0, len(cols))
		for i := first; i < end; i++ {
			row = append(row, fitCell(grid.FormatCell(cfg.Columns[i], rec), cells[i]))
		}
		rows[r] = row
	}
	cursor := t.table.Cursor()
	// columns before rows so the table never renders a row wider than its header
	t.table.SetRows(nil)
	t.table.SetColumns(cols)
	t.table.SetRows(rows)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	t.table.SetCursor(cursor)
}

func headerLabel(col grid.Column, q grid.Query, cursor bool) string {
	label := grid.HeaderTitle(col)
	if q.SortColumn == col.Key {
		if q.SortDirection == grid.Asc {
			label += " ▲"
		} else {
			label += " ▼"
		}
	}
	if cursor {
		label = "›" + label
	}
	return label
}

func fitCell(s string, cells int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) <= cells {
		return s
	}
	return runewidth.Truncate(s, cells, "…")
}

func (t *gridTable) SetSize(width, height int) {
	if width < 20 {
		width = 20
	}
	if height < 6 {
		height = 6
	}
	t.width = width
	t.height = height
	// panel border, title line, header and its rule
	t.table.SetHeight(height - 5)
	t.table.SetWidth(width - 2)
	t.Sync()
}

func (t *gridTable) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	t.table, cmd = t.table.Update(msg)
	return cmd
}

func (t *gridTable) View(s styles, focused bool) string {
	body := lipgloss.JoinVertical(lipgloss.Left, s.columnTitle.Render(t.caption()), t.table.View())
	if state := t.ctrl.State(); len(t.ctrl.Rows()) == 0 {
		var note string
		switch state {
		case grid.Loading, grid.Idle:
			note = "Loading…"
		case grid.Failed:
			note = "Could not load " + t.title
		default:
			note = "No " + t.title + " match"
		}
		body = lipgloss.JoinVertical(lipgloss.Left, body, s.muted.Padding(0, 1).Render(note))
	}
	panel := s.panel
	if focused {
		panel = s.panelFocused
	}
	return panel.Width(t.width - 2).Render(body)
}

// caption is the title line: resource, totals and paging.
func (t *gridTable) caption() string {
	page, pages := t.ctrl.Page()
	if pages < 1 {
		pages = 1
	}
	q := t.ctrl.Query()
	return fmt.Sprintf("%s · %s total · page %d/%d · %d per page",
		t.title, humanize.Comma(int64(t.ctrl.Total())), page, pages, q.Limit)
}

func (t *gridTable) Title() string { return t.title }

func (t *gridTable) FocusValue() string {
	rec, ok := t.Selected()
	if !ok {
		return ""
	}
	return rec.ID(t.ctrl.Config().IDKey)
}

// Selected returns the record under the row cursor.
func (t *gridTable) Selected() (gateway.Record, bool) {
	rows := t.ctrl.Rows()
	idx := t.table.Cursor()
	if idx < 0 || idx >= len(rows) {
		return nil, false
	}
	return rows[idx], true
}

// MoveColumn moves the column cursor used by keyboard sort and resize.
func (t *gridTable) MoveColumn(delta int) {
	n := len(t.ctrl.Config().Columns)
	if n == 0 {
		return
	}
	t.colCursor = (t.colCursor + delta + n) % n
	t.Sync()
}

func (t *gridTable) CursorColumn() (int, grid.Column) {
	return t.colCursor, t.ctrl.Config().Columns[t.colCursor]
}

// HitHeader maps x, relative to the panel content, to a column. border
// reports a press on the column's right edge.
func (t *gridTable) HitHeader(x int) (index int, border bool, ok bool) {
	cells := t.columnCells()
	first, end := t.visibleRange()
	left := 0
	for i := first; i < end; i++ {
		right := left + cells[i] + cellPadding
		if x >= right-headerGrab && x <= right+headerGrab-1 {
			return i, true, true
		}
		if x >= left && x < right {
			return i, false, true
		}
		left = right
	}
	return 0, false, false
}

// HandleMouse handles a mouse event at (x, y) relative to the panel
// content; y == 1 is the header row.
func (t *gridTable) HandleMouse(x, y int, msg tea.MouseMsg) tea.Cmd {
	switch msg.Type {
	case tea.MouseWheelUp:
		t.table.MoveUp(1)
	case tea.MouseWheelDown:
		t.table.MoveDown(1)
	case tea.MouseLeft:
		if idx, active := t.ctrl.Resizing(); active {
			t.ctrl.ResizeColumn(idx, (x-t.dragX)*pxPerCell)
			t.Sync()
			return nil
		}
		if y != 1 {
			return nil
		}
		idx, border, ok := t.HitHeader(x)
		if !ok {
			return nil
		}
		if border {
			t.dragX = x
			t.ctrl.BeginResize(idx)
			return nil
		}
		t.colCursor = idx
		cmd := t.ctrl.SortBy(t.ctrl.Config().Columns[idx].Key)
		t.Sync()
		return cmd
	case tea.MouseRelease:
		if _, active := t.ctrl.Resizing(); active {
			t.ctrl.EndResize()
			t.Sync()
		}
	}
	return nil
}

// ResizeCursor widens or narrows the cursor column by cells.
func (t *gridTable) ResizeCursor(cells int) {
	t.ctrl.BeginResize(t.colCursor)
	t.ctrl.ResizeColumn(t.colCursor, cells*pxPerCell)
	t.ctrl.EndResize()
	t.Sync()
}
