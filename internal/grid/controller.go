// Package grid turns a REST collection endpoint into an interactive table:
// paging, sorting, filtering, search and resizable columns.
//
// Controller methods run on the bubbletea Update goroutine. Those that need
// the network return a tea.Cmd whose message must be fed back through
// Update; results that no longer match the latest query are dropped.
package grid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/bekirdag/admin-console/internal/gateway"
	"github.com/bekirdag/admin-console/internal/layout"
	"github.com/bekirdag/admin-console/internal/notify"
)

// State of the data set.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// API is the part of the gateway the grid reads through.
type API interface {
	List(ctx context.Context, resource string, query url.Values) (gateway.Page, error)
	Facet(ctx context.Context, resource, facet string) ([]string, error)
}

// Notifier shows user-facing messages.
type Notifier interface {
	Notify(message string, severity notify.Severity) notify.Notice
}

// LayoutStore persists column widths.
type LayoutStore interface {
	Get(tableID string) (layout.Widths, error)
	Set(tableID string, widths layout.Widths) error
}

// LoadedMsg carries a list result back to the controller that issued it.
type LoadedMsg struct {
	TableID string
	Seq     uint64
	Query   Query
	Page    gateway.Page
	Err     error
}

// OptionsMsg carries freshly loaded filter options.
type OptionsMsg struct {
	TableID string
	Seq     uint64
	Options map[string][]string
	Err     error
}

var ErrPanic = errors.New("grid: request panicked")

// Guard runs fn, turning a panic into the message built by fail.
func Guard(fn func() tea.Msg, fail func(error) tea.Msg) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = fail(fmt.Errorf("%w: %v", ErrPanic, r))
			}
		}()
		return fn()
	}
}

type resizeGesture struct {
	active bool
	index  int
	start  int
}

// Controller owns the state of one table.
type Controller struct {
	cfg      Config
	api      API
	notifier Notifier
	layouts  LayoutStore
	logger   *slog.Logger
	ctx      context.Context

	query   Query
	state   State
	settled State
	page    gateway.Page
	err     error
	seq     uint64

	options    map[string][]string
	optionsSeq uint64

	widths layout.Widths
	resize resizeGesture
}

// Option configures a Controller.
type Option func(*Controller)

func WithNotifier(n Notifier) Option { return func(c *Controller) { c.notifier = n } }

func WithLayoutStore(s LayoutStore) Option { return func(c *Controller) { c.layouts = s } }

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithContext sets the context request commands run under.
func WithContext(ctx context.Context) Option { return func(c *Controller) { c.ctx = ctx } }

// New validates cfg and returns an idle controller at page 1 with the
// configured default sort.
func New(cfg Config, api API, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if api == nil {
		return nil, errors.New("grid: api is required")
	}
	cfg = cfg.withDefaults()
	c := &Controller{
		cfg:     cfg,
		api:     api,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:     context.Background(),
		options: map[string][]string{},
		widths:  layout.Widths{},
		query: Query{
			Page:          1,
			Limit:         cfg.Limit,
			SortColumn:    cfg.DefaultSort,
			SortDirection: cfg.DefaultDirection,
			Filters:       map[string]string{},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("table", cfg.TableID)
	return c, nil
}

func (c *Controller) Config() Config { return c.cfg }

func (c *Controller) TableID() string { return c.cfg.TableID }

func (c *Controller) State() State { return c.state }

// Err is the failure of the last load, if it failed.
func (c *Controller) Err() error { return c.err }

// Query returns a snapshot of the query state.
func (c *Controller) Query() Query { return c.query.Clone() }

func (c *Controller) Rows() []gateway.Record { return c.page.Rows }

func (c *Controller) Total() int { return c.page.Total }

// Page returns the current page number and the last known page count.
func (c *Controller) Page() (page, totalPages int) {
	return c.query.Page, c.page.TotalPages
}

// Options returns the choices of the select filter bound to facet.
func (c *Controller) Options(facet string) []string {
	return c.options[facet]
}

// Init reads the stored layout and loads filter options and page 1.
func (c *Controller) Init() tea.Cmd {
	if c.layouts != nil {
		widths, err := c.layouts.Get(c.cfg.TableID)
		if err != nil {
			c.logger.Warn("reading column layout failed", "error", err)
		}
		c.widths = widths.Clone()
	}
	return tea.Batch(c.LoadOptions(), c.Load())
}

// Load requests the page described by the current query. Rows already on
// screen stay until the result arrives.
func (c *Controller) Load() tea.Cmd {
	c.seq++
	seq, q := c.seq, c.query.Clone()
	if c.state != Loading {
		c.settled = c.state
	}
	c.state = Loading

	api, ctx, resource, tableID := c.api, c.ctx, c.cfg.Resource, c.cfg.TableID
	c.logger.Debug("loading", "seq", seq, "page", q.Page, "sort", q.SortColumn, "order", q.SortDirection)
	return Guard(func() tea.Msg {
		page, err := api.List(ctx, resource, q.Values())
		return LoadedMsg{TableID: tableID, Seq: seq, Query: q, Page: page, Err: err}
	}, func(err error) tea.Msg {
		return LoadedMsg{TableID: tableID, Seq: seq, Query: q, Err: err}
	})
}

// LoadOptions fetches every facet in parallel. On any failure the old
// options are kept.
func (c *Controller) LoadOptions() tea.Cmd {
	facets := c.cfg.Facets()
	if len(facets) == 0 {
		return nil
	}
	c.optionsSeq++
	seq := c.optionsSeq
	api, ctx, resource, tableID := c.api, c.ctx, c.cfg.Resource, c.cfg.TableID
	return Guard(func() tea.Msg {
		var mu sync.Mutex
		out := make(map[string][]string, len(facets))
		g, gctx := errgroup.WithContext(ctx)
		for _, facet := range facets {
			g.Go(func() error {
				values, err := api.Facet(gctx, resource, facet)
				if err != nil {
					return err
				}
				mu.Lock()
				out[facet] = values
				mu.Unlock()
				return nil
			})
		}
		err := g.Wait()
		return OptionsMsg{TableID: tableID, Seq: seq, Options: out, Err: err}
	}, func(err error) tea.Msg {
		return OptionsMsg{TableID: tableID, Seq: seq, Err: err}
	})
}

// Refresh reloads the data and the filter options.
func (c *Controller) Refresh() tea.Cmd {
	return tea.Batch(c.Load(), c.LoadOptions())
}

// Update applies results addressed to this controller.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.TableID != c.cfg.TableID {
			return nil
		}
		c.applyLoaded(msg)
	case OptionsMsg:
		if msg.TableID != c.cfg.TableID || msg.Seq != c.optionsSeq {
			return nil
		}
		if msg.Err != nil {
			if !gateway.IsAuthExpired(msg.Err) {
				c.logger.Warn("loading filter options failed", "error", msg.Err)
				c.notifyf(notify.Error, gateway.UserMessage("Loading "+c.cfg.Title+" filters", msg.Err))
			}
			return nil
		}
		for facet, values := range msg.Options {
			c.options[facet] = values
		}
	}
	return nil
}

func (c *Controller) applyLoaded(msg LoadedMsg) {
	if msg.Seq != c.seq || !msg.Query.Equal(c.query) {
		c.logger.Debug("dropping stale result", "seq", msg.Seq, "latest", c.seq)
		return
	}
	if msg.Err != nil {
		if gateway.IsAuthExpired(msg.Err) {
			// the sign-in redirect already happened; leave the table as it was
			c.state = c.settled
			return
		}
		c.state = Failed
		c.err = msg.Err
		c.page.Rows = nil
		c.logger.Warn("load failed", "error", msg.Err)
		c.notifyf(notify.Error, gateway.UserMessage("Loading "+c.cfg.Title, msg.Err))
		return
	}
	c.page = msg.Page
	c.state = Loaded
	c.err = nil
}

func (c *Controller) notifyf(sev notify.Severity, message string) {
	if c.notifier != nil {
		c.notifier.Notify(message, sev)
	}
}

// SortBy flips the direction when column is already the sort column and
// otherwise sorts by it in the configured new-column direction.
func (c *Controller) SortBy(column string) tea.Cmd {
	col, ok := c.cfg.Column(column)
	if !ok || !col.Sortable {
		return nil
	}
	if c.query.SortColumn == column {
		c.query.SortDirection = c.query.SortDirection.Flip()
	} else {
		c.query.SortColumn = column
		c.query.SortDirection = c.cfg.NewColumnDirection
	}
	c.query.Page = 1
	return c.Load()
}

// ApplyFilters replaces the filters. Blank values are dropped and a date
// range only applies when both bounds are given.
func (c *Controller) ApplyFilters(values map[string]string) tea.Cmd {
	c.query.Filters = cleanFilters(values, c.cfg.DateRange)
	c.query.Page = 1
	return c.Load()
}

// ClearFilters removes all filters and the search term.
func (c *Controller) ClearFilters() tea.Cmd {
	c.query.Filters = map[string]string{}
	c.query.Search = ""
	c.query.Page = 1
	return c.Load()
}

// Search sets the search term; a blank term removes it.
func (c *Controller) Search(term string) tea.Cmd {
	c.query.Search = strings.TrimSpace(term)
	c.query.Page = 1
	return c.Load()
}

// SetLimit changes the page size.
func (c *Controller) SetLimit(limit int) tea.Cmd {
	if limit < 1 || limit == c.query.Limit {
		return nil
	}
	c.query.Limit = limit
	c.query.Page = 1
	return c.Load()
}

// Paginate moves by delta pages. Targets outside [1, totalPages] are
// ignored.
func (c *Controller) Paginate(delta int) tea.Cmd {
	target := c.query.Page + delta
	if delta == 0 || target < 1 || target > c.page.TotalPages {
		return nil
	}
	c.query.Page = target
	return c.Load()
}

// Width is the rendered width of column index in pixels.
func (c *Controller) Width(index int) int {
	if w, ok := c.widths[index]; ok {
		return w
	}
	if index >= 0 && index < len(c.cfg.Columns) {
		return c.cfg.Columns[index].Width
	}
	return 0
}

// Widths returns the manually resized columns.
func (c *Controller) Widths() layout.Widths {
	return c.widths.Clone()
}

// BeginResize starts a drag on column index.
func (c *Controller) BeginResize(index int) {
	if index < 0 || index >= len(c.cfg.Columns) {
		return
	}
	start := c.Width(index)
	if start < MinColumnWidth {
		start = MinColumnWidth
	}
	c.resize = resizeGesture{active: true, index: index, start: start}
}

// Resizing reports whether a drag is in progress and on which column.
func (c *Controller) Resizing() (int, bool) {
	return c.resize.index, c.resize.active
}

// ResizeColumn sets column index to its width at gesture start plus
// deltaX, never narrower than MinColumnWidth.
func (c *Controller) ResizeColumn(index, deltaX int) {
	if !c.resize.active || c.resize.index != index {
		c.BeginResize(index)
		if !c.resize.active {
			return
		}
	}
	w := c.resize.start + deltaX
	if w < MinColumnWidth {
		w = MinColumnWidth
	}
	c.widths[index] = w
}

// EndResize finishes the drag and persists the width map.
func (c *Controller) EndResize() {
	if !c.resize.active {
		return
	}
	c.resize = resizeGesture{}
	if c.layouts == nil {
		return
	}
	if err := c.layouts.Set(c.cfg.TableID, c.widths.Clone()); err != nil {
		c.logger.Warn("saving column layout failed", "error", err)
		c.notifyf(notify.Warning, "Column widths could not be saved")
	}
}

// ResetWidths drops every manual width of this table.
func (c *Controller) ResetWidths() {
	c.widths = layout.Widths{}
	if c.layouts != nil {
		if err := c.layouts.Set(c.cfg.TableID, layout.Widths{}); err != nil {
			c.logger.Warn("resetting column layout failed", "error", err)
		}
	}
}
