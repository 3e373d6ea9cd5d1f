package grid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekirdag/admin-console/internal/gateway"
	"github.com/bekirdag/admin-console/internal/layout"
	"github.com/bekirdag/admin-console/internal/localstore"
	"github.com/bekirdag/admin-console/internal/notify"
	"github.com/bekirdag/admin-console/internal/session"
)

type fakeAPI struct {
	mu          sync.Mutex
	lists       []url.Values
	facets      []string
	totalPages  int
	listErr     error
	facetErr    error
	facetData   map[string][]string
	panicOnList bool
}

func (f *fakeAPI) List(_ context.Context, _ string, q url.Values) (gateway.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnList {
		panic("boom")
	}
	f.lists = append(f.lists, q)
	if f.listErr != nil {
		return gateway.Page{}, f.listErr
	}
	page, _ := strconv.Atoi(q.Get("page"))
	return gateway.Page{
		Rows:       []gateway.Record{{"id": fmt.Sprintf("row-%d", page)}},
		Page:       page,
		TotalPages: f.totalPages,
		Total:      f.totalPages * 50,
	}, nil
}

func (f *fakeAPI) Facet(_ context.Context, _ string, facet string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.facets = append(f.facets, facet)
	if f.facetErr != nil {
		return nil, f.facetErr
	}
	return f.facetData[facet], nil
}

func (f *fakeAPI) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lists)
}

func (f *fakeAPI) lastList() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[len(f.lists)-1]
}

type recordingNotifier struct {
	messages   []string
	severities []notify.Severity
}

func (r *recordingNotifier) Notify(message string, severity notify.Severity) notify.Notice {
	r.messages = append(r.messages, message)
	r.severities = append(r.severities, severity)
	return notify.Notice{Message: message, Severity: severity}
}

func contestsConfig() Config {
	return Config{
		TableID:  "contests",
		Title:    "Contests",
		Resource: "/api/contests",
		Columns: []Column{
			{Key: "id", Title: "ID", Width: 60, Kind: Number, Sortable: true},
			{Key: "name", Title: "Name", Width: 200, Sortable: true},
			{Key: "place", Title: "Place", Width: 120, Sortable: true},
			{Key: "published", Title: "Published", Width: 80, Kind: Bool},
		},
		Filters: []Filter{
			{Key: "place", Label: "Place", Facet: "places"},
			{Key: "startDate", Label: "From", Kind: TextFilter},
			{Key: "endDate", Label: "To", Kind: TextFilter},
		},
		DateRange: &DateRange{StartKey: "startDate", EndKey: "endDate"},
	}
}

// run executes cmd synchronously, feeding every resulting message back
// into the controller.
func run(c *Controller, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			run(c, sub)
		}
		return
	}
	run(c, c.Update(msg))
}

func newTestController(t *testing.T, api *fakeAPI, opts ...Option) (*Controller, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	c, err := New(contestsConfig(), api, append([]Option{WithNotifier(n)}, opts...)...)
	require.NoError(t, err)
	return c, n
}

// atPage loads the controller and walks it to page.
func atPage(t *testing.T, c *Controller, page int) {
	t.Helper()
	run(c, c.Load())
	for p, _ := c.Page(); p < page; p, _ = c.Page() {
		run(c, c.Paginate(1))
	}
	p, _ := c.Page()
	require.Equal(t, page, p)
}

func TestNew_Defaults(t *testing.T) {
	c, _ := newTestController(t, &fakeAPI{})
	q := c.Query()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, "id", q.SortColumn)
	assert.Equal(t, Desc, q.SortDirection)
	assert.Equal(t, Idle, c.State())

	_, err := New(Config{Resource: "/x", Columns: []Column{{Key: "id"}}}, &fakeAPI{})
	assert.ErrorIs(t, err, ErrNoTableID)
}

func TestInit_LoadsOptionsAndFirstPage(t *testing.T) {
	api := &fakeAPI{totalPages: 2, facetData: map[string][]string{"places": {"Osaka", "Tokyo"}}}
	c, n := newTestController(t, api)

	run(c, c.Init())

	assert.Equal(t, Loaded, c.State())
	assert.Equal(t, []string{"Osaka", "Tokyo"}, c.Options("places"))
	assert.Equal(t, "1", api.lastList().Get("page"))
	assert.Equal(t, "50", api.lastList().Get("limit"))
	assert.Equal(t, "id", api.lastList().Get("sortBy"))
	assert.Equal(t, "desc", api.lastList().Get("sortOrder"))
	assert.Empty(t, n.messages)
}

func TestTransitionsResetPage(t *testing.T) {
	tests := []struct {
		name string
		op   func(c *Controller) tea.Cmd
	}{
		{"sort", func(c *Controller) tea.Cmd { return c.SortBy("name") }},
		{"filter", func(c *Controller) tea.Cmd { return c.ApplyFilters(map[string]string{"place": "Tokyo"}) }},
		{"clear", func(c *Controller) tea.Cmd { return c.ClearFilters() }},
		{"search", func(c *Controller) tea.Cmd { return c.Search("cup") }},
		{"search clear", func(c *Controller) tea.Cmd { return c.Search("  ") }},
		{"limit", func(c *Controller) tea.Cmd { return c.SetLimit(20) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{totalPages: 5}
			c, _ := newTestController(t, api)
			atPage(t, c, 3)

			run(c, tt.op(c))

			p, _ := c.Page()
			assert.Equal(t, 1, p)
			assert.Equal(t, "1", api.lastList().Get("page"))
		})
	}
}

func TestPaginate_KeepsQueryAndMoves(t *testing.T) {
	api := &fakeAPI{totalPages: 5}
	c, _ := newTestController(t, api)
	run(c, c.ApplyFilters(map[string]string{"place": "Tokyo"}))
	run(c, c.Paginate(1))

	p, total := c.Page()
	assert.Equal(t, 2, p)
	assert.Equal(t, 5, total)
	assert.Equal(t, "Tokyo", api.lastList().Get("place"))
}

func TestPaginate_ClampsAtLastPage(t *testing.T) {
	api := &fakeAPI{totalPages: 5}
	c, _ := newTestController(t, api)
	atPage(t, c, 4)
	before := api.listCount()

	run(c, c.Paginate(1))
	run(c, c.Paginate(1))

	p, _ := c.Page()
	assert.Equal(t, 5, p)
	assert.Equal(t, before+1, api.listCount(), "only the in-range move loads")
}

func TestPaginate_OutOfRangeIsNoop(t *testing.T) {
	api := &fakeAPI{totalPages: 5}
	c, _ := newTestController(t, api)
	atPage(t, c, 3)
	before := api.listCount()

	assert.Nil(t, c.Paginate(3))
	assert.Nil(t, c.Paginate(-3))
	assert.Nil(t, c.Paginate(0))
	p, _ := c.Page()
	assert.Equal(t, 3, p)
	assert.Equal(t, before, api.listCount())
}

func TestPaginate_BeforeFirstLoadIsNoop(t *testing.T) {
	c, _ := newTestController(t, &fakeAPI{totalPages: 5})
	assert.Nil(t, c.Paginate(1))
}

func TestSortBy_FlipsAndReturns(t *testing.T) {
	api := &fakeAPI{totalPages: 1}
	c, _ := newTestController(t, api)

	run(c, c.SortBy("name"))
	assert.Equal(t, Asc, c.Query().SortDirection, "new column takes the configured direction")

	run(c, c.SortBy("name"))
	assert.Equal(t, Desc, c.Query().SortDirection)

	run(c, c.SortBy("name"))
	assert.Equal(t, Asc, c.Query().SortDirection)
	assert.Equal(t, "name", api.lastList().Get("sortBy"))
	assert.Equal(t, "asc", api.lastList().Get("sortOrder"))

	run(c, c.SortBy("id"))
	assert.Equal(t, "id", c.Query().SortColumn)
	assert.Equal(t, Asc, c.Query().SortDirection)
}

func TestSortBy_IgnoresUnsortableColumns(t *testing.T) {
	c, _ := newTestController(t, &fakeAPI{})
	assert.Nil(t, c.SortBy("published"))
	assert.Nil(t, c.SortBy("missing"))
	assert.Equal(t, "id", c.Query().SortColumn)
}

func TestApplyFilters_DropsEmptyAndLoneDateBound(t *testing.T) {
	api := &fakeAPI{totalPages: 1}
	c, _ := newTestController(t, api)

	run(c, c.ApplyFilters(map[string]string{"place": "Tokyo", "startDate": "2024-01-01", "endDate": ""}))

	assert.Equal(t, map[string]string{"place": "Tokyo"}, c.Query().Filters)
	sent := api.lastList()
	assert.Equal(t, "Tokyo", sent.Get("place"))
	assert.False(t, sent.Has("startDate"))
	assert.False(t, sent.Has("endDate"))

	run(c, c.ApplyFilters(map[string]string{"endDate": "2024-02-01"}))
	assert.Empty(t, c.Query().Filters)

	run(c, c.ApplyFilters(map[string]string{"startDate": "2024-01-01", "endDate": "2024-02-01"}))
	assert.Equal(t, map[string]string{"startDate": "2024-01-01", "endDate": "2024-02-01"}, c.Query().Filters)
}

func TestApplyFilters_ReservedKeysCannotOverrideQuery(t *testing.T) {
	api := &fakeAPI{totalPages: 3}
	c, _ := newTestController(t, api)

	run(c, c.ApplyFilters(map[string]string{"page": "9", "limit": "1000", "sortBy": "fee", "sortOrder": "asc", "search": "x", "place": "Osaka"}))

	assert.Equal(t, map[string]string{"place": "Osaka"}, c.Query().Filters)
	sent := api.lastList()
	assert.Equal(t, "1", sent.Get("page"))
	assert.Equal(t, "50", sent.Get("limit"))
	assert.Equal(t, "id", sent.Get("sortBy"))
	assert.Equal(t, "desc", sent.Get("sortOrder"))
	assert.False(t, sent.Has("search"))
}

func TestNew_RejectsReservedFilterKey(t *testing.T) {
	cfg := contestsConfig()
	cfg.Filters = append(cfg.Filters, Filter{Key: "sortBy", Label: "Sort"})
	_, err := New(cfg, &fakeAPI{})
	assert.ErrorIs(t, err, ErrReservedFilter)
}

func TestSearch_BlankRemovesParameter(t *testing.T) {
	api := &fakeAPI{totalPages: 1}
	c, _ := newTestController(t, api)

	run(c, c.Search("  spring "))
	assert.Equal(t, "spring", api.lastList().Get("search"))

	run(c, c.Search(" "))
	assert.False(t, api.lastList().Has("search"))
}

func TestClearFilters(t *testing.T) {
	api := &fakeAPI{totalPages: 1}
	c, _ := newTestController(t, api)
	run(c, c.ApplyFilters(map[string]string{"place": "Tokyo"}))
	run(c, c.Search("cup"))

	run(c, c.ClearFilters())

	q := c.Query()
	assert.Empty(t, q.Filters)
	assert.Empty(t, q.Search)
	assert.False(t, api.lastList().Has("place"))
}

func TestStaleResponseIsDropped(t *testing.T) {
	api := &fakeAPI{totalPages: 5}
	c, _ := newTestController(t, api)

	firstMsg := c.Load()().(LoadedMsg)

	newer := c.SortBy("name")
	newerMsg := newer().(LoadedMsg)

	// the newer result lands first, the older one afterwards
	c.Update(newerMsg)
	c.Update(firstMsg)

	assert.Equal(t, Loaded, c.State())
	assert.Equal(t, "name", c.Query().SortColumn)
	require.Len(t, c.Rows(), 1)
	assert.Equal(t, newerMsg.Page.Rows, c.Rows())
}

func TestStaleResponse_SameQueryOlderSeq(t *testing.T) {
	api := &fakeAPI{totalPages: 2}
	c, _ := newTestController(t, api)

	old := c.Load()().(LoadedMsg)
	latest := c.Load()
	assert.Equal(t, Loading, c.State())

	c.Update(old)
	assert.Equal(t, Loading, c.State(), "older sequence is ignored even with an equal query")

	run(c, latest)
	assert.Equal(t, Loaded, c.State())
}

func TestLoadFailure_NotifiesOnceAndKeepsQuery(t *testing.T) {
	api := &fakeAPI{totalPages: 3}
	c, n := newTestController(t, api)
	run(c, c.ApplyFilters(map[string]string{"place": "Tokyo"}))
	before := c.Query()

	api.listErr = &gateway.RequestError{Kind: gateway.ServerError, Status: 500, Messages: []string{"database unavailable"}}
	run(c, c.Search("cup"))

	assert.Equal(t, Failed, c.State())
	assert.Empty(t, c.Rows())
	require.Len(t, n.messages, 1)
	assert.Equal(t, "database unavailable", n.messages[0])
	assert.Equal(t, notify.Error, n.severities[0])
	assert.Equal(t, before.Filters, c.Query().Filters)
	assert.Equal(t, "cup", c.Query().Search)

	api.listErr = nil
	run(c, c.Load())
	assert.Equal(t, Loaded, c.State())
	assert.NoError(t, c.Err())
}

func TestPanicInRequestIsReported(t *testing.T) {
	api := &fakeAPI{panicOnList: true}
	c, n := newTestController(t, api)

	run(c, c.Load())

	assert.Equal(t, Failed, c.State())
	assert.ErrorIs(t, c.Err(), ErrPanic)
	require.Len(t, n.messages, 1)
}

func TestUnauthorizedMidLoad(t *testing.T) {
	var authorized atomic.Bool
	authorized.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"success":true,"data":[{"id":1}],"page":1,"totalPages":2,"total":60}`)
	}))
	defer srv.Close()

	store := session.NewStore(nil)
	require.NoError(t, store.Set("tok"))
	var redirects []string
	gw := gateway.New(srv.URL, store, gateway.WithSignInRedirect("/login", func(p string) {
		redirects = append(redirects, p)
	}))

	n := &recordingNotifier{}
	c, err := New(contestsConfig(), gw, WithNotifier(n))
	require.NoError(t, err)
	run(c, c.Load())
	require.Equal(t, Loaded, c.State())
	rows := c.Rows()

	authorized.Store(false)
	run(c, c.Paginate(1))

	assert.Empty(t, store.Token(), "credential cleared")
	assert.Equal(t, []string{"/login"}, redirects)
	assert.Equal(t, Loaded, c.State(), "in-flight result discarded")
	assert.Equal(t, rows, c.Rows())
	assert.Empty(t, n.messages)
}

func TestLoadOptions_FailureKeepsOldOptions(t *testing.T) {
	api := &fakeAPI{facetData: map[string][]string{"places": {"Tokyo"}}}
	c, n := newTestController(t, api)
	run(c, c.LoadOptions())
	require.Equal(t, []string{"Tokyo"}, c.Options("places"))

	api.facetErr = errors.New("offline")
	run(c, c.LoadOptions())

	assert.Equal(t, []string{"Tokyo"}, c.Options("places"))
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "offline")
}

func TestRefresh_ReloadsDataAndOptions(t *testing.T) {
	api := &fakeAPI{totalPages: 1, facetData: map[string][]string{"places": {"Tokyo"}}}
	c, _ := newTestController(t, api)

	run(c, c.Refresh())

	assert.Equal(t, 1, api.listCount())
	assert.Equal(t, []string{"places"}, api.facets)
}

func TestResize_ClampsAndPersistsOnEnd(t *testing.T) {
	kv := localstore.NewMemory()
	layouts := layout.New(kv)
	api := &fakeAPI{totalPages: 1}
	c, _ := newTestController(t, api, WithLayoutStore(layouts))
	run(c, c.Init())
	loads := api.listCount()

	c.BeginResize(1)
	c.ResizeColumn(1, -400)
	assert.Equal(t, MinColumnWidth, c.Width(1))

	stored, err := layouts.Get("contests")
	require.NoError(t, err)
	assert.Empty(t, stored, "nothing persisted mid-gesture")

	c.EndResize()
	stored, err = layouts.Get("contests")
	require.NoError(t, err)
	assert.Equal(t, layout.Widths{1: MinColumnWidth}, stored)
	assert.Equal(t, loads, api.listCount(), "resizing never reloads")

	c.BeginResize(2)
	c.ResizeColumn(2, 30)
	c.ResizeColumn(2, 45)
	c.EndResize()
	stored, _ = layouts.Get("contests")
	assert.Equal(t, layout.Widths{1: MinColumnWidth, 2: 165}, stored)
}

func TestInit_ReadsStoredLayout(t *testing.T) {
	layouts := layout.New(localstore.NewMemory())
	require.NoError(t, layouts.Set("contests", layout.Widths{0: 90}))

	c, _ := newTestController(t, &fakeAPI{totalPages: 1}, WithLayoutStore(layouts))
	run(c, c.Init())

	assert.Equal(t, 90, c.Width(0))
	assert.Equal(t, 200, c.Width(1), "unresized columns use the configured width")
	assert.Equal(t, 0, c.Width(9))
}

func TestResetWidths(t *testing.T) {
	layouts := layout.New(localstore.NewMemory())
	c, _ := newTestController(t, &fakeAPI{}, WithLayoutStore(layouts))
	c.ResizeColumn(0, 100)
	c.EndResize()
	c.ResetWidths()

	assert.Equal(t, 60, c.Width(0))
	stored, _ := layouts.Get("contests")
	assert.Empty(t, stored)
}

func TestUpdate_IgnoresOtherTables(t *testing.T) {
	c, _ := newTestController(t, &fakeAPI{})
	c.Load()
	c.Update(LoadedMsg{TableID: "users", Seq: 1, Query: c.Query()})
	assert.Equal(t, Loading, c.State())
}
