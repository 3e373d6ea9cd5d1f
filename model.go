package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/bekirdag/admin-console/internal/dialog"
	"github.com/bekirdag/admin-console/internal/gateway"
	"github.com/bekirdag/admin-console/internal/grid"
	"github.com/bekirdag/admin-console/internal/layout"
	"github.com/bekirdag/admin-console/internal/notify"
	"github.com/bekirdag/admin-console/internal/resources"
	"github.com/bekirdag/admin-console/internal/session"
)

type screen int

const (
	screenSignIn screen = iota
	screenGrid
)

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputFilters
	inputPalette
	inputDetail
)

// chromeTop is the number of lines above the table panel: title bar,
// tabs and the query bar.
const chromeTop = 3

var pageLimits = []int{10, 20, 50, 100}

type authCheckedMsg struct {
	status gateway.AuthStatus
	err    error
}

type signInRequiredMsg struct {
	path string
}

type signedOutMsg struct {
	err error
}

type noticeExpiredMsg struct {
	seq uint64
}

// resourcePage is one tab: a grid, its dialog and their views.
type resourcePage struct {
	res     resources.Resource
	grid    *grid.Controller
	dialog  *dialog.Controller
	table   *gridTable
	form    *dialogForm
	started bool
}

// deps are the services the model drives.
type deps struct {
	gateway   *gateway.Gateway
	session   *session.Store
	layouts   *layout.Store
	notices   *notify.Channel
	activity  *activityLog
	logger    *slog.Logger
	resources []resources.Resource
	pageSize  int
	theme     markdownTheme
	ui        *uiConfig
	uiPath    string
	ctx       context.Context
}

type model struct {
	width  int
	height int

	styles  styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	docs    *docRenderer

	gateway  *gateway.Gateway
	session  *session.Store
	notices  *notify.Channel
	activity *activityLog
	logger   *slog.Logger
	ctx      context.Context
	ui       *uiConfig
	uiPath   string

	pages  []*resourcePage
	active int
	jobs   *jobManager

	screen     screen
	mode       inputMode
	search     textinput.Model
	filters    *filterForm
	palette    *commandPalette
	detail     viewport.Model
	signIn     textinput.Model
	signInBusy bool
	signInErr  string
	userName   string

	noticeSeq uint64
}

func newModel(d deps) (*model, error) {
	if d.ctx == nil {
		d.ctx = context.Background()
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.ui == nil {
		d.ui = &uiConfig{}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"
	search.CharLimit = 128

	signIn := textinput.New()
	signIn.Prompt = "token › "
	signIn.Placeholder = "paste a bearer token"
	signIn.EchoMode = textinput.EchoPassword
	signIn.EchoCharacter = '•'
	signIn.CharLimit = 4096

	m := &model{
		styles:   newStyles(),
		keys:     newKeyMap(),
		help:     help.New(),
		spinner:  sp,
		docs:     newDocRenderer(d.theme),
		gateway:  d.gateway,
		session:  d.session,
		notices:  d.notices,
		activity: d.activity,
		logger:   d.logger,
		ctx:      d.ctx,
		ui:       d.ui,
		uiPath:   d.uiPath,
		jobs:     newJobManager(d.ctx, d.gateway.RunJob),
		search:   search,
		palette:  newCommandPalette(),
		detail:   viewport.New(80, 20),
		signIn:   signIn,
	}

	for _, r := range d.resources {
		cfg := r.Grid
		if d.pageSize > 0 {
			cfg.Limit = d.pageSize
		}
		g, err := grid.New(cfg, d.gateway,
			grid.WithNotifier(d.notices),
			grid.WithLayoutStore(d.layouts),
			grid.WithLogger(d.logger),
			grid.WithContext(d.ctx),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.ID, err)
		}
		dlg := dialog.New(r.Dialog, d.gateway, g,
			dialog.WithNotifier(d.notices),
			dialog.WithLogger(d.logger.With("resource", r.ID)),
			dialog.WithContext(d.ctx),
		)
		m.pages = append(m.pages, &resourcePage{
			res:    r,
			grid:   g,
			dialog: dlg,
			table:  newGridTable(r.Title, g),
			form:   newDialogForm(dlg, g),
		})
	}
	if len(m.pages) == 0 {
		return nil, errors.New("no resources to show")
	}
	for i, p := range m.pages {
		if p.res.ID == d.ui.LastResource {
			m.active = i
		}
	}
	return m, nil
}

func (m *model) page() *resourcePage { return m.pages[m.active] }

func (m *model) Init() tea.Cmd {
	m.signInBusy = true
	return tea.Batch(m.spinner.Tick, m.checkAuth())
}

func (m *model) checkAuth() tea.Cmd {
	gw, ctx := m.gateway, m.ctx
	return func() tea.Msg {
		st, err := gw.Status(ctx)
		return authCheckedMsg{status: st, err: err}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	return m, tea.Batch(cmd, m.scheduleNoticeExpiry())
}

func (m *model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.applyLayout()
		return nil
	case noticeExpiredMsg:
		m.notices.Expire(msg.seq)
		return nil
	case authCheckedMsg:
		return m.handleAuthChecked(msg)
	case signInRequiredMsg:
		return m.handleSignInRequired(msg)
	case signedOutMsg:
		m.activity.Emit(activityEvent{Event: "signed_out"})
		m.activity.SetUser("")
		m.toSignIn()
		if msg.err != nil {
			m.logger.Warn("logout failed", "error", msg.err)
			m.notices.Notify("Signed out locally; the server did not confirm", notify.Warning)
		} else {
			m.notices.Notify("Signed out", notify.Info)
		}
		return nil
	case grid.LoadedMsg:
		for _, p := range m.pages {
			if p.grid.TableID() != msg.TableID {
				continue
			}
			p.grid.Update(msg)
			p.table.Sync()
			if msg.Err == nil && p.grid.State() == grid.Loaded {
				page, pages := p.grid.Page()
				m.activity.Emit(activityEvent{
					Event:    "page_loaded",
					Resource: p.res.ID,
					Extra:    map[string]string{"page": fmt.Sprint(page), "pages": fmt.Sprint(pages)},
				})
			}
		}
		return nil
	case grid.OptionsMsg:
		for _, p := range m.pages {
			p.grid.Update(msg)
		}
		return nil
	case dialog.MutatedMsg:
		var cmds []tea.Cmd
		for _, p := range m.pages {
			if p.res.Dialog.Resource != msg.Resource || !p.dialog.Submitting() {
				continue
			}
			cmds = append(cmds, p.dialog.Update(msg))
			outcome := "ok"
			if msg.Err != nil {
				outcome = gateway.KindOf(msg.Err).String()
			}
			m.activity.Emit(activityEvent{
				Event:    "record_" + msg.Mode.String(),
				Resource: p.res.ID,
				RecordID: msg.TargetID,
				Extra:    map[string]string{"outcome": outcome},
			})
		}
		return tea.Batch(cmds...)
	case jobMsg:
		return m.handleJobMsg(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return nil
}

func (m *model) handleAuthChecked(msg authCheckedMsg) tea.Cmd {
	m.signInBusy = false
	if msg.err != nil {
		if !gateway.IsAuthExpired(msg.err) {
			m.signInErr = gateway.UserMessage("Checking the session", msg.err)
		}
		m.toSignIn()
		return nil
	}
	if !msg.status.Authenticated {
		if m.gateway.Authenticated() {
			m.signInErr = "The server did not accept this token"
			if err := m.session.Clear(); err != nil {
				m.logger.Warn("clearing credential failed", "error", err)
			}
		}
		m.toSignIn()
		return nil
	}

	m.signInErr = ""
	m.signIn.SetValue("")
	m.signIn.Blur()
	m.userName = msg.status.Name
	if id, err := m.gateway.Identity(); err == nil && m.userName == "" {
		m.userName = id.Name
	}
	m.activity.SetUser(m.userName)
	m.activity.Emit(activityEvent{Event: "signed_in", Extra: map[string]string{"role": msg.status.Role}})
	m.screen = screenGrid
	m.applyLayout()
	return m.startPage(m.page())
}

// startPage loads a page the first time it is shown and refreshes it after.
func (m *model) startPage(p *resourcePage) tea.Cmd {
	if !p.started {
		p.started = true
		cmd := p.grid.Init()
		p.table.Sync()
		return cmd
	}
	return p.grid.Refresh()
}

func (m *model) handleSignInRequired(msg signInRequiredMsg) tea.Cmd {
	m.logger.Info("sign-in required", "path", msg.path)
	if m.screen == screenGrid {
		m.activity.Emit(activityEvent{Event: "session_expired", Resource: m.page().res.ID})
		m.notices.Notify("Your session has expired. Sign in again.", notify.Warning)
	}
	m.toSignIn()
	return nil
}

func (m *model) toSignIn() {
	m.screen = screenSignIn
	m.mode = inputNone
	m.signInBusy = false
	m.userName = ""
	for _, p := range m.pages {
		p.dialog.Cancel()
	}
	m.signIn.Focus()
}

func (m *model) handleJobMsg(msg jobMsg) tea.Cmd {
	cmd := m.jobs.Handle(msg)
	done, ok := msg.(jobFinishedMsg)
	if !ok {
		return cmd
	}
	outcome := "ok"
	if done.Err != nil {
		outcome = gateway.KindOf(done.Err).String()
	}
	m.activity.Emit(activityEvent{
		Event:    "job_finished",
		Resource: done.Job.resource,
		Extra: map[string]string{
			"job":      done.Job.id,
			"outcome":  outcome,
			"duration": done.Duration.Round(time.Millisecond).String(),
		},
	})
	if done.Err != nil {
		if !gateway.IsAuthExpired(done.Err) {
			m.notices.Notify(gateway.UserMessage(done.Job.title, done.Err), notify.Error)
		}
		return cmd
	}
	text := strings.TrimSpace(done.Message)
	if text == "" {
		text = done.Job.title + " finished"
	}
	m.notices.Notify(text, notify.Success)
	if done.Job.refresh {
		for _, p := range m.pages {
			if p.res.ID == done.Job.resource && p.started {
				return tea.Batch(cmd, p.grid.Refresh())
			}
		}
	}
	return cmd
}

func (m *model) enqueueJob(resourceID string, job resources.Job) tea.Cmd {
	m.notices.Notify(job.Label+" queued", notify.Info)
	return m.jobs.Enqueue(jobRequest{
		id:       job.ID,
		title:    job.Label,
		resource: resourceID,
		path:     job.Path,
		refresh:  job.Refresh,
	})
}

// scheduleNoticeExpiry arms one timer per new notice.
func (m *model) scheduleNoticeExpiry() tea.Cmd {
	n, ok := m.notices.Current()
	if !ok || n.Seq == m.noticeSeq {
		return nil
	}
	m.noticeSeq = n.Seq
	seq := n.Seq
	return tea.Tick(time.Until(n.Expires), func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.screen == screenSignIn {
		return m.handleSignInKey(msg)
	}
	p := m.page()
	if p.dialog.Open() {
		return p.form.Update(msg)
	}
	switch m.mode {
	case inputSearch:
		return m.handleSearchKey(msg)
	case inputFilters:
		done, cmd := m.filters.Update(msg)
		if done {
			m.mode = inputNone
			m.filters = nil
		}
		return cmd
	case inputPalette:
		return m.handlePaletteKey(msg)
	case inputDetail:
		switch msg.String() {
		case "esc", "q", "v":
			m.mode = inputNone
			return nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return cmd
	}
	return m.handleGridKey(msg)
}

func (m *model) handleSignInKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return m.quit()
	case "enter":
		token := strings.TrimSpace(m.signIn.Value())
		if token == "" || m.signInBusy {
			return nil
		}
		if err := m.gateway.Adopt(token); err != nil {
			m.signInErr = "Could not store the token: " + err.Error()
			return nil
		}
		m.signInBusy = true
		m.signInErr = ""
		return m.checkAuth()
	}
	var cmd tea.Cmd
	m.signIn, cmd = m.signIn.Update(msg)
	return cmd
}

func (m *model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = inputNone
		m.search.Blur()
		return nil
	case "enter":
		m.mode = inputNone
		m.search.Blur()
		cmd := m.page().grid.Search(m.search.Value())
		m.page().table.Sync()
		return cmd
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return cmd
}

func (m *model) handlePaletteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = inputNone
		m.palette.Close()
		return nil
	case "up", "ctrl+k":
		m.palette.Move(-1)
		return nil
	case "down", "ctrl+j", "tab":
		m.palette.Move(1)
		return nil
	case "enter":
		entry, ok := m.palette.Selected()
		m.mode = inputNone
		m.palette.Close()
		if !ok {
			return nil
		}
		return m.runPaletteEntry(entry)
	}
	var cmd tea.Cmd
	m.palette.input, cmd = m.palette.input.Update(msg)
	m.palette.Filter()
	return cmd
}

func (m *model) runPaletteEntry(entry paletteEntry) tea.Cmd {
	m.activity.Emit(activityEvent{Event: "palette_run", Resource: entry.resource, Extra: map[string]string{"label": entry.label}})
	switch entry.action {
	case actionSwitch:
		return m.switchTo(entry.resource)
	case actionCreate:
		cmd := m.switchTo(entry.resource)
		m.openDialog(func(p *resourcePage) error { return p.dialog.OpenCreate() })
		return cmd
	case actionJob:
		return m.enqueueJob(entry.resource, entry.job)
	case actionRefresh:
		return m.page().grid.Refresh()
	case actionClearFilters:
		return m.clearFilters()
	case actionResetWidths:
		m.page().grid.ResetWidths()
		m.page().table.Sync()
		m.notices.Notify("Column widths reset", notify.Info)
	case actionLimit:
		return m.cycleLimit()
	case actionTheme:
		m.cycleTheme()
	case actionSignOut:
		return m.signOut()
	}
	return nil
}

func (m *model) handleGridKey(msg tea.KeyMsg) tea.Cmd {
	p := m.page()
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.applyLayout()
	case key.Matches(msg, m.keys.dismiss):
		m.notices.Dismiss()
	case key.Matches(msg, m.keys.nextTab):
		return m.switchIndex(m.active + 1)
	case key.Matches(msg, m.keys.prevTab):
		return m.switchIndex(m.active - 1)
	case key.Matches(msg, m.keys.prevPage):
		return m.paginate(-1)
	case key.Matches(msg, m.keys.nextPage):
		return m.paginate(1)
	case key.Matches(msg, m.keys.prevColumn):
		p.table.MoveColumn(-1)
	case key.Matches(msg, m.keys.nextColumn):
		p.table.MoveColumn(1)
	case key.Matches(msg, m.keys.sort):
		_, col := p.table.CursorColumn()
		if !col.Sortable {
			m.notices.Notify(grid.HeaderTitle(col)+" cannot be sorted", notify.Info)
			return nil
		}
		cmd := p.grid.SortBy(col.Key)
		p.table.Sync()
		return cmd
	case key.Matches(msg, m.keys.search):
		m.mode = inputSearch
		m.search.SetValue(p.grid.Query().Search)
		m.search.CursorEnd()
		return m.search.Focus()
	case key.Matches(msg, m.keys.filters):
		if len(p.res.Grid.Filters) == 0 {
			m.notices.Notify(p.res.Title+" has no filters", notify.Info)
			return nil
		}
		m.filters = newFilterForm(p.grid)
		m.mode = inputFilters
	case key.Matches(msg, m.keys.clearFilters):
		return m.clearFilters()
	case key.Matches(msg, m.keys.create):
		m.openDialog(func(p *resourcePage) error { return p.dialog.OpenCreate() })
	case key.Matches(msg, m.keys.edit):
		m.withSelected(func(p *resourcePage, rec gateway.Record) error { return p.dialog.OpenEdit(rec) })
	case key.Matches(msg, m.keys.remove):
		m.withSelected(func(p *resourcePage, rec gateway.Record) error { return p.dialog.OpenDelete(rec) })
	case key.Matches(msg, m.keys.restore):
		m.withSelected(func(p *resourcePage, rec gateway.Record) error { return p.dialog.OpenRestore(rec) })
	case key.Matches(msg, m.keys.purge):
		m.withSelected(func(p *resourcePage, rec gateway.Record) error { return p.dialog.OpenPurge(rec) })
	case key.Matches(msg, m.keys.refresh):
		return p.grid.Refresh()
	case key.Matches(msg, m.keys.limit):
		return m.cycleLimit()
	case key.Matches(msg, m.keys.widen):
		p.table.ResizeCursor(2)
	case key.Matches(msg, m.keys.narrow):
		p.table.ResizeCursor(-2)
	case key.Matches(msg, m.keys.resetWidths):
		p.grid.ResetWidths()
		p.table.Sync()
		m.notices.Notify("Column widths reset", notify.Info)
	case key.Matches(msg, m.keys.detail):
		m.openDetail()
	case key.Matches(msg, m.keys.copyID):
		m.copySelectedID()
	case key.Matches(msg, m.keys.copyRow):
		m.copySelectedRow()
	case key.Matches(msg, m.keys.openPalette):
		m.palette.Open(buildPaletteEntries(m.pageResources(), m.docs.Theme()))
		m.mode = inputPalette
	case key.Matches(msg, m.keys.theme):
		m.cycleTheme()
	case key.Matches(msg, m.keys.signOut):
		return m.signOut()
	default:
		return p.table.Update(msg)
	}
	return nil
}

func (m *model) pageResources() []resources.Resource {
	out := make([]resources.Resource, len(m.pages))
	for i, p := range m.pages {
		out[i] = p.res
	}
	return out
}

func (m *model) paginate(delta int) tea.Cmd {
	p := m.page()
	cmd := p.grid.Paginate(delta)
	p.table.Sync()
	return cmd
}

func (m *model) clearFilters() tea.Cmd {
	p := m.page()
	cmd := p.grid.ClearFilters()
	p.table.Sync()
	return cmd
}

func (m *model) cycleLimit() tea.Cmd {
	p := m.page()
	current := p.grid.Query().Limit
	next := pageLimits[0]
	for _, l := range pageLimits {
		if l > current {
			next = l
			break
		}
	}
	cmd := p.grid.SetLimit(next)
	p.table.Sync()
	m.notices.Notify(fmt.Sprintf("%d rows per page", next), notify.Info)
	return cmd
}

func (m *model) cycleTheme() {
	theme := nextMarkdownTheme(m.docs.Theme())
	m.docs.SetTheme(theme)
	m.ui.Theme = theme.String()
	m.saveUI()
	m.notices.Notify("Theme: "+markdownThemeLabel(theme), notify.Info)
}

func (m *model) signOut() tea.Cmd {
	gw, ctx := m.gateway, m.ctx
	return func() tea.Msg {
		return signedOutMsg{err: gw.Logout(ctx)}
	}
}

func (m *model) switchTo(resourceID string) tea.Cmd {
	for i, p := range m.pages {
		if p.res.ID == resourceID {
			return m.switchIndex(i)
		}
	}
	return nil
}

func (m *model) switchIndex(idx int) tea.Cmd {
	n := len(m.pages)
	idx = (idx + n) % n
	m.active = idx
	m.mode = inputNone
	m.ui.LastResource = m.page().res.ID
	m.saveUI()
	m.applyLayout()
	p := m.page()
	if p.started {
		return nil
	}
	return m.startPage(p)
}

func (m *model) openDialog(open func(*resourcePage) error) {
	p := m.page()
	if err := open(p); err != nil {
		m.notices.Notify(dialogOpenMessage(err, p.res), notify.Warning)
		return
	}
	p.form.Reset()
}

func (m *model) withSelected(open func(*resourcePage, gateway.Record) error) {
	rec, ok := m.page().table.Selected()
	if !ok {
		m.notices.Notify("Select a row first", notify.Info)
		return
	}
	m.openDialog(func(p *resourcePage) error { return open(p, rec) })
}

func dialogOpenMessage(err error, r resources.Resource) string {
	noun := r.Dialog.Noun
	switch {
	case errors.Is(err, dialog.ErrBusy):
		return "Wait for the current request to finish"
	case errors.Is(err, dialog.ErrNoID):
		return "The selected row has no id"
	case errors.Is(err, dialog.ErrNotSoftDelete):
		return r.Title + " cannot be restored; deletes are permanent"
	case errors.Is(err, dialog.ErrAlreadyDeleted):
		return "This " + noun + " is already deleted: u restores it, D deletes it for good"
	case errors.Is(err, dialog.ErrNotDeleted):
		return "Only deleted " + noun + " records can be restored or purged"
	default:
		return err.Error()
	}
}

func (m *model) openDetail() {
	p := m.page()
	rec, ok := p.table.Selected()
	if !ok {
		m.notices.Notify("Select a row first", notify.Info)
		return
	}
	title := fmt.Sprintf("%s #%s", strings.ToUpper(p.res.Dialog.Noun[:1])+p.res.Dialog.Noun[1:], rec.ID(p.grid.Config().IDKey))
	m.docs.SetWordWrap(m.detail.Width - 2)
	m.detail.SetContent(m.docs.Render(recordMarkdown(title, p.res.Grid.Columns, rec)))
	m.detail.GotoTop()
	m.mode = inputDetail
}

func (m *model) quit() tea.Cmd {
	m.saveUI()
	return tea.Quit
}

func (m *model) saveUI() {
	if m.uiPath == "" {
		return
	}
	if err := saveUIConfig(m.ui, m.uiPath); err != nil {
		m.logger.Warn("saving ui state failed", "error", err)
	}
}

func (m *model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.screen != screenGrid || m.mode != inputNone || m.page().dialog.Open() {
		return nil
	}
	if msg.Y == 1 && msg.Type == tea.MouseLeft {
		if idx, ok := m.tabAt(msg.X); ok && idx != m.active {
			return m.switchIndex(idx)
		}
		return nil
	}
	// panel border is one cell on each side
	return m.page().table.HandleMouse(msg.X-1, msg.Y-chromeTop-1, msg)
}

func (m *model) tabAt(x int) (int, bool) {
	left := 1
	for i, p := range m.pages {
		w := lipgloss.Width(p.res.Title) + 2
		if x >= left && x < left+w {
			return i, true
		}
		left += w
	}
	return 0, false
}

func (m *model) helpHeight() int {
	if m.help.ShowAll {
		return 7
	}
	return 1
}

func (m *model) applyLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.help.Width = m.width - 2
	tableHeight := m.height - chromeTop - 1 - m.helpHeight()
	for _, p := range m.pages {
		p.table.SetSize(m.width, tableHeight)
		p.form.SetWidth(min(72, m.width-6))
	}
	m.detail.Width = min(100, m.width-6)
	m.detail.Height = max(tableHeight-4, 4)
}

func (m *model) View() string {
	if m.width == 0 {
		return ""
	}
	if m.screen == screenSignIn {
		return m.styles.app.Render(m.signInView())
	}

	var builder strings.Builder
	p := m.page()
	builder.WriteString(m.styles.topBar.Width(m.width).Render(m.titleLine()))
	builder.WriteRune('\n')
	builder.WriteString(m.tabsView())
	builder.WriteRune('\n')
	builder.WriteString(m.queryBar(p))
	builder.WriteRune('\n')

	body := p.table.View(m.styles, m.mode == inputNone && !p.dialog.Open())
	if overlay := m.overlay(p); overlay != "" {
		body = lipgloss.Place(m.width, lipgloss.Height(body), lipgloss.Center, lipgloss.Center, overlay)
	}
	builder.WriteString(body)
	builder.WriteRune('\n')

	builder.WriteString(m.renderStatus())
	builder.WriteRune('\n')
	builder.WriteString(m.help.View(m.keys))
	return m.styles.app.Render(builder.String())
}

func (m *model) overlay(p *resourcePage) string {
	width := min(76, m.width-4)
	var content string
	switch {
	case p.dialog.Open():
		content = p.form.View(m.styles, m.docs)
	case m.mode == inputSearch:
		content = m.styles.cmdPrompt.Render("Search "+p.res.Title) + "\n\n" + m.search.View() + "\n\n" +
			m.styles.cmdHint.Render("enter apply • empty clears • esc cancel")
	case m.mode == inputFilters && m.filters != nil:
		content = m.filters.View(m.styles)
	case m.mode == inputPalette:
		content = m.palette.View(m.styles, width)
	case m.mode == inputDetail:
		width = min(104, m.width-2)
		content = m.detail.View() + "\n" + m.styles.cmdHint.Render(fmt.Sprintf("↑/↓ scroll • esc close • %3.f%%", m.detail.ScrollPercent()*100))
	default:
		return ""
	}
	return m.styles.cmdOverlay.Width(width).Render(content)
}

func (m *model) titleLine() string {
	title := "admin console • " + m.gateway.BaseURL()
	if m.userName != "" {
		title += " • " + m.userName
	}
	return title
}

func (m *model) tabsView() string {
	var tabs []string
	for i, p := range m.pages {
		style := m.styles.tabInactive
		if i == m.active {
			style = m.styles.tabActive
		}
		tabs = append(tabs, style.Render(p.res.Title))
	}
	return m.styles.tabsRow.Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m *model) queryBar(p *resourcePage) string {
	q := p.grid.Query()
	var chips []string
	if col, ok := p.res.Grid.Column(q.SortColumn); ok {
		arrow := "▼"
		if q.SortDirection == grid.Asc {
			arrow = "▲"
		}
		chips = append(chips, m.styles.queryChip.Render("sort "+grid.HeaderTitle(col)+" "+arrow))
	}
	if q.Search != "" {
		chips = append(chips, m.styles.queryChip.Render("search "+q.Search))
	}
	for _, f := range p.res.Grid.Filters {
		if v, ok := q.Filters[f.Key]; ok {
			chips = append(chips, m.styles.queryChip.Render(f.Label+" "+v))
		}
	}
	if len(chips) == 1 {
		chips = append(chips, m.styles.muted.Render("no filters"))
	}
	return m.styles.queryBar.Width(m.width).MaxHeight(1).Render(strings.Join(chips, ""))
}

func (m *model) renderStatus() string {
	p := m.page()
	focus := p.table.FocusValue()
	if focus == "" {
		focus = "—"
	}
	segments := []string{
		m.styles.statusSeg.Render(fmt.Sprintf("%s: %s", p.res.Title, focus)),
	}
	if id, err := m.gateway.Identity(); err == nil && !id.ExpiresAt.IsZero() {
		label := "token expires " + humanize.Time(id.ExpiresAt)
		if id.Expired(time.Now()) {
			label = "token expired"
		}
		segments = append(segments, m.styles.statusSeg.Render(label))
	}
	if busy := m.busyLabel(p); busy != "" {
		segments = append(segments, m.styles.statusSeg.Render(m.spinner.View()+" "+busy))
	}
	if n, ok := m.notices.Current(); ok {
		segments = append(segments, m.noticeStyle(n.Severity).Render(strings.ReplaceAll(n.Message, "\n", " · ")))
	}
	content := strings.Join(segments, lipgloss.NewStyle().Render("│"))
	return m.styles.statusBar.Width(m.width).MaxHeight(1).Render(content)
}

func (m *model) busyLabel(p *resourcePage) string {
	var parts []string
	if p.grid.State() == grid.Loading {
		parts = append(parts, "loading")
	}
	if p.dialog.Submitting() {
		parts = append(parts, "saving")
	}
	if job, started, ok := m.jobs.Current(); ok {
		label := job.title
		if !started.IsZero() {
			label += " " + time.Since(started).Round(time.Second).String()
		}
		if pending := m.jobs.Pending(); pending > 0 {
			label += fmt.Sprintf(" (+%d queued)", pending)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}

func (m *model) noticeStyle(sev notify.Severity) lipgloss.Style {
	switch sev {
	case notify.Success:
		return m.styles.statusSeg.Copy().Inherit(m.styles.noticeSuccess)
	case notify.Warning:
		return m.styles.statusSeg.Copy().Inherit(m.styles.noticeWarning)
	case notify.Error:
		return m.styles.statusSeg.Copy().Inherit(m.styles.noticeError)
	default:
		return m.styles.statusSeg.Copy().Inherit(m.styles.noticeInfo)
	}
}

func (m *model) signInView() string {
	var b strings.Builder
	b.WriteString(m.styles.cmdPrompt.Render("Sign in to " + m.gateway.BaseURL()))
	b.WriteString("\n\n")
	if m.signInBusy {
		b.WriteString(m.spinner.View() + " checking session…")
	} else {
		b.WriteString(m.signIn.View())
	}
	b.WriteString("\n")
	if m.signInErr != "" {
		b.WriteString("\n" + m.styles.fieldErr.Render(m.signInErr) + "\n")
	}
	if n, ok := m.notices.Current(); ok {
		b.WriteString("\n" + m.noticeStyle(n.Severity).Render(n.Message) + "\n")
	}
	b.WriteString("\n" + m.styles.cmdHint.Render("enter sign in • esc quit"))
	overlay := m.styles.cmdOverlay.Width(min(64, m.width-4)).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
}
