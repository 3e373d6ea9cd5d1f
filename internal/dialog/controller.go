// Package dialog drives the create, edit and delete dialogs of a grid.
//
// A Controller holds at most one open dialog. Mutations run as tea.Cmds and
// report back through MutatedMsg; on success the dialog closes and the
// owning grid is asked to reload its rows and filter options.
package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bekirdag/admin-console/internal/gateway"
	"github.com/bekirdag/admin-console/internal/grid"
	"github.com/bekirdag/admin-console/internal/notify"
)

// Mode is what the open dialog is for.
type Mode int

const (
	Closed Mode = iota
	OpenForCreate
	OpenForEdit
	OpenForDelete
	OpenForRestore
	OpenForPurge
)

func (m Mode) String() string {
	switch m {
	case OpenForCreate:
		return "create"
	case OpenForEdit:
		return "edit"
	case OpenForDelete:
		return "delete"
	case OpenForRestore:
		return "restore"
	case OpenForPurge:
		return "purge"
	default:
		return "closed"
	}
}

var (
	ErrBusy              = errors.New("dialog: a request is already running")
	ErrNoID              = errors.New("dialog: record has no id")
	ErrNotSoftDelete     = errors.New("dialog: resource does not support restore")
	ErrAlreadyDeleted    = errors.New("dialog: record is already deleted")
	ErrNotDeleted        = errors.New("dialog: record is not deleted")
	ErrConfirmMismatch   = errors.New("dialog: confirmation does not match the record id")
	ErrNotOpenForConfirm = errors.New("dialog: no confirmation is open")
)

// API is the part of the gateway mutations go through.
type API interface {
	Create(ctx context.Context, resource string, body map[string]any) (*gateway.Envelope, error)
	Update(ctx context.Context, resource, id string, body map[string]any) (*gateway.Envelope, error)
	Delete(ctx context.Context, resource, id string) (*gateway.Envelope, error)
	Restore(ctx context.Context, resource, id string) (*gateway.Envelope, error)
	Purge(ctx context.Context, resource, id string) (*gateway.Envelope, error)
}

// Refresher reloads the grid a dialog belongs to.
type Refresher interface {
	Refresh() tea.Cmd
}

// Draft is the in-progress form. It is never persisted.
type Draft struct {
	Values   map[string]string
	TargetID string
	Target   gateway.Record
}

// MutatedMsg reports the outcome of a mutation.
type MutatedMsg struct {
	Resource string
	Seq      uint64
	Mode     Mode
	TargetID string
	Message  string
	Err      error
}

// Controller is the dialog state machine for one resource.
type Controller struct {
	cfg      Config
	api      API
	grid     Refresher
	notifier grid.Notifier
	logger   *slog.Logger
	ctx      context.Context

	mode        Mode
	submitting  bool
	draft       Draft
	fieldErrors map[string]string
	err         error
	seq         uint64
}

// Option configures a Controller.
type Option func(*Controller)

func WithNotifier(n grid.Notifier) Option { return func(c *Controller) { c.notifier = n } }

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithContext(ctx context.Context) Option { return func(c *Controller) { c.ctx = ctx } }

// New returns a closed dialog controller that refreshes g after every
// successful mutation.
func New(cfg Config, api API, g Refresher, opts ...Option) *Controller {
	c := &Controller{
		cfg:    cfg.withDefaults(),
		api:    api,
		grid:   g,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("resource", c.cfg.Resource)
	return c
}

func (c *Controller) Config() Config { return c.cfg }

func (c *Controller) Mode() Mode { return c.mode }

// Open reports whether any dialog is showing.
func (c *Controller) Open() bool { return c.mode != Closed }

// Submitting reports whether a request is in flight.
func (c *Controller) Submitting() bool { return c.submitting }

// Err is the last failure shown in the open dialog.
func (c *Controller) Err() error { return c.err }

// FieldErrors maps field keys to their validation message.
func (c *Controller) FieldErrors() map[string]string { return maps.Clone(c.fieldErrors) }

// Draft returns a copy of the form state.
func (c *Controller) Draft() Draft {
	d := c.draft
	d.Values = maps.Clone(c.draft.Values)
	return d
}

// Value is the current draft value of key.
func (c *Controller) Value(key string) string { return c.draft.Values[key] }

func (c *Controller) reset(mode Mode) {
	c.mode = mode
	c.draft = Draft{Values: map[string]string{}}
	c.fieldErrors = nil
	c.err = nil
}

// OpenCreate opens an empty form with field defaults.
func (c *Controller) OpenCreate() error {
	if c.submitting {
		return ErrBusy
	}
	c.reset(OpenForCreate)
	for _, f := range c.cfg.Fields {
		c.draft.Values[f.Key] = f.Default
	}
	return nil
}

// OpenEdit opens the form pre-filled from rec. Dates are normalised to
// YYYY-MM-DD and boolean-like values to "true"/"false".
func (c *Controller) OpenEdit(rec gateway.Record) error {
	if c.submitting {
		return ErrBusy
	}
	id := rec.ID(c.cfg.IDKey)
	if id == "" {
		return ErrNoID
	}
	c.reset(OpenForEdit)
	c.draft.TargetID = id
	c.draft.Target = rec
	for _, f := range c.cfg.Fields {
		c.draft.Values[f.Key] = prefill(f, rec)
	}
	return nil
}

func prefill(f Field, rec gateway.Record) string {
	switch f.Kind {
	case DateField:
		return NormalizeDate(rec.String(f.Key))
	case BoolField:
		return strconv.FormatBool(grid.Truthy(rec[f.Key]))
	default:
		return rec.String(f.Key)
	}
}

// OpenDelete opens the read-only delete confirmation for rec.
func (c *Controller) OpenDelete(rec gateway.Record) error {
	if err := c.openConfirm(rec); err != nil {
		return err
	}
	if c.cfg.LifecycleOf(rec) == SoftDeleted {
		return ErrAlreadyDeleted
	}
	c.setTarget(OpenForDelete, rec)
	return nil
}

// OpenRestore opens the restore confirmation for a soft-deleted rec.
func (c *Controller) OpenRestore(rec gateway.Record) error {
	if err := c.openSoftDeleted(rec); err != nil {
		return err
	}
	c.setTarget(OpenForRestore, rec)
	return nil
}

// OpenPurge opens the permanent-delete confirmation for a soft-deleted rec.
func (c *Controller) OpenPurge(rec gateway.Record) error {
	if err := c.openSoftDeleted(rec); err != nil {
		return err
	}
	c.setTarget(OpenForPurge, rec)
	return nil
}

func (c *Controller) openConfirm(rec gateway.Record) error {
	if c.submitting {
		return ErrBusy
	}
	if rec.ID(c.cfg.IDKey) == "" {
		return ErrNoID
	}
	return nil
}

func (c *Controller) openSoftDeleted(rec gateway.Record) error {
	if err := c.openConfirm(rec); err != nil {
		return err
	}
	if !c.cfg.SoftDelete {
		return ErrNotSoftDelete
	}
	if c.cfg.LifecycleOf(rec) != SoftDeleted {
		return ErrNotDeleted
	}
	return nil
}

// setTarget opens a confirmation without touching the form values.
func (c *Controller) setTarget(mode Mode, rec gateway.Record) {
	c.mode = mode
	c.draft.TargetID = rec.ID(c.cfg.IDKey)
	c.draft.Target = rec
	c.fieldErrors = nil
	c.err = nil
}

// Summary is the read-only view of the confirmation target.
func (c *Controller) Summary() []SummaryLine {
	if c.draft.Target == nil {
		return nil
	}
	return c.cfg.Summarize(c.draft.Target)
}

// SetValue updates one form value.
func (c *Controller) SetValue(key, value string) {
	if c.submitting || (c.mode != OpenForCreate && c.mode != OpenForEdit) {
		return
	}
	if _, ok := c.cfg.Field(key); !ok {
		return
	}
	c.draft.Values[key] = value
	delete(c.fieldErrors, key)
}

// Cancel closes the dialog unless a request is in flight.
func (c *Controller) Cancel() bool {
	if c.submitting {
		return false
	}
	c.reset(Closed)
	return true
}

// Submit validates the form and sends it: POST for create, PUT
// <resource>/<id> for edit. Missing required fields keep the dialog open.
func (c *Controller) Submit() tea.Cmd {
	if c.submitting || (c.mode != OpenForCreate && c.mode != OpenForEdit) {
		return nil
	}
	if missing := c.validate(); len(missing) > 0 {
		c.err = errors.New(strings.Join(missing, "\n"))
		c.notify(strings.Join(missing, "\n"), notify.Error)
		return nil
	}
	body := c.body()
	mode, id := c.mode, c.draft.TargetID
	api, ctx, resource := c.api, c.ctx, c.cfg.Resource
	return c.send(mode, id, func() (*gateway.Envelope, error) {
		if mode == OpenForCreate {
			return api.Create(ctx, resource, body)
		}
		return api.Update(ctx, resource, id, body)
	})
}

// ConfirmDelete deletes the confirmed record; logically on soft-delete
// resources.
func (c *Controller) ConfirmDelete() tea.Cmd {
	if c.submitting || c.mode != OpenForDelete {
		return nil
	}
	api, ctx, resource, id := c.api, c.ctx, c.cfg.Resource, c.draft.TargetID
	return c.send(OpenForDelete, id, func() (*gateway.Envelope, error) {
		return api.Delete(ctx, resource, id)
	})
}

// ConfirmRestore reactivates the confirmed record.
func (c *Controller) ConfirmRestore() tea.Cmd {
	if c.submitting || c.mode != OpenForRestore {
		return nil
	}
	api, ctx, resource, id := c.api, c.ctx, c.cfg.Resource, c.draft.TargetID
	return c.send(OpenForRestore, id, func() (*gateway.Envelope, error) {
		return api.Restore(ctx, resource, id)
	})
}

// ConfirmPurge permanently deletes the confirmed record once typed equals
// its id.
func (c *Controller) ConfirmPurge(typed string) (tea.Cmd, error) {
	if c.submitting {
		return nil, ErrBusy
	}
	if c.mode != OpenForPurge {
		return nil, ErrNotOpenForConfirm
	}
	if strings.TrimSpace(typed) != c.draft.TargetID {
		c.err = ErrConfirmMismatch
		return nil, ErrConfirmMismatch
	}
	api, ctx, resource, id := c.api, c.ctx, c.cfg.Resource, c.draft.TargetID
	return c.send(OpenForPurge, id, func() (*gateway.Envelope, error) {
		return api.Purge(ctx, resource, id)
	}), nil
}

func (c *Controller) send(mode Mode, id string, do func() (*gateway.Envelope, error)) tea.Cmd {
	c.submitting = true
	c.err = nil
	c.seq++
	seq, resource := c.seq, c.cfg.Resource
	c.logger.Debug("submitting", "mode", mode.String(), "id", id)
	return grid.Guard(func() tea.Msg {
		env, err := do()
		msg := MutatedMsg{Resource: resource, Seq: seq, Mode: mode, TargetID: id, Err: err}
		if env != nil && err == nil {
			msg.Message = env.Message
		}
		return msg
	}, func(err error) tea.Msg {
		return MutatedMsg{Resource: resource, Seq: seq, Mode: mode, TargetID: id, Err: err}
	})
}

// Update applies a mutation outcome. On success it returns the grid's
// refresh command.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	m, ok := msg.(MutatedMsg)
	if !ok || m.Resource != c.cfg.Resource || m.Seq != c.seq || !c.submitting {
		return nil
	}
	c.submitting = false

	if m.Err != nil {
		if gateway.IsAuthExpired(m.Err) {
			c.reset(Closed)
			return nil
		}
		c.err = m.Err
		c.logger.Warn("mutation failed", "mode", m.Mode.String(), "id", m.TargetID, "error", m.Err)
		c.notify(gateway.UserMessage(actionLabel(m.Mode, c.cfg.Noun), m.Err), notify.Error)
		return nil
	}

	c.logger.Info("mutation succeeded", "mode", m.Mode.String(), "id", m.TargetID)
	text := m.Message
	if text == "" {
		text = successText(m.Mode, c.cfg.Noun)
	}
	c.notify(text, notify.Success)
	c.reset(Closed)
	if c.grid == nil {
		return nil
	}
	return c.grid.Refresh()
}

func (c *Controller) notify(message string, sev notify.Severity) {
	if c.notifier != nil {
		c.notifier.Notify(message, sev)
	}
}

func (c *Controller) validate() []string {
	c.fieldErrors = map[string]string{}
	var missing []string
	for _, f := range c.cfg.Fields {
		if !f.Required || f.Kind == BoolField {
			continue
		}
		if strings.TrimSpace(c.draft.Values[f.Key]) == "" {
			msg := f.Label + " is required"
			c.fieldErrors[f.Key] = msg
			missing = append(missing, msg)
		}
	}
	return missing
}

// body converts the draft into the JSON the API expects.
func (c *Controller) body() map[string]any {
	body := make(map[string]any, len(c.cfg.Fields))
	for _, f := range c.cfg.Fields {
		raw := strings.TrimSpace(c.draft.Values[f.Key])
		switch f.Kind {
		case BoolField:
			body[f.Key] = grid.Truthy(raw)
		case NumberField:
			if raw == "" {
				body[f.Key] = nil
			} else if _, err := strconv.ParseFloat(raw, 64); err == nil {
				body[f.Key] = json.Number(raw)
			} else {
				body[f.Key] = raw
			}
		case DateField:
			if raw == "" {
				body[f.Key] = nil
			} else {
				body[f.Key] = raw
			}
		case TextAreaField:
			body[f.Key] = c.draft.Values[f.Key]
		default:
			body[f.Key] = raw
		}
	}
	return body
}

func actionLabel(mode Mode, noun string) string {
	switch mode {
	case OpenForCreate:
		return "Creating " + noun
	case OpenForEdit:
		return "Saving " + noun
	case OpenForDelete:
		return "Deleting " + noun
	case OpenForRestore:
		return "Restoring " + noun
	case OpenForPurge:
		return "Permanently deleting " + noun
	default:
		return ""
	}
}

func successText(mode Mode, noun string) string {
	title := strings.ToUpper(noun[:1]) + noun[1:]
	switch mode {
	case OpenForCreate:
		return title + " created"
	case OpenForEdit:
		return title + " updated"
	case OpenForDelete:
		return title + " deleted"
	case OpenForRestore:
		return title + " restored"
	case OpenForPurge:
		return title + " permanently deleted"
	default:
		return "Done"
	}
}
