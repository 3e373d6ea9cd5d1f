// Package notify holds the console's single transient message slot.
//
// A new notice always replaces the visible one. Expiry is checked lazily
// against the caller's clock so the channel never owns a timer; the TUI
// schedules a redraw at the returned deadline.
package notify

import (
	"context"
	"html"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultDuration is how long a notice stays visible.
const DefaultDuration = 5 * time.Second

// Severity of a notice.
type Severity int

const (
	Info Severity = iota
	Success
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notice is one displayed message.
type Notice struct {
	Seq      uint64
	Message  string
	Severity Severity
	Expires  time.Time
}

// Channel is the notification slot. It is not safe for concurrent use; it
// lives on the UI goroutine with the rest of the view state.
type Channel struct {
	now      func() time.Time
	duration time.Duration
	policy   *bluemonday.Policy
	logger   *slog.Logger

	current Notice
	seq     uint64
}

// Option configures a Channel.
type Option func(*Channel)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Channel) { c.now = now }
}

// WithDuration overrides DefaultDuration.
func WithDuration(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.duration = d
		}
	}
}

// WithLogger mirrors every notice into l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns an empty channel.
func New(opts ...Option) *Channel {
	c := &Channel{
		now:      time.Now,
		duration: DefaultDuration,
		policy:   bluemonday.StrictPolicy(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify shows message, replacing whatever is visible. A message that is
// empty after sanitising clears the slot.
func (c *Channel) Notify(message string, severity Severity) Notice {
	clean := c.Sanitize(message)
	if clean == "" {
		c.current = Notice{}
		return c.current
	}
	c.seq++
	c.current = Notice{
		Seq:      c.seq,
		Message:  clean,
		Severity: severity,
		Expires:  c.now().Add(c.duration),
	}
	level := slog.LevelInfo
	if severity == Error {
		level = slog.LevelWarn
	}
	c.logger.Log(context.Background(), level, "notice", "severity", severity.String(), "message", clean)
	return c.current
}

// Current returns the visible notice, or false once it has expired.
func (c *Channel) Current() (Notice, bool) {
	if c.current.Message == "" {
		return Notice{}, false
	}
	if !c.now().Before(c.current.Expires) {
		c.current = Notice{}
		return Notice{}, false
	}
	return c.current, true
}

// Dismiss clears the slot.
func (c *Channel) Dismiss() {
	c.current = Notice{}
}

// Expire drops the notice numbered seq if it is still the visible one.
// Later notices are left alone.
func (c *Channel) Expire(seq uint64) {
	if c.current.Seq == seq {
		c.current = Notice{}
	}
}

// Sanitize strips markup and collapses whitespace.
func (c *Channel) Sanitize(message string) string {
	stripped := html.UnescapeString(c.policy.Sanitize(message))
	lines := strings.Split(stripped, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
