package dialog

import (
	"fmt"
	"strings"

	"github.com/bekirdag/admin-console/internal/gateway"
	"github.com/bekirdag/admin-console/internal/grid"
)

// FieldKind selects the input used for a field and how its value is sent.
type FieldKind int

const (
	TextField FieldKind = iota
	TextAreaField
	NumberField
	DateField
	BoolField
	SelectField
)

// Field is one form input.
type Field struct {
	Key      string
	Label    string
	Kind     FieldKind
	Required bool
	Default  string
	// Facet names the grid facet offering the choices of a SelectField.
	Facet string
}

// Lifecycle of a record on a soft-delete resource.
type Lifecycle int

const (
	Active Lifecycle = iota
	SoftDeleted
)

func (l Lifecycle) String() string {
	if l == SoftDeleted {
		return "deleted"
	}
	return "active"
}

// Config parameterises a Controller for one resource.
type Config struct {
	// Noun is the singular display name, e.g. "contest".
	Noun     string
	Resource string
	IDKey    string
	Fields   []Field

	// SoftDelete enables restore and permanent delete. DeletedKey holds
	// either a boolean-like flag or a deletion timestamp.
	SoftDelete bool
	DeletedKey string

	// Summary lists the keys shown in delete confirmations; empty means
	// every field.
	Summary []string
}

func (c Config) withDefaults() Config {
	if c.IDKey == "" {
		c.IDKey = "id"
	}
	if c.Noun == "" {
		c.Noun = "record"
	}
	if c.SoftDelete && c.DeletedKey == "" {
		c.DeletedKey = "deletedAt"
	}
	return c
}

// Field returns the field with key.
func (c Config) Field(key string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// LifecycleOf reports whether rec is active or soft-deleted.
func (c Config) LifecycleOf(rec gateway.Record) Lifecycle {
	if !c.SoftDelete || c.DeletedKey == "" {
		return Active
	}
	v, ok := rec[c.DeletedKey]
	if !ok || v == nil {
		return Active
	}
	if grid.Truthy(v) {
		return SoftDeleted
	}
	s := strings.TrimSpace(rec.String(c.DeletedKey))
	if _, ok := grid.ParseTime(s); ok {
		return SoftDeleted
	}
	return Active
}

// SummaryLine is one label/value pair of a confirmation summary.
type SummaryLine struct {
	Label string
	Value string
}

// Summarize renders rec for a read-only confirmation.
func (c Config) Summarize(rec gateway.Record) []SummaryLine {
	keys := c.Summary
	if len(keys) == 0 {
		keys = append([]string{c.IDKey}, fieldKeys(c.Fields)...)
	}
	out := make([]SummaryLine, 0, len(keys))
	for _, key := range keys {
		label := key
		kind := TextField
		if f, ok := c.Field(key); ok {
			label, kind = f.Label, f.Kind
		} else if key == c.IDKey {
			label = "ID"
		}
		value := rec.String(key)
		switch kind {
		case BoolField:
			value = "no"
			if grid.Truthy(rec[key]) {
				value = "yes"
			}
		case DateField:
			value = NormalizeDate(value)
		}
		out = append(out, SummaryLine{Label: label, Value: value})
	}
	return out
}

func fieldKeys(fields []Field) []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// NormalizeDate turns a server date into the YYYY-MM-DD form inputs use.
// Bare dates pass through; timestamps are read in local time. Values that
// do not parse become empty.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || grid.IsISODate(s) {
		return s
	}
	t, ok := grid.ParseTime(s)
	if !ok {
		return ""
	}
	t = t.Local()
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}
