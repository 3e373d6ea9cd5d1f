package grid

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"

	"github.com/bekirdag/admin-console/internal/gateway"
)

// CheckMark is how a truthy Bool cell renders.
const CheckMark = "✓"

var titleCaser = cases.Title(language.Und)

// Truthy reports whether v is one of the boolean-like values the API
// uses for "yes": native true, the string "true" in any case or width,
// or the circle glyph.
func Truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.TrimSpace(width.Fold.String(t))
		return strings.EqualFold(s, "true") || s == "○" || s == "◯"
	default:
		return false
	}
}

// HeaderTitle is the column header, derived from the key when unset.
func HeaderTitle(col Column) string {
	if col.Title != "" {
		return col.Title
	}
	return titleCaser.String(strings.ReplaceAll(col.Key, "_", " "))
}

// FormatCell renders the value of col in rec as display text.
func FormatCell(col Column, rec gateway.Record) string {
	raw, ok := rec[col.Key]
	if !ok || raw == nil {
		return ""
	}
	switch col.Kind {
	case Bool:
		if Truthy(raw) {
			return CheckMark
		}
		return ""
	case Number:
		return formatNumber(rec.String(col.Key))
	case Money:
		s := formatNumber(rec.String(col.Key))
		if s == "" {
			return ""
		}
		return "¥" + s
	case Date:
		if s := rec.String(col.Key); IsISODate(s) {
			return s
		}
		return FormatDate(rec.String(col.Key), "2006-01-02")
	case DateTime:
		return FormatDate(rec.String(col.Key), "2006-01-02 15:04")
	default:
		return rec.String(col.Key)
	}
}

// FormatDate reformats a server timestamp in local time. Values that do
// not parse are returned unchanged.
func FormatDate(s, layout string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	return t.Local().Format(layout)
}

// IsISODate reports whether s is already a bare YYYY-MM-DD date.
func IsISODate(s string) bool {
	if len(s) != 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// zonedLayouts carry their own offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

// localLayouts have no offset and are read as local wall-clock time.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseTime accepts the timestamp shapes the API emits. Values without an
// offset are taken to be in time.Local.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatNumber(s string) string {
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return humanize.Comma(n)
	}
	if f, err := json.Number(s).Float64(); err == nil {
		return humanize.CommafWithDigits(f, 2)
	}
	return s
}
