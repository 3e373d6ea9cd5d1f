package grid

import (
	"errors"
	"fmt"
	"strings"
)

// MinColumnWidth is the narrowest a column can be dragged, in pixels.
const MinColumnWidth = 50

// DefaultLimit is the page size used when a Config leaves Limit unset.
const DefaultLimit = 50

// ColumnKind selects how a cell is formatted.
type ColumnKind int

const (
	Text ColumnKind = iota
	Number
	Money
	Date
	DateTime
	Bool
)

// Column describes one rendered column.
type Column struct {
	Key      string
	Title    string
	Width    int // pixels; 0 means the renderer's default
	Kind     ColumnKind
	Sortable bool
}

// FilterKind selects the filter input.
type FilterKind int

const (
	SelectFilter FilterKind = iota
	TextFilter
	BoolFilter
)

// Filter is one filter input. Select filters take their options from
// GET <resource>/<Facet>.
type Filter struct {
	Key   string
	Label string
	Kind  FilterKind
	Facet string
}

// DateRange pairs two filter keys that only apply together.
type DateRange struct {
	StartKey string
	EndKey   string
}

// Config parameterises a Controller for one resource.
type Config struct {
	TableID  string
	Title    string
	Resource string
	IDKey    string

	Columns   []Column
	Filters   []Filter
	DateRange *DateRange

	DefaultSort        string
	DefaultDirection   Direction
	NewColumnDirection Direction
	Limit              int
}

var (
	ErrNoTableID      = errors.New("grid: table id is required")
	ErrNoResource     = errors.New("grid: resource path is required")
	ErrNoColumns      = errors.New("grid: at least one column is required")
	ErrReservedFilter = errors.New("grid: filter key is a reserved list parameter")
)

// Validate checks the fields a controller cannot work without.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.TableID) == "":
		return ErrNoTableID
	case strings.TrimSpace(c.Resource) == "":
		return ErrNoResource
	case len(c.Columns) == 0:
		return ErrNoColumns
	}
	for _, f := range c.Filters {
		if IsReservedParam(strings.TrimSpace(f.Key)) {
			return fmt.Errorf("%w: %q", ErrReservedFilter, f.Key)
		}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.IDKey == "" {
		c.IDKey = "id"
	}
	if c.Title == "" {
		c.Title = c.TableID
	}
	if c.DefaultDirection == "" {
		c.DefaultDirection = Desc
	}
	if c.NewColumnDirection == "" {
		c.NewColumnDirection = Asc
	}
	if c.DefaultSort == "" {
		c.DefaultSort = c.IDKey
	}
	return c
}

// Column returns the column with key.
func (c Config) Column(key string) (Column, bool) {
	for _, col := range c.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column{}, false
}

// Facets lists the facet paths of the select filters.
func (c Config) Facets() []string {
	var out []string
	for _, f := range c.Filters {
		if f.Kind == SelectFilter && f.Facet != "" {
			out = append(out, f.Facet)
		}
	}
	return out
}
