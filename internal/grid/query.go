package grid

import (
	"maps"
	"net/url"
	"strconv"
	"strings"
)

// Direction is a sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// Query is the state a list request is built from. Filters only holds
// keys with non-empty values.
type Query struct {
	Page          int
	Limit         int
	SortColumn    string
	SortDirection Direction
	Filters       map[string]string
	Search        string
}

// Clone returns a copy that shares nothing with q.
func (q Query) Clone() Query {
	q.Filters = maps.Clone(q.Filters)
	return q
}

// Equal compares two snapshots.
func (q Query) Equal(other Query) bool {
	if q.Page != other.Page || q.Limit != other.Limit ||
		q.SortColumn != other.SortColumn || q.SortDirection != other.SortDirection ||
		q.Search != other.Search {
		return false
	}
	return maps.Equal(q.Filters, other.Filters)
}

// reservedParams are the list parameters the query state owns; no filter
// may use them as a key.
var reservedParams = map[string]bool{
	"page":      true,
	"limit":     true,
	"sortBy":    true,
	"sortOrder": true,
	"search":    true,
}

// IsReservedParam reports whether key is owned by the query state.
func IsReservedParam(key string) bool { return reservedParams[key] }

// Values encodes q as list-endpoint parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.SortColumn != "" {
		v.Set("sortBy", q.SortColumn)
		v.Set("sortOrder", string(q.SortDirection))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	for key, value := range q.Filters {
		v.Set(key, value)
	}
	return v
}

// cleanFilters drops blank values, reserved keys and incomplete date
// ranges.
func cleanFilters(values map[string]string, dr *DateRange) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" || reservedParams[key] {
			continue
		}
		out[key] = value
	}
	if dr != nil {
		_, hasStart := out[dr.StartKey]
		_, hasEnd := out[dr.EndKey]
		if !hasStart || !hasEnd {
			delete(out, dr.StartKey)
			delete(out, dr.EndKey)
		}
	}
	return out
}
