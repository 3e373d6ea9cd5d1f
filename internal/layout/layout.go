// Package layout persists manually resized column widths per table.
package layout

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// KeyPrefix namespaces layout entries in the local store.
const KeyPrefix = "columnWidths:"

// KV is the string map layouts are stored in.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Widths maps a column index to its width in pixels.
type Widths map[int]int

// Clone returns an independent copy.
func (w Widths) Clone() Widths {
	out := make(Widths, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Indexes returns the resized column indexes in ascending order.
func (w Widths) Indexes() []int {
	idx := make([]int, 0, len(w))
	for k := range w {
		idx = append(idx, k)
	}
	sort.Ints(idx)
	return idx
}

// Store reads and writes layouts.
type Store struct {
	kv KV
}

func New(kv KV) *Store {
	return &Store{kv: kv}
}

// Key is the storage key for tableID.
func Key(tableID string) string {
	return KeyPrefix + tableID
}

// TableID recovers the table id from a storage key.
func TableID(key string) (string, bool) {
	return strings.CutPrefix(key, KeyPrefix)
}

// Get returns the stored widths for tableID; a missing or unreadable entry
// yields an empty map.
func (s *Store) Get(tableID string) (Widths, error) {
	out := Widths{}
	if s == nil || s.kv == nil {
		return out, nil
	}
	raw, ok, err := s.kv.Get(Key(tableID))
	if err != nil || !ok || strings.TrimSpace(raw) == "" {
		return out, err
	}
	var decoded map[string]int
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return out, fmt.Errorf("layout: decoding %s: %w", tableID, err)
	}
	for k, v := range decoded {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || v <= 0 {
			continue
		}
		out[idx] = v
	}
	return out, nil
}

// Set replaces the stored widths for tableID.
func (s *Store) Set(tableID string, widths Widths) error {
	if s == nil || s.kv == nil {
		return nil
	}
	encoded := make(map[string]int, len(widths))
	for k, v := range widths {
		encoded[strconv.Itoa(k)] = v
	}
	b, err := json.Marshal(encoded)
	if err != nil {
		return err
	}
	return s.kv.Set(Key(tableID), string(b))
}

// Reset forgets every resized column of tableID.
func (s *Store) Reset(tableID string) error {
	if s == nil || s.kv == nil {
		return nil
	}
	return s.kv.Delete(Key(tableID))
}
