package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekirdag/admin-console/internal/localstore"
)

func TestStore_RoundTripUnderTableKey(t *testing.T) {
	kv := localstore.NewMemory()
	s := New(kv)

	require.NoError(t, s.Set("contests", Widths{0: 120, 3: 50}))

	raw, ok, err := kv.Get("columnWidths:contests")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"0":120,"3":50}`, raw)

	got, err := s.Get("contests")
	require.NoError(t, err)
	assert.Equal(t, Widths{0: 120, 3: 50}, got)
	assert.Equal(t, []int{0, 3}, got.Indexes())
}

func TestStore_MissingTableIsEmpty(t *testing.T) {
	got, err := New(localstore.NewMemory()).Get("users")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_CorruptEntry(t *testing.T) {
	kv := localstore.NewMemory()
	require.NoError(t, kv.Set(Key("orders"), "not json"))

	got, err := New(kv).Get("orders")
	assert.Error(t, err)
	assert.Empty(t, got)
}

func TestStore_SkipsUnusableEntries(t *testing.T) {
	kv := localstore.NewMemory()
	require.NoError(t, kv.Set(Key("orders"), `{"1":80,"x":10,"-1":90,"2":0}`))

	got, err := New(kv).Get("orders")
	require.NoError(t, err)
	assert.Equal(t, Widths{1: 80}, got)
}

func TestStore_Reset(t *testing.T) {
	kv := localstore.NewMemory()
	s := New(kv)
	require.NoError(t, s.Set("tickets", Widths{1: 200}))
	require.NoError(t, s.Reset("tickets"))
	got, err := s.Get("tickets")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTableID(t *testing.T) {
	id, ok := TableID("columnWidths:members")
	assert.True(t, ok)
	assert.Equal(t, "members", id)
	_, ok = TableID("ui:theme")
	assert.False(t, ok)
}

func TestWidthsCloneIsIndependent(t *testing.T) {
	w := Widths{0: 100}
	c := w.Clone()
	c[0] = 60
	assert.Equal(t, 100, w[0])
}
