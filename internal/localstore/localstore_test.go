package localstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SetGetOverwrite(t *testing.T) {
	s := openTemp(t)

	_, ok, err := s.Get("columnWidths:contests")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("columnWidths:contests", `{"0":120}`))
	require.NoError(t, s.Set("columnWidths:contests", `{"0":140}`))

	v, ok, err := s.Get("columnWidths:contests")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"0":140}`, v)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, filepath.Join(dir, FileName), reopened.Path())

	v, ok, err := reopened.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestStore_KeysAndDelete(t *testing.T) {
	s := openTemp(t)
	for _, k := range []string{"columnWidths:users", "columnWidths:orders", "ui:theme"} {
		require.NoError(t, s.Set(k, "x"))
	}

	keys, err := s.Keys("columnWidths:")
	require.NoError(t, err)
	assert.Equal(t, []string{"columnWidths:orders", "columnWidths:users"}, keys)

	require.NoError(t, s.Delete("columnWidths:users"))
	require.NoError(t, s.DeleteAll([]string{"columnWidths:orders", ""}))
	keys, err = s.Keys("")
	require.NoError(t, err)
	assert.Equal(t, []string{"ui:theme"}, keys)
}

func TestStore_RejectsEmptyKey(t *testing.T) {
	s := openTemp(t)
	assert.ErrorIs(t, s.Set(" ", "v"), ErrEmptyKey)
	assert.ErrorIs(t, NewMemory().Set("", "v"), ErrEmptyKey)
}

func TestStore_NilIsEmpty(t *testing.T) {
	var s *Store
	v, ok, err := s.Get("k")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.NoError(t, s.Set("k", "v"))
	assert.NoError(t, s.Close())
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set("a", "1"))
	v, ok, _ := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	require.NoError(t, m.Delete("a"))
	_, ok, _ = m.Get("a")
	assert.False(t, ok)
}
