package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekirdag/admin-console/internal/layout"
	"github.com/bekirdag/admin-console/internal/localstore"
)

func seeded(t *testing.T) *localstore.Store {
	t.Helper()
	store, err := localstore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	layouts := layout.New(store)
	require.NoError(t, layouts.Set("contests", layout.Widths{1: 300}))
	require.NoError(t, layouts.Set("users", layout.Widths{0: 80, 2: 90}))
	require.NoError(t, store.Set("ui:theme", "dark"))
	return store
}

func TestList(t *testing.T) {
	store := seeded(t)
	var out bytes.Buffer
	require.NoError(t, run(store, []string{"list"}, &out))
	assert.Contains(t, out.String(), "contests")
	assert.Contains(t, out.String(), "1 resized")
	assert.Contains(t, out.String(), "2 resized")
	assert.NotContains(t, out.String(), "theme")
}

func TestShowMarksResizedColumns(t *testing.T) {
	store := seeded(t)
	var out bytes.Buffer
	require.NoError(t, run(store, []string{"show", "contests"}, &out))
	assert.Contains(t, out.String(), "300px  *")
	assert.Contains(t, out.String(), "60px\n", "unresized id column shows its default")
}

func TestResetAndResetAll(t *testing.T) {
	store := seeded(t)
	var out bytes.Buffer
	require.NoError(t, run(store, []string{"reset", "contests"}, &out))

	keys, err := store.Keys(layout.KeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{layout.Key("users")}, keys)

	require.NoError(t, run(store, []string{"reset-all"}, &out))
	keys, err = store.Keys(layout.KeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, ok, err := store.Get("ui:theme")
	require.NoError(t, err)
	assert.True(t, ok, "other keys survive")
}

func TestRunErrors(t *testing.T) {
	store := seeded(t)
	var out bytes.Buffer
	assert.Error(t, run(store, nil, &out))
	assert.Error(t, run(store, []string{"show"}, &out))
	assert.Error(t, run(store, []string{"explode"}, &out))
}
