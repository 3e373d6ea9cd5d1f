package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekirdag/admin-console/internal/dialog"
	"github.com/bekirdag/admin-console/internal/grid"
)

func TestCatalogueIsConsistent(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range All() {
		t.Run(r.ID, func(t *testing.T) {
			require.NoError(t, r.Grid.Validate())
			assert.False(t, seen[r.Grid.TableID], "table ids are unique")
			seen[r.Grid.TableID] = true
			assert.Equal(t, r.Grid.Resource, r.Dialog.Resource)

			if r.Grid.DefaultSort != "" {
				col, ok := r.Grid.Column(r.Grid.DefaultSort)
				require.True(t, ok, "default sort %q is a column", r.Grid.DefaultSort)
				assert.True(t, col.Sortable)
			}
			facets := map[string]bool{}
			for _, f := range r.Grid.Facets() {
				facets[f] = true
			}
			for _, field := range r.Dialog.Fields {
				if field.Kind == dialog.SelectField {
					assert.True(t, facets[field.Facet], "field %s uses a loaded facet", field.Key)
				}
			}
			if dr := r.Grid.DateRange; dr != nil {
				keys := map[string]bool{}
				for _, f := range r.Grid.Filters {
					keys[f.Key] = true
				}
				assert.True(t, keys[dr.StartKey] && keys[dr.EndKey])
			}
		})
	}
}

func TestOnlySubjectsSoftDelete(t *testing.T) {
	for _, r := range All() {
		assert.Equal(t, r.ID == "subjects", r.Dialog.SoftDelete, r.ID)
	}
}

func TestSelect(t *testing.T) {
	all, err := Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, []string{"contests", "members", "orders", "subjects", "tickets", "users"}, Names())

	picked, err := Select([]string{"Users", "contests"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "contests", picked[0].ID, "catalogue order wins")
	assert.Equal(t, "users", picked[1].ID)

	_, err = Select([]string{"invoices"})
	assert.Error(t, err)
}

func TestAllReturnsCopy(t *testing.T) {
	list := All()
	list[0].Title = "changed"
	r, ok := Lookup("contests")
	require.True(t, ok)
	assert.Equal(t, "Contests", r.Title)
	assert.Equal(t, grid.Asc, mustLookup(t, "subjects").Grid.DefaultDirection)
}

func mustLookup(t *testing.T, id string) Resource {
	t.Helper()
	r, ok := Lookup(id)
	require.True(t, ok)
	return r
}
