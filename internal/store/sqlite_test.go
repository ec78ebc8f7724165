package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/choropleth/internal/classify"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateStyle(ctx, "population", sampleRangeSet(t))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "pop", created.Attribute)
	assert.Equal(t, "custom", created.Mode)
	assert.Equal(t, "color", created.Method)
	assert.Equal(t, 3, created.Classes)

	got, err := st.GetStyle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "population", got.Name)
	require.NotNil(t, got.RangeSet)
	assert.Equal(t, 3, got.RangeSet.Len())
	assert.Equal(t, classify.Custom, got.RangeSet.Mode())

	r, ok := got.RangeSet.Range(2)
	require.True(t, ok)
	assert.InDelta(t, 20.0, r.Lower(), 1e-9)
	assert.InDelta(t, 30.0, r.Upper(), 1e-9)
}

func TestSQLite_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetStyle(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.GetStyleByName(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_DuplicateName(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateStyle(ctx, "population", sampleRangeSet(t))
	require.NoError(t, err)
	_, err = st.CreateStyle(ctx, "population", sampleRangeSet(t))
	assert.Error(t, err)
}

func TestSQLite_Update(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateStyle(ctx, "population", sampleRangeSet(t))
	require.NoError(t, err)

	rs := sampleRangeSet(t)
	require.NoError(t, rs.DeleteClass(0))
	rs.UpdateRangeLabel(0, "middle")
	require.NoError(t, st.UpdateStyle(ctx, created.ID, rs))

	got, err := st.GetStyleByName(ctx, "population")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Classes)
	r, _ := got.RangeSet.Range(0)
	assert.Equal(t, "middle", r.Label())

	err = st.UpdateStyle(ctx, "nonexistent", rs)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListAndFilter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateStyle(ctx, "a", sampleRangeSet(t))
	require.NoError(t, err)
	_, err = st.CreateStyle(ctx, "b", sampleRangeSet(t))
	require.NoError(t, err)

	other := sampleRangeSet(t)
	other.SetAttribute("income")
	_, err = st.CreateStyle(ctx, "c", other)
	require.NoError(t, err)

	all, err := st.ListStyles(ctx, StyleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, s := range all {
		assert.Nil(t, s.RangeSet)
	}

	pop, err := st.ListStyles(ctx, StyleFilter{Attribute: "pop"})
	require.NoError(t, err)
	assert.Len(t, pop, 2)

	page, err := st.ListStyles(ctx, StyleFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestSQLite_Delete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateStyle(ctx, "population", sampleRangeSet(t))
	require.NoError(t, err)
	require.NoError(t, st.DeleteStyle(ctx, created.ID))

	_, err = st.GetStyle(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.DeleteStyle(ctx, created.ID), ErrNotFound)
}
