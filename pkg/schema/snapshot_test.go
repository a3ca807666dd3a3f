package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := NewBadgerStoreInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.Load("g", Label)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save("g", Label, []string{"A", "B"}))
	require.NoError(t, s.Save("g", PropertyKey, []string{}))
	require.NoError(t, s.Save("g2", Label, []string{"X"}))

	names, ok, err := s.Load("g", Label)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, names)

	names, ok, err = s.Load("g", PropertyKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, names)

	graphs, err := s.Graphs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g", "g2"}, graphs)

	require.NoError(t, s.Delete("g"))
	_, ok, err = s.Load("g", Label)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Load("g2", Label)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBadgerStore_Closed(t *testing.T) {
	s, err := NewBadgerStoreInMemory()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, _, err = s.Load("g", Label)
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, s.Save("g", Label, nil), ErrStoreClosed)
}

func TestCache_SnapshotNeverAnswersResolve(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save("social", Label, []string{"Old"}))

	f := newCountingFetcher()
	f.tables[Label] = []string{"New"}
	c := NewCache(f, Options{Graph: "social", Store: s})

	name, err := c.Resolve(ctx, Label, 0)
	require.NoError(t, err)
	assert.Equal(t, "New", name)
	assert.Equal(t, 1, f.count(Label))

	last, ok, err := c.LastKnown(Label)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"New"}, last)

	c.Invalidate()
	_, ok, err = s.Load("social", Label)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_LastKnownWithoutStore(t *testing.T) {
	c := NewCache(newCountingFetcher(), Options{Graph: "social"})
	names, ok, err := c.LastKnown(Label)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, names)
}
