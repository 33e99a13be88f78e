package nestedset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quintans/nestedset/db"
)

func TestCacheCopies(t *testing.T) {
	cache, err := NewCache[*Category](2, newCategory)
	require.NoError(t, err)

	p := &Category{ID: 1, Name: "P", Record: Record{Left: 1, Right: 4}}
	cache.Put(0, 2, p)
	p.Name = "changed"

	got, ok := cache.Get(0, 2)
	require.True(t, ok)
	assert.Equal(t, "P", got.Name)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, Record{Left: 1, Right: 4}, got.Record)

	got.Name = "changed"
	again, _ := cache.Get(0, 2)
	assert.Equal(t, "P", again.Name)
}

func TestCachePurgeScope(t *testing.T) {
	cache, err := NewCache[*Category](10, newCategory)
	require.NoError(t, err)

	cache.Put(1, 10, category("a"))
	cache.Put(1, 11, category("b"))
	cache.Put(2, 20, category("c"))
	assert.Equal(t, 3, cache.Len())

	cache.PurgeScope(1)
	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get(2, 20)
	assert.True(t, ok)

	cache.Purge()
	assert.Zero(t, cache.Len())
}

func TestNilCache(t *testing.T) {
	var cache *Cache[*Category]
	cache.Put(0, 1, category("a"))
	_, ok := cache.Get(0, 1)
	assert.False(t, ok)
	cache.PurgeScope(0)
	cache.Purge()
	assert.Zero(t, cache.Len())
}

func TestCacheSkipsPutAfterPurge(t *testing.T) {
	cache, err := NewCache[*Category](10, newCategory)
	require.NoError(t, err)

	gen := cache.generation(1)
	cache.PurgeScope(2)
	assert.True(t, cache.putIfCurrent(1, 10, category("a"), gen))

	gen = cache.generation(1)
	cache.PurgeScope(1)
	assert.False(t, cache.putIfCurrent(1, 11, category("b"), gen))

	gen = cache.generation(1)
	cache.Purge()
	assert.False(t, cache.putIfCurrent(1, 12, category("c"), gen))
	assert.Zero(t, cache.Len())

	var none *Cache[*Category]
	assert.False(t, none.putIfCurrent(1, 13, category("d"), none.generation(1)))
}

func TestParentRejectsStaleEntry(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)

	// R held A1 before A was inserted between them
	tree.Cache().Put(0, f["A1"].ID, f["R"])

	parent, ok, err := tree.Parent(ctx, f["A1"])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", parent.Name)

	cached, ok := tree.Cache().Get(0, f["A1"].ID)
	require.True(t, ok)
	assert.Equal(t, "A", cached.Name)
}

func TestTransactionPurgesAfterCommit(t *testing.T) {
	ctx := context.Background()
	tree, _ := treeOn(t, openWAL(t), true)
	f := buildFixture(t, tree, 1)
	stale := clone(f["B"], newCategory)

	err := tree.Transaction(ctx, func(tx *Tree[*Category]) error {
		if err := tx.MoveToFirstChildOf(ctx, f["B"], f["A"]); err != nil {
			return err
		}
		assert.Equal(t, bounds{3, 4, 2}, bounds{f["B"].Left, f["B"].Right, f["B"].Level})

		// readers outside the transaction still see B under R
		parent, ok, err := tree.Parent(ctx, stale)
		if err != nil {
			return err
		}
		if assert.True(t, ok) {
			assert.Equal(t, "R", parent.Name)
		}
		return nil
	})
	require.NoError(t, err)

	_, ok := tree.Cache().Get(1, stale.ID)
	assert.False(t, ok)

	require.NoError(t, tree.Reload(ctx, stale))
	assert.Equal(t, bounds{3, 4, 2}, bounds{stale.Left, stale.Right, stale.Level})
	parent, ok, err := tree.Parent(ctx, stale)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", parent.Name)
}

func TestPurgeTouched(t *testing.T) {
	ctx := context.Background()
	tree, tm := newTree(t, true)
	f := buildFixture(t, tree, 1)
	g := buildFixture(t, tree, 2)

	var inner *Tree[*Category]
	err := tm.TransactionContext(ctx, func(DB db.IDb) error {
		inner = tree.With(DB)
		// trees bound from a bound tree share its scopes
		if err := inner.With(DB).MoveToFirstChildOf(ctx, f["B"], f["A"]); err != nil {
			return err
		}
		// a concurrent reader cached the parent of B from the last commit
		tree.Cache().Put(1, f["B"].ID, f["R"])
		tree.Cache().Put(2, g["B"].ID, g["R"])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Cache().Len())

	inner.PurgeTouched()
	_, ok := tree.Cache().Get(1, f["B"].ID)
	assert.False(t, ok)
	_, ok = tree.Cache().Get(2, g["B"].ID)
	assert.True(t, ok)

	// drained
	tree.Cache().Put(1, f["B"].ID, f["A"])
	inner.PurgeTouched()
	assert.Equal(t, 2, tree.Cache().Len())

	// unbound trees own no scopes
	tree.PurgeTouched()
	assert.Equal(t, 2, tree.Cache().Len())
}

func TestParentIsCached(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, true)
	f := buildFixture(t, tree, 1)
	buildFixture(t, tree, 2)
	tree.Cache().Purge()

	_, ok, err := tree.Parent(ctx, f["A2"])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, tree.Cache().Len())

	cached, ok := tree.Cache().Get(1, f["A2"].ID)
	require.True(t, ok)
	assert.Equal(t, "A", cached.Name)

	// a mutation in another scope keeps the entry
	other, ok, err := tree.Root(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, tree.InsertAsFirstChildOf(ctx, category("X"), other))
	assert.Equal(t, 1, tree.Cache().Len())

	require.NoError(t, tree.MoveToFirstChildOf(ctx, f["A2"], f["C"]))
	assert.Zero(t, tree.Cache().Len())

	parent, ok, err := tree.Parent(ctx, f["A2"])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "C", parent.Name)
}

func TestWithoutCache(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false, WithoutCache())
	f := buildFixture(t, tree, 0)
	assert.Nil(t, tree.Cache())

	parent, ok, err := tree.Parent(ctx, f["C1"])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "C", parent.Name)
}
