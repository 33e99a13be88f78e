package nestedset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quintans/nestedset/db"
)

func TestInsertScenario(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)

	r := category("R")
	require.NoError(t, tree.MakeRoot(ctx, r))
	assert.Equal(t, Record{Left: 1, Right: 2, Level: 0}, r.Record)
	assert.NotZero(t, r.ID)

	a := category("A")
	require.NoError(t, tree.InsertAsFirstChildOf(ctx, a, r))
	assert.Equal(t, Record{Left: 2, Right: 3, Level: 1}, a.Record)
	assert.Equal(t, Record{Left: 1, Right: 4, Level: 0}, r.Record)

	b := category("B")
	require.NoError(t, tree.InsertAsNextSiblingOf(ctx, b, a))
	assert.Equal(t, Record{Left: 4, Right: 5, Level: 1}, b.Record)
	require.NoError(t, tree.Reload(ctx, r))
	assert.Equal(t, Record{Left: 1, Right: 6, Level: 0}, r.Record)

	children, err := tree.Children(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names(children))

	count, err := tree.CountDescendants(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMoveScenario(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)

	r, a, b := category("R"), category("A"), category("B")
	require.NoError(t, tree.MakeRoot(ctx, r))
	require.NoError(t, tree.InsertAsFirstChildOf(ctx, a, r))
	require.NoError(t, tree.InsertAsNextSiblingOf(ctx, b, a))
	require.NoError(t, tree.Reload(ctx, r))

	require.NoError(t, tree.MoveToFirstChildOf(ctx, b, a))
	require.NoError(t, tree.Reload(ctx, r))

	assert.Equal(t, Record{Left: 2, Right: 5, Level: 1}, a.Record)
	assert.Equal(t, Record{Left: 3, Right: 4, Level: 2}, b.Record)
	assert.Equal(t, Record{Left: 1, Right: 6, Level: 0}, r.Record)
	assert.True(t, IsDescendantOf(b, r))
	assert.True(t, IsDescendantOf(b, a))

	_, ok, err := tree.PrevSibling(ctx, b)
	require.NoError(t, err)
	assert.False(t, ok)
	requireNested(t, tree, 0)
}

func TestMoveRootIntoDescendant(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)
	before := layout(t, tree, 0)

	err := tree.MoveToFirstChildOf(ctx, f["R"], f["A1"])
	require.Error(t, err)
	assert.True(t, IsCycle(err))
	assert.Equal(t, before, layout(t, tree, 0))
}

func TestDeleteDescendantsScenario(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)

	r, a, b := category("R"), category("A"), category("B")
	require.NoError(t, tree.MakeRoot(ctx, r))
	require.NoError(t, tree.InsertAsFirstChildOf(ctx, a, r))
	require.NoError(t, tree.InsertAsNextSiblingOf(ctx, b, a))
	require.NoError(t, tree.Reload(ctx, r))

	deleted, err := tree.DeleteDescendants(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, Record{Left: 1, Right: 2, Level: 0}, r.Record)
	assert.Equal(t, map[string]bounds{"R": {1, 2, 0}}, layout(t, tree, 0))

	deleted, err = tree.DeleteDescendants(ctx, r)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestFixtureLayout(t *testing.T) {
	tree, _ := newTree(t, false)
	buildFixture(t, tree, 0)

	assert.Equal(t, map[string]bounds{
		"R":  {1, 14, 0},
		"A":  {2, 7, 1},
		"A1": {3, 4, 2},
		"A2": {5, 6, 2},
		"B":  {8, 9, 1},
		"C":  {10, 13, 1},
		"C1": {11, 12, 2},
	}, layout(t, tree, 0))
	requireNested(t, tree, 0)
}

func TestInsertPositions(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)

	require.NoError(t, tree.InsertAsPrevSiblingOf(ctx, category("X"), f["B"]))
	require.NoError(t, tree.AddChild(ctx, f["C"], category("Y")))
	f.reload(t, tree)
	require.NoError(t, tree.InsertAsLastChildOf(ctx, category("Z"), f["C"]))

	children, err := tree.Children(ctx, f["R"])
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "X", "B", "C"}, names(children))

	f.reload(t, tree)
	children, err = tree.Children(ctx, f["C"])
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "C1", "Z"}, names(children))
	requireNested(t, tree, 0)
}

func TestInsertGuards(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)

	err := tree.InsertAsLastChildOf(ctx, f["B"], f["A"])
	assert.True(t, IsStructural(err))

	err = tree.InsertAsNextSiblingOf(ctx, category("X"), f["R"])
	assert.True(t, IsStructural(err))

	err = tree.InsertAsPrevSiblingOf(ctx, category("X"), f["R"])
	assert.True(t, IsStructural(err))

	err = tree.InsertAsFirstChildOf(ctx, category("X"), category("detached"))
	assert.True(t, IsStructural(err))

	requireNested(t, tree, 0)
}

func TestInsertRollback(t *testing.T) {
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)
	before := layout(t, tree, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	x := category("X")
	err := tree.InsertAsFirstChildOf(ctx, x, f["A"])
	require.Error(t, err)
	assert.True(t, IsTransactionFailure(err))
	assert.False(t, x.InTree())
	assert.Zero(t, x.ID)

	assert.Equal(t, before, layout(t, tree, 0))
}

func TestMakeRoot(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, true)

	r := category("R")
	r.Scope = 1
	require.NoError(t, tree.MakeRoot(ctx, r))

	err := tree.MakeRoot(ctx, r)
	assert.True(t, IsStructural(err))

	other := category("other")
	other.Scope = 1
	err = tree.MakeRoot(ctx, other)
	require.Error(t, err)
	assert.True(t, IsUniqueness(err))
	assert.False(t, other.InTree())

	second := category("second")
	second.Scope = 2
	require.NoError(t, tree.MakeRoot(ctx, second))

	roots, err := tree.Roots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"R", "second"}, names(roots))
}

func TestRoundTripInsertDelete(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)
	before := layout(t, tree, 0)

	x := category("X")
	require.NoError(t, tree.InsertAsFirstChildOf(ctx, x, f["B"]))
	assert.NotEqual(t, before, layout(t, tree, 0))

	require.NoError(t, tree.Delete(ctx, x))
	assert.False(t, x.InTree())
	assert.Equal(t, before, layout(t, tree, 0))
}

func TestMoveToCurrentPosition(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)
	before := layout(t, tree, 0)

	require.NoError(t, tree.MoveToFirstChildOf(ctx, f["A"], f["R"]))
	assert.Equal(t, before, layout(t, tree, 0))

	require.NoError(t, tree.MoveToNextSiblingOf(ctx, f["A2"], f["A1"]))
	assert.Equal(t, before, layout(t, tree, 0))
}

func TestMoves(t *testing.T) {
	cases := []struct {
		name     string
		move     func(ctx context.Context, tree *Tree[*Category], f fixture) error
		expected map[string]bounds
	}{
		{
			name: "last child",
			move: func(ctx context.Context, tree *Tree[*Category], f fixture) error {
				return tree.MoveToLastChildOf(ctx, f["C1"], f["A"])
			},
			expected: map[string]bounds{
				"R": {1, 14, 0}, "A": {2, 9, 1}, "A1": {3, 4, 2}, "A2": {5, 6, 2}, "C1": {7, 8, 2},
				"B": {10, 11, 1}, "C": {12, 13, 1},
			},
		},
		{
			name: "prev sibling",
			move: func(ctx context.Context, tree *Tree[*Category], f fixture) error {
				return tree.MoveToPrevSiblingOf(ctx, f["C"], f["A"])
			},
			expected: map[string]bounds{
				"R": {1, 14, 0}, "C": {2, 5, 1}, "C1": {3, 4, 2}, "A": {6, 11, 1}, "A1": {7, 8, 2},
				"A2": {9, 10, 2}, "B": {12, 13, 1},
			},
		},
		{
			name: "next sibling",
			move: func(ctx context.Context, tree *Tree[*Category], f fixture) error {
				return tree.MoveToNextSiblingOf(ctx, f["A"], f["C"])
			},
			expected: map[string]bounds{
				"R": {1, 14, 0}, "B": {2, 3, 1}, "C": {4, 7, 1}, "C1": {5, 6, 2}, "A": {8, 13, 1},
				"A1": {9, 10, 2}, "A2": {11, 12, 2},
			},
		},
		{
			name: "first child deeper",
			move: func(ctx context.Context, tree *Tree[*Category], f fixture) error {
				return tree.MoveToFirstChildOf(ctx, f["A"], f["C1"])
			},
			expected: map[string]bounds{
				"R": {1, 14, 0}, "B": {2, 3, 1}, "C": {4, 13, 1}, "C1": {5, 12, 2}, "A": {6, 11, 3},
				"A1": {7, 8, 4}, "A2": {9, 10, 4},
			},
		},
		{
			name: "first child shallower",
			move: func(ctx context.Context, tree *Tree[*Category], f fixture) error {
				return tree.MoveToFirstChildOf(ctx, f["C1"], f["R"])
			},
			expected: map[string]bounds{
				"R": {1, 14, 0}, "C1": {2, 3, 1}, "A": {4, 9, 1}, "A1": {5, 6, 2}, "A2": {7, 8, 2},
				"B": {10, 11, 1}, "C": {12, 13, 1},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tree, _ := newTree(t, false)
			f := buildFixture(t, tree, 0)

			require.NoError(t, c.move(context.Background(), tree, f))
			assert.Equal(t, c.expected, layout(t, tree, 0))
			requireNested(t, tree, 0)
		})
	}
}

func TestMoveRefreshesNodes(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)

	require.NoError(t, tree.MoveToLastChildOf(ctx, f["C1"], f["A"]))
	assert.Equal(t, Record{Left: 7, Right: 8, Level: 2}, f["C1"].Record)
	assert.Equal(t, Record{Left: 2, Right: 9, Level: 1}, f["A"].Record)
}

func TestMoveGuards(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)
	before := layout(t, tree, 0)

	err := tree.MoveToFirstChildOf(ctx, f["A"], f["A1"])
	assert.True(t, IsCycle(err))

	err = tree.MoveToLastChildOf(ctx, f["A"], f["A"])
	assert.True(t, IsCycle(err))

	err = tree.MoveToNextSiblingOf(ctx, f["A2"], f["R"])
	assert.True(t, IsStructural(err))

	err = tree.MoveToPrevSiblingOf(ctx, category("detached"), f["A"])
	assert.True(t, IsStructural(err))

	err = tree.MoveSubtreeTo(ctx, f["A"], 3, 1, 0)
	assert.True(t, IsCycle(err))

	err = tree.MoveSubtreeTo(ctx, f["A"], 1, 0, 0)
	assert.True(t, IsStructural(err))

	err = tree.MoveSubtreeTo(ctx, f["A"], 15, 0, 0)
	assert.True(t, IsStructural(err))

	assert.Equal(t, before, layout(t, tree, 0))
}

func TestMoveWithStaleNode(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)

	stale := *f["C"]
	require.NoError(t, tree.InsertAsFirstChildOf(ctx, category("X"), f["A"]))

	// the in-memory labels of stale are behind the table
	require.NoError(t, tree.MoveToFirstChildOf(ctx, &stale, f["B"]))
	children, err := tree.Children(ctx, f["B"])
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, names(children))
	requireNested(t, tree, 0)
}

func TestCrossScopeMove(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, true)
	f := buildFixture(t, tree, 1)

	s := category("S")
	s.Scope = 2
	require.NoError(t, tree.MakeRoot(ctx, s))

	require.NoError(t, tree.MoveToLastChildOf(ctx, f["C"], s))
	assert.Equal(t, int64(2), f["C"].Scope)
	assert.Equal(t, Record{Left: 1, Right: 6, Level: 0, Scope: 2}, s.Record)

	assert.Equal(t, map[string]bounds{
		"S": {1, 6, 0}, "C": {2, 5, 1}, "C1": {3, 4, 2},
	}, layout(t, tree, 2))
	assert.Equal(t, map[string]bounds{
		"R": {1, 10, 0}, "A": {2, 7, 1}, "A1": {3, 4, 2}, "A2": {5, 6, 2}, "B": {8, 9, 1},
	}, layout(t, tree, 1))
	requireNested(t, tree, 1)
	requireNested(t, tree, 2)

	// a whole tree can join another scope
	require.NoError(t, tree.MoveToPrevSiblingOf(ctx, s, f["A"]))
	assert.Empty(t, layout(t, tree, 2))
	assert.Equal(t, map[string]bounds{
		"R": {1, 16, 0}, "S": {2, 7, 1}, "C": {3, 6, 2}, "C1": {4, 5, 3},
		"A": {8, 13, 1}, "A1": {9, 10, 2}, "A2": {11, 12, 2}, "B": {14, 15, 1},
	}, layout(t, tree, 1))
	requireNested(t, tree, 1)

	_, ok, err := tree.Root(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScopeIsolation(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, true)
	f1 := buildFixture(t, tree, 1)
	buildFixture(t, tree, 2)
	other := layout(t, tree, 2)

	require.NoError(t, tree.InsertAsFirstChildOf(ctx, category("X"), f1["A"]))
	f1.reload(t, tree)
	require.NoError(t, tree.MoveToLastChildOf(ctx, f1["A"], f1["C1"]))
	f1.reload(t, tree)
	_, err := tree.DeleteDescendants(ctx, f1["C"])
	require.NoError(t, err)
	require.NoError(t, tree.Delete(ctx, f1["B"]))

	assert.Equal(t, other, layout(t, tree, 2))
	requireNested(t, tree, 1)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)

	require.NoError(t, tree.Delete(ctx, f["C"]))
	assert.False(t, f["C"].InTree())
	assert.Equal(t, map[string]bounds{
		"R": {1, 10, 0}, "A": {2, 7, 1}, "A1": {3, 4, 2}, "A2": {5, 6, 2}, "B": {8, 9, 1},
	}, layout(t, tree, 0))

	err := tree.Delete(ctx, f["R"])
	assert.True(t, IsProtectedDeletion(err))

	err = tree.Delete(ctx, f["C"])
	assert.True(t, IsStructural(err))
}

func TestDeleteDescendants(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)

	deleted, err := tree.DeleteDescendants(ctx, f["A"])
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, Record{Left: 2, Right: 3, Level: 1}, f["A"].Record)
	assert.Equal(t, map[string]bounds{
		"R": {1, 10, 0}, "A": {2, 3, 1}, "B": {4, 5, 1}, "C": {6, 9, 1}, "C1": {7, 8, 2},
	}, layout(t, tree, 0))
	requireNested(t, tree, 0)
}

func TestDeleteTree(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, true)
	buildFixture(t, tree, 1)
	buildFixture(t, tree, 2)

	deleted, err := tree.DeleteTree(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.Empty(t, layout(t, tree, 1))
	assert.Len(t, layout(t, tree, 2), 7)

	// the scope can have a root again
	r := category("R")
	r.Scope = 1
	require.NoError(t, tree.MakeRoot(ctx, r))
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	tree, _ := newTree(t, false)
	f := buildFixture(t, tree, 0)

	b := f["B"]
	b.Name = "Bee"
	// stale labels are not written
	b.Left, b.Right = 100, 101
	require.NoError(t, tree.Save(ctx, b))
	assert.Equal(t, Record{Left: 8, Right: 9, Level: 1}, b.Record)

	loaded, ok, err := tree.FindByKey(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bee", loaded.Name)
	requireNested(t, tree, 0)
}

func TestBoundTree(t *testing.T) {
	ctx := context.Background()
	tree, tm := newTree(t, false)
	f := buildFixture(t, tree, 0)
	before := layout(t, tree, 0)

	err := tm.TransactionContext(ctx, func(DB db.IDb) error {
		inner := tree.With(DB)
		if err := inner.InsertAsFirstChildOf(ctx, category("X"), f["B"]); err != nil {
			return err
		}
		n, err := inner.CountChildren(ctx, f["B"])
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), n)
		return errors.New("rollback")
	})
	require.Error(t, err)
	assert.Equal(t, before, layout(t, tree, 0))
}
