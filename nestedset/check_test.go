package nestedset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quintans/nestedset/db"
)

// corrupt writes a column behind the back of the tree
func corrupt(t *testing.T, tm db.ITransactionManager, key int64, col *db.Column, value int64) {
	t.Helper()
	_, err := tm.Store().Update(CATEGORY).Set(col, value).Where(CATEGORY_C_ID.Matches(key)).Execute()
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	tree, tm := newTree(t, false)
	f := buildFixture(t, tree, 0)
	require.NoError(t, tree.Validate(ctx, 0))

	corrupt(t, tm, f["B"].ID, CATEGORY_C_RGT, 20)
	err := tree.Validate(ctx, 0)
	require.Error(t, err)
	assert.True(t, IsStructural(err))
}

func TestValidateReportsNode(t *testing.T) {
	ctx := context.Background()
	tree, tm := newTree(t, false)
	f := buildFixture(t, tree, 0)

	corrupt(t, tm, f["A2"].ID, CATEGORY_C_LVL, 5)
	err := tree.Validate(ctx, 0)
	var violation *StructuralViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, f["A2"].ID, violation.Key)
	assert.Equal(t, "Validate", violation.Op)
	assert.Equal(t, FAULT_STRUCTURE, violation.Code)
}

func TestValidateEmpty(t *testing.T) {
	tree, _ := newTree(t, false)
	assert.NoError(t, tree.Validate(context.Background(), 0))
}

func TestValidateShapes(t *testing.T) {
	n := func(key, left, right, level int64) *Category {
		return &Category{ID: key, Record: Record{Left: left, Right: right, Level: level}}
	}
	cases := []struct {
		name  string
		nodes []*Category
		bad   int64
	}{
		{"valid", []*Category{n(1, 1, 4, 0), n(2, 2, 3, 1)}, 0},
		{"gap", []*Category{n(1, 1, 6, 0), n(2, 2, 3, 1), n(3, 5, 6, 1)}, 3},
		{"two roots", []*Category{n(1, 1, 2, 0), n(2, 3, 4, 0)}, 2},
		{"overlap", []*Category{n(1, 1, 4, 0), n(2, 2, 5, 1), n(3, 3, 6, 1)}, 2},
		{"not starting at one", []*Category{n(1, 2, 3, 0)}, 1},
		{"empty interval", []*Category{n(1, 1, 1, 0)}, 1},
		{"open root", []*Category{n(1, 1, 6, 0), n(2, 2, 3, 1)}, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validate("Validate", 0, c.nodes)
			if c.bad == 0 {
				require.NoError(t, err)
				return
			}
			var violation *StructuralViolation
			require.ErrorAs(t, err, &violation)
			assert.Equal(t, c.bad, violation.Key)
		})
	}
}

func TestFixLevels(t *testing.T) {
	ctx := context.Background()
	tree, tm := newTree(t, false)
	f := buildFixture(t, tree, 0)

	corrupt(t, tm, f["A2"].ID, CATEGORY_C_LVL, 5)
	corrupt(t, tm, f["C"].ID, CATEGORY_C_LVL, 0)
	require.Error(t, tree.Validate(ctx, 0))

	fixed, err := tree.FixLevels(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fixed)
	require.NoError(t, tree.Validate(ctx, 0))

	fixed, err = tree.FixLevels(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

func TestUnscopedChecksIgnoreScope(t *testing.T) {
	ctx := context.Background()
	tree, tm := newTree(t, false)
	f := buildFixture(t, tree, 0)
	require.NoError(t, tree.Validate(ctx, 5))

	_, ok, err := tree.Parent(ctx, f["A1"])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, tree.Cache().Len())

	corrupt(t, tm, f["A2"].ID, CATEGORY_C_LVL, 5)
	err = tree.Validate(ctx, 5)
	var violation *StructuralViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, int64(0), violation.Scope)

	fixed, err := tree.FixLevels(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fixed)
	assert.Zero(t, tree.Cache().Len())
	require.NoError(t, tree.Validate(ctx, 0))
}
