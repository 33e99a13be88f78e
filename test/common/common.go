package common

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/quintans/toolkit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/quintans/nestedset/db"
	"github.com/quintans/nestedset/nestedset"
)

var logger = log.LoggerFor("github.com/quintans/nestedset/test")

func init() {
	log.Register("/", log.DEBUG, log.NewConsoleAppender(false), log.NewFileAppender("db_test.log", 0, true, true))
}

var errRollback = errors.New("rollback")

const (
	Firebird = "Firebird"
	MySQL    = "MySQL"
	Postgres = "Postgres"
	SQLite   = "SQLite"
)

func InitDB(driverName, dataSourceName string, translator Translator, initSqlFile string) (*TransactionManager, *sql.DB, error) {
	mydb, err := Connect(driverName, dataSourceName)
	if err != nil {
		return nil, nil, err
	}

	if err = CreateTables(mydb, initSqlFile); err != nil {
		mydb.Close()
		return nil, nil, err
	}

	return NewTransactionManager(mydb, translator), mydb, nil
}

func Connect(driverName, dataSourceName string) (*sql.DB, error) {
	mydb, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	// wake up the database pool
	err = mydb.Ping()
	if err != nil {
		mydb.Close()
		return nil, err
	}
	return mydb, nil
}

func CreateTables(db *sql.DB, initSqlFile string) error {
	logger.Debugf("******* Creating tables from %s *******", initSqlFile)

	sql, err := os.ReadFile(initSqlFile)
	if err != nil {
		return err
	}

	stmts := strings.Split(string(sql), ";\n")

	for _, stmt := range stmts {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			logger.Debug(stmt)
			if _, err := db.Exec(stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResetDB clears the table and writes the seed rows, returning their keys by name
func ResetDB(TM ITransactionManager) map[string]int64 {
	keys := map[string]int64{}
	if err := TM.Transaction(func(DB IDb) error {
		if _, err := DB.Delete(CATEGORY).Execute(); err != nil {
			return err
		}

		for _, s := range seed {
			// a fresh insert per row, so that every row gets a generated key
			id, err := DB.Insert(CATEGORY).
				Columns(CATEGORY_C_SCOPE, CATEGORY_C_LFT, CATEGORY_C_RGT, CATEGORY_C_LVL, CATEGORY_C_NAME).
				Values(s.scope, s.left, s.right, s.level, s.name).
				Execute()
			if err != nil {
				return err
			}
			keys[s.name] = id
		}
		return nil
	}); err != nil {
		panic(err)
	}
	return keys
}

type Tester struct {
	DbName string
	// DriverName is the database/sql driver, used by the sqlx checker
	DriverName string
	Conn       *sql.DB
	// DriverError reports a unique key violation raised by the driver.
	// Without it the concurrent root scenario is skipped.
	DriverError func(error) bool
}

func (tt Tester) RunAll(TM ITransactionManager, t *testing.T) {
	tt.RunFindTree(TM, t)
	tt.RunQueries(TM, t)
	tt.RunInsertFirstChild(TM, t)
	tt.RunInsertSiblings(TM, t)
	tt.RunMakeRoot(TM, t)
	tt.RunRootIndex(TM, t)
	tt.RunConcurrentMakeRoot(TM, t)
	tt.RunMoveWithinScope(TM, t)
	tt.RunMoveCycle(TM, t)
	tt.RunMoveAcrossScopes(TM, t)
	tt.RunDeleteDescendants(TM, t)
	tt.RunDelete(TM, t)
	tt.RunDeleteTree(TM, t)
	tt.RunValidate(TM, t)
	tt.RunBoundTree(TM, t)
}

func (tt Tester) tree(TM ITransactionManager, t *testing.T) *nestedset.Tree[*Category] {
	tree, err := NewTree(TM)
	require.NoError(t, err)
	return tree
}

func (tt Tester) load(TM ITransactionManager, t *testing.T, keys map[string]int64, name string) *Category {
	c, ok, err := tt.tree(TM, t).FindByKey(context.Background(), keys[name])
	require.NoError(t, err)
	require.True(t, ok, "%s was not found", name)
	return c
}

func (tt Tester) checker() *Checker {
	return NewChecker(tt.Conn, tt.DriverName)
}

func (tt Tester) assertScope(t *testing.T, scope int64, names ...string) {
	t.Helper()
	checker := tt.checker()
	require.NoError(t, checker.Check(scope))
	actual, err := checker.Names(scope)
	require.NoError(t, err)
	assert.Equal(t, names, actual)
}

func names(nodes []*Category) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func (tt Tester) RunFindTree(TM ITransactionManager, t *testing.T) {
	ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)

	nodes, err := tree.FindTree(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"R", "A", "A1", "A2", "B", "C", "C1"}, names(nodes))

	nodes, err = tree.FindTree(ctx, 2, CATEGORY_C_NAME.Different("S1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"S"}, names(nodes))

	roots, err := tree.Roots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"R", "S"}, names(roots))
}

func (tt Tester) RunQueries(TM ITransactionManager, t *testing.T) {
	keys := ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)
	a1 := tt.load(TM, t, keys, "A1")
	a := tt.load(TM, t, keys, "A")
	r := tt.load(TM, t, keys, "R")

	ancestors, err := tree.Ancestors(ctx, a1)
	require.NoError(t, err)
	assert.Equal(t, []string{"R", "A"}, names(ancestors))

	children, err := tree.Children(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, names(children))

	count, err := tree.CountDescendants(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)

	next, ok, err := tree.NextSibling(ctx, a)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "B", next.Name)

	parent, ok, err := tree.Parent(ctx, a1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", parent.Name)

	root, ok, err := tree.Root(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "S", root.Name)

	assert.True(t, nestedset.IsDescendantOf(a1, r))
	assert.False(t, nestedset.IsDescendantOf(a1, root))
}

func (tt Tester) RunInsertFirstChild(TM ITransactionManager, t *testing.T) {
	keys := ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)
	b := tt.load(TM, t, keys, "B")

	x := &Category{Name: "X"}
	require.NoError(t, tree.InsertAsFirstChildOf(ctx, x, b))
	assert.NotZero(t, x.Id)
	assert.Equal(t, [3]int64{9, 10, 2}, [3]int64{x.Left, x.Right, x.Level})
	assert.Equal(t, [2]int64{8, 11}, [2]int64{b.Left, b.Right})

	tt.assertScope(t, 1, "R", "A", "A1", "A2", "B", "X", "C", "C1")
	tt.assertScope(t, 2, "S", "S1")
}

func (tt Tester) RunInsertSiblings(TM ITransactionManager, t *testing.T) {
	keys := ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)
	b := tt.load(TM, t, keys, "B")

	require.NoError(t, tree.InsertAsPrevSiblingOf(ctx, &Category{Name: "P"}, b))
	require.NoError(t, tree.InsertAsNextSiblingOf(ctx, &Category{Name: "N"}, b))
	require.NoError(t, tree.AddChild(ctx, b, &Category{Name: "B1"}))

	tt.assertScope(t, 1, "R", "A", "A1", "A2", "P", "B", "B1", "N", "C", "C1")

	r := tt.load(TM, t, keys, "R")
	err := tree.InsertAsNextSiblingOf(ctx, &Category{Name: "Z"}, r)
	require.Error(t, err)
	assert.True(t, nestedset.IsStructural(err))
}

func (tt Tester) RunMakeRoot(TM ITransactionManager, t *testing.T) {
	ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)

	n := &Category{Name: "T"}
	n.Scope = 3
	require.NoError(t, tree.MakeRoot(ctx, n))
	assert.Equal(t, [3]int64{1, 2, 0}, [3]int64{n.Left, n.Right, n.Level})
	tt.assertScope(t, 3, "T")

	dup := &Category{Name: "U"}
	dup.Scope = 1
	err := tree.MakeRoot(ctx, dup)
	require.Error(t, err)
	assert.True(t, nestedset.IsUniqueness(err))
	assert.False(t, dup.InTree())
	assert.Zero(t, dup.Id)
	tt.assertScope(t, 1, "R", "A", "A1", "A2", "B", "C", "C1")
}

// RunRootIndex writes a second root behind the engine's back, the database must refuse it
func (tt Tester) RunRootIndex(TM ITransactionManager, t *testing.T) {
	ResetDB(TM)

	err := TM.Transaction(func(DB IDb) error {
		_, err := DB.Insert(CATEGORY).
			Columns(CATEGORY_C_SCOPE, CATEGORY_C_LFT, CATEGORY_C_RGT, CATEGORY_C_LVL, CATEGORY_C_NAME).
			Values(2, 1, 2, 0, "Intruder").
			Execute()
		return err
	})
	require.Error(t, err)
	tt.assertScope(t, 2, "S", "S1")
}

// RunConcurrentMakeRoot races MakeRoot with an uncommitted root of the same scope.
// The count of MakeRoot misses the open root, so the unique index has the last word.
func (tt Tester) RunConcurrentMakeRoot(TM ITransactionManager, t *testing.T) {
	if tt.DriverError == nil {
		logger.Debugf("%s: skipping the concurrent root scenario", tt.DbName)
		return
	}
	ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)

	done := make(chan error, 1)
	err := TM.TransactionContext(ctx, func(DB IDb) error {
		_, err := DB.Insert(CATEGORY).
			Columns(CATEGORY_C_SCOPE, CATEGORY_C_LFT, CATEGORY_C_RGT, CATEGORY_C_LVL, CATEGORY_C_NAME).
			Values(4, 1, 2, 0, "First").
			Execute()
		if err != nil {
			return err
		}
		go func() {
			late := &Category{Name: "Late"}
			late.Scope = 4
			done <- tree.MakeRoot(ctx, late)
		}()
		// the insert of MakeRoot waits on the index until this transaction ends
		time.Sleep(500 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	err = <-done
	require.Error(t, err)
	assert.True(t, nestedset.IsUniqueness(err))
	var violation *nestedset.UniquenessViolation
	require.ErrorAs(t, err, &violation)
	assert.True(t, nestedset.IsTransactionFailure(violation.Cause))
	assert.True(t, tt.DriverError(violation.Cause), "driver error not found in %v", violation.Cause)
	tt.assertScope(t, 4, "First")
}

func (tt Tester) RunMoveWithinScope(TM ITransactionManager, t *testing.T) {
	keys := ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)
	c := tt.load(TM, t, keys, "C")
	a := tt.load(TM, t, keys, "A")

	require.NoError(t, tree.MoveToFirstChildOf(ctx, c, a))
	assert.Equal(t, [3]int64{3, 6, 2}, [3]int64{c.Left, c.Right, c.Level})
	tt.assertScope(t, 1, "R", "A", "C", "C1", "A1", "A2", "B")

	a2 := tt.load(TM, t, keys, "A2")
	require.NoError(t, tree.MoveToNextSiblingOf(ctx, a2, a))
	tt.assertScope(t, 1, "R", "A", "C", "C1", "A1", "A2", "B")

	c1 := tt.load(TM, t, keys, "C1")
	b := tt.load(TM, t, keys, "B")
	require.NoError(t, tree.MoveToPrevSiblingOf(ctx, c1, b))
	tt.assertScope(t, 1, "R", "A", "C", "A1", "A2", "C1", "B")

	rows, err := tt.checker().Rows(1)
	require.NoError(t, err)
	levels := map[string]int64{}
	for _, r := range rows {
		levels[r.Name] = r.Level
	}
	assert.Equal(t, map[string]int64{"R": 0, "A": 1, "C": 2, "A1": 2, "A2": 1, "C1": 1, "B": 1}, levels)
}

func (tt Tester) RunMoveCycle(TM ITransactionManager, t *testing.T) {
	keys := ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)
	a := tt.load(TM, t, keys, "A")
	a1 := tt.load(TM, t, keys, "A1")

	err := tree.MoveToLastChildOf(ctx, a, a1)
	require.Error(t, err)
	assert.True(t, nestedset.IsCycle(err))

	err = tree.MoveToFirstChildOf(ctx, a, a)
	require.Error(t, err)
	assert.True(t, nestedset.IsCycle(err))

	tt.assertScope(t, 1, "R", "A", "A1", "A2", "B", "C", "C1")
}

func (tt Tester) RunMoveAcrossScopes(TM ITransactionManager, t *testing.T) {
	keys := ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)
	c := tt.load(TM, t, keys, "C")
	s1 := tt.load(TM, t, keys, "S1")

	require.NoError(t, tree.MoveToLastChildOf(ctx, c, s1))
	assert.Equal(t, int64(2), c.Scope)
	assert.Equal(t, [3]int64{3, 6, 2}, [3]int64{c.Left, c.Right, c.Level})

	tt.assertScope(t, 1, "R", "A", "A1", "A2", "B")
	tt.assertScope(t, 2, "S", "S1", "C", "C1")

	c1 := tt.load(TM, t, keys, "C1")
	assert.Equal(t, int64(2), c1.Scope)
	assert.Equal(t, int64(3), c1.Level)
}

func (tt Tester) RunDeleteDescendants(TM ITransactionManager, t *testing.T) {
	keys := ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)
	a := tt.load(TM, t, keys, "A")

	deleted, err := tree.DeleteDescendants(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, [2]int64{2, 3}, [2]int64{a.Left, a.Right})

	tt.assertScope(t, 1, "R", "A", "B", "C", "C1")
	r := tt.load(TM, t, keys, "R")
	assert.Equal(t, int64(10), r.Right)

	// a leaf has nothing to delete
	deleted, err = tree.DeleteDescendants(ctx, a)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func (tt Tester) RunDelete(TM ITransactionManager, t *testing.T) {
	keys := ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)
	c := tt.load(TM, t, keys, "C")

	require.NoError(t, tree.Delete(ctx, c))
	assert.False(t, c.InTree())
	tt.assertScope(t, 1, "R", "A", "A1", "A2", "B")

	r := tt.load(TM, t, keys, "R")
	err := tree.Delete(ctx, r)
	require.Error(t, err)
	assert.True(t, nestedset.IsProtectedDeletion(err))
}

func (tt Tester) RunDeleteTree(TM ITransactionManager, t *testing.T) {
	ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)

	deleted, err := tree.DeleteTree(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	tt.assertScope(t, 2)
	tt.assertScope(t, 1, "R", "A", "A1", "A2", "B", "C", "C1")
}

func (tt Tester) RunValidate(TM ITransactionManager, t *testing.T) {
	keys := ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)

	require.NoError(t, tree.Validate(ctx, 1))

	require.NoError(t, TM.Transaction(func(DB IDb) error {
		_, err := DB.Update(CATEGORY).
			Set(CATEGORY_C_LVL, 7).
			Where(CATEGORY_C_ID.Matches(keys["C1"])).
			Execute()
		return err
	}))

	err := tree.Validate(ctx, 1)
	require.Error(t, err)
	assert.True(t, nestedset.IsStructural(err))
	require.Error(t, tt.checker().Check(1))

	fixed, err := tree.FixLevels(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fixed)
	require.NoError(t, tree.Validate(ctx, 1))
	require.NoError(t, tt.checker().Check(1))
}

// RunBoundTree checks that a tree bound to an open transaction sees its own writes and rolls back with it
func (tt Tester) RunBoundTree(TM ITransactionManager, t *testing.T) {
	keys := ResetDB(TM)
	ctx := context.Background()
	tree := tt.tree(TM, t)
	b := tt.load(TM, t, keys, "B")

	err := TM.TransactionContext(ctx, func(DB IDb) error {
		bound := tree.With(DB)
		if err := bound.InsertAsLastChildOf(ctx, &Category{Name: "B1"}, b); err != nil {
			return err
		}
		children, err := bound.Children(ctx, b)
		if err != nil {
			return err
		}
		assert.Equal(t, []string{"B1"}, names(children))
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)
	tt.assertScope(t, 1, "R", "A", "A1", "A2", "B", "C", "C1")

	b = tt.load(TM, t, keys, "B")
	err = tree.Transaction(ctx, func(tx *nestedset.Tree[*Category]) error {
		if err := tx.InsertAsLastChildOf(ctx, &Category{Name: "B2"}, b); err != nil {
			return err
		}
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)
	tt.assertScope(t, 1, "R", "A", "A1", "A2", "B", "C", "C1")
}
