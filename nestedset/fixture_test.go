package nestedset

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/quintans/toolkit/log"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/quintans/nestedset/db"
	"github.com/quintans/nestedset/translators"
)

var (
	CATEGORY         = db.TABLE("CATEGORY")
	CATEGORY_C_ID    = CATEGORY.KEY("ID")
	CATEGORY_C_SCOPE = CATEGORY.COLUMN("TREE_SCOPE")
	CATEGORY_C_LFT   = CATEGORY.COLUMN("LFT")
	CATEGORY_C_RGT   = CATEGORY.COLUMN("RGT")
	CATEGORY_C_LVL   = CATEGORY.COLUMN("LVL")
	CATEGORY_C_NAME  = CATEGORY.COLUMN("NAME")
)

const categoryDDL = `CREATE TABLE CATEGORY (
	ID INTEGER PRIMARY KEY AUTOINCREMENT,
	TREE_SCOPE INTEGER NOT NULL DEFAULT 0,
	LFT INTEGER NOT NULL,
	RGT INTEGER NOT NULL,
	LVL INTEGER NOT NULL,
	NAME VARCHAR(50) NOT NULL
)`

const rootIndexDDL = `CREATE UNIQUE INDEX CATEGORY_ROOT ON CATEGORY(TREE_SCOPE) WHERE LFT = 1`

func init() {
	log.Register("/", log.DEBUG, log.NewConsoleAppender(false))
}

type Category struct {
	Record
	ID   int64
	Name string
}

func (c *Category) KeyRef() *int64 {
	return &c.ID
}

func (c *Category) Payload() []interface{} {
	return []interface{}{&c.Name}
}

func newCategory() *Category {
	return &Category{}
}

func category(name string) *Category {
	return &Category{Name: name}
}

func categoryMapping(scoped bool) *Mapping {
	m := NewMapping(CATEGORY, CATEGORY_C_ID, CATEGORY_C_LFT, CATEGORY_C_RGT, CATEGORY_C_LVL).
		Payload(CATEGORY_C_NAME)
	if scoped {
		m.Scoped(CATEGORY_C_SCOPE)
	}
	return m
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	// statements of a transaction and reads share the only connection
	return openSQLite(t, filepath.Join(t.TempDir(), "tree.db"), 1)
}

// openWAL lets a reader on a second connection see the last commit while a transaction is open
func openWAL(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "tree.db") + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	return openSQLite(t, dsn, 2)
}

func openSQLite(t *testing.T, dsn string, conns int) *sql.DB {
	t.Helper()
	theDB, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	theDB.SetMaxOpenConns(conns)
	t.Cleanup(func() {
		theDB.Close()
	})

	for _, stmt := range []string{categoryDDL, rootIndexDDL} {
		_, err := theDB.Exec(stmt)
		require.NoError(t, err)
	}
	return theDB
}

func newTree(t *testing.T, scoped bool, opts ...Option) (*Tree[*Category], *db.TransactionManager) {
	t.Helper()
	return treeOn(t, openDB(t), scoped, opts...)
}

func treeOn(t *testing.T, theDB *sql.DB, scoped bool, opts ...Option) (*Tree[*Category], *db.TransactionManager) {
	t.Helper()
	tm := db.NewTransactionManager(theDB, translators.NewSQLiteTranslator())
	tree, err := New[*Category](tm, categoryMapping(scoped), newCategory, opts...)
	require.NoError(t, err)
	return tree, tm
}

// fixture holds the nodes of
//
//	R
//	├─ A
//	│  ├─ A1
//	│  └─ A2
//	├─ B
//	└─ C
//	   └─ C1
type fixture map[string]*Category

func buildFixture(t *testing.T, tree *Tree[*Category], scope int64) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{}
	for _, name := range []string{"R", "A", "A1", "A2", "B", "C", "C1"} {
		f[name] = category(name)
	}
	f["R"].Scope = scope

	require.NoError(t, tree.MakeRoot(ctx, f["R"]))
	require.NoError(t, tree.InsertAsLastChildOf(ctx, f["A"], f["R"]))
	require.NoError(t, tree.InsertAsLastChildOf(ctx, f["B"], f["R"]))
	require.NoError(t, tree.InsertAsLastChildOf(ctx, f["C"], f["R"]))
	require.NoError(t, tree.InsertAsLastChildOf(ctx, f["A1"], f["A"]))
	require.NoError(t, tree.InsertAsNextSiblingOf(ctx, f["A2"], f["A1"]))
	require.NoError(t, tree.InsertAsFirstChildOf(ctx, f["C1"], f["C"]))
	f.reload(t, tree)
	return f
}

func (f fixture) reload(t *testing.T, tree *Tree[*Category]) {
	t.Helper()
	for _, n := range f {
		if n.InTree() {
			require.NoError(t, tree.Reload(context.Background(), n))
		}
	}
}

// bounds is left, right and level
type bounds [3]int64

// layout reads the labels of a scope by node name
func layout(t *testing.T, tree *Tree[*Category], scope int64) map[string]bounds {
	t.Helper()
	nodes, err := tree.FindTree(context.Background(), scope)
	require.NoError(t, err)
	m := map[string]bounds{}
	for _, n := range nodes {
		m[n.Name] = bounds{n.Left, n.Right, n.Level}
	}
	return m
}

func names(nodes []*Category) []string {
	var s []string
	for _, n := range nodes {
		s = append(s, n.Name)
	}
	return s
}

// requireNested checks that any two nodes of the scope are either nested or disjoint,
// and that enclosure agrees with the descendant predicate
func requireNested(t *testing.T, tree *Tree[*Category], scope int64) {
	t.Helper()
	nodes, err := tree.FindTree(context.Background(), scope)
	require.NoError(t, err)
	for _, a := range nodes {
		for _, b := range nodes {
			if a.ID == b.ID {
				continue
			}
			ra, rb := a.NodeRecord(), b.NodeRecord()
			disjoint := ra.Right < rb.Left || rb.Right < ra.Left
			require.True(t, disjoint || ra.encloses(rb) || rb.encloses(ra), "%s and %s overlap", a.Name, b.Name)
			require.Equal(t, ra.encloses(rb), IsDescendantOf(b, a))
		}
	}
	require.NoError(t, tree.Validate(context.Background(), scope))
}
