package common

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/jmoiron/sqlx"

	. "github.com/quintans/nestedset/db"
)

const scopeBranch = `SELECT ID AS "id", NAME AS "name", LFT AS "lft", RGT AS "rgt", LVL AS "lvl" FROM category WHERE TREE_SCOPE = ? AND LFT >= ? AND RGT <= ? ORDER BY LFT`

type gormRow struct {
	Id    int64  `gorm:"column:id"`
	Name  string `gorm:"column:name"`
	Left  int64  `gorm:"column:lft"`
	Right int64  `gorm:"column:rgt"`
	Level int64  `gorm:"column:lvl"`
}

// gormDialect maps a database/sql driver to a gorm dialect.
// Unknown names run in gorm's compatibility mode, which is enough for raw queries.
func gormDialect(driverName string) string {
	switch driverName {
	case "postgres", "mysql":
		return driverName
	default:
		return "common"
	}
}

// RunBench loads the branch of the first child of the root (A, A1, A2) through the tree engine,
// through sqlx and through gorm
func (tt Tester) RunBench(TM ITransactionManager, b *testing.B) {
	keys := ResetDB(TM)
	ctx := context.Background()

	tree, err := NewTree(TM)
	if err != nil {
		b.Fatal(err)
	}
	a, ok, err := tree.FindByKey(ctx, keys["A"])
	if err != nil || !ok {
		b.Fatalf("unable to load A: %v", err)
	}

	b.Run("engine", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			nodes, err := tree.Branch(ctx, a)
			if err != nil {
				b.Fatal(err)
			}
			if len(nodes) != 3 {
				b.Fatalf("expected 3 nodes, got %d", len(nodes))
			}
		}
	})

	b.Run("sqlx", func(b *testing.B) {
		x := sqlx.NewDb(tt.Conn, tt.DriverName)
		query := x.Rebind(scopeBranch)
		for i := 0; i < b.N; i++ {
			var rows []row
			if err := x.Select(&rows, query, a.Scope, a.Left, a.Right); err != nil {
				b.Fatal(err)
			}
			if len(rows) != 3 {
				b.Fatalf("expected 3 rows, got %d", len(rows))
			}
		}
	})

	b.Run("gorm", func(b *testing.B) {
		g, err := openGorm(tt.Conn, tt.DriverName)
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			var rows []gormRow
			if err := g.Raw(scopeBranch, a.Scope, a.Left, a.Right).Scan(&rows).Error; err != nil {
				b.Fatal(err)
			}
			if len(rows) != 3 {
				b.Fatalf("expected 3 rows, got %d", len(rows))
			}
		}
	})
}

// openGorm wraps an open pool. The gorm handle must not be closed, the pool belongs to the caller.
func openGorm(conn *sql.DB, driverName string) (*gorm.DB, error) {
	g, err := gorm.Open(gormDialect(driverName), conn)
	if err != nil {
		return nil, err
	}
	g.LogMode(false)
	return g, nil
}
