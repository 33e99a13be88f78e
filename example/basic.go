package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/quintans/nestedset/db"
	"github.com/quintans/nestedset/nestedset"
	trx "github.com/quintans/nestedset/translators"

	_ "modernc.org/sqlite"
)

// the entity
type Category struct {
	nestedset.Record
	Id   int64
	Name string
}

func (c *Category) KeyRef() *int64 {
	return &c.Id
}

func (c *Category) Payload() []interface{} {
	return []interface{}{&c.Name}
}

// table description/mapping
var (
	CATEGORY         = db.TABLE("CATEGORY")
	CATEGORY_C_ID    = CATEGORY.KEY("ID")
	CATEGORY_C_LFT   = CATEGORY.COLUMN("LFT")
	CATEGORY_C_RGT   = CATEGORY.COLUMN("RGT")
	CATEGORY_C_LVL   = CATEGORY.COLUMN("LVL")
	CATEGORY_C_NAME  = CATEGORY.COLUMN("NAME")
	CATEGORY_MAPPING = nestedset.NewMapping(CATEGORY, CATEGORY_C_ID, CATEGORY_C_LFT, CATEGORY_C_RGT, CATEGORY_C_LVL).
				Payload(CATEGORY_C_NAME)
)

func check(err error) {
	if err != nil {
		fmt.Printf("%+v\n", err)
		panic(err)
	}
}

func main() {
	ctx := context.Background()

	// database configuration
	mydb, err := sql.Open("sqlite", "file::memory:")
	check(err)
	mydb.SetMaxOpenConns(1)
	_, err = mydb.Exec(`CREATE TABLE CATEGORY (
		ID INTEGER PRIMARY KEY AUTOINCREMENT,
		LFT INTEGER NOT NULL,
		RGT INTEGER NOT NULL,
		LVL INTEGER NOT NULL,
		NAME VARCHAR(50) NOT NULL
	)`)
	check(err)

	// transaction manager
	tm := db.NewTransactionManager(mydb, trx.NewSQLiteTranslator())

	tree, err := nestedset.New[*Category](tm, CATEGORY_MAPPING, func() *Category {
		return &Category{}
	})
	check(err)

	root := &Category{Name: "Electronics"}
	check(tree.MakeRoot(ctx, root))

	phones := &Category{Name: "Phones"}
	check(tree.InsertAsLastChildOf(ctx, phones, root))
	check(tree.InsertAsLastChildOf(ctx, &Category{Name: "Laptops"}, root))
	check(tree.InsertAsFirstChildOf(ctx, &Category{Name: "Android"}, phones))

	// the root grew after the last insert
	check(tree.Reload(ctx, root))

	check(tree.Walk(ctx, root, func(c *Category, depth int) error {
		fmt.Printf("%s%s [%d, %d]\n", strings.Repeat("  ", depth), c.Name, c.Left, c.Right)
		return nil
	}))
}
