package common

import (
	"fmt"

	"github.com/quintans/nestedset/db"
	"github.com/quintans/nestedset/nestedset"
	tk "github.com/quintans/toolkit"
)

var (
	CATEGORY         = db.TABLE("CATEGORY")
	CATEGORY_C_ID    = CATEGORY.KEY("ID")
	CATEGORY_C_SCOPE = CATEGORY.COLUMN("TREE_SCOPE")
	CATEGORY_C_LFT   = CATEGORY.COLUMN("LFT")
	CATEGORY_C_RGT   = CATEGORY.COLUMN("RGT")
	CATEGORY_C_LVL   = CATEGORY.COLUMN("LVL")
	CATEGORY_C_NAME  = CATEGORY.COLUMN("NAME")

	CATEGORY_MAPPING = nestedset.NewMapping(CATEGORY, CATEGORY_C_ID, CATEGORY_C_LFT, CATEGORY_C_RGT, CATEGORY_C_LVL).
				Scoped(CATEGORY_C_SCOPE).
				Payload(CATEGORY_C_NAME)
)

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

func (c *Category) String() string {
	if c == nil {
		return "<nil>"
	}
	sb := tk.NewStrBuffer()
	sb.Add("{Id: ", c.Id)
	sb.Add(", Name: ", c.Name)
	sb.Add(", Scope: ", c.Scope)
	sb.Add(", Bounds: ", fmt.Sprintf("[%d, %d]", c.Left, c.Right))
	sb.Add(", Level: ", c.Level)
	sb.Add("}")
	return sb.String()
}

func NewCategory() *Category {
	return &Category{}
}

func NewTree(TM db.ITransactionManager, opts ...nestedset.Option) (*nestedset.Tree[*Category], error) {
	return nestedset.New[*Category](TM, CATEGORY_MAPPING, NewCategory, opts...)
}

// seed describes the rows written by ResetDB
//
//	scope 1          scope 2
//	R                S
//	├─ A             └─ S1
//	│  ├─ A1
//	│  └─ A2
//	├─ B
//	└─ C
//	   └─ C1
var seed = []struct {
	name                      string
	scope, left, right, level int64
}{
	{"R", 1, 1, 14, 0},
	{"A", 1, 2, 7, 1},
	{"A1", 1, 3, 4, 2},
	{"A2", 1, 5, 6, 2},
	{"B", 1, 8, 9, 1},
	{"C", 1, 10, 13, 1},
	{"C1", 1, 11, 12, 2},
	{"S", 2, 1, 4, 0},
	{"S1", 2, 2, 3, 1},
}
