package db

import (
	"strings"

	"github.com/quintans/faults"
	tk "github.com/quintans/toolkit"
	coll "github.com/quintans/toolkit/collections"
	"github.com/quintans/toolkit/ext"

	"github.com/quintans/nestedset/dbx"
)

type Table struct {
	columnsMap coll.Map        // Str -> Column
	name       string          // table name
	Alias      string          // table alias
	columns    coll.Collection // column set
	keys       coll.Collection // key column set
	singleKey  *Column         // single key

	err error
}

func TABLE(name string) *Table {
	if name == "" {
		return &Table{
			err: faults.New("empty for table name is not allowed"),
		}
	}
	this := new(Table).As(dbx.ToCamelCase(name))
	this.columnsMap = coll.NewLinkedHashMap()
	this.columns = coll.NewLinkedHashSet()
	this.keys = coll.NewLinkedHashSet()
	this.name = name

	return this
}

func (t *Table) As(alias string) *Table {
	if alias == "" {
		t.err = faults.New("empty for table alias is not allowed")
		return t
	}
	t.Alias = alias
	return t
}

// GetName gets the table name
func (t *Table) GetName() string {
	return t.name
}

// Err returns the first error raised while declaring the table
func (t *Table) Err() error {
	if t.err != nil {
		return t.err
	}
	if t.columns == nil {
		return nil
	}
	for e := t.columns.Enumerator(); e.HasNext(); {
		if err := e.Next().(*Column).err; err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) COLUMN(name string) *Column {
	if t.err != nil {
		return &Column{
			name: name,
			err:  t.err,
		}
	}

	col := new(Column)
	col.name = name
	col.alias = dbx.ToCamelCase(name)
	col.table = t

	if name == "" {
		col.err = faults.Errorf("empty column name is not allowed in table '%s'", t.name)
		return col
	}

	if !t.columns.Contains(col) {
		// checks the column alias uniqueness
		if _, ok := t.columnsMap.Get(ext.Str(col.GetAlias())); ok {
			col.err = faults.Errorf("the alias '%s' for the column '%s' is not unique", col.GetAlias(), col.String())
			return col
		}
		t.columns.Add(col)
		t.columnsMap.Put(ext.Str(col.GetAlias()), col)
	}
	return col
}

func (t *Table) KEY(name string) *Column {
	return t.COLUMN(name).Key()
}

func (t *Table) addKey(col *Column) {
	if t.err != nil {
		return
	}

	t.keys.Add(col)
	if t.keys.Size() == 1 {
		t.singleKey = col
	} else {
		// it is only allowed one single key column
		t.singleKey = nil
	}
}

// GetColumns gets the column set, in declaration order
func (t *Table) GetColumns() coll.Collection {
	return t.columns
}

func (t *Table) GetSingleKeyColumn() *Column {
	return t.singleKey
}

// Owns reports if the column was declared by this table
func (t *Table) Owns(col *Column) bool {
	return col != nil && col.table != nil && t.Equals(col.table)
}

func (t *Table) String() string {
	return t.name
}

func (t *Table) Equals(obj interface{}) bool {
	if t == obj {
		return true
	}

	switch tp := obj.(type) {
	case *Table:
		return t.Alias == tp.Alias &&
			strings.EqualFold(t.name, tp.GetName())
	}
	return false
}

func (t *Table) HashCode() int {
	result := tk.HashType(tk.HASH_SEED, t)
	return tk.HashString(result, t.Alias+"."+t.name)
}
