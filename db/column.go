package db

import (
	"strings"

	tk "github.com/quintans/toolkit"
)

type Column struct {
	table *Table // the table that this column belongs
	name  string // column name
	alias string // column alias
	key   bool
	hash  int

	err error
}

// As defines the alias of the column
func (c *Column) As(alias string) *Column {
	c.alias = alias
	return c
}

// For defines the table alias for this column in the SQL
func (c *Column) For(tableAlias string) *ColumnHolder {
	return NewColumnHolder(c).For(tableAlias)
}

// Key sets this as a key column
func (c *Column) Key() *Column {
	if c.err != nil {
		return c
	}
	c.key = true
	c.table.addKey(c)
	return c
}

// GetTable gets the table that this column belongs to
func (c *Column) GetTable() *Table {
	return c.table
}

func (c *Column) GetAlias() string {
	return c.alias
}

func (c *Column) GetName() string {
	return c.name
}

func (c *Column) IsKey() bool {
	return c.key
}

// Err returns the error, if any, raised while declaring the column
func (c *Column) Err() error {
	return c.err
}

// String returns 'table.column'
func (c *Column) String() string {
	if c.table == nil {
		return c.name
	}
	return c.table.String() + "." + c.name
}

func (c *Column) Equals(o interface{}) bool {
	switch t := o.(type) {
	case *Column:
		return t.table.Equals(c.table) &&
			strings.EqualFold(c.name, t.name)
	}
	return false
}

func (c *Column) HashCode() int {
	if c.hash == 0 {
		result := tk.HashType(tk.HASH_SEED, c)
		result = tk.HashString(result, c.String())
		c.hash = result
	}

	return c.hash
}

func (c *Column) Clone() interface{} {
	panic("Clone for Column is not implemented")
}

// CONDITION ===========================

func (c *Column) Greater(value interface{}) *Criteria {
	return Greater(c, value)
}

func (c *Column) GreaterOrMatch(value interface{}) *Criteria {
	return GreaterOrMatch(c, value)
}

func (c *Column) Lesser(value interface{}) *Criteria {
	return Lesser(c, value)
}

func (c *Column) LesserOrMatch(value interface{}) *Criteria {
	return LesserOrMatch(c, value)
}

func (c *Column) Matches(value interface{}) *Criteria {
	return Matches(c, value)
}

func (c *Column) Different(value interface{}) *Criteria {
	return Different(c, value)
}

func (c *Column) IsNull() *Criteria {
	return IsNull(NewColumnHolder(c))
}

func (c *Column) In(value ...interface{}) *Criteria {
	return In(c, value...)
}

func (c *Column) Range(bottom, top interface{}) *Criteria {
	return Range(c, bottom, top)
}
