package db

// ColumnHolder is the token form of a column
type ColumnHolder struct {
	Token

	column *Column
}

var _ Tokener = &ColumnHolder{}

func NewColumnHolder(column *Column) *ColumnHolder {
	this := new(ColumnHolder)
	this.Operator = TOKEN_COLUMN
	this.Token.Value = column
	this.column = column
	return this
}

func (c *ColumnHolder) GetAlias() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.column.GetAlias()
}

func (c *ColumnHolder) As(alias string) *ColumnHolder {
	c.Alias = alias
	return c
}

func (c *ColumnHolder) For(tableAlias string) *ColumnHolder {
	c.tableAlias = tableAlias
	return c
}

// SetTableAlias only applies when no alias was defined with For
func (c *ColumnHolder) SetTableAlias(tableAlias string) {
	if c.tableAlias == "" {
		c.tableAlias = tableAlias
	}
}

func (c *ColumnHolder) GetColumn() *Column {
	return c.column
}

func (c *ColumnHolder) String() string {
	return c.column.String()
}

func (c *ColumnHolder) Clone() interface{} {
	return NewColumnHolder(c.column).As(c.Alias).For(c.tableAlias)
}

func (c *ColumnHolder) Equals(o interface{}) bool {
	if h, ok := o.(*ColumnHolder); ok {
		return c == h || (c.column.Equals(h.column) && c.tableAlias == h.tableAlias)
	}
	return false
}

func (c *ColumnHolder) HashCode() int {
	return c.column.HashCode()
}
