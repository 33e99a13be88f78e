package nestedset

import (
	"github.com/quintans/faults"

	"github.com/quintans/nestedset/db"
)

// Mapping binds the tree columns to a table
type Mapping struct {
	table   *db.Table
	key     *db.Column
	left    *db.Column
	right   *db.Column
	level   *db.Column
	scope   *db.Column
	payload []*db.Column
}

func NewMapping(table *db.Table, key, left, right, level *db.Column) *Mapping {
	return &Mapping{
		table: table,
		key:   key,
		left:  left,
		right: right,
		level: level,
	}
}

// Scoped enables several trees in the same table, one for each value of the column
func (m *Mapping) Scoped(scope *db.Column) *Mapping {
	m.scope = scope
	return m
}

// Payload defines the non tree columns that are read and written with the node
func (m *Mapping) Payload(columns ...*db.Column) *Mapping {
	m.payload = append(m.payload, columns...)
	return m
}

func (m *Mapping) IsScoped() bool {
	return m.scope != nil
}

func (m *Mapping) Table() *db.Table {
	return m.table
}

func (m *Mapping) Validate() error {
	if m.table == nil {
		return faults.New("mapping without table")
	}
	if err := m.table.Err(); err != nil {
		return faults.Wrap(err)
	}

	named := map[string]*db.Column{
		"key":   m.key,
		"left":  m.left,
		"right": m.right,
		"level": m.level,
	}
	for name, col := range named {
		if col == nil {
			return faults.Errorf("mapping of %s has no %s column", m.table.GetName(), name)
		}
	}

	seen := map[string]bool{}
	for _, col := range m.columns() {
		if col == nil {
			return faults.Errorf("mapping of %s has a nil payload column", m.table.GetName())
		}
		if !m.table.Owns(col) {
			return faults.Errorf("column %s does not belong to table %s", col, m.table.GetName())
		}
		if seen[col.GetName()] {
			return faults.Errorf("column %s is mapped twice", col)
		}
		seen[col.GetName()] = true
	}
	return nil
}

// columns returns the selected columns, in scan order
func (m *Mapping) columns() []*db.Column {
	cols := []*db.Column{m.key, m.left, m.right, m.level}
	if m.scope != nil {
		cols = append(cols, m.scope)
	}
	return append(cols, m.payload...)
}
