package db

import (
	"time"

	"github.com/quintans/faults"
	coll "github.com/quintans/toolkit/collections"
)

type Update struct {
	DmlCore
}

func NewUpdate(db IDb, table *Table) *Update {
	this := new(Update)
	this.init(db, table)
	this.vals = coll.NewLinkedHashMap()
	return this
}

func (u *Update) Alias(alias string) *Update {
	u.alias(alias)
	return u
}

// Set defines the value of a column.
// The value can be an expression over the row, like Add(Col(LFT), 2).
func (u *Update) Set(col *Column, value interface{}) *Update {
	if u.err != nil {
		return u
	}
	if err := u.DmlCore.set(col, value); err != nil {
		u.err = err
	}
	return u
}

func (u *Update) Columns(columns ...*Column) *Update {
	u.cols = columns
	return u
}

func (u *Update) Values(vals ...interface{}) *Update {
	if u.err != nil {
		return u
	}

	if len(u.cols) == 0 {
		u.err = faults.New("column set is empty")
		return u
	}
	if len(u.cols) != len(vals) {
		u.err = faults.Errorf("the number of defined columns (%d) is different from the number of passed values (%d)", len(u.cols), len(vals))
		return u
	}
	for k, col := range u.cols {
		u.Set(col, vals[k])
	}
	return u
}

func (u *Update) Where(restriction ...*Criteria) *Update {
	if u.err != nil {
		return u
	}
	u.DmlBase.where(restriction)
	return u
}

func (u *Update) getCachedSql() (*RawSql, error) {
	if u.rawSQL == nil {
		sql, err := u.db.GetTranslator().GetSqlForUpdate(u)
		if err != nil {
			return nil, err
		}
		u.rawSQL = ToRawSql(sql, u.db.GetTranslator())
	}
	return u.rawSQL, nil
}

// Execute returns the number of affected rows
func (u *Update) Execute() (int64, error) {
	if u.err != nil {
		return 0, u.err
	}
	if u.vals == nil || u.vals.Size() == 0 {
		return 0, faults.New("update without values")
	}

	rsql, err := u.getCachedSql()
	if err != nil {
		return 0, err
	}
	u.debugSQL(rsql.OriSql, 1)

	params, err := rsql.BuildValues(u.parameters)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	affected, err := u.dba.Update(u.db.GetContext(), rsql.Sql, derefValues(params)...)
	u.debugTime(now, 1)
	if err != nil {
		return 0, err
	}
	return affected, nil
}
