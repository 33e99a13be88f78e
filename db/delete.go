package db

import (
	"time"
)

type Delete struct {
	DmlBase
}

func NewDelete(db IDb, table *Table) *Delete {
	this := new(Delete)
	this.init(db, table)
	return this
}

func (d *Delete) Alias(alias string) *Delete {
	d.alias(alias)
	return d
}

func (d *Delete) Where(restriction ...*Criteria) *Delete {
	if d.err != nil {
		return d
	}
	d.DmlBase.where(restriction)
	return d
}

func (d *Delete) getCachedSql() (*RawSql, error) {
	if d.rawSQL == nil {
		sql, err := d.db.GetTranslator().GetSqlForDelete(d)
		if err != nil {
			return nil, err
		}
		d.rawSQL = ToRawSql(sql, d.db.GetTranslator())
	}
	return d.rawSQL, nil
}

// Execute returns the number of deleted rows
func (d *Delete) Execute() (int64, error) {
	if d.err != nil {
		return 0, d.err
	}

	rsql, err := d.getCachedSql()
	if err != nil {
		return 0, err
	}
	d.debugSQL(rsql.OriSql, 1)

	params, err := rsql.BuildValues(d.parameters)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	affected, err := d.dba.Delete(d.db.GetContext(), rsql.Sql, derefValues(params)...)
	d.debugTime(now, 1)
	if err != nil {
		return 0, err
	}
	return affected, nil
}
