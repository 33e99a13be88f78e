package db

import (
	"time"

	"github.com/quintans/faults"
	coll "github.com/quintans/toolkit/collections"
)

type Insert struct {
	DmlCore
	returnId    bool
	HasKeyValue bool
}

func NewInsert(db IDb, table *Table) *Insert {
	this := new(Insert)
	this.init(db, table)
	this.vals = coll.NewLinkedHashMap()
	this.returnId = true
	return this
}

func (i *Insert) Alias(alias string) *Insert {
	i.alias(alias)
	return i
}

// ReturnId defines if the auto key should be retrieved.
// Returning an Id could mean one more query execution.
// It returns the Id by default.
func (i *Insert) ReturnId(returnId bool) *Insert {
	i.returnId = returnId
	return i
}

func (i *Insert) Set(col *Column, value interface{}) *Insert {
	if i.err != nil {
		return i
	}
	if err := i.DmlCore.set(col, value); err != nil {
		i.err = err
		return i
	}
	if i.GetTable().GetSingleKeyColumn() != nil && col.IsKey() {
		i.HasKeyValue = (value != nil)
	}
	return i
}

func (i *Insert) Columns(columns ...*Column) *Insert {
	if i.err != nil {
		return i
	}

	i.cols = columns
	return i
}

func (i *Insert) Values(vals ...interface{}) *Insert {
	if i.err != nil {
		return i
	}

	if len(i.cols) == 0 {
		i.err = faults.New("column set is empty")
		return i
	}

	if len(i.cols) != len(vals) {
		i.err = faults.Errorf("the number of defined columns (%d) is different from the number of passed values (%d)", len(i.cols), len(vals))
		return i
	}

	for k, col := range i.cols {
		i.Set(col, vals[k])
	}

	return i
}

func (i *Insert) getCachedSql() (*RawSql, error) {
	if i.rawSQL == nil {
		sql, err := i.db.GetTranslator().GetSqlForInsert(i)
		if err != nil {
			return nil, err
		}
		i.rawSQL = ToRawSql(sql, i.db.GetTranslator())
	}
	return i.rawSQL, nil
}

// Execute runs the insert and returns the generated key, if any
func (i *Insert) Execute() (int64, error) {
	if i.err != nil {
		return 0, i.err
	}

	var err error
	var lastId int64
	var now time.Time
	ctx := i.db.GetContext()
	strategy := i.db.GetTranslator().GetAutoKeyStrategy()
	singleKeyColumn := i.table.GetSingleKeyColumn()
	wantsKey := i.returnId && !i.HasKeyValue && singleKeyColumn != nil

	var sql string
	var params []interface{}
	switch strategy {
	case AUTOKEY_BEFORE:
		if wantsKey {
			if lastId, err = i.getAutoNumber(singleKeyColumn); err != nil {
				return 0, err
			}
			i.Set(singleKeyColumn, lastId)
			if i.err != nil {
				return 0, i.err
			}
		}
		if sql, params, err = i.prepareSQL(); err != nil {
			return 0, err
		}
		now = time.Now()
		err = i.dba.Insert(ctx, sql, params...)
		i.debugTime(now, 1)
	case AUTOKEY_RETURNING:
		if sql, params, err = i.prepareSQL(); err != nil {
			return 0, err
		}
		now = time.Now()
		if wantsKey {
			lastId, err = i.dba.InsertReturning(ctx, sql, params...)
		} else {
			err = i.dba.Insert(ctx, sql, params...)
		}
		i.debugTime(now, 1)
	default:
		if sql, params, err = i.prepareSQL(); err != nil {
			return 0, err
		}
		now = time.Now()
		err = i.dba.Insert(ctx, sql, params...)
		i.debugTime(now, 1)
		if err != nil {
			return 0, err
		}
		if wantsKey && strategy == AUTOKEY_AFTER {
			if lastId, err = i.getAutoNumber(singleKeyColumn); err != nil {
				return 0, err
			}
		}
	}
	if err != nil {
		return 0, err
	}

	lgr.Debugf("The inserted Id was: %v", lastId)
	return lastId, nil
}

func (i *Insert) prepareSQL() (string, []interface{}, error) {
	rsql, err := i.getCachedSql()
	if err != nil {
		return "", nil, err
	}
	i.debugSQL(rsql.OriSql, 2)
	params, err := rsql.BuildValues(i.parameters)
	if err != nil {
		return "", nil, err
	}

	return rsql.Sql, derefValues(params), nil
}

func (i *Insert) getAutoNumber(column *Column) (int64, error) {
	sql := i.db.GetTranslator().GetAutoNumberQuery(column)
	if sql == "" {
		return 0, faults.New("auto number query is undefined")
	}
	var id int64
	i.debugSQL(sql, 2)
	now := time.Now()
	_, err := i.dba.QueryRow(i.db.GetContext(), sql, []interface{}{}, &id)
	i.debugTime(now, 2)
	if err != nil {
		return 0, err
	}

	return id, nil
}
