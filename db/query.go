package db

import (
	"database/sql"
	"time"

	"github.com/quintans/faults"
)

type Query struct {
	DmlBase

	Columns []Tokener

	orders    []*Order
	skip      int64
	limit     int64
	lastToken Tokener
	lastOrder *Order
}

func NewQuery(db IDb, table *Table) *Query {
	this := new(Query)
	this.DmlBase.init(db, table)
	return this
}

func (q *Query) Alias(alias string) *Query {
	q.alias(alias)
	return q
}

// All adds all the columns of the table, in declaration order
func (q *Query) All() *Query {
	if q.err != nil {
		return q
	}

	for it := q.table.GetColumns().Enumerator(); it.HasNext(); {
		q.Column(it.Next().(*Column))
	}
	return q
}

func (q *Query) GetSkip() int64 {
	return q.skip
}

func (q *Query) Skip(skip int64) *Query {
	if q.err != nil {
		return q
	}

	if skip < 0 {
		skip = 0
	}
	q.skip = skip
	q.rawSQL = nil
	return q
}

func (q *Query) GetLimit() int64 {
	return q.limit
}

func (q *Query) Limit(limit int64) *Query {
	if q.err != nil {
		return q
	}

	if limit < 0 {
		limit = 0
	}
	q.limit = limit
	q.rawSQL = nil
	return q
}

// COL ===

func (q *Query) ColumnsReset() {
	q.Columns = nil
	q.rawSQL = nil
}

func (q *Query) CountAll() *Query {
	if q.err != nil {
		return q
	}
	return q.Column(Count(nil))
}

func (q *Query) Column(columns ...interface{}) *Query {
	if q.err != nil {
		return q
	}

	for _, column := range columns {
		if c, ok := column.(*Column); ok && !q.table.Owns(c) {
			q.err = faults.Errorf("%s does not belong to table %s", c, q.table)
			return q
		}
		q.lastToken = tokenizeOne(column)
		q.replaceRaw(q.lastToken)

		q.lastToken.SetTableAlias(q.tableAlias)
		q.Columns = append(q.Columns, q.lastToken)
	}

	q.rawSQL = nil

	return q
}

// As defines the alias of the last column
func (q *Query) As(alias string) *Query {
	if q.err != nil {
		return q
	}

	if q.lastToken != nil {
		q.lastToken.SetAlias(alias)
	}

	q.rawSQL = nil

	return q
}

// WHERE ===

func (q *Query) Where(restriction ...*Criteria) *Query {
	if q.err != nil {
		return q
	}

	if len(restriction) > 0 {
		q.DmlBase.where(restriction)
	}
	return q
}

// ORDER ===

func (q *Query) OrdersReset() {
	q.orders = nil
	q.lastOrder = nil
	q.rawSQL = nil
}

func (q *Query) OrderAs(columnHolder *ColumnHolder) *Query {
	if q.err != nil {
		return q
	}

	q.lastOrder = NewOrder(columnHolder)
	q.orders = append(q.orders, q.lastOrder)
	q.rawSQL = nil

	return q
}

// Order adds an ascending order by the column of the driving table
func (q *Query) Order(column *Column) *Query {
	if q.err != nil {
		return q
	}

	return q.OrderAs(column.For(q.tableAlias))
}

func (q *Query) Asc() *Query {
	return q.Dir(true)
}

func (q *Query) Desc() *Query {
	return q.Dir(false)
}

func (q *Query) Dir(asc bool) *Query {
	if q.err != nil {
		return q
	}

	if q.lastOrder != nil {
		q.lastOrder.Asc(asc)
		q.rawSQL = nil
	}
	return q
}

func (q *Query) GetOrders() []*Order {
	return q.orders
}

// ListSimple scans each row into the instances and then calls the closure.
func (q *Query) ListSimple(closure func(), instances ...interface{}) error {
	if q.err != nil {
		return q.err
	}

	return q.ListClosure(func(rows *sql.Rows) error {
		err := rows.Scan(instances...)
		if err != nil {
			return faults.Wrap(err)
		}
		closure()
		return nil
	})
}

// ListClosure hands each row to the transformer
func (q *Query) ListClosure(transformer func(rows *sql.Rows) error) error {
	if q.err != nil {
		return q.err
	}

	sql, params, err := q.prepareSQL()
	if err != nil {
		return err
	}

	now := time.Now()
	err = q.dba.QueryClosure(q.db.GetContext(), sql, transformer, params...)
	q.debugTime(now, 1)
	return faults.Wrap(err)
}

// SelectInto executes the query and scans the first row into dest.
// It returns false if there is no row.
func (q *Query) SelectInto(dest ...interface{}) (bool, error) {
	if q.err != nil {
		return false, q.err
	}

	sql, params, err := q.prepareSQL()
	if err != nil {
		return false, err
	}

	now := time.Now()
	found, err := q.dba.QueryRow(q.db.GetContext(), sql, params, dest...)
	q.debugTime(now, 1)
	if err != nil {
		return false, faults.Wrap(err)
	}
	return found, nil
}

// Count executes the query as a SELECT COUNT(*)
func (q *Query) Count() (int64, error) {
	if q.err != nil {
		return 0, q.err
	}

	q.ColumnsReset()
	q.OrdersReset()
	q.CountAll()

	var count int64
	_, err := q.SelectInto(&count)
	return count, err
}

func (q *Query) prepareSQL() (string, []interface{}, error) {
	// if no columns were added, add all columns of the driving table
	if len(q.Columns) == 0 {
		q.All()
	}

	rsql, err := q.getCachedSql()
	if err != nil {
		return "", nil, err
	}
	q.debugSQL(rsql.OriSql, 2)

	params, err := rsql.BuildValues(q.parameters)
	if err != nil {
		return "", nil, err
	}
	return rsql.Sql, derefValues(params), nil
}

func (q *Query) getCachedSql() (*RawSql, error) {
	if q.rawSQL == nil {
		sql, err := q.db.GetTranslator().GetSqlForQuery(q)
		if err != nil {
			return nil, err
		}
		q.rawSQL = ToRawSql(sql, q.db.GetTranslator())
	}

	return q.rawSQL, nil
}
