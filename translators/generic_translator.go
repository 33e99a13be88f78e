package translators

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quintans/faults"
	tk "github.com/quintans/toolkit"

	"github.com/quintans/nestedset/db"
)

/*
 * =============
 * QueryBuilder
 * =============
 */

type QueryProcessor interface {
	Column(query *db.Query) error
	From(query *db.Query) error
	Where(query *db.Query) error
	Order(query *db.Query) error
	ColumnPart() string
	FromPart() string
	WherePart() string
	OrderPart() string
}

type QueryBuilder struct {
	translator db.Translator
	columnPart *tk.Joiner
	fromPart   *tk.Joiner
	wherePart  *tk.Joiner
	orderPart  *tk.Joiner
}

func NewQueryBuilder(translator db.Translator) *QueryBuilder {
	this := new(QueryBuilder)
	this.Super(translator)
	return this
}

func (q *QueryBuilder) Super(translator db.Translator) {
	q.translator = translator
	q.columnPart = tk.NewJoiner(", ")
	q.fromPart = tk.NewJoiner(", ")
	q.wherePart = tk.NewJoiner(" AND ")
	q.orderPart = tk.NewJoiner(", ")
}

func (q *QueryBuilder) ColumnPart() string {
	return q.columnPart.String()
}

func (q *QueryBuilder) FromPart() string {
	return q.fromPart.String()
}

func (q *QueryBuilder) WherePart() string {
	return q.wherePart.String()
}

func (q *QueryBuilder) OrderPart() string {
	return q.orderPart.String()
}

func (q *QueryBuilder) Column(query *db.Query) error {
	for k, token := range query.Columns {
		s, err := q.translator.Translate(db.QUERY, token)
		if err != nil {
			return faults.Wrap(err)
		}
		q.columnPart.Add(s)
		a := q.translator.ColumnAlias(token, k+1)
		if a != "" {
			q.columnPart.Append(" AS ", a)
		}
	}
	return nil
}

func (q *QueryBuilder) From(query *db.Query) error {
	table := query.GetTable()
	alias := query.GetTableAlias()
	q.fromPart.AddAsOne(q.translator.TableName(table), " ", alias)
	return nil
}

// Translate translates each token with the translator function
func Translate(translator func(db.DmlType, db.Tokener) (string, error), dmlType db.DmlType, tokens ...db.Tokener) ([]string, error) {
	args := make([]string, len(tokens))
	for k, t := range tokens {
		var err error
		args[k], err = translator(dmlType, t)
		if err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (q *QueryBuilder) Where(query *db.Query) error {
	criteria := query.GetCriteria()
	if criteria != nil {
		s, err := q.translator.Translate(db.QUERY, criteria)
		if err != nil {
			return faults.Wrap(err)
		}
		q.wherePart.Add(s)
	}
	return nil
}

func (q *QueryBuilder) Order(query *db.Query) error {
	for _, ord := range query.GetOrders() {
		s, err := q.translator.Translate(db.QUERY, ord.GetHolder())
		if err != nil {
			return faults.Wrap(err)
		}
		q.orderPart.Add(s)

		if ord.IsAsc() {
			q.orderPart.Append(" ASC")
		} else {
			q.orderPart.Append(" DESC")
		}
	}
	return nil
}

/*
 * =============
 * UpdateBuilder
 * =============
 */

type UpdateProcessor interface {
	Column(update *db.Update) error
	From(update *db.Update) error
	ColumnPart() string
	TablePart() string
	Where(update *db.Update) error
	WherePart() string
}

type UpdateBuilder struct {
	translator db.Translator
	columnPart *tk.Joiner
	tablePart  *tk.Joiner
	wherePart  *tk.Joiner
}

func NewUpdateBuilder(translator db.Translator) *UpdateBuilder {
	this := new(UpdateBuilder)
	this.Super(translator)
	return this
}

func (u *UpdateBuilder) Super(translator db.Translator) {
	u.translator = translator
	u.columnPart = tk.NewJoiner(", ")
	u.tablePart = tk.NewJoiner(", ")
	u.wherePart = tk.NewJoiner(" AND ")
}

func (u *UpdateBuilder) ColumnPart() string {
	return u.columnPart.String()
}

func (u *UpdateBuilder) TablePart() string {
	return u.tablePart.String()
}

func (u *UpdateBuilder) WherePart() string {
	return u.wherePart.String()
}

func (u *UpdateBuilder) Column(update *db.Update) error {
	return u.column(update, update.GetTableAlias()+".")
}

func (u *UpdateBuilder) column(update *db.Update, prefix string) error {
	values := update.GetValues()
	for it := values.Iterator(); it.HasNext(); {
		entry := it.Next()
		column := entry.Key.(*db.Column)
		token := entry.Value.(db.Tokener)
		s, err := u.translator.Translate(db.UPDATE, token)
		if err != nil {
			return faults.Wrap(err)
		}
		u.columnPart.AddAsOne(prefix,
			u.translator.ColumnName(column),
			" = ", s)
	}
	return nil
}

func (u *UpdateBuilder) From(update *db.Update) error {
	table := update.GetTable()
	alias := update.GetTableAlias()
	u.tablePart.AddAsOne(u.translator.TableName(table), " ", alias)
	return nil
}

func (u *UpdateBuilder) Where(update *db.Update) error {
	criteria := update.GetCriteria()
	if criteria != nil {
		s, err := u.translator.Translate(db.UPDATE, criteria)
		if err != nil {
			return faults.Wrap(err)
		}
		u.wherePart.Add(s)
	}
	return nil
}

// UnqualifiedUpdateBuilder writes the SET targets without the table alias,
// for the databases that reject "alias.column = ..."
type UnqualifiedUpdateBuilder struct {
	UpdateBuilder
}

func NewUnqualifiedUpdateBuilder(translator db.Translator) *UnqualifiedUpdateBuilder {
	this := new(UnqualifiedUpdateBuilder)
	this.Super(translator)
	return this
}

func (u *UnqualifiedUpdateBuilder) Column(update *db.Update) error {
	return u.column(update, "")
}

func (u *UnqualifiedUpdateBuilder) From(update *db.Update) error {
	table := update.GetTable()
	alias := update.GetTableAlias()
	u.tablePart.AddAsOne(u.translator.TableName(table), " AS ", alias)
	return nil
}

/*
 * =============
 * DeleteBuilder
 * =============
 */

type DeleteProcessor interface {
	From(del *db.Delete) error
	TablePart() string
	Where(del *db.Delete) error
	WherePart() string
}

type DeleteBuilder struct {
	translator db.Translator
	tablePart  *tk.Joiner
	wherePart  *tk.Joiner
}

func NewDeleteBuilder(translator db.Translator) *DeleteBuilder {
	this := new(DeleteBuilder)
	this.Super(translator)
	return this
}

func (d *DeleteBuilder) Super(translator db.Translator) {
	d.translator = translator

	d.tablePart = tk.NewJoiner(", ")
	d.wherePart = tk.NewJoiner(" AND ")
}

func (d *DeleteBuilder) TablePart() string {
	return d.tablePart.String()
}

func (d *DeleteBuilder) WherePart() string {
	return d.wherePart.String()
}

func (d *DeleteBuilder) From(del *db.Delete) error {
	table := del.GetTable()
	alias := del.GetTableAlias()
	d.tablePart.AddAsOne(d.translator.TableName(table), " ", alias)
	return nil
}

func (d *DeleteBuilder) Where(del *db.Delete) error {
	criteria := del.GetCriteria()
	if criteria != nil {
		s, err := d.translator.Translate(db.DELETE, criteria)
		if err != nil {
			return faults.Wrap(err)
		}
		d.wherePart.Add(s)
	}
	return nil
}

// AsDeleteBuilder writes "table AS alias"
type AsDeleteBuilder struct {
	DeleteBuilder
}

func NewAsDeleteBuilder(translator db.Translator) *AsDeleteBuilder {
	this := new(AsDeleteBuilder)
	this.Super(translator)
	return this
}

func (d *AsDeleteBuilder) From(del *db.Delete) error {
	table := del.GetTable()
	alias := del.GetTableAlias()
	d.tablePart.AddAsOne(d.translator.TableName(table), " AS ", alias)
	return nil
}

/*
 * =============
 * InsertBuilder
 * =============
 */

type InsertProcessor interface {
	Column(insert *db.Insert) error
	From(insert *db.Insert) error
	ColumnPart() string
	ValuePart() string
	TablePart() string
}

type InsertBuilder struct {
	translator db.Translator
	columnPart *tk.Joiner
	valuePart  *tk.Joiner
	tablePart  *tk.Joiner
}

func NewInsertBuilder(translator db.Translator) *InsertBuilder {
	this := new(InsertBuilder)
	this.Super(translator)
	return this
}

func (i *InsertBuilder) Super(translator db.Translator) {
	i.translator = translator
	i.columnPart = tk.NewJoiner(", ")
	i.valuePart = tk.NewJoiner(", ")
	i.tablePart = tk.NewJoiner(", ")
}

func (i *InsertBuilder) ColumnPart() string {
	return i.columnPart.String()
}

func (i *InsertBuilder) ValuePart() string {
	return i.valuePart.String()
}

func (i *InsertBuilder) TablePart() string {
	return i.tablePart.String()
}

func (i *InsertBuilder) Column(insert *db.Insert) error {
	values := insert.GetValues()
	parameters := insert.GetParameters()
	for it := values.Iterator(); it.HasNext(); {
		entry := it.Next()
		column := entry.Key.(*db.Column)
		token := entry.Value.(db.Tokener)
		// null keys are left to the database
		if column.IsKey() && db.TOKEN_PARAM == token.GetOperator() {
			if parameters[token.GetValue().(string)] == nil {
				continue
			}
		}

		val, err := i.translator.Translate(db.INSERT, token)
		if err != nil {
			return faults.Wrap(err)
		}
		if val != "" {
			i.columnPart.Add(i.translator.ColumnName(column))
			i.valuePart.Add(val)
		}
	}
	return nil
}

func (i *InsertBuilder) From(insert *db.Insert) error {
	table := insert.GetTable()
	i.tablePart.Add(i.translator.TableName(table))
	return nil
}

/*
 * =================
 * GenericTranslator
 * =================
 */

type TranslationHandler func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error)

type GenericTranslator struct {
	tokens                 map[string]TranslationHandler
	overrider              db.Translator
	QueryProcessorFactory  func() QueryProcessor
	InsertProcessorFactory func() InsertProcessor
	UpdateProcessorFactory func() UpdateProcessor
	DeleteProcessorFactory func() DeleteProcessor
}

// binary returns a handler for "left op right"
func binary(op string) TranslationHandler {
	return func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		args, err := Translate(tx.Translate, dmlType, token.GetMembers()...)
		if err != nil {
			return "", err
		}
		if len(args) != 2 {
			return "", faults.Errorf("operator '%s' expects 2 members, got %d", token.GetOperator(), len(args))
		}
		return negate(token, args[0]+op+args[1]), nil
	}
}

// function returns a handler for "NAME(arg, ...)"
func function(name string) TranslationHandler {
	return func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		args, err := Translate(tx.Translate, dmlType, token.GetMembers()...)
		if err != nil {
			return "", err
		}
		return tk.NewStrBuffer(name, "(", strings.Join(args, ", "), ")").String(), nil
	}
}

// joined returns a handler that joins all the members
func joined(sep string) TranslationHandler {
	return func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		args, err := Translate(tx.Translate, dmlType, token.GetMembers()...)
		if err != nil {
			return "", err
		}
		return strings.Join(args, sep), nil
	}
}

func (g *GenericTranslator) Init(overrider db.Translator) {
	g.overrider = overrider
	g.tokens = make(map[string]TranslationHandler)

	// Column
	g.RegisterTranslation(db.TOKEN_COLUMN, func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		if col, ok := token.GetValue().(*db.Column); ok {
			sb := tk.NewStrBuffer()
			if token.GetTableAlias() != "" {
				sb.Add(token.GetTableAlias())
			} else {
				sb.Add(tx.TableName(col.GetTable()))
			}
			sb.Add(".", tx.ColumnName(col))
			return sb.String(), nil
		}

		return "", faults.Errorf("column token without column: %s", token)
	})

	g.RegisterTranslation(db.TOKEN_NULL, func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		return "NULL", nil
	})

	// Raw values that were not converted to parameters
	g.RegisterTranslation(db.TOKEN_RAW, func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		o := token.GetValue()
		if o != nil {
			if s, ok := o.(string); ok {
				return "'" + strings.ReplaceAll(s, "'", "''") + "'", nil
			}
			return fmt.Sprint(o), nil
		}
		return "NULL", nil
	})

	g.RegisterTranslation(db.TOKEN_PARAM, func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		return tk.NewStrBuffer(":", token.GetValue()).String(), nil
	})

	g.RegisterTranslation(db.TOKEN_EQ, binary(" = "))
	g.RegisterTranslation(db.TOKEN_NEQ, binary(" <> "))
	g.RegisterTranslation(db.TOKEN_GT, binary(" > "))
	g.RegisterTranslation(db.TOKEN_LT, binary(" < "))
	g.RegisterTranslation(db.TOKEN_GTEQ, binary(" >= "))
	g.RegisterTranslation(db.TOKEN_LTEQ, binary(" <= "))

	g.RegisterTranslation(db.TOKEN_RANGE, func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		m := token.GetMembers()
		if len(m) != 3 {
			return "", faults.New("invalid range token")
		}
		args, err := Translate(tx.Translate, dmlType, m...)
		if err != nil {
			return "", err
		}
		return negate(token, fmt.Sprintf("%s >= %s AND %s <= %s", args[0], args[1], args[0], args[2])), nil
	})

	g.RegisterTranslation(db.TOKEN_IN, func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		m := token.GetMembers()
		if len(m) < 2 {
			return "", faults.New("IN without values")
		}
		args, err := Translate(tx.Translate, dmlType, m...)
		if err != nil {
			return "", err
		}

		sb := tk.NewStrBuffer(args[0])
		if isNot(token) {
			sb.Add(" NOT")
		}
		sb.Add(" IN (", strings.Join(args[1:], ", "), ")")
		return sb.String(), nil
	})

	g.RegisterTranslation(db.TOKEN_ISNULL, func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		args, err := Translate(tx.Translate, dmlType, token.GetMembers()...)
		if err != nil {
			return "", err
		}
		sb := tk.NewStrBuffer(args[0], " IS")
		if isNot(token) {
			sb.Add(" NOT")
		}
		sb.Add(" NULL")
		return sb.String(), nil
	})

	g.RegisterTranslation(db.TOKEN_OR, func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		args, err := Translate(tx.Translate, dmlType, token.GetMembers()...)
		if err != nil {
			return "", err
		}
		return negate(token, "("+strings.Join(args, " OR ")+")"), nil
	})

	g.RegisterTranslation(db.TOKEN_AND, func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		args, err := Translate(tx.Translate, dmlType, token.GetMembers()...)
		if err != nil {
			return "", err
		}
		return negate(token, strings.Join(args, " AND ")), nil
	})

	g.RegisterTranslation(db.TOKEN_NOT, func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		args, err := Translate(tx.Translate, dmlType, token.GetMembers()...)
		if err != nil {
			return "", err
		}
		return "NOT (" + args[0] + ")", nil
	})

	g.RegisterTranslation(db.TOKEN_MAX, function("MAX"))
	g.RegisterTranslation(db.TOKEN_COUNT_COLUMN, function("COUNT"))
	g.RegisterTranslation(db.TOKEN_COUNT, func(dmlType db.DmlType, token db.Tokener, tx db.Translator) (string, error) {
		return "COUNT(*)", nil
	})
	g.RegisterTranslation(db.TOKEN_ADD, joined(" + "))
}

func (g *GenericTranslator) RegisterTranslation(name string, handler TranslationHandler) {
	g.tokens[name] = handler
}

func (g *GenericTranslator) Translate(dmlType db.DmlType, token db.Tokener) (string, error) {
	if token == nil {
		return "NULL", nil
	}
	tag := token.GetOperator()
	handle := g.tokens[tag]
	if handle != nil {
		return handle(dmlType, token, g.overrider)
	}
	return "", faults.Errorf("token '%s' is unknown", tag)
}

func (g *GenericTranslator) GetPlaceholder(index int, name string) string {
	return "?"
}

func (g *GenericTranslator) GetAutoKeyStrategy() db.AutoKeyStrategy {
	return db.AUTOKEY_NONE
}

func (g *GenericTranslator) GetAutoNumberQuery(column *db.Column) string {
	return ""
}

// INSERT
func (g *GenericTranslator) CreateInsertProcessor(insert *db.Insert) (InsertProcessor, error) {
	proc := g.InsertProcessorFactory()
	if err := proc.Column(insert); err != nil {
		return nil, err
	}
	if err := proc.From(insert); err != nil {
		return nil, err
	}
	return proc, nil
}

func (g *GenericTranslator) GetSqlForInsert(insert *db.Insert) (string, error) {
	proc, err := g.CreateInsertProcessor(insert)
	if err != nil {
		return "", err
	}

	str := tk.NewStrBuffer()
	str.Add("INSERT INTO ", proc.TablePart(),
		"(", proc.ColumnPart(), ") VALUES(", proc.ValuePart(), ")")

	return str.String(), nil
}

// UPDATE
func (g *GenericTranslator) CreateUpdateProcessor(update *db.Update) (UpdateProcessor, error) {
	proc := g.UpdateProcessorFactory()
	if err := proc.Column(update); err != nil {
		return nil, err
	}
	if err := proc.From(update); err != nil {
		return nil, err
	}
	if err := proc.Where(update); err != nil {
		return nil, err
	}
	return proc, nil
}

func (g *GenericTranslator) GetSqlForUpdate(update *db.Update) (string, error) {
	proc, err := g.CreateUpdateProcessor(update)
	if err != nil {
		return "", err
	}

	sel := tk.NewStrBuffer()
	sel.Add("UPDATE ", proc.TablePart())
	sel.Add(" SET ", proc.ColumnPart())
	if update.GetCriteria() != nil {
		sel.Add(" WHERE ", proc.WherePart())
	}

	return sel.String(), nil
}

// DELETE
func (g *GenericTranslator) CreateDeleteProcessor(del *db.Delete) (DeleteProcessor, error) {
	proc := g.DeleteProcessorFactory()
	if err := proc.From(del); err != nil {
		return nil, err
	}
	if err := proc.Where(del); err != nil {
		return nil, err
	}
	return proc, nil
}

func (g *GenericTranslator) GetSqlForDelete(del *db.Delete) (string, error) {
	proc, err := g.CreateDeleteProcessor(del)
	if err != nil {
		return "", err
	}

	sb := tk.NewStrBuffer()
	sb.Add("DELETE FROM ", proc.TablePart())
	where := proc.WherePart()
	if where != "" {
		sb.Add(" WHERE ", where)
	}

	return sb.String(), nil
}

// QUERY
func (g *GenericTranslator) CreateQueryProcessor(query *db.Query) (QueryProcessor, error) {
	proc := g.QueryProcessorFactory()

	if err := proc.Column(query); err != nil {
		return nil, err
	}
	if err := proc.From(query); err != nil {
		return nil, err
	}
	if err := proc.Where(query); err != nil {
		return nil, err
	}
	if err := proc.Order(query); err != nil {
		return nil, err
	}

	return proc, nil
}

func (g *GenericTranslator) GetSqlForQuery(query *db.Query) (string, error) {
	proc, err := g.CreateQueryProcessor(query)
	if err != nil {
		return "", err
	}

	sel := tk.NewStrBuffer()
	sel.Add("SELECT ")
	sel.Add(proc.ColumnPart())
	sel.Add(" FROM ", proc.FromPart())
	if query.GetCriteria() != nil {
		sel.Add(" WHERE ", proc.WherePart())
	}
	if len(query.GetOrders()) != 0 {
		sel.Add(" ORDER BY ", proc.OrderPart())
	}

	return g.overrider.PaginateSQL(query, sel.String()), nil
}

// PaginateSQL uses LIMIT/OFFSET, understood by PostgreSQL and SQLite
func (g *GenericTranslator) PaginateSQL(query *db.Query, sql string) string {
	if query.GetLimit() > 0 {
		sb := tk.NewStrBuffer(sql, " LIMIT :", db.LIMIT_PARAM)
		query.SetParameter(db.LIMIT_PARAM, query.GetLimit())
		if query.GetSkip() > 0 {
			sb.Add(" OFFSET :", db.OFFSET_PARAM)
			query.SetParameter(db.OFFSET_PARAM, query.GetSkip())
		}
		return sb.String()
	}

	return sql
}

func isNot(token db.Tokener) bool {
	if c, ok := token.(*db.Criteria); ok {
		return c.IsNot
	}
	return false
}

func negate(token db.Tokener, s string) string {
	if isNot(token) {
		return "NOT (" + s + ")"
	}
	return s
}

// FROM
func (g *GenericTranslator) TableName(table *db.Table) string {
	return table.GetName()
}

func (g *GenericTranslator) ColumnName(column *db.Column) string {
	return column.GetName()
}

func (g *GenericTranslator) ColumnAlias(token db.Tokener, position int) string {
	alias := token.GetAlias()
	if alias == "" {
		if ch, ok := token.(*db.ColumnHolder); ok {
			alias = ch.GetTableAlias() + "_" + ch.GetColumn().GetName()
		} else {
			alias = "COL_" + strconv.Itoa(position)
		}
	} else {
		alias = token.GetTableAlias() + "_" + alias
	}

	return alias
}
