package db

type DmlType int

const (
	INSERT DmlType = iota
	UPDATE
	DELETE
	QUERY
)

type AutoKeyStrategy int

const (
	AUTOKEY_NONE AutoKeyStrategy = iota
	// the key is fetched before the insert (sequences, generators)
	AUTOKEY_BEFORE
	// the insert statement returns the key
	AUTOKEY_RETURNING
	// the key is fetched after the insert
	AUTOKEY_AFTER
)

const (
	OFFSET_PARAM = "OFFSET_PARAM"
	LIMIT_PARAM  = "LIMIT_PARAM"
)

type Translator interface {
	GetPlaceholder(index int, name string) string
	// INSERT
	GetAutoKeyStrategy() AutoKeyStrategy
	GetAutoNumberQuery(column *Column) string
	GetSqlForInsert(insert *Insert) (string, error)
	// QUERY
	GetSqlForQuery(query *Query) (string, error)
	PaginateSQL(query *Query, sql string) string
	// UPDATE
	GetSqlForUpdate(update *Update) (string, error)
	// DELETE
	GetSqlForDelete(del *Delete) (string, error)

	Translate(dmlType DmlType, token Tokener) (string, error)
	TableName(table *Table) string
	ColumnName(column *Column) string
	ColumnAlias(token Tokener, position int) string
}
