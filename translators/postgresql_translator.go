package translators

import (
	"strconv"
	"strings"

	"github.com/quintans/nestedset/db"
)

type PostgreSQLTranslator struct {
	*GenericTranslator
}

var _ db.Translator = &PostgreSQLTranslator{}

func NewPostgreSQLTranslator() *PostgreSQLTranslator {
	this := new(PostgreSQLTranslator)
	this.GenericTranslator = new(GenericTranslator)
	this.Init(this)
	this.QueryProcessorFactory = func() QueryProcessor { return NewQueryBuilder(this) }
	this.InsertProcessorFactory = func() InsertProcessor { return NewInsertBuilder(this) }
	this.UpdateProcessorFactory = func() UpdateProcessor { return NewUnqualifiedUpdateBuilder(this) }
	this.DeleteProcessorFactory = func() DeleteProcessor { return NewAsDeleteBuilder(this) }
	return this
}

func (p *PostgreSQLTranslator) GetPlaceholder(index int, name string) string {
	return "$" + strconv.Itoa(index+1)
}

func (p *PostgreSQLTranslator) GetAutoKeyStrategy() db.AutoKeyStrategy {
	return db.AUTOKEY_RETURNING
}

// GetSqlForInsert returns the key of the new row when the key is not supplied
func (p *PostgreSQLTranslator) GetSqlForInsert(insert *db.Insert) (string, error) {
	sql, err := p.GenericTranslator.GetSqlForInsert(insert)
	if err != nil {
		return "", err
	}
	column := insert.GetTable().GetSingleKeyColumn()
	if column != nil && !insert.HasKeyValue {
		sql += " RETURNING " + p.ColumnName(column)
	}
	return sql, nil
}

func (p *PostgreSQLTranslator) TableName(table *db.Table) string {
	return strings.ToLower(table.GetName())
}

func (p *PostgreSQLTranslator) ColumnName(column *db.Column) string {
	return strings.ToLower(column.GetName())
}
