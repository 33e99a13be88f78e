package translators

import (
	"github.com/quintans/nestedset/db"
)

// SQLiteTranslator targets SQLite 3.35 or newer
type SQLiteTranslator struct {
	*GenericTranslator
}

var _ db.Translator = &SQLiteTranslator{}

func NewSQLiteTranslator() *SQLiteTranslator {
	this := new(SQLiteTranslator)
	this.GenericTranslator = new(GenericTranslator)
	this.Init(this)
	this.QueryProcessorFactory = func() QueryProcessor { return NewQueryBuilder(this) }
	this.InsertProcessorFactory = func() InsertProcessor { return NewInsertBuilder(this) }
	this.UpdateProcessorFactory = func() UpdateProcessor { return NewUnqualifiedUpdateBuilder(this) }
	this.DeleteProcessorFactory = func() DeleteProcessor { return NewAsDeleteBuilder(this) }
	return this
}

func (s *SQLiteTranslator) GetAutoKeyStrategy() db.AutoKeyStrategy {
	return db.AUTOKEY_AFTER
}

func (s *SQLiteTranslator) GetAutoNumberQuery(column *db.Column) string {
	return "select last_insert_rowid()"
}
