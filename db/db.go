package db

import (
	"context"

	"github.com/quintans/nestedset/dbx"
)

type IDb interface {
	GetTranslator() Translator
	GetConnection() dbx.IConnection
	// GetContext is the context every statement of this store runs with
	GetContext() context.Context

	Query(table *Table) *Query
	Insert(table *Table) *Insert
	Delete(table *Table) *Delete
	Update(table *Table) *Update
}

var _ IDb = &Db{}

func NewDb(ctx context.Context, connection dbx.IConnection, translator Translator) *Db {
	if ctx == nil {
		ctx = context.Background()
	}
	this := new(Db)
	this.Connection = connection
	this.Translator = translator
	this.ctx = ctx
	return this
}

type Db struct {
	Connection dbx.IConnection
	Translator Translator

	ctx context.Context
}

func (d *Db) GetTranslator() Translator {
	return d.Translator
}

func (d *Db) GetConnection() dbx.IConnection {
	return d.Connection
}

func (d *Db) GetContext() context.Context {
	return d.ctx
}

// the idea is to centralize the query creation so that future customization could be made
func (d *Db) Query(table *Table) *Query {
	return NewQuery(d, table)
}

func (d *Db) Insert(table *Table) *Insert {
	return NewInsert(d, table)
}

func (d *Db) Delete(table *Table) *Delete {
	return NewDelete(d, table)
}

func (d *Db) Update(table *Table) *Update {
	return NewUpdate(d, table)
}
