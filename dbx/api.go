package dbx

import (
	"context"
	"database/sql"
)

// IConnection is what SimpleDBA needs to run statements.
// Both *sql.DB and *sql.Tx satisfy it.
type IConnection interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	_ IConnection = (*sql.DB)(nil)
	_ IConnection = (*sql.Tx)(nil)
)
