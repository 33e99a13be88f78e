package dbx

import (
	"context"
	"database/sql"

	"github.com/quintans/faults"
	tk "github.com/quintans/toolkit"
	"github.com/quintans/toolkit/log"
)

var logger = log.LoggerFor("github.com/quintans/nestedset/dbx")

// SimpleDBA runs already translated statements against a connection
type SimpleDBA struct {
	// The connection to execute the query in.
	connection IConnection
}

func NewSimpleDBA(connection IConnection) *SimpleDBA {
	this := new(SimpleDBA)
	this.connection = connection
	return this
}

// QueryClosure executes a query and hands each row to the transformer.
// The transformer is responsible for scanning and collecting.
func (s *SimpleDBA) QueryClosure(
	ctx context.Context,
	query string,
	transformer func(rows *sql.Rows) error,
	params ...interface{},
) error {
	rows, err := s.connection.QueryContext(ctx, query, params...)
	if err != nil {
		return rethrow(err, "executing query closure", query, params...)
	}
	defer rows.Close()

	for rows.Next() {
		err := transformer(rows)
		if err != nil {
			return rethrow(err, "query closure transform", query, params...)
		}
	}

	if err = rows.Err(); err != nil {
		return faults.Errorf("closing rows for query closure: %w", err)
	}

	return nil
}

// QueryRow executes a query returning at most one row.
// It returns false, without error, when there is no row.
func (s *SimpleDBA) QueryRow(
	ctx context.Context,
	query string,
	params []interface{},
	dest ...interface{},
) (bool, error) {
	err := s.connection.QueryRowContext(ctx, query, params...).Scan(dest...)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, rethrow(err, "executing query row", query, params...)
	}

	return true, nil
}

// Update executes an INSERT, UPDATE or DELETE returning the number of affected rows.
func (s *SimpleDBA) Update(ctx context.Context, query string, params ...interface{}) (int64, error) {
	result, err := s.connection.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, rethrow(err, "update", query, params...)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, faults.Wrap(err)
	}
	return affected, nil
}

func (s *SimpleDBA) Delete(ctx context.Context, query string, params ...interface{}) (int64, error) {
	return s.Update(ctx, query, params...)
}

func (s *SimpleDBA) Insert(ctx context.Context, query string, params ...interface{}) error {
	_, err := s.connection.ExecContext(ctx, query, params...)
	if err != nil {
		return rethrow(err, "executing insert", query, params...)
	}
	// LastInsertId is not supported in all drivers (ex: pq)
	return nil
}

func (s *SimpleDBA) InsertReturning(ctx context.Context, query string, params ...interface{}) (int64, error) {
	var id int64
	_, err := s.QueryRow(ctx, query, params, &id)
	if err != nil {
		return 0, faults.Wrap(err)
	}
	return id, nil
}

// rethrow decorates the cause with the statement that was executing.
func rethrow(cause error, what string, query string, params ...interface{}) error {
	msg := tk.NewStrBuffer()
	msg.Add(what).Add("\nSQL: ", query, "\nParameters: ")
	if params != nil {
		msg.Addf("%v", params)
	}
	logger.Debugf("%s: %s", msg.String(), cause)

	return faults.Errorf("%s: %w", msg.String(), cause)
}
