package db

import (
	"context"
	"database/sql"
	"runtime/debug"

	"github.com/quintans/faults"

	"github.com/quintans/nestedset/dbx"
)

type ITransactionManager interface {
	With(db IDb) ITransactionManager
	Transaction(handler func(db IDb) error) error
	TransactionContext(ctx context.Context, handler func(db IDb) error) error
	NoTransaction(handler func(db IDb) error) error
	Store() IDb
	StoreContext(ctx context.Context) IDb
}

var _ ITransactionManager = (*TransactionManager)(nil)

type TransactionManager struct {
	database   *sql.DB
	translator Translator
	dbFactory  func(context.Context, dbx.IConnection) IDb
	txOptions  *sql.TxOptions
}

func TmWithDbFactory(dbFactory func(context.Context, dbx.IConnection) IDb) func(*TransactionManager) {
	return func(t *TransactionManager) {
		t.dbFactory = dbFactory
	}
}

// TmWithIsolation sets the isolation level of the transactions
func TmWithIsolation(level sql.IsolationLevel) func(*TransactionManager) {
	return func(t *TransactionManager) {
		t.txOptions = &sql.TxOptions{Isolation: level}
	}
}

// NewTransactionManager creates a new Transaction Manager
func NewTransactionManager(database *sql.DB, translator Translator, options ...func(*TransactionManager)) *TransactionManager {
	t := &TransactionManager{
		database:   database,
		translator: translator,
		dbFactory: func(ctx context.Context, c dbx.IConnection) IDb {
			return NewDb(ctx, c, translator)
		},
	}

	for _, o := range options {
		o(t)
	}
	return t
}

func (t *TransactionManager) GetTranslator() Translator {
	return t.translator
}

func (t *TransactionManager) With(db IDb) ITransactionManager {
	if db == nil {
		return t
	}
	return HollowTransactionManager{db}
}

func (t *TransactionManager) Transaction(handler func(db IDb) error) error {
	return t.TransactionContext(context.Background(), handler)
}

func (t *TransactionManager) TransactionContext(ctx context.Context, handler func(db IDb) error) error {
	lgr.Debugf("Transaction begin")
	tx, err := t.database.BeginTx(ctx, t.txOptions)
	if err != nil {
		return faults.Wrap(err)
	}
	defer func() {
		err := recover()
		if err != nil {
			lgr.Errorf("Transaction end in panic: %v", err)
			rerr := tx.Rollback()
			if rerr != nil {
				lgr.Errorf("failed to rollback: %v", rerr)
			}
			panic(err) // up you go
		}
	}()

	err = handler(t.dbFactory(ctx, tx))
	if err == nil {
		lgr.Debug("Transaction end: COMMIT")
		cerr := tx.Commit()
		if cerr != nil {
			lgr.Errorf("failed to commit: %v", cerr)
			return faults.Wrap(cerr)
		}
		return nil
	}

	lgr.Debug("Transaction end: ROLLBACK")
	rerr := tx.Rollback()
	if rerr != nil {
		lgr.Errorf("failed to rollback: %v", rerr)
	}
	return faults.Wrap(err)
}

func (t *TransactionManager) NoTransaction(handler func(db IDb) error) error {
	lgr.Debugf("TransactionLESS Begin")
	defer func() {
		err := recover()
		if err != nil {
			lgr.Errorf("TransactionLESS error: %s\n%s", err, debug.Stack())
			panic(err) // up you go
		}
	}()

	err := handler(t.dbFactory(context.Background(), t.database))
	lgr.Debugf("TransactionLESS End")
	return faults.Wrap(err)
}

func (t *TransactionManager) Store() IDb {
	return t.StoreContext(context.Background())
}

func (t *TransactionManager) StoreContext(ctx context.Context) IDb {
	return t.dbFactory(ctx, t.database)
}

var _ ITransactionManager = HollowTransactionManager{}

// HollowTransactionManager runs everything inside an already open store
type HollowTransactionManager struct {
	db IDb
}

func (t HollowTransactionManager) With(db IDb) ITransactionManager {
	return HollowTransactionManager{db}
}

func (t HollowTransactionManager) Transaction(handler func(db IDb) error) error {
	return handler(t.db)
}

func (t HollowTransactionManager) TransactionContext(ctx context.Context, handler func(db IDb) error) error {
	return handler(t.db)
}

func (t HollowTransactionManager) NoTransaction(handler func(db IDb) error) error {
	return handler(t.db)
}

func (t HollowTransactionManager) Store() IDb {
	return t.db
}

func (t HollowTransactionManager) StoreContext(ctx context.Context) IDb {
	return t.db
}
