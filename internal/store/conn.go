package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/roach88/nosqlite/internal/errs"
)

// Conn is the connection handle every operation runs on.
// *sql.DB, *sql.Conn and *sql.Tx satisfy it.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// TxBeginner is a handle that can start a transaction.
// *sql.DB and *sql.Conn satisfy it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx runs fn in a transaction on b. The transaction is committed when
// fn returns nil and rolled back otherwise, including when fn panics.
func WithTx(ctx context.Context, b TxBeginner, fn func(tx *sql.Tx) error) error {
	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return mapError("begin", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError("commit", err)
	}
	return nil
}

// mapError classifies an engine error. Errors that already carry a code
// pass through unchanged.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *errs.Error
	if errors.As(err, &classified) {
		return err
	}
	if isConstraint(err) {
		return errs.Constraint(op, err)
	}
	return errs.Storage(op, err)
}

// isConstraint reports whether err is a constraint violation from either
// driver (primary key, unique index, CHECK, NOT NULL).
func isConstraint(err error) bool {
	var cgoErr sqlite3.Error
	if errors.As(err, &cgoErr) {
		return cgoErr.Code == sqlite3.ErrConstraint
	}
	var pureErr *sqlite.Error
	if errors.As(err, &pureErr) {
		return pureErr.Code()&0xff == sqlitelib.SQLITE_CONSTRAINT
	}
	return false
}
