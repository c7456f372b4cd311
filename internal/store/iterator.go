package store

import (
	"database/sql"
	"iter"

	"github.com/roach88/nosqlite/internal/errs"
)

// Iterator is a lazy, forward-only, single-pass sequence of decoded rows.
//
// Each Next pulls one row from the engine and decodes it. A decode failure
// is local to its row and reported by Value; iteration continues. An
// engine failure ends the iteration and is reported by Err as a STORAGE
// error. Iterators are not restartable; run the query again instead.
//
// An open iterator holds the store's only connection. Other statements on
// Store.DB wait until it is exhausted or closed, and the store logs a
// warning when one starts waiting.
//
//	it, err := store.Docs[User](ctx, db, users, q)
//	if err != nil { ... }
//	defer it.Close()
//	for it.Next() {
//	    u, err := it.Value()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator[T any] struct {
	rows   *sql.Rows
	width  int
	decode func(vals []any) (T, error)
	store  *Store
	op     string

	cur    T
	curErr error
	err    error
	done   bool
	count  int64
}

func newIterator[T any](s *Store, op string, rows *sql.Rows, width int, decode func([]any) (T, error)) *Iterator[T] {
	s.openIterators.Add(1)
	return &Iterator[T]{rows: rows, width: width, decode: decode, store: s, op: op}
}

// Next advances to the next row. It returns false at exhaustion, after an
// engine error, or after Close.
func (it *Iterator[T]) Next() bool {
	if it.done {
		return false
	}
	var zero T
	it.cur, it.curErr = zero, nil

	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			it.err = mapError(it.op, err)
		}
		it.finish()
		return false
	}

	vals := make([]any, it.width)
	ptrs := make([]any, it.width)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		it.err = errs.Storage(it.op, err)
		it.finish()
		return false
	}

	it.count++
	it.cur, it.curErr = it.decode(vals)
	return true
}

// Value returns the current row, or the DECODE error for that row.
func (it *Iterator[T]) Value() (T, error) {
	return it.cur, it.curErr
}

// Err returns the engine error that ended iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Close releases the underlying rows. It is safe to call more than once.
func (it *Iterator[T]) Close() error {
	if it.done {
		return nil
	}
	it.finish()
	return nil
}

// All drains the iterator and closes it. It stops at the first decode or
// engine error.
func (it *Iterator[T]) All() ([]T, error) {
	defer it.Close()
	var out []T
	for it.Next() {
		v, err := it.Value()
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, it.Err()
}

// Seq adapts the iterator to a range-over-func sequence of (row, error)
// pairs. Row-level decode errors are yielded with their row; an engine
// error is yielded last with the zero value. Breaking out of the loop
// closes the iterator.
func (it *Iterator[T]) Seq() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer it.Close()
		for it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
		if err := it.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

func (it *Iterator[T]) finish() {
	if it.done {
		return
	}
	it.done = true
	it.store.openIterators.Add(-1)
	if err := it.rows.Close(); err != nil && it.err == nil {
		it.err = mapError(it.op, err)
	}
	it.store.metrics.AddRows(it.op, it.count)
}
