package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/field"
	"github.com/roach88/nosqlite/internal/queryir"
	"github.com/roach88/nosqlite/internal/querysql"
)

// Insert stores v as a new document and returns its key.
//
// On integer-keyed tables the key is assigned by the engine and read back
// by a second statement. Both statements run in one transaction when conn
// is a TxBeginner; if the key cannot be read back the insert is rolled back
// and no key is returned. When conn is a *sql.Tx the caller owns the
// transaction and must roll it back on error.
//
// On string-keyed tables the key comes from the table's KeyGenerator.
func (t *Table[K]) Insert(ctx context.Context, conn Conn, v any) (K, error) {
	var zero K
	if t.keyType == querysql.KeyText {
		key, err := t.decodeKey(t.keyGen.NextKey())
		if err != nil {
			return zero, fmt.Errorf("insert: generate key: %w", err)
		}
		if err := t.InsertWithKey(ctx, conn, key, v); err != nil {
			return zero, err
		}
		return key, nil
	}

	doc, err := t.store.codec.Encode(v)
	if err != nil {
		return zero, err
	}
	insertSQL, insertArgs, err := t.store.compiler.CompileInsert(t.def, doc)
	if err != nil {
		return zero, err
	}
	lookupSQL, lookupArgs, err := t.store.compiler.CompileKeyLookup(t.def)
	if err != nil {
		return zero, err
	}

	var key K
	run := func(c Conn) error {
		if _, err := t.store.exec(ctx, c, "insert", t.def.Name, insertSQL, insertArgs); err != nil {
			return err
		}
		if t.afterInsert != nil {
			if err := t.afterInsert(); err != nil {
				return errs.Storage("insert", err)
			}
		}
		rows, err := t.store.query(ctx, c, "insert_key", t.def.Name, lookupSQL, lookupArgs)
		if err != nil {
			return err
		}
		defer rows.Close()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return mapError("insert_key", err)
			}
			return errs.Storage("insert_key", errors.New("inserted row not found"))
		}
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return errs.Storage("insert_key", err)
		}
		key, err = t.decodeKey(raw)
		return err
	}

	if b, ok := conn.(TxBeginner); ok {
		t.store.warnIfHeld(ctx, conn, "insert")
		err = WithTx(ctx, b, func(tx *sql.Tx) error { return run(tx) })
	} else {
		err = run(conn)
	}
	if err != nil {
		return zero, err
	}
	return key, nil
}

// InsertWithKey stores v under a caller-chosen key. A duplicate key is a
// CONSTRAINT error.
func (t *Table[K]) InsertWithKey(ctx context.Context, conn Conn, key K, v any) error {
	doc, err := t.store.codec.Encode(v)
	if err != nil {
		return err
	}
	query, args, err := t.store.compiler.CompileInsertWithKey(t.def, key, doc)
	if err != nil {
		return err
	}
	_, err = t.store.exec(ctx, conn, "insert", t.def.Name, query, args)
	return err
}

// Replace overwrites the whole document stored under key.
// It returns the number of affected rows (0 when key does not exist).
func (t *Table[K]) Replace(ctx context.Context, conn Conn, key K, v any) (int64, error) {
	doc, err := t.store.codec.Encode(v)
	if err != nil {
		return 0, err
	}
	query, args, err := t.store.compiler.CompileReplace(t.def, key, doc)
	if err != nil {
		return 0, err
	}
	return t.affected(ctx, conn, "replace", query, args)
}

// Apply applies e to every row selected by target in one statement and
// returns the number of rows changed. Rows the edit would not change (an
// InsertIfAbsent on a present path, a ReplaceIfPresent or Remove on an
// absent path, a path below a scalar, a Set to the current value) are not
// counted. Patch counts every selected row.
func (t *Table[K]) Apply(ctx context.Context, conn Conn, target queryir.Target, e queryir.Edit) (int64, error) {
	query, args, err := t.store.compiler.CompileEdit(t.def, target, e)
	if err != nil {
		return 0, err
	}
	return t.affected(ctx, conn, "edit_"+e.Kind().String(), query, args)
}

// Set creates or overwrites the value at path in the document under key.
func (t *Table[K]) Set(ctx context.Context, conn Conn, key K, path field.Ref, v any) (int64, error) {
	return t.Apply(ctx, conn, queryir.ByKey(key), queryir.Set(path, v))
}

// InsertIfAbsent writes v at path only if nothing is there yet.
func (t *Table[K]) InsertIfAbsent(ctx context.Context, conn Conn, key K, path field.Ref, v any) (int64, error) {
	return t.Apply(ctx, conn, queryir.ByKey(key), queryir.InsertIfAbsent(path, v))
}

// ReplaceIfPresent overwrites the value at path only if it exists.
func (t *Table[K]) ReplaceIfPresent(ctx context.Context, conn Conn, key K, path field.Ref, v any) (int64, error) {
	return t.Apply(ctx, conn, queryir.ByKey(key), queryir.ReplaceIfPresent(path, v))
}

// Remove deletes the value at path.
func (t *Table[K]) Remove(ctx context.Context, conn Conn, key K, path field.Ref) (int64, error) {
	return t.Apply(ctx, conn, queryir.ByKey(key), queryir.Remove(path))
}

// Patch merges partial into the document under key (RFC 7396: nested
// objects merge recursively, null removes a key).
func (t *Table[K]) Patch(ctx context.Context, conn Conn, key K, partial any) (int64, error) {
	return t.Apply(ctx, conn, queryir.ByKey(key), queryir.Patch(partial))
}

// Delete removes the rows selected by target and returns how many.
func (t *Table[K]) Delete(ctx context.Context, conn Conn, target queryir.Target) (int64, error) {
	query, args, err := t.store.compiler.CompileDelete(t.def, target)
	if err != nil {
		return 0, err
	}
	return t.affected(ctx, conn, "delete", query, args)
}

func (t *Table[K]) affected(ctx context.Context, conn Conn, op, query string, args []any) (int64, error) {
	res, err := t.store.exec(ctx, conn, op, t.def.Name, query, args)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Storage(op, err)
	}
	return n, nil
}
