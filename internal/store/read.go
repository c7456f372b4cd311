package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/nosqlite/internal/codec"
	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/field"
	"github.com/roach88/nosqlite/internal/queryir"
)

// Entry is a key and its decoded document.
type Entry[K Key, T any] struct {
	Key K
	Doc T
}

// Pair is a two-field projection row.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple is a three-field projection row.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Docs runs q and decodes each whole document into T. Close the iterator,
// or drain it with All or Seq, before running other statements on conn.
func Docs[T any, K Key](ctx context.Context, conn Conn, t *Table[K], q queryir.Select) (*Iterator[T], error) {
	return run(ctx, conn, t, "find", q.Project(queryir.Document()), func(vals []any) (T, error) {
		var v T
		err := codec.Decode(textBytes(vals[0]), &v)
		return v, err
	})
}

// Entries runs q and decodes each row into its key and document. Like Docs,
// the iterator holds conn until it is closed.
func Entries[T any, K Key](ctx context.Context, conn Conn, t *Table[K], q queryir.Select) (*Iterator[Entry[K, T]], error) {
	return run(ctx, conn, t, "find", q.Project(queryir.Entry()), func(vals []any) (Entry[K, T], error) {
		var e Entry[K, T]
		key, err := t.decodeKey(vals[0])
		if err != nil {
			return e, err
		}
		e.Key = key
		err = codec.Decode(textBytes(vals[1]), &e.Doc)
		return e, err
	})
}

// Keys runs q and returns the primary key of each row.
func Keys[K Key](ctx context.Context, conn Conn, t *Table[K], q queryir.Select) (*Iterator[K], error) {
	return run(ctx, conn, t, "find", q.Project(queryir.Key()), func(vals []any) (K, error) {
		return t.decodeKey(vals[0])
	})
}

// Values runs q projecting one field decoded into A.
func Values[A any, K Key](ctx context.Context, conn Conn, t *Table[K], q queryir.Select, f field.Ref) (*Iterator[A], error) {
	return run(ctx, conn, t, "find", q.Project(queryir.Fields(f)), func(vals []any) (A, error) {
		var a A
		err := decodeField(f, vals[0], &a)
		return a, err
	})
}

// Pairs runs q projecting two fields decoded into A and B.
func Pairs[A, B any, K Key](ctx context.Context, conn Conn, t *Table[K], q queryir.Select, f1, f2 field.Ref) (*Iterator[Pair[A, B]], error) {
	return run(ctx, conn, t, "find", q.Project(queryir.Fields(f1, f2)), func(vals []any) (Pair[A, B], error) {
		var p Pair[A, B]
		if err := decodeField(f1, vals[0], &p.First); err != nil {
			return p, err
		}
		err := decodeField(f2, vals[1], &p.Second)
		return p, err
	})
}

// Triples runs q projecting three fields decoded into A, B and C.
func Triples[A, B, C any, K Key](ctx context.Context, conn Conn, t *Table[K], q queryir.Select, f1, f2, f3 field.Ref) (*Iterator[Triple[A, B, C]], error) {
	return run(ctx, conn, t, "find", q.Project(queryir.Fields(f1, f2, f3)), func(vals []any) (Triple[A, B, C], error) {
		var tr Triple[A, B, C]
		if err := decodeField(f1, vals[0], &tr.First); err != nil {
			return tr, err
		}
		if err := decodeField(f2, vals[1], &tr.Second); err != nil {
			return tr, err
		}
		err := decodeField(f3, vals[2], &tr.Third)
		return tr, err
	})
}

// Query runs q with its own projection and returns undecoded rows; the
// caller declares the types at Row.Scan.
func Query[K Key](ctx context.Context, conn Conn, t *Table[K], q queryir.Select) (*Iterator[Row], error) {
	cols := projectionColumns(t.def, q.Projection())
	return run(ctx, conn, t, "find", q, func(vals []any) (Row, error) {
		return Row{cols: cols, vals: vals}, nil
	})
}

// Get returns the document stored under key. The boolean is false when no
// such row exists.
func Get[T any, K Key](ctx context.Context, conn Conn, t *Table[K], key K) (T, bool, error) {
	it, err := Docs[T](ctx, conn, t, t.byKey(key))
	if err != nil {
		var zero T
		return zero, false, err
	}
	return first(it)
}

// GetField returns the value at f in the document stored under key. The
// boolean is false when no such row exists; an absent path is a DECODE
// error.
func GetField[T any, K Key](ctx context.Context, conn Conn, t *Table[K], key K, f field.Ref) (T, bool, error) {
	it, err := Values[T](ctx, conn, t, t.byKey(key), f)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return first(it)
}

// Count returns the number of rows matching cond (all rows when nil).
func Count[K Key](ctx context.Context, conn Conn, t *Table[K], cond queryir.Condition) (int64, error) {
	query, args, err := t.store.compiler.CompileCount(t.def, cond)
	if err != nil {
		return 0, err
	}
	rows, err := t.store.query(ctx, conn, "count", t.def.Name, query, args)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, errs.Storage("count", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, mapError("count", err)
	}
	return n, nil
}

func (t *Table[K]) byKey(key K) queryir.Select {
	return t.Select().Where(queryir.Eq(t.def.KeyRef(), key)).Limit(1)
}

// run compiles q, executes it on conn and wraps the rows.
func run[T any, K Key](ctx context.Context, conn Conn, t *Table[K], op string, q queryir.Select, decode func([]any) (T, error)) (*Iterator[T], error) {
	if err := t.checkQuery(q); err != nil {
		return nil, err
	}
	query, args, err := t.store.compiler.Compile(q)
	if err != nil {
		return nil, err
	}
	rows, err := t.store.query(ctx, conn, op, t.def.Name, query, args)
	if err != nil {
		return nil, err
	}
	return newIterator(t.store, op, rows, q.Projection().Arity(), decode), nil
}

// checkQuery rejects queries built for another table.
func (t *Table[K]) checkQuery(q queryir.Select) error {
	qt := q.Table()
	if qt.IsZero() {
		return errs.QueryBuild("missing table reference")
	}
	if qt.Name != t.def.Name || qt.Key() != t.def.Key() || qt.Doc() != t.def.Doc() {
		return errs.QueryBuild("query targets table %q, handle is bound to %q", qt.Name, t.def.Name)
	}
	return nil
}

func first[T any](it *Iterator[T]) (T, bool, error) {
	defer it.Close()
	var zero T
	if !it.Next() {
		return zero, false, it.Err()
	}
	v, err := it.Value()
	if err != nil {
		return zero, true, err
	}
	return v, true, nil
}

// decodeField decodes one projected value: native for columns, JSON
// fragment for document paths.
func decodeField(f field.Ref, v any, dst any) error {
	if f.IsColumn() {
		return codec.DecodeNative(f.Name(), v, dst)
	}
	return codec.DecodeFragment(f.Name(), textBytes(v), dst)
}

// textBytes returns the JSON text of a scanned TEXT value; nil for NULL.
func textBytes(v any) []byte {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return x
	case string:
		return []byte(x)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(fmt.Sprint(v))
	}
	return data
}
