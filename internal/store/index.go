package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/field"
	"github.com/roach88/nosqlite/internal/querysql"
)

// IndexState is the lifecycle state of a secondary index.
//
//	Absent -> Creating -> Present
//	Present -> Dropping -> Absent
type IndexState int

const (
	IndexAbsent IndexState = iota
	IndexCreating
	IndexPresent
	IndexDropping
)

// String returns the state name.
func (s IndexState) String() string {
	switch s {
	case IndexAbsent:
		return "absent"
	case IndexCreating:
		return "creating"
	case IndexPresent:
		return "present"
	case IndexDropping:
		return "dropping"
	default:
		return fmt.Sprintf("IndexState(%d)", int(s))
	}
}

// IndexSpec describes an expression index over document fields.
type IndexSpec struct {
	// Name defaults to querysql.IndexName when empty.
	Name   string
	Fields []field.Ref
	Unique bool
}

// CreateIndex creates the index described by spec if it does not exist and
// returns its name. Creating an existing index is a no-op; reusing a name
// for a different index is a QUERY_BUILD error. Building a UNIQUE index
// over rows that already collide is a CONSTRAINT error.
func (t *Table[K]) CreateIndex(ctx context.Context, conn Conn, spec IndexSpec) (string, error) {
	name := spec.Name
	if name == "" {
		name = querysql.IndexName(t.def, spec.Fields)
	}
	ddl, err := t.store.compiler.CompileCreateIndex(t.def, name, spec.Fields, spec.Unique)
	if err != nil {
		return "", err
	}

	if err := t.store.beginTransition(name, IndexCreating); err != nil {
		return "", err
	}
	err = t.createIndex(ctx, conn, name, ddl)
	t.store.endTransition(ctx, name, IndexCreating, err)
	if err != nil {
		return "", err
	}
	return name, nil
}

// createIndex runs ddl unless the index already exists. An existing index
// under the same name with another definition is a QUERY_BUILD error.
func (t *Table[K]) createIndex(ctx context.Context, conn Conn, name, ddl string) error {
	query, args, err := t.store.compiler.CompileIndexDefinition(name)
	if err != nil {
		return err
	}
	rows, err := t.store.query(ctx, conn, "create_index", t.def.Name, query, args)
	if err != nil {
		return err
	}
	var stored sql.NullString
	found := rows.Next()
	if found {
		err = rows.Scan(&stored)
	}
	if err == nil {
		err = rows.Err()
	}
	rows.Close()
	if err != nil {
		return mapError("create_index", err)
	}

	if found {
		if !stored.Valid || !querysql.SameIndex(stored.String, ddl) {
			return errs.QueryBuild("index %q already exists with a different definition", name)
		}
		return nil
	}
	_, err = t.store.exec(ctx, conn, "create_index", t.def.Name, ddl, nil)
	return err
}

// DropIndex drops the named index. Dropping an absent index is a no-op.
func (t *Table[K]) DropIndex(ctx context.Context, conn Conn, name string) error {
	ddl, err := t.store.compiler.CompileDropIndex(name)
	if err != nil {
		return err
	}
	if err := t.store.beginTransition(name, IndexDropping); err != nil {
		return err
	}
	_, err = t.store.exec(ctx, conn, "drop_index", t.def.Name, ddl, nil)
	t.store.endTransition(ctx, name, IndexDropping, err)
	return err
}

// IndexState reports the state of the named index: a transitional state
// while this store is creating or dropping it, otherwise Present or Absent
// according to the schema catalog.
func (t *Table[K]) IndexState(ctx context.Context, conn Conn, name string) (IndexState, error) {
	t.store.mu.Lock()
	st, ok := t.store.indexes[name]
	t.store.mu.Unlock()
	if ok {
		return st, nil
	}

	query, args, err := t.store.compiler.CompileIndexExists(name)
	if err != nil {
		return IndexAbsent, err
	}
	rows, err := t.store.query(ctx, conn, "index_state", t.def.Name, query, args)
	if err != nil {
		return IndexAbsent, err
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return IndexAbsent, errs.Storage("index_state", err)
		}
	}
	if err := rows.Err(); err != nil {
		return IndexAbsent, mapError("index_state", err)
	}
	if n > 0 {
		return IndexPresent, nil
	}
	return IndexAbsent, nil
}

// Indexes lists the names of the explicitly created indexes on the table,
// sorted by name. Automatic indexes (primary key) are not included.
func (t *Table[K]) Indexes(ctx context.Context, conn Conn) ([]string, error) {
	query, args, err := t.store.compiler.CompileListIndexes(t.def)
	if err != nil {
		return nil, err
	}
	rows, err := t.store.query(ctx, conn, "list_indexes", t.def.Name, query, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errs.Storage("list_indexes", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list_indexes", err)
	}
	return names, nil
}

// beginTransition records a transitional state for name. Only one
// transition per index may be in flight.
func (s *Store) beginTransition(name string, st IndexState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.indexes[name]; ok {
		return errs.QueryBuild("index %q is %s", name, cur)
	}
	s.indexes[name] = st
	return nil
}

// endTransition clears the transitional state and logs the outcome.
func (s *Store) endTransition(ctx context.Context, name string, st IndexState, err error) {
	s.mu.Lock()
	delete(s.indexes, name)
	s.mu.Unlock()

	from, to := IndexAbsent, IndexPresent
	if st == IndexDropping {
		from, to = IndexPresent, IndexAbsent
	}
	if err != nil {
		s.logger.WarnContext(ctx, "index transition failed",
			"index", name,
			"state", st.String(),
			"error", err,
		)
		return
	}
	s.logger.InfoContext(ctx, "index transition",
		"index", name,
		"from", from.String(),
		"via", st.String(),
		"to", to.String(),
	)
}
