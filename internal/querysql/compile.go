// Package querysql renders queryir values into parameterized SQLite SQL.
//
// Rendering is pure: nothing here touches the engine. Every literal value
// is bound as a "?" parameter and never interpolated. Field paths and
// identifiers are rendered into the statement text; they are validated
// first (field.ValidIdentifier, field.Path) so that never admits injection.
package querysql

import (
	"strings"

	"github.com/roach88/nosqlite/internal/codec"
	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/queryir"
)

// NullOrder is the NULL placement policy for ORDER BY.
type NullOrder uint8

const (
	// NullsLastAscending renders "ASC NULLS LAST" and "DESC NULLS FIRST".
	NullsLastAscending NullOrder = iota

	// NullsFirstAscending renders "ASC NULLS FIRST" and "DESC NULLS LAST".
	NullsFirstAscending
)

// SQLCompiler compiles queryir values to parameterized SQL for SQLite.
//
// Compile methods return a (sql, params, error) tuple. Errors are always
// build-time errors (INVALID_PATH, QUERY_BUILD, ENCODE).
type SQLCompiler struct {
	// NullOrder fixes where NULLs sort.
	NullOrder NullOrder

	// MaxDepth bounds condition nesting. Zero means queryir.DefaultMaxDepth.
	MaxDepth int

	// Codec encodes composite literals and edit values.
	Codec codec.Codec
}

// NewSQLCompiler creates a SQLCompiler with the default policies.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{MaxDepth: queryir.DefaultMaxDepth}
}

func (c *SQLCompiler) maxDepth() int {
	if c.MaxDepth <= 0 {
		return queryir.DefaultMaxDepth
	}
	return c.MaxDepth
}

// Compile converts a read query to one SELECT statement:
//
//	SELECT <projection> FROM <table> [WHERE <c>] [ORDER BY <k>] [LIMIT ? [OFFSET ?]]
//
// An offset without a limit renders "LIMIT -1 OFFSET ?".
func (c *SQLCompiler) Compile(q queryir.Select) (string, []any, error) {
	if err := queryir.ValidateDepth(q, c.maxDepth()); err != nil {
		return "", nil, err
	}
	t := q.Table()

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(c.compileProjection(t, q.Projection()))
	b.WriteString(" FROM ")
	b.WriteString(t.Name)

	var params []any
	if cond := q.Condition(); cond != nil {
		where, whereParams, err := c.compileCondition(t, cond)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = append(params, whereParams...)
	}

	if keys := q.SortKeys(); len(keys) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(c.compileOrder(t, keys))
	}

	limit, hasLimit := q.LimitValue()
	offset, hasOffset := q.OffsetValue()
	switch {
	case hasLimit && hasOffset:
		b.WriteString(" LIMIT ? OFFSET ?")
		params = append(params, limit, offset)
	case hasLimit:
		b.WriteString(" LIMIT ?")
		params = append(params, limit)
	case hasOffset:
		b.WriteString(" LIMIT -1 OFFSET ?")
		params = append(params, offset)
	}

	return b.String(), params, nil
}

// CompileCondition renders a condition against t's document column.
func (c *SQLCompiler) CompileCondition(t queryir.Table, cond queryir.Condition) (string, []any, error) {
	if cond == nil {
		return "", nil, errs.QueryBuild("nil condition")
	}
	if err := queryir.ValidateCondition(cond, c.maxDepth()); err != nil {
		return "", nil, err
	}
	return c.compileCondition(t, cond)
}

// CompileCount renders SELECT COUNT(*) over the rows matching cond (all rows
// when cond is nil).
func (c *SQLCompiler) CompileCount(t queryir.Table, cond queryir.Condition) (string, []any, error) {
	if err := queryir.ValidateTable(t); err != nil {
		return "", nil, err
	}
	sql := "SELECT COUNT(*) FROM " + t.Name
	if cond == nil {
		return sql, nil, nil
	}
	where, params, err := c.CompileCondition(t, cond)
	if err != nil {
		return "", nil, err
	}
	return sql + " WHERE " + where, params, nil
}

// compileProjection renders the SELECT list.
func (c *SQLCompiler) compileProjection(t queryir.Table, p queryir.Projection) string {
	switch p.Kind() {
	case queryir.ProjectKey:
		return t.Key()
	case queryir.ProjectEntry:
		return t.Key() + ", " + t.Doc()
	case queryir.ProjectFields:
		fields := p.Fields()
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = f.Fragment(t.Doc())
		}
		return strings.Join(parts, ", ")
	default:
		return t.Doc()
	}
}

// compileOrder renders sort keys in order. Duplicates are kept.
func (c *SQLCompiler) compileOrder(t queryir.Table, keys []queryir.SortKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Field.Value(t.Doc()) + " " + c.direction(k.Desc)
	}
	return strings.Join(parts, ", ")
}

func (c *SQLCompiler) direction(desc bool) string {
	nullsLast := c.NullOrder == NullsLastAscending
	if desc {
		nullsLast = !nullsLast
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	if nullsLast {
		return dir + " NULLS LAST"
	}
	return dir + " NULLS FIRST"
}
