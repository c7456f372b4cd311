package querysql

import (
	"strings"

	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/field"
	"github.com/roach88/nosqlite/internal/queryir"
)

// KeyType is the SQL type of a table's primary key.
type KeyType uint8

const (
	// KeyInteger is an engine-assigned INTEGER PRIMARY KEY (rowid alias).
	KeyInteger KeyType = iota

	// KeyText is a caller-assigned TEXT key.
	KeyText
)

// CompileCreateTable renders the DDL for a document table with its two
// fixed columns. The document column only accepts JSON objects.
func (c *SQLCompiler) CompileCreateTable(t queryir.Table, kt KeyType) (string, error) {
	if err := queryir.ValidateTable(t); err != nil {
		return "", err
	}
	key := t.Key() + " INTEGER PRIMARY KEY"
	if kt == KeyText {
		key = t.Key() + " TEXT PRIMARY KEY NOT NULL"
	}
	doc := t.Doc()
	return "CREATE TABLE IF NOT EXISTS " + t.Name + " (" + key + ", " +
		doc + " TEXT NOT NULL CHECK (json_valid(" + doc + ") AND json_type(" + doc + ") = 'object'))", nil
}

// IndexName derives an index name from the table and the indexed fields:
// idx_<table>_<slug>[__<slug>...].
func IndexName(t queryir.Table, fields []field.Ref) string {
	slugs := make([]string, len(fields))
	for i, f := range fields {
		slugs[i] = f.Slug()
	}
	return "idx_" + t.Name + "_" + strings.Join(slugs, "__")
}

// CompileCreateIndex renders an idempotent expression index over fields.
// Each field is indexed by the same expression used in WHERE and ORDER BY,
// so queries on those fields can use the index.
func (c *SQLCompiler) CompileCreateIndex(t queryir.Table, name string, fields []field.Ref, unique bool) (string, error) {
	if err := queryir.ValidateTable(t); err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", errs.QueryBuild("index needs at least one field")
	}
	if !field.ValidIdentifier(name) {
		return "", errs.QueryBuild("invalid index name %q", name)
	}
	exprs := make([]string, len(fields))
	for i, f := range fields {
		if f.IsZero() {
			return "", errs.InvalidPath("", "index field %d is empty", i)
		}
		exprs[i] = f.Value(t.Doc())
	}

	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	return "CREATE " + kind + " IF NOT EXISTS " + name + " ON " + t.Name + " (" + strings.Join(exprs, ", ") + ")", nil
}

// CompileDropIndex renders an idempotent index drop.
func (c *SQLCompiler) CompileDropIndex(name string) (string, error) {
	if !field.ValidIdentifier(name) {
		return "", errs.QueryBuild("invalid index name %q", name)
	}
	return "DROP INDEX IF EXISTS " + name, nil
}

// CompileListIndexes renders a catalog query for the explicit indexes of t,
// ordered by name.
func (c *SQLCompiler) CompileListIndexes(t queryir.Table) (string, []any, error) {
	if err := queryir.ValidateTable(t); err != nil {
		return "", nil, err
	}
	return "SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND sql IS NOT NULL ORDER BY name",
		[]any{t.Name}, nil
}

// CompileIndexDefinition renders a catalog lookup of the CREATE statement
// stored for the index named name.
func (c *SQLCompiler) CompileIndexDefinition(name string) (string, []any, error) {
	if !field.ValidIdentifier(name) {
		return "", nil, errs.QueryBuild("invalid index name %q", name)
	}
	return "SELECT sql FROM sqlite_master WHERE type = 'index' AND name = ?", []any{name}, nil
}

// SameIndex reports whether stored, the catalog text of an index, defines
// the index that ddl from CompileCreateIndex would create. The catalog may
// omit the IF NOT EXISTS clause.
func SameIndex(stored, ddl string) bool {
	strip := func(s string) string { return strings.Replace(s, " IF NOT EXISTS", "", 1) }
	return strip(stored) == strip(ddl)
}

// CompileIndexExists renders a catalog lookup counting indexes named name.
func (c *SQLCompiler) CompileIndexExists(name string) (string, []any, error) {
	if !field.ValidIdentifier(name) {
		return "", nil, errs.QueryBuild("invalid index name %q", name)
	}
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?", []any{name}, nil
}
