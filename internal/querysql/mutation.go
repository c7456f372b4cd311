package querysql

import (
	"strings"

	"github.com/roach88/nosqlite/internal/codec"
	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/queryir"
)

// CompileInsert renders an insert with an engine-assigned key.
func (c *SQLCompiler) CompileInsert(t queryir.Table, doc codec.Document) (string, []any, error) {
	if err := queryir.ValidateTable(t); err != nil {
		return "", nil, err
	}
	sql := "INSERT INTO " + t.Name + " (" + t.Doc() + ") VALUES (json(?))"
	return sql, []any{string(doc)}, nil
}

// CompileInsertWithKey renders an insert with a caller-supplied key.
func (c *SQLCompiler) CompileInsertWithKey(t queryir.Table, key any, doc codec.Document) (string, []any, error) {
	if err := queryir.ValidateTable(t); err != nil {
		return "", nil, err
	}
	k, err := keyParam(key)
	if err != nil {
		return "", nil, err
	}
	sql := "INSERT INTO " + t.Name + " (" + t.Key() + ", " + t.Doc() + ") VALUES (?, json(?))"
	return sql, []any{k, string(doc)}, nil
}

// CompileKeyLookup renders the retrieval of the key assigned by the last
// insert on the same connection.
func (c *SQLCompiler) CompileKeyLookup(t queryir.Table) (string, []any, error) {
	if err := queryir.ValidateTable(t); err != nil {
		return "", nil, err
	}
	return "SELECT " + t.Key() + " FROM " + t.Name + " WHERE rowid = last_insert_rowid()", nil, nil
}

// CompileReplace renders a wholesale overwrite of one document.
func (c *SQLCompiler) CompileReplace(t queryir.Table, key any, doc codec.Document) (string, []any, error) {
	if err := queryir.ValidateTable(t); err != nil {
		return "", nil, err
	}
	k, err := keyParam(key)
	if err != nil {
		return "", nil, err
	}
	sql := "UPDATE " + t.Name + " SET " + t.Doc() + " = json(?) WHERE " + t.Key() + " = ?"
	return sql, []any{string(doc), k}, nil
}

// CompileEdit renders one UPDATE applying e to the rows selected by target.
//
// Rows where the edit would change nothing are not matched, so their
// affected count is zero. Conditional edits carry a json_type guard, and
// value edits also compare the edited document with the stored one. That
// covers paths SQLite cannot write, such as a key below a scalar:
//
//	set:     json_set(...)     ... AND json_set(...) IS NOT data
//	insert:  json_insert(...)  ... AND json_type(data, '$.p') IS NULL AND json_insert(...) IS NOT data
//	replace: json_replace(...) ... AND json_type(data, '$.p') IS NOT NULL AND json_replace(...) IS NOT data
//	remove:  json_remove(...)  ... AND json_type(data, '$.p') IS NOT NULL
//
// Patch uses json_patch (RFC 7396): nested objects merge recursively and
// null removes a key.
func (c *SQLCompiler) CompileEdit(t queryir.Table, target queryir.Target, e queryir.Edit) (string, []any, error) {
	if err := queryir.ValidateTable(t); err != nil {
		return "", nil, err
	}
	if err := queryir.ValidateEdit(e); err != nil {
		return "", nil, err
	}
	where, whereParams, err := c.compileTarget(t, target)
	if err != nil {
		return "", nil, err
	}

	doc := t.Doc()
	path := e.Path()
	var set string
	var guards []string
	var params, guardParams []any

	switch e.Kind() {
	case queryir.EditSet, queryir.EditInsert, queryir.EditReplace:
		value, err := c.Codec.EncodeValue(e.Value())
		if err != nil {
			return "", nil, err
		}
		fn := map[queryir.EditKind]string{
			queryir.EditSet:     "json_set",
			queryir.EditInsert:  "json_insert",
			queryir.EditReplace: "json_replace",
		}[e.Kind()]
		set = fn + "(" + doc + ", " + path.Literal() + ", json(?))"
		params = append(params, string(value))
		switch e.Kind() {
		case queryir.EditInsert:
			guards = append(guards, path.Type(doc)+" IS NULL")
		case queryir.EditReplace:
			guards = append(guards, path.Type(doc)+" IS NOT NULL")
		}
		guards = append(guards, set+" IS NOT "+doc)
		guardParams = append(guardParams, string(value))
	case queryir.EditRemove:
		set = "json_remove(" + doc + ", " + path.Literal() + ")"
		guards = append(guards, path.Type(doc)+" IS NOT NULL")
	case queryir.EditPatch:
		partial, err := c.Codec.Encode(e.Value())
		if err != nil {
			return "", nil, err
		}
		set = "json_patch(" + doc + ", json(?))"
		params = append(params, string(partial))
	}

	sql := "UPDATE " + t.Name + " SET " + doc + " = " + set
	if where != "" {
		guards = append([]string{where}, guards...)
	}
	if len(guards) > 0 {
		sql += " WHERE " + strings.Join(guards, " AND ")
	}
	params = append(params, whereParams...)
	return sql, append(params, guardParams...), nil
}

// CompileDelete renders a DELETE over the rows selected by target.
func (c *SQLCompiler) CompileDelete(t queryir.Table, target queryir.Target) (string, []any, error) {
	if err := queryir.ValidateTable(t); err != nil {
		return "", nil, err
	}
	where, params, err := c.compileTarget(t, target)
	if err != nil {
		return "", nil, err
	}
	sql := "DELETE FROM " + t.Name
	if where != "" {
		sql += " WHERE " + where
	}
	return sql, params, nil
}

// compileTarget renders the WHERE clause body for a target; empty for AllRows.
func (c *SQLCompiler) compileTarget(t queryir.Table, target queryir.Target) (string, []any, error) {
	if err := queryir.ValidateTarget(target, c.maxDepth()); err != nil {
		return "", nil, err
	}
	switch target.Kind() {
	case queryir.TargetKey:
		k, err := keyParam(target.Key())
		if err != nil {
			return "", nil, err
		}
		return t.Key() + " = ?", []any{k}, nil
	case queryir.TargetWhere:
		return c.compileCondition(t, target.Condition())
	default:
		return "", nil, nil
	}
}

// keyParam converts a primary key to an int64 or string parameter.
func keyParam(key any) (any, error) {
	if key == nil {
		return nil, errs.QueryBuild("nil key")
	}
	p, ok := scalarParam(key)
	if !ok {
		return nil, errs.QueryBuild("unsupported key type %T", key)
	}
	switch p.(type) {
	case int64, string:
		return p, nil
	}
	return nil, errs.QueryBuild("unsupported key type %T", key)
}
