package querysql

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strings"

	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/queryir"
)

// compileCondition renders an already validated condition tree.
// Combinators are always parenthesized; leaves are not.
func (c *SQLCompiler) compileCondition(t queryir.Table, cond queryir.Condition) (string, []any, error) {
	switch n := cond.(type) {
	case queryir.Compare:
		return c.compileCompare(t, n)
	case queryir.In:
		return c.compileIn(t, n)
	case queryir.Like:
		sql := n.Field.Value(t.Doc()) + " LIKE ?"
		if n.Escape {
			sql += ` ESCAPE '\'`
		}
		return sql, []any{n.Pattern}, nil
	case queryir.Null:
		if n.Negated {
			return n.Field.Value(t.Doc()) + " IS NOT NULL", nil, nil
		}
		return n.Field.Value(t.Doc()) + " IS NULL", nil, nil
	case queryir.And:
		return c.compileJunction(t, n.Conditions, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileJunction(t, n.Conditions, " OR ", "1 = 0")
	case queryir.Not:
		inner, params, err := c.compileCondition(t, n.Condition)
		if err != nil {
			return "", nil, err
		}
		return "(NOT " + inner + ")", params, nil
	default:
		return "", nil, errs.QueryBuild("unsupported condition type %T", cond)
	}
}

func (c *SQLCompiler) compileCompare(t queryir.Table, n queryir.Compare) (string, []any, error) {
	expr := n.Field.Value(t.Doc())
	if queryir.IsNullValue(n.Value) {
		switch n.Op {
		case queryir.OpEq:
			return expr + " IS NULL", nil, nil
		case queryir.OpNe:
			return expr + " IS NOT NULL", nil, nil
		}
	}
	placeholder, param, err := c.bindValue(n.Value)
	if err != nil {
		return "", nil, err
	}
	return expr + " " + string(n.Op) + " " + placeholder, []any{param}, nil
}

// compileIn renders a membership test. The empty set is always false.
func (c *SQLCompiler) compileIn(t queryir.Table, n queryir.In) (string, []any, error) {
	if len(n.Values) == 0 {
		return "1 = 0", nil, nil
	}
	placeholders := make([]string, len(n.Values))
	params := make([]any, len(n.Values))
	for i, v := range n.Values {
		ph, p, err := c.bindValue(v)
		if err != nil {
			return "", nil, err
		}
		placeholders[i], params[i] = ph, p
	}
	return n.Field.Value(t.Doc()) + " IN (" + strings.Join(placeholders, ", ") + ")", params, nil
}

func (c *SQLCompiler) compileJunction(t queryir.Table, conds []queryir.Condition, sep, empty string) (string, []any, error) {
	if len(conds) == 0 {
		return empty, nil, nil
	}
	parts := make([]string, len(conds))
	var params []any
	for i, sub := range conds {
		sql, subParams, err := c.compileCondition(t, sub)
		if err != nil {
			return "", nil, err
		}
		parts[i] = sql
		params = append(params, subParams...)
	}
	return "(" + strings.Join(parts, sep) + ")", params, nil
}

// bindValue converts a literal into a placeholder and its parameter.
// Scalars bind directly (bools as 0/1, matching json_extract). Objects and
// arrays bind as canonical JSON text wrapped in json(?).
func (c *SQLCompiler) bindValue(v any) (string, any, error) {
	if p, ok := scalarParam(v); ok {
		return "?", p, nil
	}

	data, err := c.Codec.EncodeValue(v)
	if err != nil {
		return "", nil, err
	}
	switch data[0] {
	case '{', '[':
		return "json(?)", string(data), nil
	}

	// Types with custom JSON encodings (time.Time, ...) that encode to scalars.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var scalar any
	if err := dec.Decode(&scalar); err != nil {
		return "", nil, errs.Encode("reparse literal", err)
	}
	p, _ := scalarParam(scalar)
	return "?", p, nil
}

// scalarParam returns the driver parameter for scalar values.
func scalarParam(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case bool:
		return boolParam(x), true
	case string, int64, float64:
		return x, true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		if f, err := x.Float64(); err == nil {
			return f, true
		}
		return x.String(), true
	}

	if _, ok := v.(json.Marshaler); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return boolParam(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return float64(u), true
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		return rv.String(), true
	}
	return nil, false
}

func boolParam(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
