package queryir

import (
	"reflect"

	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/field"
)

// DefaultMaxDepth bounds the nesting depth of condition trees.
const DefaultMaxDepth = 512

// Validate checks that q can be rendered: the table is named with valid
// identifiers, every field reference is well formed, the condition tree is
// finite and within DefaultMaxDepth, and limit/offset are not negative.
//
// Validate is a pure function with no side effects.
func Validate(q Select) error {
	return ValidateDepth(q, DefaultMaxDepth)
}

// ValidateDepth is Validate with an explicit depth bound.
func ValidateDepth(q Select, maxDepth int) error {
	v := validator{maxDepth: maxDepth}
	return v.validateSelect(q)
}

// ValidateTable checks the table and column names.
func ValidateTable(t Table) error {
	if t.IsZero() {
		return errs.QueryBuild("missing table reference")
	}
	for _, name := range []string{t.Name, t.Key(), t.Doc()} {
		if !field.ValidIdentifier(name) {
			return errs.QueryBuild("invalid identifier %q", name)
		}
	}
	if t.Key() == t.Doc() {
		return errs.QueryBuild("key and document columns must differ (both %q)", t.Key())
	}
	return nil
}

// ValidateCondition checks a condition tree. A nil condition is valid.
func ValidateCondition(c Condition, maxDepth int) error {
	if c == nil {
		return nil
	}
	v := validator{maxDepth: maxDepth}
	return v.validateCondition(c, 1)
}

// ValidateTarget checks a mutation target.
func ValidateTarget(t Target, maxDepth int) error {
	switch t.kind {
	case TargetKey:
		if t.key == nil {
			return errs.QueryBuild("nil key")
		}
		return nil
	case TargetWhere:
		if t.cond == nil {
			return errs.QueryBuild("nil condition; use AllRows to target every row")
		}
		return ValidateCondition(t.cond, maxDepth)
	case TargetAll:
		return nil
	}
	return errs.QueryBuild("unknown target kind %d", t.kind)
}

// ValidateEdit checks that e addresses a document field below the root.
func ValidateEdit(e Edit) error {
	if e.kind == EditPatch {
		if e.value == nil {
			return errs.QueryBuild("patch requires a document")
		}
		return nil
	}
	if e.kind > EditPatch {
		return errs.QueryBuild("unknown edit kind %d", e.kind)
	}
	switch {
	case e.path.IsZero():
		return errs.InvalidPath("", "%s requires a path", e.kind)
	case e.path.IsColumn():
		return errs.InvalidPath(e.path.String(), "%s applies to document fields, not columns", e.kind)
	case e.path.IsRoot():
		return errs.InvalidPath(e.path.String(), "%s cannot target the document root; use Replace or Patch", e.kind)
	}
	return nil
}

// validator carries the depth bound through the tree walk.
type validator struct {
	maxDepth int
}

func (v validator) validateSelect(q Select) error {
	if err := ValidateTable(q.table); err != nil {
		return err
	}
	if q.where != nil {
		if err := v.validateCondition(q.where, 1); err != nil {
			return err
		}
	}
	for i, k := range q.order {
		if k.Field.IsZero() {
			return errs.QueryBuild("sort key %d has no field", i)
		}
	}
	if err := v.validateProjection(q.proj); err != nil {
		return err
	}
	if q.hasLimit && q.limit < 0 {
		return errs.QueryBuild("negative limit %d", q.limit)
	}
	if q.hasOffset && q.offset < 0 {
		return errs.QueryBuild("negative offset %d", q.offset)
	}
	return nil
}

func (v validator) validateProjection(p Projection) error {
	if p.kind != ProjectFields {
		return nil
	}
	if len(p.fields) == 0 {
		return errs.QueryBuild("field projection needs at least one field")
	}
	for i, f := range p.fields {
		if f.IsZero() {
			return errs.QueryBuild("projected field %d is empty", i)
		}
	}
	return nil
}

// validateCondition recursively validates a condition node.
func (v validator) validateCondition(c Condition, depth int) error {
	if v.maxDepth > 0 && depth > v.maxDepth {
		return errs.QueryBuild("condition nesting exceeds %d levels", v.maxDepth)
	}

	switch cond := c.(type) {
	case Compare:
		if err := checkField(cond.Field); err != nil {
			return err
		}
		if !cond.Op.Valid() {
			return errs.QueryBuild("unknown comparison operator %q", cond.Op)
		}
		if IsNullValue(cond.Value) && cond.Op != OpEq && cond.Op != OpNe {
			return errs.QueryBuild("operator %s needs a non-null value (field %s)", cond.Op, cond.Field)
		}
	case In:
		if err := checkField(cond.Field); err != nil {
			return err
		}
		for i, val := range cond.Values {
			if IsNullValue(val) {
				return errs.QueryBuild("IN value %d is null (field %s); use IsNull", i, cond.Field)
			}
		}
	case Like:
		return checkField(cond.Field)
	case Null:
		return checkField(cond.Field)
	case And:
		return v.validateChildren(cond.Conditions, depth)
	case Or:
		return v.validateChildren(cond.Conditions, depth)
	case Not:
		if cond.Condition == nil {
			return errs.QueryBuild("NOT has no operand")
		}
		return v.validateCondition(cond.Condition, depth+1)
	case nil:
		return errs.QueryBuild("nil condition")
	default:
		return errs.QueryBuild("unsupported condition type %T", c)
	}
	return nil
}

func (v validator) validateChildren(children []Condition, depth int) error {
	for _, child := range children {
		if child == nil {
			return errs.QueryBuild("nil operand in combinator")
		}
		if err := v.validateCondition(child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func checkField(f field.Ref) error {
	if f.IsZero() {
		return errs.InvalidPath("", "condition has no field")
	}
	return nil
}

// IsNullValue reports whether v is nil or a nil pointer, map, slice or
// interface. Such values compare as SQL NULL.
func IsNullValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
