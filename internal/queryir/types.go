package queryir

import (
	"strings"

	"github.com/roach88/nosqlite/internal/field"
)

// Condition is a node of a boolean expression tree.
//
// This is a sealed interface - only types in this package implement it.
type Condition interface {
	conditionNode() // Marker method - seals interface to this package
}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq  CompareOp = "="
	OpNe  CompareOp = "<>"
	OpGt  CompareOp = ">"
	OpGte CompareOp = ">="
	OpLt  CompareOp = "<"
	OpLte CompareOp = "<="
)

// Valid reports whether op is one of the defined operators.
func (op CompareOp) Valid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// Compare is a field compared against one literal.
//
// A nil Value with OpEq or OpNe means IS NULL / IS NOT NULL.
type Compare struct {
	Field field.Ref
	Op    CompareOp
	Value any
}

func (Compare) conditionNode() {}

// In is a membership test. An empty Values set never matches.
type In struct {
	Field  field.Ref
	Values []any
}

func (In) conditionNode() {}

// Like is a LIKE pattern match. When Escape is set, '\' escapes '%', '_'
// and itself inside Pattern.
type Like struct {
	Field   field.Ref
	Pattern string
	Escape  bool
}

func (Like) conditionNode() {}

// Null tests whether a field is NULL (or absent, for document fields).
type Null struct {
	Field   field.Ref
	Negated bool // IS NOT NULL
}

func (Null) conditionNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Conditions []Condition
}

func (And) conditionNode() {}

// Or is a disjunction. An empty Or is always false.
type Or struct {
	Conditions []Condition
}

func (Or) conditionNode() {}

// Not negates its operand.
type Not struct {
	Condition Condition
}

func (Not) conditionNode() {}

// Eq matches rows where f equals v. Eq(f, nil) matches NULL.
func Eq(f field.Ref, v any) Condition { return Compare{Field: f, Op: OpEq, Value: v} }

// Ne matches rows where f differs from v. Ne(f, nil) matches non-NULL.
func Ne(f field.Ref, v any) Condition { return Compare{Field: f, Op: OpNe, Value: v} }

// Gt matches rows where f > v.
func Gt(f field.Ref, v any) Condition { return Compare{Field: f, Op: OpGt, Value: v} }

// Gte matches rows where f >= v.
func Gte(f field.Ref, v any) Condition { return Compare{Field: f, Op: OpGte, Value: v} }

// Lt matches rows where f < v.
func Lt(f field.Ref, v any) Condition { return Compare{Field: f, Op: OpLt, Value: v} }

// Lte matches rows where f <= v.
func Lte(f field.Ref, v any) Condition { return Compare{Field: f, Op: OpLte, Value: v} }

// LikePattern matches f against a raw LIKE pattern ('%' and '_' wildcards).
func LikePattern(f field.Ref, pattern string) Condition {
	return Like{Field: f, Pattern: pattern}
}

// Contains matches string fields containing s literally.
func Contains(f field.Ref, s string) Condition {
	return Like{Field: f, Pattern: "%" + escapeLike(s) + "%", Escape: true}
}

// HasPrefix matches string fields starting with s.
func HasPrefix(f field.Ref, s string) Condition {
	return Like{Field: f, Pattern: escapeLike(s) + "%", Escape: true}
}

// HasSuffix matches string fields ending with s.
func HasSuffix(f field.Ref, s string) Condition {
	return Like{Field: f, Pattern: "%" + escapeLike(s), Escape: true}
}

// IsIn matches rows where f equals any of values.
func IsIn(f field.Ref, values ...any) Condition {
	return In{Field: f, Values: append([]any(nil), values...)}
}

// IsNull matches rows where f is NULL or absent.
func IsNull(f field.Ref) Condition { return Null{Field: f} }

// IsNotNull matches rows where f is present and not NULL.
func IsNotNull(f field.Ref) Condition { return Null{Field: f, Negated: true} }

// Exists is IsNotNull.
func Exists(f field.Ref) Condition { return IsNotNull(f) }

// AndOf returns the conjunction of left and right.
func AndOf(left, right Condition) Condition {
	return And{Conditions: []Condition{left, right}}
}

// OrOf returns the disjunction of left and right.
func OrOf(left, right Condition) Condition {
	return Or{Conditions: []Condition{left, right}}
}

// NotOf negates c.
func NotOf(c Condition) Condition { return Not{Condition: c} }

// AllOf folds conds into one conjunction. It returns nil for no conditions
// and the condition itself for one.
func AllOf(conds ...Condition) Condition {
	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	}
	return And{Conditions: append([]Condition(nil), conds...)}
}

// AnyOf folds conds into one disjunction, like AllOf.
func AnyOf(conds ...Condition) Condition {
	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	}
	return Or{Conditions: append([]Condition(nil), conds...)}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
