package queryir

import "github.com/roach88/nosqlite/internal/field"

// TargetKind selects how a mutation addresses rows.
type TargetKind uint8

const (
	// TargetKey addresses one row by primary key.
	TargetKey TargetKind = iota

	// TargetWhere addresses every row matching a condition.
	TargetWhere

	// TargetAll addresses every row of the table.
	TargetAll
)

// Target is the row set a mutation applies to.
type Target struct {
	kind TargetKind
	key  any
	cond Condition
}

// ByKey targets the row with primary key k.
func ByKey(k any) Target { return Target{kind: TargetKey, key: k} }

// Where targets the rows matching c.
func Where(c Condition) Target { return Target{kind: TargetWhere, cond: c} }

// AllRows targets every row.
func AllRows() Target { return Target{kind: TargetAll} }

// Kind returns the target kind.
func (t Target) Kind() TargetKind { return t.kind }

// Key returns the primary key of a TargetKey target.
func (t Target) Key() any { return t.key }

// Condition returns the condition of a TargetWhere target.
func (t Target) Condition() Condition { return t.cond }

// EditKind is the document edit operation.
type EditKind uint8

const (
	// EditSet creates or overwrites the value at a path.
	EditSet EditKind = iota

	// EditInsert writes the value only if the path is absent.
	EditInsert

	// EditReplace writes the value only if the path is present.
	EditReplace

	// EditRemove deletes the value at a path.
	EditRemove

	// EditPatch merges a partial document (RFC 7396).
	EditPatch
)

// String returns the operation name used in logs and the CLI.
func (k EditKind) String() string {
	switch k {
	case EditSet:
		return "set"
	case EditInsert:
		return "insert"
	case EditReplace:
		return "replace"
	case EditRemove:
		return "remove"
	case EditPatch:
		return "patch"
	}
	return "unknown"
}

// ParseEditKind is the inverse of EditKind.String.
func ParseEditKind(s string) (EditKind, bool) {
	for k := EditSet; k <= EditPatch; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Edit is one change to a stored document.
type Edit struct {
	kind  EditKind
	path  field.Ref
	value any
}

// Set creates or overwrites the value at path.
func Set(path field.Ref, v any) Edit { return Edit{kind: EditSet, path: path, value: v} }

// InsertIfAbsent writes v at path only when nothing is there yet.
func InsertIfAbsent(path field.Ref, v any) Edit {
	return Edit{kind: EditInsert, path: path, value: v}
}

// ReplaceIfPresent overwrites the value at path only when it exists.
func ReplaceIfPresent(path field.Ref, v any) Edit {
	return Edit{kind: EditReplace, path: path, value: v}
}

// Remove deletes the value at path.
func Remove(path field.Ref) Edit { return Edit{kind: EditRemove, path: path} }

// Patch merges partial into the document. Nested objects merge recursively
// and null values remove keys.
func Patch(partial any) Edit { return Edit{kind: EditPatch, value: partial} }

// Kind returns the edit operation.
func (e Edit) Kind() EditKind { return e.kind }

// Path returns the edited path (zero for Patch).
func (e Edit) Path() field.Ref { return e.path }

// Value returns the written value (nil for Remove).
func (e Edit) Value() any { return e.value }
