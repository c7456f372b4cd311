// Package queryir provides the query intermediate representation: condition
// trees, sort keys, projections, read queries and document edits.
//
// Everything in this package is an immutable value. Nothing here talks to
// the engine or renders SQL; package querysql turns these values into
// parameterized statements and package store executes them.
//
// SEALED INTERFACES:
//
// Condition is a sealed interface using the marker method pattern. Only the
// node types in this package implement it, which lets the renderer switch
// over them exhaustively:
//
//	switch c := cond.(type) {
//	case Compare:
//	case In:
//	case Like:
//	case Null:
//	case And:
//	case Or:
//	case Not:
//	}
//
// Leaves bind a field.Ref, an operator and their literal values. And, Or
// and Not are the internal nodes. Builders (Eq, Gt, IsIn, AndOf, ...) are the
// intended way to construct trees.
//
// QUERIES:
//
// A Select names a Table and optionally carries a Condition, an ordered
// list of SortKeys, a Projection and a limit/offset pair:
//
//	q := queryir.From(users).
//	    Where(queryir.Gte(age, 18)).
//	    OrderBy(queryir.Asc(age)).
//	    Project(queryir.Fields(name, age)).
//	    Limit(10)
//
// Each builder method returns a modified copy; the receiver is unchanged.
//
// EDITS:
//
// An Edit describes one change to a stored document (Set, InsertIfAbsent,
// ReplaceIfPresent, Remove, Patch) and is applied to the rows selected by a
// Target (ByKey, Where, AllRows).
package queryir
