// Package field implements field references: JSON paths into a table's
// document column, or native column names.
//
// A Ref is classified once, at construction. Path always yields a document
// field, Column always yields a native column, and Parse uses ColumnMarker
// ("@") to decide. Comparisons and sort keys built on a Ref never inspect the
// stored data to decide how to render it.
//
// Two renderings exist for document fields:
//
//	Value:    json_extract(data, '$.age')   SQL value; WHERE, ORDER BY, indexes
//	Fragment: data -> '$.age'               JSON text; SELECT projections
//
// Paths are rendered as SQL literals rather than bound parameters so that
// an expression index over json_extract(data, '$.age') matches the query
// expression textually and can be used by the planner.
package field
