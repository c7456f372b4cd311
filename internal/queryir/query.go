package queryir

import "github.com/roach88/nosqlite/internal/field"

// Default column names for the two fixed columns of a document table.
const (
	DefaultKeyColumn = "id"
	DefaultDocColumn = "data"
)

// Table identifies one document table: a primary key column plus one JSON
// document column.
type Table struct {
	Name      string
	KeyColumn string // empty means DefaultKeyColumn
	DocColumn string // empty means DefaultDocColumn
}

// NewTable returns a Table with the default column names.
func NewTable(name string) Table {
	return Table{Name: name, KeyColumn: DefaultKeyColumn, DocColumn: DefaultDocColumn}
}

// IsZero reports whether t names no table.
func (t Table) IsZero() bool { return t.Name == "" }

// Key returns the primary key column name.
func (t Table) Key() string {
	if t.KeyColumn == "" {
		return DefaultKeyColumn
	}
	return t.KeyColumn
}

// Doc returns the document column name.
func (t Table) Doc() string {
	if t.DocColumn == "" {
		return DefaultDocColumn
	}
	return t.DocColumn
}

// KeyRef returns a column reference to the primary key.
func (t Table) KeyRef() field.Ref { return field.MustColumn(t.Key()) }

// SortKey orders results by one field.
type SortKey struct {
	Field field.Ref
	Desc  bool
}

// Asc sorts by f ascending.
func Asc(f field.Ref) SortKey { return SortKey{Field: f} }

// Desc sorts by f descending.
func Desc(f field.Ref) SortKey { return SortKey{Field: f, Desc: true} }

// Reverse returns k with the opposite direction.
func (k SortKey) Reverse() SortKey {
	k.Desc = !k.Desc
	return k
}

// ProjectionKind selects the shape of each result row.
type ProjectionKind uint8

const (
	// ProjectDocument yields the whole document.
	ProjectDocument ProjectionKind = iota

	// ProjectKey yields the primary key only.
	ProjectKey

	// ProjectEntry yields the primary key and the whole document.
	ProjectEntry

	// ProjectFields yields the listed fields, in order.
	ProjectFields
)

// String returns a readable name.
func (k ProjectionKind) String() string {
	switch k {
	case ProjectKey:
		return "key"
	case ProjectEntry:
		return "entry"
	case ProjectFields:
		return "fields"
	default:
		return "document"
	}
}

// Projection is the shape of data requested per row.
type Projection struct {
	kind   ProjectionKind
	fields []field.Ref
}

// Document projects the whole document.
func Document() Projection { return Projection{kind: ProjectDocument} }

// Key projects the primary key.
func Key() Projection { return Projection{kind: ProjectKey} }

// Entry projects the primary key and the whole document.
func Entry() Projection { return Projection{kind: ProjectEntry} }

// Fields projects refs, in order. Their arity and decode types are the
// caller's responsibility and are only checked when rows are decoded.
func Fields(refs ...field.Ref) Projection {
	return Projection{kind: ProjectFields, fields: append([]field.Ref(nil), refs...)}
}

// Kind returns the projection kind.
func (p Projection) Kind() ProjectionKind { return p.kind }

// Fields returns a copy of the projected fields.
func (p Projection) Fields() []field.Ref {
	return append([]field.Ref(nil), p.fields...)
}

// Arity returns the number of values in each projected row.
func (p Projection) Arity() int {
	switch p.kind {
	case ProjectEntry:
		return 2
	case ProjectFields:
		return len(p.fields)
	default:
		return 1
	}
}

// Select is a read query: table, optional condition, sort keys, projection
// and an optional limit/offset. The zero Select has no table and fails
// validation.
type Select struct {
	table     Table
	where     Condition
	order     []SortKey
	proj      Projection
	limit     int
	offset    int
	hasLimit  bool
	hasOffset bool
}

// From starts a query over t projecting whole documents.
func From(t Table) Select {
	return Select{table: t}
}

// Where returns a copy of q filtered by c, replacing any previous condition.
func (q Select) Where(c Condition) Select {
	q.where = c
	return q
}

// OrderBy returns a copy of q with keys appended to its sort keys.
func (q Select) OrderBy(keys ...SortKey) Select {
	order := make([]SortKey, 0, len(q.order)+len(keys))
	order = append(order, q.order...)
	q.order = append(order, keys...)
	return q
}

// Project returns a copy of q with projection p.
func (q Select) Project(p Projection) Select {
	q.proj = p
	return q
}

// Limit returns a copy of q returning at most n rows.
func (q Select) Limit(n int) Select {
	q.limit, q.hasLimit = n, true
	return q
}

// Offset returns a copy of q skipping the first n rows.
func (q Select) Offset(n int) Select {
	q.offset, q.hasOffset = n, true
	return q
}

// Table returns the queried table.
func (q Select) Table() Table { return q.table }

// Condition returns the filter, or nil.
func (q Select) Condition() Condition { return q.where }

// SortKeys returns a copy of the sort keys.
func (q Select) SortKeys() []SortKey { return append([]SortKey(nil), q.order...) }

// Projection returns the row projection.
func (q Select) Projection() Projection { return q.proj }

// LimitValue returns the limit and whether one is set.
func (q Select) LimitValue() (int, bool) { return q.limit, q.hasLimit }

// OffsetValue returns the offset and whether one is set.
func (q Select) OffsetValue() (int, bool) { return q.offset, q.hasOffset }
