package field

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/roach88/nosqlite/internal/errs"
)

// Kind distinguishes document fields from native columns.
type Kind uint8

const (
	// KindDocument is a path into the document column.
	KindDocument Kind = iota

	// KindColumn is a native column of the table.
	KindColumn
)

// String returns a readable kind name.
func (k Kind) String() string {
	if k == KindColumn {
		return "column"
	}
	return "document"
}

// ColumnMarker prefixes a string passed to Parse to select a native column.
const ColumnMarker = "@"

// identPattern restricts native column names to plain SQL identifiers.
// Column names are rendered into statements, never bound.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s can be rendered as a bare SQL identifier.
func ValidIdentifier(s string) bool {
	return identPattern.MatchString(s)
}

// Ref is a field reference: either a JSON path into the document column or
// a native column name. The classification is fixed at construction time.
//
// Ref is an immutable value; the zero Ref is invalid.
type Ref struct {
	kind Kind
	name string // normalized JSON path or column name
	segs []Segment
}

// Path creates a reference to a document field.
//
// Accepted forms (normalized to a JSON path):
//
//	"name"      → $.name
//	"a.b[0]"    → $.a.b[0]
//	".a"        → $.a
//	"[0]"       → $[0]
//	"$.a"       → $.a
//	`a."x.y"`   → $.a."x.y"
//	"tags[#-1]" → $.tags[#-1]
//
// Fails with an INVALID_PATH error if p is empty or malformed.
func Path(p string) (Ref, error) {
	segs, err := parsePath(p)
	if err != nil {
		return Ref{}, err
	}
	return Ref{kind: KindDocument, name: formatPath(segs), segs: segs}, nil
}

// Column creates a reference to a native column.
func Column(name string) (Ref, error) {
	if name == "" {
		return Ref{}, errs.InvalidPath(name, "empty column name")
	}
	if !ValidIdentifier(name) {
		return Ref{}, errs.InvalidPath(name, "column name must be a plain identifier")
	}
	return Ref{kind: KindColumn, name: name}, nil
}

// Parse classifies s using ColumnMarker: "@id" is the column id, anything
// else is a document path.
func Parse(s string) (Ref, error) {
	if name, ok := strings.CutPrefix(s, ColumnMarker); ok {
		return Column(name)
	}
	return Path(s)
}

// MustPath is like Path but panics on error. Intended for literals.
func MustPath(p string) Ref {
	r, err := Path(p)
	if err != nil {
		panic(err)
	}
	return r
}

// MustColumn is like Column but panics on error. Intended for literals.
func MustColumn(name string) Ref {
	r, err := Column(name)
	if err != nil {
		panic(err)
	}
	return r
}

// MustParse is like Parse but panics on error. Intended for literals.
func MustParse(s string) Ref {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Kind returns the construction-time classification.
func (r Ref) Kind() Kind { return r.kind }

// IsColumn reports whether r names a native column.
func (r Ref) IsColumn() bool { return r.kind == KindColumn }

// IsZero reports whether r is the zero (invalid) Ref.
func (r Ref) IsZero() bool { return r.name == "" }

// IsRoot reports whether r is the document root ("$").
func (r Ref) IsRoot() bool { return r.kind == KindDocument && r.name == "$" }

// Name returns the column name or the normalized JSON path.
func (r Ref) Name() string { return r.name }

// Segments returns a copy of the parsed path segments (nil for columns).
func (r Ref) Segments() []Segment {
	if len(r.segs) == 0 {
		return nil
	}
	out := make([]Segment, len(r.segs))
	copy(out, r.segs)
	return out
}

// String returns the form accepted by Parse.
func (r Ref) String() string {
	if r.kind == KindColumn {
		return ColumnMarker + r.name
	}
	return r.name
}

// Value renders r as an expression producing an SQL value, suitable for
// WHERE, ORDER BY and index definitions.
func (r Ref) Value(docColumn string) string {
	if r.kind == KindColumn {
		return r.name
	}
	return "json_extract(" + docColumn + ", " + QuoteLiteral(r.name) + ")"
}

// Fragment renders r as an expression producing JSON text, suitable for
// SELECT projections. The result is NULL only when the path is absent.
func (r Ref) Fragment(docColumn string) string {
	if r.kind == KindColumn {
		return r.name
	}
	return docColumn + " -> " + QuoteLiteral(r.name)
}

// Type renders json_type over r; NULL when the path is absent.
func (r Ref) Type(docColumn string) string {
	return "json_type(" + docColumn + ", " + QuoteLiteral(r.name) + ")"
}

// Literal renders the JSON path of r as an SQL string literal.
func (r Ref) Literal() string {
	return QuoteLiteral(r.name)
}

// plainPath matches paths of lowercase keys, whose slug is the keys joined
// by "_".
var plainPath = regexp.MustCompile(`^\$(\.[a-z][a-z0-9]*)+$`)

// Slug returns an identifier-safe rendering of r, used for index names.
// Distinct refs have distinct slugs: a plain path such as "address.city"
// becomes "address_city", and any other ref gets a readable prefix plus
// "_0" and a hash of its kind and name ("Email" → "email_09ca2be88").
func (r Ref) Slug() string {
	if r.kind == KindDocument && plainPath.MatchString(r.name) {
		return strings.ReplaceAll(strings.TrimPrefix(r.name, "$."), ".", "_")
	}
	sum := sha256.Sum256([]byte(r.kind.String() + ":" + r.name))
	return r.readable() + "_0" + hex.EncodeToString(sum[:4])
}

// readable folds r to lowercase letters and digits separated by "_".
func (r Ref) readable() string {
	if r.IsRoot() {
		return "root"
	}
	var b strings.Builder
	lastUnderscore := true
	for _, c := range strings.TrimPrefix(r.name, "$") {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			lastUnderscore = false
		case c >= 'A' && c <= 'Z':
			b.WriteRune(c + ('a' - 'A'))
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// QuoteLiteral renders s as an SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
