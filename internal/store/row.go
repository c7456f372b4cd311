package store

import (
	"fmt"

	"github.com/roach88/nosqlite/internal/codec"
	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/field"
	"github.com/roach88/nosqlite/internal/queryir"
)

type columnKind uint8

const (
	columnNative columnKind = iota
	columnDocument
	columnFragment
)

type column struct {
	name string
	kind columnKind
	ref  field.Ref
}

// Row is one undecoded result row returned by Query.
type Row struct {
	cols []column
	vals []any
}

// Len returns the number of values in the row.
func (r Row) Len() int { return len(r.vals) }

// Names returns the projected names: column names or JSON paths.
func (r Row) Names() []string {
	names := make([]string, len(r.cols))
	for i, c := range r.cols {
		names[i] = c.name
	}
	return names
}

// Scan decodes the row into dst, one destination per projected value.
// A count mismatch or an incompatible value is a DECODE error.
func (r Row) Scan(dst ...any) error {
	if len(dst) != len(r.vals) {
		return errs.Decode("", "", fmt.Sprintf("row has %d values, Scan got %d destinations", len(r.vals), len(dst)), nil)
	}
	for i, c := range r.cols {
		var err error
		switch c.kind {
		case columnDocument:
			err = codec.Decode(textBytes(r.vals[i]), dst[i])
		case columnFragment:
			err = decodeField(c.ref, r.vals[i], dst[i])
		default:
			err = codec.DecodeNative(c.name, r.vals[i], dst[i])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func projectionColumns(t queryir.Table, p queryir.Projection) []column {
	switch p.Kind() {
	case queryir.ProjectKey:
		return []column{{name: t.Key(), kind: columnNative}}
	case queryir.ProjectEntry:
		return []column{
			{name: t.Key(), kind: columnNative},
			{name: t.Doc(), kind: columnDocument},
		}
	case queryir.ProjectFields:
		refs := p.Fields()
		cols := make([]column, len(refs))
		for i, f := range refs {
			cols[i] = column{name: f.Name(), kind: columnFragment, ref: f}
		}
		return cols
	default:
		return []column{{name: t.Doc(), kind: columnDocument}}
	}
}
