package field

import (
	"strconv"
	"strings"

	"github.com/roach88/nosqlite/internal/errs"
)

// Segment is one step of a document path.
type Segment struct {
	// Key is the object key for key segments.
	Key string

	// IsIndex marks an array index segment.
	IsIndex bool

	// Index is the array position, or the distance from the end when FromEnd.
	Index int

	// FromEnd marks a '#'-relative index ("[#]" or "[#-N]").
	FromEnd bool
}

// parsePath normalizes and parses a document path.
func parsePath(p string) ([]Segment, error) {
	if p == "" {
		return nil, errs.InvalidPath(p, "empty path")
	}

	var rest string
	switch p[0] {
	case '$':
		rest = p[1:]
	case '.', '[':
		rest = p
	default:
		rest = "." + p
	}

	var segs []Segment
	for i := 0; i < len(rest); {
		switch rest[i] {
		case '.':
			i++
			if i >= len(rest) {
				return nil, errs.InvalidPath(p, "trailing '.'")
			}
			if rest[i] == '"' {
				end := strings.IndexByte(rest[i+1:], '"')
				if end < 0 {
					return nil, errs.InvalidPath(p, "unterminated quoted key")
				}
				key := rest[i+1 : i+1+end]
				if key == "" {
					return nil, errs.InvalidPath(p, "empty quoted key")
				}
				segs = append(segs, Segment{Key: key})
				i += end + 2
				continue
			}
			j := i
			for j < len(rest) && rest[j] != '.' && rest[j] != '[' {
				if rest[j] == ']' || rest[j] == '"' {
					return nil, errs.InvalidPath(p, "unexpected %q in key", rest[j])
				}
				j++
			}
			if j == i {
				return nil, errs.InvalidPath(p, "empty key")
			}
			segs = append(segs, Segment{Key: rest[i:j]})
			i = j

		case '[':
			end := strings.IndexByte(rest[i:], ']')
			if end < 0 {
				return nil, errs.InvalidPath(p, "unterminated index")
			}
			seg, err := parseIndex(p, rest[i+1:i+end])
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
			i += end + 1

		default:
			return nil, errs.InvalidPath(p, "unexpected %q", rest[i])
		}
	}
	return segs, nil
}

// parseIndex parses the body of "[...]": N, #, or #-N.
func parseIndex(p, body string) (Segment, error) {
	if body == "#" {
		return Segment{IsIndex: true, FromEnd: true}, nil
	}
	fromEnd := false
	if after, ok := strings.CutPrefix(body, "#-"); ok {
		fromEnd = true
		body = after
	}
	if body == "" || strings.TrimLeft(body, "0123456789") != "" {
		return Segment{}, errs.InvalidPath(p, "unsupported index %q", body)
	}
	n, err := strconv.Atoi(body)
	if err != nil {
		return Segment{}, errs.InvalidPath(p, "index out of range %q", body)
	}
	if fromEnd && n == 0 {
		return Segment{}, errs.InvalidPath(p, "index #-0 is not allowed")
	}
	return Segment{IsIndex: true, Index: n, FromEnd: fromEnd}, nil
}

// formatPath renders segments back into canonical JSON path syntax.
func formatPath(segs []Segment) string {
	var b strings.Builder
	b.WriteByte('$')
	for _, s := range segs {
		switch {
		case !s.IsIndex && needsQuote(s.Key):
			b.WriteString(`."`)
			b.WriteString(s.Key)
			b.WriteByte('"')
		case !s.IsIndex:
			b.WriteByte('.')
			b.WriteString(s.Key)
		case s.FromEnd && s.Index == 0:
			b.WriteString("[#]")
		case s.FromEnd:
			b.WriteString("[#-")
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
		default:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
		}
	}
	return b.String()
}

func needsQuote(key string) bool {
	return strings.ContainsAny(key, ".[]")
}
