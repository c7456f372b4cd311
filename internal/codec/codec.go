// Package codec serializes host values to stored documents and decodes
// documents, JSON fragments and native column values back into caller types.
//
// Encoding is canonical so that identical values always produce identical
// bytes. Decoding is strict at the fragment boundary: a value of the wrong
// JSON type, a JSON null into a non-nullable target, or an absent path is a
// DECODE error naming the field and the expected Go type. Values are never
// coerced between JSON types.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/field"
)

// Document is the canonical JSON text of one stored object.
type Document []byte

// MarshalJSON emits the document verbatim.
func (d Document) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON keeps a copy of the raw text.
func (d *Document) UnmarshalJSON(data []byte) error {
	*d = append((*d)[:0], data...)
	return nil
}

// String returns the JSON text.
func (d Document) String() string { return string(d) }

// Codec converts between host values and canonical JSON.
// The zero value is ready to use.
type Codec struct {
	// NormalizeUnicode applies NFC normalization to keys and string values
	// on encode, so visually identical keys address the same field.
	NormalizeUnicode bool
}

// Encode serializes v into a document. v must encode to a JSON object.
func (c Codec) Encode(v any) (Document, error) {
	data, err := c.EncodeValue(v)
	if err != nil {
		return nil, err
	}
	if data[0] != '{' {
		return nil, errs.Encode("document must be a JSON object", fmt.Errorf("got %s", jsonKind(data)))
	}
	return Document(data), nil
}

// EncodeValue serializes any value to canonical JSON.
func (c Codec) EncodeValue(v any) ([]byte, error) {
	var raw bytes.Buffer
	enc := json.NewEncoder(&raw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errs.Encode(fmt.Sprintf("marshal %T", v), err)
	}

	dec := json.NewDecoder(&raw)
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, errs.Encode(fmt.Sprintf("reparse %T", v), err)
	}

	var out bytes.Buffer
	if err := c.writeCanonical(&out, tree); err != nil {
		return nil, errs.Encode(fmt.Sprintf("canonicalize %T", v), err)
	}
	return out.Bytes(), nil
}

// Encode serializes v with the zero Codec.
func Encode(v any) (Document, error) { return Codec{}.Encode(v) }

// EncodeValue serializes v with the zero Codec.
func EncodeValue(v any) ([]byte, error) { return Codec{}.EncodeValue(v) }

// Decode decodes a whole document into dst.
func Decode(doc []byte, dst any) error {
	if doc == nil {
		return errs.Decode("$", typeName(dst), "document is NULL", nil)
	}
	if err := json.Unmarshal(doc, dst); err != nil {
		return errs.Decode("$", typeName(dst), "document does not match target", err)
	}
	return nil
}

// DecodeFragment decodes the JSON text extracted for name into dst.
// A nil fragment means the path was absent in the row.
func DecodeFragment(name string, frag []byte, dst any) error {
	if frag == nil {
		return errs.Decode(name, typeName(dst), "path absent", nil)
	}
	if bytes.Equal(bytes.TrimSpace(frag), []byte("null")) && !nullable(dst) {
		return errs.Decode(name, typeName(dst), "null value", nil)
	}
	if err := json.Unmarshal(frag, dst); err != nil {
		return errs.Decode(name, typeName(dst), "type mismatch", err)
	}
	return nil
}

// DecodeNative decodes a native column value as returned by database/sql
// into dst. SQL NULL is treated as JSON null.
func DecodeNative(name string, v any, dst any) error {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errs.Decode(name, typeName(dst), "unsupported column value", err)
	}
	return DecodeFragment(name, data, dst)
}

// DecodeAt decodes the value at ref inside doc into dst, walking the path
// client-side.
func DecodeAt(doc []byte, ref field.Ref, dst any) error {
	if ref.IsColumn() || ref.IsZero() {
		return errs.InvalidPath(ref.String(), "not a document path")
	}

	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var cur any
	if err := dec.Decode(&cur); err != nil {
		return errs.Decode(ref.Name(), typeName(dst), "document is not valid JSON", err)
	}

	for _, seg := range ref.Segments() {
		next, ok := step(cur, seg)
		if !ok {
			return errs.Decode(ref.Name(), typeName(dst), "path absent", nil)
		}
		cur = next
	}

	frag, err := json.Marshal(cur)
	if err != nil {
		return errs.Decode(ref.Name(), typeName(dst), "re-encode fragment", err)
	}
	return DecodeFragment(ref.Name(), frag, dst)
}

func step(cur any, seg field.Segment) (any, bool) {
	if !seg.IsIndex {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := obj[seg.Key]
		return v, ok
	}

	arr, ok := cur.([]any)
	if !ok {
		return nil, false
	}
	idx := seg.Index
	if seg.FromEnd {
		idx = len(arr) - seg.Index
	}
	if idx < 0 || idx >= len(arr) {
		return nil, false
	}
	return arr[idx], true
}

func nullable(dst any) bool {
	t := reflect.TypeOf(dst)
	if t == nil || t.Kind() != reflect.Pointer {
		return false
	}
	switch t.Elem().Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

func typeName(dst any) string {
	t := reflect.TypeOf(dst)
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer {
		return t.Elem().String()
	}
	return t.String()
}

func jsonKind(data []byte) string {
	switch data[0] {
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
