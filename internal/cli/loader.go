package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/nosqlite/internal/field"
	"github.com/roach88/nosqlite/internal/queryir"
)

// QueryFile is the declarative form of a query, written in YAML or CUE.
//
//	where:
//	  and:
//	    - {field: age, op: ">=", value: 18}
//	    - not: {field: banned, op: exists}
//	sort: [age, -name]
//	fields: [name, age]
//	limit: 10
type QueryFile struct {
	Where  *ConditionSpec `yaml:"where,omitempty" json:"where,omitempty"`
	Sort   []string       `yaml:"sort,omitempty" json:"sort,omitempty"`
	Fields []string       `yaml:"fields,omitempty" json:"fields,omitempty"`
	Limit  *int           `yaml:"limit,omitempty" json:"limit,omitempty"`
	Offset *int           `yaml:"offset,omitempty" json:"offset,omitempty"`
}

// ConditionSpec is one node of a condition tree: exactly one of And, Or,
// Not or a leaf (Field with Op).
type ConditionSpec struct {
	And []ConditionSpec `yaml:"and,omitempty" json:"and,omitempty"`
	Or  []ConditionSpec `yaml:"or,omitempty" json:"or,omitempty"`
	Not *ConditionSpec  `yaml:"not,omitempty" json:"not,omitempty"`

	Field  string `yaml:"field,omitempty" json:"field,omitempty"`
	Op     string `yaml:"op,omitempty" json:"op,omitempty"`
	Value  any    `yaml:"value,omitempty" json:"value,omitempty"`
	Values []any  `yaml:"values,omitempty" json:"values,omitempty"`
}

// LoadError represents an error that occurred while loading a query file.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadQueryFile reads a query file. The format follows the extension:
// .yaml/.yml or .cue.
func LoadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "reading query file", Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLQuery(path, data)
	case ".cue":
		return parseCUEQuery(path, data)
	}
	return nil, &LoadError{Path: path, Message: "unsupported query file extension (want .yaml, .yml or .cue)"}
}

func parseYAMLQuery(path string, data []byte) (*QueryFile, error) {
	var qf QueryFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&qf); err != nil {
		return nil, &LoadError{Path: path, Message: "failed to parse YAML", Err: err}
	}
	return &qf, nil
}

func parseCUEQuery(path string, data []byte) (*QueryFile, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Path: path, Message: "building CUE value", Err: err}
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Path: path, Message: "query must be concrete", Err: err}
	}

	if err := checkCUEFields(value, "where", "sort", "fields", "limit", "offset"); err != nil {
		return nil, &LoadError{Path: path, Message: "invalid query", Err: err}
	}

	var qf QueryFile
	if err := value.Decode(&qf); err != nil {
		return nil, &LoadError{Path: path, Message: "decoding CUE value", Err: err}
	}
	return &qf, nil
}

// checkCUEFields rejects top-level fields outside allowed, mirroring the
// strict YAML decoder.
func checkCUEFields(v cue.Value, allowed ...string) error {
	iter, err := v.Fields()
	if err != nil {
		return err
	}
	for iter.Next() {
		label := iter.Selector().String()
		if !slices.Contains(allowed, label) {
			return fmt.Errorf("unknown field %q", label)
		}
	}
	return nil
}

// Build turns the file into a query over t.
func (qf *QueryFile) Build(t queryir.Table) (queryir.Select, error) {
	q := queryir.From(t)
	if qf.Where != nil {
		cond, err := qf.Where.Build()
		if err != nil {
			return q, err
		}
		q = q.Where(cond)
	}
	keys, err := parseSortKeys(qf.Sort)
	if err != nil {
		return q, err
	}
	q = q.OrderBy(keys...)
	if len(qf.Fields) > 0 {
		refs, err := parseFields(qf.Fields)
		if err != nil {
			return q, err
		}
		q = q.Project(queryir.Fields(refs...))
	}
	if qf.Limit != nil {
		q = q.Limit(*qf.Limit)
	}
	if qf.Offset != nil {
		q = q.Offset(*qf.Offset)
	}
	return q, nil
}

// Build converts the node into a condition.
func (c *ConditionSpec) Build() (queryir.Condition, error) {
	set := 0
	for _, ok := range []bool{c.And != nil, c.Or != nil, c.Not != nil, c.Field != ""} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("condition needs exactly one of and, or, not, field")
	}

	switch {
	case c.And != nil:
		children, err := buildAll(c.And)
		if err != nil {
			return nil, err
		}
		return queryir.And{Conditions: children}, nil
	case c.Or != nil:
		children, err := buildAll(c.Or)
		if err != nil {
			return nil, err
		}
		return queryir.Or{Conditions: children}, nil
	case c.Not != nil:
		inner, err := c.Not.Build()
		if err != nil {
			return nil, err
		}
		return queryir.NotOf(inner), nil
	}
	return c.leaf()
}

func buildAll(specs []ConditionSpec) ([]queryir.Condition, error) {
	out := make([]queryir.Condition, len(specs))
	for i := range specs {
		cond, err := specs[i].Build()
		if err != nil {
			return nil, err
		}
		out[i] = cond
	}
	return out, nil
}

func (c *ConditionSpec) leaf() (queryir.Condition, error) {
	f, err := field.Parse(c.Field)
	if err != nil {
		return nil, err
	}
	str := func() (string, error) {
		s, ok := c.Value.(string)
		if !ok {
			return "", fmt.Errorf("op %q on %s needs a string value", c.Op, c.Field)
		}
		return s, nil
	}

	switch strings.ToLower(c.Op) {
	case "=", "==", "eq":
		return queryir.Eq(f, c.Value), nil
	case "!=", "<>", "ne":
		return queryir.Ne(f, c.Value), nil
	case ">", "gt":
		return queryir.Gt(f, c.Value), nil
	case ">=", "gte":
		return queryir.Gte(f, c.Value), nil
	case "<", "lt":
		return queryir.Lt(f, c.Value), nil
	case "<=", "lte":
		return queryir.Lte(f, c.Value), nil
	case "in":
		return queryir.IsIn(f, c.Values...), nil
	case "like":
		s, err := str()
		if err != nil {
			return nil, err
		}
		return queryir.LikePattern(f, s), nil
	case "contains":
		s, err := str()
		if err != nil {
			return nil, err
		}
		return queryir.Contains(f, s), nil
	case "prefix":
		s, err := str()
		if err != nil {
			return nil, err
		}
		return queryir.HasPrefix(f, s), nil
	case "suffix":
		s, err := str()
		if err != nil {
			return nil, err
		}
		return queryir.HasSuffix(f, s), nil
	case "null":
		return queryir.IsNull(f), nil
	case "notnull", "exists":
		return queryir.IsNotNull(f), nil
	}
	return nil, fmt.Errorf("unknown op %q on %s", c.Op, c.Field)
}

// parseSortKeys parses "field" (ascending) and "-field" (descending).
func parseSortKeys(specs []string) ([]queryir.SortKey, error) {
	keys := make([]queryir.SortKey, 0, len(specs))
	for _, s := range specs {
		desc := strings.HasPrefix(s, "-")
		f, err := field.Parse(strings.TrimPrefix(s, "-"))
		if err != nil {
			return nil, err
		}
		if desc {
			keys = append(keys, queryir.Desc(f))
		} else {
			keys = append(keys, queryir.Asc(f))
		}
	}
	return keys, nil
}

func parseFields(specs []string) ([]field.Ref, error) {
	refs := make([]field.Ref, len(specs))
	for i, s := range specs {
		f, err := field.Parse(s)
		if err != nil {
			return nil, err
		}
		refs[i] = f
	}
	return refs, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
