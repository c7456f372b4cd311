package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/queryir"
	"github.com/roach88/nosqlite/internal/querysql"
)

func queryPath(name string) string {
	return filepath.Join("testdata", "queries", name)
}

func compileFile(t *testing.T, name string) (string, []any) {
	t.Helper()
	qf, err := LoadQueryFile(queryPath(name))
	require.NoError(t, err)
	q, err := qf.Build(queryir.NewTable("users"))
	require.NoError(t, err)
	sql, params, err := querysql.NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	return sql, params
}

func TestLoadQueryFile_YAML(t *testing.T) {
	sql, params := compileFile(t, "adults.yaml")

	assert.Equal(t,
		"SELECT data -> '$.name', data -> '$.age' FROM users"+
			" WHERE (json_extract(data, '$.age') >= ? AND (NOT json_extract(data, '$.banned') IS NOT NULL))"+
			" ORDER BY json_extract(data, '$.age') ASC NULLS LAST",
		sql)
	assert.Equal(t, []any{int64(18)}, params)
}

func TestLoadQueryFile_CUEMatchesYAML(t *testing.T) {
	yamlSQL, yamlParams := compileFile(t, "adults.yaml")
	cueSQL, cueParams := compileFile(t, "adults.cue")

	assert.Equal(t, yamlSQL, cueSQL)
	assert.Equal(t, yamlParams, cueParams)
}

func TestLoadQueryFile_OrInLimit(t *testing.T) {
	sql, params := compileFile(t, "names.yaml")

	assert.Equal(t,
		"SELECT data FROM users"+
			" WHERE (json_extract(data, '$.name') IN (?, ?) OR json_extract(data, '$.name') LIKE ? ESCAPE '\\')"+
			" ORDER BY json_extract(data, '$.name') DESC NULLS FIRST LIMIT ? OFFSET ?",
		sql)
	assert.Equal(t, []any{"ann", "cat", "z%", 2, 0}, params)
}

func TestLoadQueryFile_RejectsUnknownFields(t *testing.T) {
	for _, name := range []string{"typo.yaml", "typo.cue"} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadQueryFile(queryPath(name))
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, queryPath(name), loadErr.Path)
		})
	}
}

func TestLoadQueryFile_Errors(t *testing.T) {
	_, err := LoadQueryFile(queryPath("missing.yaml"))
	assert.Error(t, err)

	_, err = LoadQueryFile(filepath.Join("testdata", "queries"))
	assert.Error(t, err)

	qf, err := LoadQueryFile(queryPath("bad_op.yaml"))
	require.NoError(t, err)
	_, err = qf.Build(queryir.NewTable("users"))
	assert.ErrorContains(t, err, "unknown op")
}

func TestConditionSpec_Build(t *testing.T) {
	leaf := ConditionSpec{Field: "age", Op: "gt", Value: 3}

	cond, err := leaf.Build()
	require.NoError(t, err)
	assert.Equal(t, queryir.Gt(mustRef(t, "age"), 3), cond)

	_, err = (&ConditionSpec{}).Build()
	assert.Error(t, err, "empty node")

	_, err = (&ConditionSpec{Field: "age", Op: "=", Value: 1, Or: []ConditionSpec{leaf}}).Build()
	assert.Error(t, err, "leaf and combinator together")

	_, err = (&ConditionSpec{Field: "a..b", Op: "="}).Build()
	assert.True(t, errs.IsInvalidPath(err))

	_, err = (&ConditionSpec{Field: "name", Op: "contains", Value: 1}).Build()
	assert.ErrorContains(t, err, "needs a string value")

	cond, err = (&ConditionSpec{Field: "@id", Op: "in", Values: []any{1, 2}}).Build()
	require.NoError(t, err)
	assert.Equal(t, queryir.IsIn(mustColumn(t, "id"), 1, 2), cond)
}

func TestParseSortKeys(t *testing.T) {
	keys, err := parseSortKeys([]string{"age", "-name"})
	require.NoError(t, err)
	assert.Equal(t, []queryir.SortKey{
		queryir.Asc(mustRef(t, "age")),
		queryir.Desc(mustRef(t, "name")),
	}, keys)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b.c"}, splitList(" a, ,b.c ,"))
	assert.Nil(t, splitList(""))
}
