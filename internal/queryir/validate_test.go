package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/field"
)

func TestValidate_Valid(t *testing.T) {
	q := From(NewTable("users")).
		Where(AndOf(Gte(age, 18), NotOf(IsIn(name)))).
		OrderBy(Asc(age), Desc(field.MustColumn("id"))).
		Project(Fields(name, age)).
		Limit(10).
		Offset(0)

	require.NoError(t, Validate(q))
}

func TestValidate_MissingTable(t *testing.T) {
	err := Validate(Select{})
	require.Error(t, err)
	assert.True(t, errs.IsQueryBuild(err))
	assert.Contains(t, err.Error(), "missing table")
}

func TestValidate_Errors(t *testing.T) {
	users := NewTable("users")

	tests := []struct {
		name string
		q    Select
		code errs.Code
	}{
		{"bad table name", From(NewTable("users; DROP")), errs.CodeQueryBuild},
		{"same key and doc column", From(Table{Name: "t", KeyColumn: "x", DocColumn: "x"}), errs.CodeQueryBuild},
		{"negative limit", From(users).Limit(-1), errs.CodeQueryBuild},
		{"negative offset", From(users).Offset(-3), errs.CodeQueryBuild},
		{"empty field projection", From(users).Project(Fields()), errs.CodeQueryBuild},
		{"zero projected field", From(users).Project(Fields(field.Ref{})), errs.CodeQueryBuild},
		{"zero sort field", From(users).OrderBy(SortKey{}), errs.CodeQueryBuild},
		{"zero condition field", From(users).Where(Eq(field.Ref{}, 1)), errs.CodeInvalidPath},
		{"unknown operator", From(users).Where(Compare{Field: age, Op: "~", Value: 1}), errs.CodeQueryBuild},
		{"ordering against null", From(users).Where(Gt(age, nil)), errs.CodeQueryBuild},
		{"null in IN", From(users).Where(IsIn(age, 1, nil)), errs.CodeQueryBuild},
		{"ordering against nil pointer", From(users).Where(Gt(age, (*int)(nil))), errs.CodeQueryBuild},
		{"ordering against nil map", From(users).Where(Lte(age, map[string]any(nil))), errs.CodeQueryBuild},
		{"nil pointer in IN", From(users).Where(IsIn(age, 1, (*string)(nil))), errs.CodeQueryBuild},
		{"nil operand", From(users).Where(AndOf(Eq(age, 1), nil)), errs.CodeQueryBuild},
		{"empty NOT", From(users).Where(Not{}), errs.CodeQueryBuild},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.q)
			require.Error(t, err)
			assert.Equal(t, tt.code, errs.CodeOf(err), "got %v", err)
			assert.True(t, errs.IsBuildTime(err))
		})
	}
}

func TestValidate_NullEquality(t *testing.T) {
	users := NewTable("users")
	assert.NoError(t, Validate(From(users).Where(Eq(age, nil))))
	assert.NoError(t, Validate(From(users).Where(Ne(age, nil))))
	assert.NoError(t, Validate(From(users).Where(Eq(age, (*int)(nil)))))
}

func TestValidate_DepthBound(t *testing.T) {
	var c Condition = Eq(age, 1)
	for i := 0; i < 20; i++ {
		c = NotOf(c)
	}
	q := From(NewTable("users")).Where(c)

	require.NoError(t, ValidateDepth(q, 21))

	err := ValidateDepth(q, 20)
	require.Error(t, err)
	assert.True(t, errs.IsQueryBuild(err))
	assert.Contains(t, err.Error(), "nesting exceeds 20")
}

func TestValidateTarget(t *testing.T) {
	assert.NoError(t, ValidateTarget(ByKey(int64(1)), DefaultMaxDepth))
	assert.NoError(t, ValidateTarget(AllRows(), DefaultMaxDepth))
	assert.NoError(t, ValidateTarget(Where(Eq(age, 1)), DefaultMaxDepth))

	assert.True(t, errs.IsQueryBuild(ValidateTarget(ByKey(nil), DefaultMaxDepth)))
	assert.True(t, errs.IsQueryBuild(ValidateTarget(Where(nil), DefaultMaxDepth)))
	assert.True(t, errs.IsInvalidPath(ValidateTarget(Where(IsNull(field.Ref{})), DefaultMaxDepth)))
}

func TestValidateEdit(t *testing.T) {
	assert.NoError(t, ValidateEdit(Set(age, 1)))
	assert.NoError(t, ValidateEdit(Remove(field.MustPath("a.b[0]"))))
	assert.NoError(t, ValidateEdit(Patch(map[string]any{"a": 1})))

	tests := []struct {
		name string
		edit Edit
		code errs.Code
	}{
		{"no path", Set(field.Ref{}, 1), errs.CodeInvalidPath},
		{"column path", Set(field.MustColumn("id"), 1), errs.CodeInvalidPath},
		{"root path", Remove(field.MustPath("$")), errs.CodeInvalidPath},
		{"nil patch", Patch(nil), errs.CodeQueryBuild},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, errs.CodeOf(ValidateEdit(tt.edit)))
		})
	}
}

func TestIsNullValue(t *testing.T) {
	var p *int
	var m map[string]any
	var sl []int
	n := 0

	assert.True(t, IsNullValue(nil))
	assert.True(t, IsNullValue(p))
	assert.True(t, IsNullValue(m))
	assert.True(t, IsNullValue(sl))
	assert.False(t, IsNullValue(&n))
	assert.False(t, IsNullValue(0))
	assert.False(t, IsNullValue(""))
	assert.False(t, IsNullValue([]int{}))
}
