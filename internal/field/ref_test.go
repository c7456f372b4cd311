package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nosqlite/internal/errs"
)

func TestPath_Normalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"x", "$.x"},
		{"name", "$.name"},
		{".x", "$.x"},
		{"[0]", "$[0]"},
		{"$.x", "$.x"},
		{"$", "$"},
		{"a.b[0]", "$.a.b[0]"},
		{"a.b[0].c", "$.a.b[0].c"},
		{`a."x.y"`, `$.a."x.y"`},
		{"tags[#]", "$.tags[#]"},
		{"tags[#-1]", "$.tags[#-1]"},
		{"matrix[1][2]", "$.matrix[1][2]"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref, err := Path(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref.Name())
			assert.Equal(t, KindDocument, ref.Kind())
		})
	}
}

func TestPath_Invalid(t *testing.T) {
	tests := []string{
		"",
		"a..b",
		"a.",
		"a[0",
		"a]",
		"a[x]",
		"a[-1]",
		"a[#-0]",
		`a."unterminated`,
		`a.""`,
		"$x",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := Path(in)
			require.Error(t, err)
			assert.True(t, errs.IsInvalidPath(err), "want INVALID_PATH, got %v", err)
		})
	}
}

func TestPath_Segments(t *testing.T) {
	ref := MustPath(`a.b[3]."c.d"[#-2]`)

	assert.Equal(t, []Segment{
		{Key: "a"},
		{Key: "b"},
		{IsIndex: true, Index: 3},
		{Key: "c.d"},
		{IsIndex: true, Index: 2, FromEnd: true},
	}, ref.Segments())
}

func TestColumn(t *testing.T) {
	ref, err := Column("id")
	require.NoError(t, err)
	assert.True(t, ref.IsColumn())
	assert.Equal(t, "id", ref.Value("data"))
	assert.Equal(t, "id", ref.Fragment("data"))

	for _, bad := range []string{"", "1id", "id; DROP TABLE x", "a.b"} {
		_, err := Column(bad)
		assert.True(t, errs.IsInvalidPath(err), "column %q", bad)
	}
}

func TestParse_ColumnMarker(t *testing.T) {
	col := MustParse("@id")
	assert.True(t, col.IsColumn())
	assert.Equal(t, "id", col.Name())
	assert.Equal(t, "@id", col.String())

	doc := MustParse("id")
	assert.False(t, doc.IsColumn())
	assert.Equal(t, "$.id", doc.Name())
}

func TestRendering(t *testing.T) {
	ref := MustPath("profile.age")

	assert.Equal(t, "json_extract(data, '$.profile.age')", ref.Value("data"))
	assert.Equal(t, "data -> '$.profile.age'", ref.Fragment("data"))
	assert.Equal(t, "json_type(data, '$.profile.age')", ref.Type("data"))
}

func TestRendering_EscapesQuotes(t *testing.T) {
	ref := MustPath("o'brien")
	assert.Equal(t, "json_extract(doc, '$.o''brien')", ref.Value("doc"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "address_city", MustPath("address.city").Slug())
	assert.Equal(t, "a_b_0_0d6a3dfef", MustPath("a.b[0]").Slug())
	assert.Equal(t, "firstname_0e90ffd43", MustPath("firstName").Slug())
	assert.Equal(t, "root_0fee41fcc", MustPath("$").Slug())
	assert.Equal(t, "id_0cec2e149", MustColumn("id").Slug())
}

func TestSlug_Distinct(t *testing.T) {
	refs := []Ref{
		MustPath("email"), MustPath("Email"), MustPath("EMAIL"),
		MustPath("a.b"), MustPath("a_b"), MustPath(`"a.b"`),
		MustPath("a[0]"), MustPath("a.0"), MustPath("root"), MustPath("$"),
		MustPath("id"), MustColumn("id"),
	}
	seen := map[string]string{}
	for _, r := range refs {
		slug := r.Slug()
		assert.True(t, ValidIdentifier(slug), slug)
		if prev, ok := seen[slug]; ok {
			t.Errorf("%s and %s share slug %q", prev, r, slug)
		}
		seen[slug] = r.String()
	}
}

func TestZeroRef(t *testing.T) {
	var r Ref
	assert.True(t, r.IsZero())
	assert.False(t, MustPath("a").IsZero())
	assert.True(t, MustPath("$").IsRoot())
}
