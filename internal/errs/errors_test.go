package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "invalid path",
			err:  InvalidPath("a..b", "empty key"),
			want: "INVALID_PATH: empty key (path=a..b)",
		},
		{
			name: "query build",
			err:  QueryBuild("table reference is missing"),
			want: "QUERY_BUILD: table reference is missing",
		},
		{
			name: "decode with expected type",
			err:  Decode("$.age", "int", "type mismatch", errors.New("json: cannot unmarshal object")),
			want: "DECODE: type mismatch (path=$.age, expected=int): json: cannot unmarshal object",
		},
		{
			name: "storage with op",
			err:  Storage("insert", errors.New("disk I/O error")),
			want: "STORAGE insert: engine failure: disk I/O error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	base := Constraint("insert", errors.New("UNIQUE constraint failed: people.id"))
	wrapped := fmt.Errorf("insert person: %w", base)

	assert.True(t, IsConstraint(wrapped))
	assert.False(t, IsStorage(wrapped))
	assert.Equal(t, CodeConstraint, CodeOf(wrapped))
}

func TestUnwrap_PreservesDiagnostic(t *testing.T) {
	diag := errors.New("database is locked")
	err := Storage("find", diag)

	assert.ErrorIs(t, err, diag)
}

func TestCodeOf_ForeignError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.False(t, Is(nil, CodeStorage))
}

func TestIsBuildTime(t *testing.T) {
	assert.True(t, IsBuildTime(InvalidPath("", "empty path")))
	assert.True(t, IsBuildTime(QueryBuild("bad")))
	assert.True(t, IsBuildTime(Encode("not an object", nil)))
	assert.False(t, IsBuildTime(Decode("$.a", "int", "mismatch", nil)))
	assert.False(t, IsBuildTime(Storage("find", errors.New("x"))))
}
