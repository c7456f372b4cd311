package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/nosqlite/internal/field"
)

var testDrivers = []Driver{DriverCGO, DriverPure}

type address struct {
	City string `json:"city"`
	Zip  string `json:"zip,omitempty"`
}

type user struct {
	Name    string   `json:"name"`
	Age     int      `json:"age"`
	Tags    []string `json:"tags,omitempty"`
	Address *address `json:"address,omitempty"`
}

var (
	nameField = field.MustPath("name")
	ageField  = field.MustPath("age")
	cityField = field.MustPath("address.city")
)

// createTestStore creates a new on-disk store for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// forEachDriver runs fn as a subtest against a fresh store per driver.
func forEachDriver(t *testing.T, fn func(t *testing.T, s *Store)) {
	t.Helper()
	for _, d := range testDrivers {
		t.Run(string(d), func(t *testing.T) {
			fn(t, createTestStore(t, WithDriver(d)))
		})
	}
}

// createUsers opens an engine-keyed "users" table.
func createUsers(t *testing.T, s *Store) *Table[int64] {
	t.Helper()
	tbl, err := OpenTable[int64](context.Background(), s, "users")
	require.NoError(t, err)
	return tbl
}

// seedUsers inserts users in order and returns their keys.
func seedUsers(t *testing.T, s *Store, tbl *Table[int64], users ...user) []int64 {
	t.Helper()
	keys := make([]int64, 0, len(users))
	for _, u := range users {
		k, err := tbl.Insert(context.Background(), s.DB(), u)
		require.NoError(t, err)
		keys = append(keys, k)
	}
	return keys
}
