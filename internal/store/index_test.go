package store

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/field"
	"github.com/roach88/nosqlite/internal/metrics"
)

func TestCreateIndex_Idempotent(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		tbl := createUsers(t, s)
		spec := IndexSpec{Fields: []field.Ref{nameField}}

		name, err := tbl.CreateIndex(ctx, s.DB(), spec)
		require.NoError(t, err)
		assert.Equal(t, "idx_users_name", name)

		again, err := tbl.CreateIndex(ctx, s.DB(), spec)
		require.NoError(t, err)
		assert.Equal(t, name, again)

		names, err := tbl.Indexes(ctx, s.DB())
		require.NoError(t, err)
		assert.Equal(t, []string{"idx_users_name"}, names)
	})
}

func TestCreateIndex_SimilarPathsGetSeparateIndexes(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		tbl := createUsers(t, s)

		lower, err := tbl.CreateIndex(ctx, s.DB(), IndexSpec{Fields: []field.Ref{field.MustPath("email")}})
		require.NoError(t, err)
		upper, err := tbl.CreateIndex(ctx, s.DB(), IndexSpec{Fields: []field.Ref{field.MustPath("Email")}, Unique: true})
		require.NoError(t, err)
		assert.NotEqual(t, lower, upper)

		dotted, err := tbl.CreateIndex(ctx, s.DB(), IndexSpec{Fields: []field.Ref{field.MustPath("a.b")}})
		require.NoError(t, err)
		underscored, err := tbl.CreateIndex(ctx, s.DB(), IndexSpec{Fields: []field.Ref{field.MustPath("a_b")}})
		require.NoError(t, err)
		assert.NotEqual(t, dotted, underscored)

		names, err := tbl.Indexes(ctx, s.DB())
		require.NoError(t, err)
		assert.Len(t, names, 4)

		_, err = tbl.Insert(ctx, s.DB(), map[string]any{"Email": "a@x"})
		require.NoError(t, err)
		_, err = tbl.Insert(ctx, s.DB(), map[string]any{"Email": "a@x"})
		assert.True(t, errs.IsConstraint(err), "got %v", err)
	})
}

func TestCreateIndex_NameReusedForOtherFields(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tbl := createUsers(t, s)

	_, err := tbl.CreateIndex(ctx, s.DB(), IndexSpec{Name: "by_key", Fields: []field.Ref{nameField}})
	require.NoError(t, err)

	_, err = tbl.CreateIndex(ctx, s.DB(), IndexSpec{Name: "by_key", Fields: []field.Ref{ageField}})
	assert.True(t, errs.IsQueryBuild(err), "got %v", err)

	_, err = tbl.CreateIndex(ctx, s.DB(), IndexSpec{Name: "by_key", Fields: []field.Ref{nameField}, Unique: true})
	assert.True(t, errs.IsQueryBuild(err), "uniqueness is part of the definition")

	_, err = tbl.CreateIndex(ctx, s.DB(), IndexSpec{Name: "by_key", Fields: []field.Ref{nameField}})
	assert.NoError(t, err)
}

func TestIndexState_Lifecycle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tbl := createUsers(t, s)

	st, err := tbl.IndexState(ctx, s.DB(), "by_city")
	require.NoError(t, err)
	assert.Equal(t, IndexAbsent, st)

	_, err = tbl.CreateIndex(ctx, s.DB(), IndexSpec{Name: "by_city", Fields: []field.Ref{cityField, nameField}})
	require.NoError(t, err)

	st, err = tbl.IndexState(ctx, s.DB(), "by_city")
	require.NoError(t, err)
	assert.Equal(t, IndexPresent, st)

	require.NoError(t, tbl.DropIndex(ctx, s.DB(), "by_city"))
	require.NoError(t, tbl.DropIndex(ctx, s.DB(), "by_city"), "dropping an absent index is a no-op")

	st, err = tbl.IndexState(ctx, s.DB(), "by_city")
	require.NoError(t, err)
	assert.Equal(t, IndexAbsent, st)
}

func TestIndexState_Transitional(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tbl := createUsers(t, s)

	require.NoError(t, s.beginTransition("by_name", IndexCreating))
	st, err := tbl.IndexState(ctx, s.DB(), "by_name")
	require.NoError(t, err)
	assert.Equal(t, IndexCreating, st)

	_, err = tbl.CreateIndex(ctx, s.DB(), IndexSpec{Name: "by_name", Fields: []field.Ref{nameField}})
	assert.True(t, errs.IsQueryBuild(err), "concurrent transition on one index is rejected")

	s.endTransition(ctx, "by_name", IndexCreating, nil)
	st, err = tbl.IndexState(ctx, s.DB(), "by_name")
	require.NoError(t, err)
	assert.Equal(t, IndexAbsent, st)
}

func TestIndexState_String(t *testing.T) {
	assert.Equal(t, "absent", IndexAbsent.String())
	assert.Equal(t, "creating", IndexCreating.String())
	assert.Equal(t, "present", IndexPresent.String())
	assert.Equal(t, "dropping", IndexDropping.String())
	assert.Equal(t, "IndexState(9)", IndexState(9).String())
}

func TestCreateIndex_UniqueViolation(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		tbl := createUsers(t, s)
		_, err := tbl.CreateIndex(ctx, s.DB(), IndexSpec{Fields: []field.Ref{nameField}, Unique: true})
		require.NoError(t, err)

		seedUsers(t, s, tbl, user{Name: "ann"})
		_, err = tbl.Insert(ctx, s.DB(), user{Name: "ann"})
		assert.True(t, errs.IsConstraint(err), "got %v", err)
	})
}

func TestCreateIndex_UniqueOverExistingDuplicates(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tbl := createUsers(t, s)
	seedUsers(t, s, tbl, user{Name: "ann"}, user{Name: "ann"})

	_, err := tbl.CreateIndex(ctx, s.DB(), IndexSpec{Fields: []field.Ref{nameField}, Unique: true})
	assert.True(t, errs.IsConstraint(err), "got %v", err)

	names, err := tbl.Indexes(ctx, s.DB())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCreateIndex_NoFields(t *testing.T) {
	s := createTestStore(t)
	tbl := createUsers(t, s)

	_, err := tbl.CreateIndex(context.Background(), s.DB(), IndexSpec{Name: "empty"})
	assert.True(t, errs.IsBuildTime(err))
}

func TestStore_MetricsAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := metrics.New(prometheus.NewRegistry())

	s := createTestStore(t, WithLogger(logger), WithMetrics(m))
	ctx := context.Background()
	tbl := createUsers(t, s)
	seedUsers(t, s, tbl, user{Name: "zelda-secret", Age: 18}, user{Name: "bob", Age: 13})

	it, err := Docs[user](ctx, s.DB(), tbl, tbl.Select())
	require.NoError(t, err)
	_, err = it.All()
	require.NoError(t, err)

	_, err = tbl.CreateIndex(ctx, s.DB(), IndexSpec{Fields: []field.Ref{ageField}})
	require.NoError(t, err)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.Statements.WithLabelValues("insert", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Statements.WithLabelValues("find", metrics.OutcomeOK)))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.Rows.WithLabelValues("find")))

	out := buf.String()
	assert.Contains(t, out, "op=find")
	assert.Contains(t, out, "msg=\"index transition\"")
	assert.Contains(t, out, "to=present")
	assert.NotContains(t, out, "zelda-secret", "argument values are never logged")
}
