package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/nosqlite/internal/codec"
	"github.com/roach88/nosqlite/internal/errs"
	"github.com/roach88/nosqlite/internal/field"
	"github.com/roach88/nosqlite/internal/metrics"
	"github.com/roach88/nosqlite/internal/queryir"
	"github.com/roach88/nosqlite/internal/store"
)

// Result is one row of command output.
type Result struct {
	Key    any            `json:"key,omitempty"`
	Doc    codec.Document `json:"doc,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func (r Result) String() string {
	switch {
	case r.Error != "":
		return fmt.Sprintf("%v\terror: %s", r.Key, r.Error)
	case r.Fields != nil:
		data, _ := json.Marshal(r.Fields)
		if r.Key == nil {
			return string(data)
		}
		return fmt.Sprintf("%v\t%s", r.Key, data)
	case r.Key == nil:
		return r.Doc.String()
	}
	return fmt.Sprintf("%v\t%s", r.Key, r.Doc)
}

// docTable is the key-type-erased view of a store.Table the commands use.
type docTable interface {
	Def() queryir.Table
	insert(ctx context.Context, doc json.RawMessage) (any, error)
	get(ctx context.Context, key string) (codec.Document, bool, error)
	getField(ctx context.Context, key string, f field.Ref) (json.RawMessage, bool, error)
	find(ctx context.Context, q queryir.Select) ([]Result, error)
	keyTarget(key string) (queryir.Target, error)
	apply(ctx context.Context, target queryir.Target, e queryir.Edit) (int64, error)
	delete(ctx context.Context, target queryir.Target) (int64, error)
	createIndex(ctx context.Context, spec store.IndexSpec) (string, error)
	dropIndex(ctx context.Context, name string) error
	indexes(ctx context.Context) ([]string, error)
}

// session is an open store with the table the command operates on.
type session struct {
	store    *store.Store
	table    docTable
	registry *prometheus.Registry // nil unless --metrics is set
}

// openSession opens the database and the table named by the global flags,
// creating the table if needed.
func (opts *RootOptions) openSession(ctx context.Context) (*session, error) {
	driver, err := store.ParseDriver(opts.Driver)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid driver", err)
	}
	storeOpts := []store.Option{store.WithDriver(driver), store.WithLogger(opts.Logger)}
	var registry *prometheus.Registry
	if opts.Metrics != "" {
		registry = prometheus.NewRegistry()
		storeOpts = append(storeOpts, store.WithMetrics(metrics.New(registry)))
	}
	s, err := store.Open(opts.DB, storeOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	var t docTable
	if opts.KeyType == "text" {
		t, err = openTable[string](ctx, s, opts.Table)
	} else {
		t, err = openTable[int64](ctx, s, opts.Table)
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	opts.Logger.Debug("database ready", "path", opts.DB, "table", opts.Table, "driver", string(driver))
	return &session{store: s, table: t, registry: registry}, nil
}

func (s *session) Close() error { return s.store.Close() }

// writeMetrics writes the session's statement metrics to path.
func (s *session) writeMetrics(path string) error {
	if s.registry == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, s.registry)
}

type table[K store.Key] struct {
	*store.Table[K]
	db store.Conn
}

func openTable[K store.Key](ctx context.Context, s *store.Store, name string) (*table[K], error) {
	t, err := store.OpenTable[K](ctx, s, name)
	if err != nil {
		return nil, err
	}
	return &table[K]{Table: t, db: s.DB()}, nil
}

// parseKey converts a command-line key into K.
func (t *table[K]) parseKey(s string) (K, error) {
	var k K
	v := reflect.ValueOf(&k).Elem()
	if v.Kind() == reflect.String {
		v.SetString(s)
		return k, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return k, errs.QueryBuild("key %q is not an integer", s)
	}
	v.SetInt(n)
	return k, nil
}

func (t *table[K]) insert(ctx context.Context, doc json.RawMessage) (any, error) {
	return t.Insert(ctx, t.db, doc)
}

func (t *table[K]) get(ctx context.Context, key string) (codec.Document, bool, error) {
	k, err := t.parseKey(key)
	if err != nil {
		return nil, false, err
	}
	return store.Get[codec.Document](ctx, t.db, t.Table, k)
}

func (t *table[K]) getField(ctx context.Context, key string, f field.Ref) (json.RawMessage, bool, error) {
	k, err := t.parseKey(key)
	if err != nil {
		return nil, false, err
	}
	return store.GetField[json.RawMessage](ctx, t.db, t.Table, k, f)
}

// find runs q. Whole-document queries return entries; field projections
// return one object per row keyed by path. Decode errors stay on their row.
func (t *table[K]) find(ctx context.Context, q queryir.Select) ([]Result, error) {
	if q.Projection().Kind() == queryir.ProjectFields {
		return t.findFields(ctx, q)
	}

	it, err := store.Entries[codec.Document](ctx, t.db, t.Table, q)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []Result
	for e, err := range it.Seq() {
		switch {
		case err != nil && errs.IsDecode(err):
			out = append(out, Result{Key: e.Key, Error: err.Error()})
		case err != nil:
			return out, err
		default:
			out = append(out, Result{Key: e.Key, Doc: e.Doc})
		}
	}
	return out, nil
}

func (t *table[K]) findFields(ctx context.Context, q queryir.Select) ([]Result, error) {
	it, err := store.Query(ctx, t.db, t.Table, q)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []Result
	for row, err := range it.Seq() {
		if err != nil {
			return out, err
		}
		names := row.Names()
		vals := make([]json.RawMessage, len(names))
		dst := make([]any, len(names))
		for i := range vals {
			dst[i] = &vals[i]
		}
		if err := row.Scan(dst...); err != nil {
			out = append(out, Result{Error: err.Error()})
			continue
		}
		fields := make(map[string]any, len(names))
		for i, name := range names {
			fields[name] = vals[i]
		}
		out = append(out, Result{Fields: fields})
	}
	return out, nil
}

func (t *table[K]) keyTarget(key string) (queryir.Target, error) {
	k, err := t.parseKey(key)
	if err != nil {
		return queryir.Target{}, err
	}
	return queryir.ByKey(k), nil
}

func (t *table[K]) apply(ctx context.Context, target queryir.Target, e queryir.Edit) (int64, error) {
	return t.Apply(ctx, t.db, target, e)
}

func (t *table[K]) delete(ctx context.Context, target queryir.Target) (int64, error) {
	return t.Delete(ctx, t.db, target)
}

func (t *table[K]) createIndex(ctx context.Context, spec store.IndexSpec) (string, error) {
	return t.CreateIndex(ctx, t.db, spec)
}

func (t *table[K]) dropIndex(ctx context.Context, name string) error {
	return t.DropIndex(ctx, t.db, name)
}

func (t *table[K]) indexes(ctx context.Context) ([]string, error) {
	return t.Indexes(ctx, t.db)
}

// runWithSession opens a session for cmd, runs fn and reports any error
// through the formatter.
func (opts *RootOptions) runWithSession(cmd *cobra.Command, fn func(ctx context.Context, s *session, f *OutputFormatter) error) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := opts.openSession(ctx)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			_ = f.Error(ErrCodeOpen, exitErr.Error(), nil)
			return exitErr
		}
		return f.Fail(err)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			opts.Logger.Error("error closing database", "error", closeErr)
		}
	}()

	err = fn(ctx, s, f)
	if metricsErr := s.writeMetrics(opts.Metrics); metricsErr != nil {
		opts.Logger.Error("error writing metrics", "path", opts.Metrics, "error", metricsErr)
		if err == nil {
			return WrapExitError(ExitFailure, "writing metrics", metricsErr)
		}
	}
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		return f.Fail(err)
	}
	return nil
}

// notFound reports a missing key.
func notFound(f *OutputFormatter, key string) error {
	_ = f.Error(ErrCodeNotFound, fmt.Sprintf("no document with key %s", key), nil)
	return NewExitError(ExitFailure, "not found: "+key)
}

// usageError reports a malformed argument.
func usageError(f *OutputFormatter, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	_ = f.Error(ErrCodeUsage, msg, nil)
	return NewExitError(ExitCommandError, msg)
}
