package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/roach88/nosqlite/internal/codec"
	"github.com/roach88/nosqlite/internal/metrics"
	"github.com/roach88/nosqlite/internal/querysql"
)

// Driver names a registered database/sql SQLite driver.
type Driver string

const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO Driver = "sqlite3"

	// DriverPure is modernc.org/sqlite, which needs no C toolchain.
	DriverPure Driver = "sqlite"
)

// ParseDriver maps a driver name ("sqlite3"/"cgo" or "sqlite"/"pure").
func ParseDriver(name string) (Driver, error) {
	switch name {
	case "", "sqlite3", "cgo":
		return DriverCGO, nil
	case "sqlite", "pure":
		return DriverPure, nil
	}
	return "", fmt.Errorf("unknown driver %q (want sqlite3 or sqlite)", name)
}

// Store holds an open SQLite database and the configuration shared by every
// table bound to it.
type Store struct {
	db       *sql.DB
	driver   Driver
	logger   *slog.Logger
	metrics  *metrics.Collector
	codec    codec.Codec
	compiler *querysql.SQLCompiler

	mu      sync.Mutex
	indexes map[string]IndexState // transitional states only

	openIterators atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithDriver selects the SQLite driver. Default DriverCGO.
func WithDriver(d Driver) Option {
	return func(s *Store) { s.driver = d }
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics sets the metrics collector. Default none.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Store) { s.metrics = m }
}

// WithCodec sets the document codec.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) { s.codec = c }
}

// WithCompiler sets the SQL compiler. Its Codec is replaced by the store's.
func WithCompiler(c *querysql.SQLCompiler) Option {
	return func(s *Store) { s.compiler = c }
}

// Open creates or opens a SQLite database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Open creates no tables; see OpenTable.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		driver:  DriverCGO,
		logger:  slog.Default(),
		indexes: make(map[string]IndexState),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.compiler == nil {
		s.compiler = querysql.NewSQLCompiler()
	}
	s.compiler.Codec = s.codec

	// Open database (creates file if doesn't exist)
	db, err := sql.Open(string(s.driver), path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	s.db = db
	s.logger.Debug("store opened", "path", path, "driver", string(s.driver))
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB, the usual Conn for operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the driver in use.
func (s *Store) Driver() Driver { return s.driver }

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger { return s.logger }

// Codec returns the document codec.
func (s *Store) Codec() codec.Codec { return s.codec }

// Compiler returns the SQL compiler.
func (s *Store) Compiler() *querysql.SQLCompiler { return s.compiler }

// exec runs one statement on conn with logging, metrics and error mapping.
func (s *Store) exec(ctx context.Context, conn Conn, op, table, query string, args []any) (sql.Result, error) {
	s.warnIfHeld(ctx, conn, op)
	s.logStatement(ctx, op, table, query, args)
	start := time.Now()
	res, err := conn.ExecContext(ctx, query, args...)
	s.metrics.ObserveStatement(op, err, time.Since(start))
	if err != nil {
		return nil, mapError(op, err)
	}
	return res, nil
}

// query runs one read statement on conn with logging, metrics and error
// mapping. Callers own the returned rows.
func (s *Store) query(ctx context.Context, conn Conn, op, table, query string, args []any) (*sql.Rows, error) {
	s.warnIfHeld(ctx, conn, op)
	s.logStatement(ctx, op, table, query, args)
	start := time.Now()
	rows, err := conn.QueryContext(ctx, query, args...)
	s.metrics.ObserveStatement(op, err, time.Since(start))
	if err != nil {
		return nil, mapError(op, err)
	}
	return rows, nil
}

// warnIfHeld warns when a statement on the store's own pool will wait for
// the single connection while an iterator still holds it. The wait ends
// only when the iterator is closed or ctx is done.
func (s *Store) warnIfHeld(ctx context.Context, conn any, op string) {
	db, ok := conn.(*sql.DB)
	if !ok || db != s.db {
		return
	}
	if n := s.openIterators.Load(); n > 0 && db.Stats().MaxOpenConnections == 1 {
		s.logger.WarnContext(ctx, "statement waits for the connection held by an open iterator",
			"op", op,
			"open_iterators", n,
		)
	}
}

// logStatement logs at Debug. Argument values are never logged.
func (s *Store) logStatement(ctx context.Context, op, table, query string, args []any) {
	s.logger.DebugContext(ctx, "statement",
		"op", op,
		"table", table,
		"sql", query,
		"args", len(args),
	)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
