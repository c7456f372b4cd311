package store

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/roach88/nosqlite/internal/codec"
	"github.com/roach88/nosqlite/internal/queryir"
	"github.com/roach88/nosqlite/internal/querysql"
)

// Key is the Go type of a table's primary key. Integer keys are assigned by
// the engine; string keys come from the table's KeyGenerator or the caller.
type Key interface {
	~int64 | ~string
}

// KeyGenerator produces primary keys for string-keyed tables.
type KeyGenerator interface {
	NextKey() string
}

// UUIDv7Generator generates time-ordered UUIDv7 keys.
type UUIDv7Generator struct{}

// NextKey returns a new UUIDv7 string.
func (UUIDv7Generator) NextKey() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Table is a typed handle to one document table. It is cheap to copy by
// pointer and safe for concurrent use; the connection is passed to every
// operation.
type Table[K Key] struct {
	store   *Store
	def     queryir.Table
	keyType querysql.KeyType
	keyGen  KeyGenerator

	// afterInsert runs between the insert and the key retrieval. Tests use
	// it to simulate a failure in between.
	afterInsert func() error
}

// TableOption configures a Table.
type TableOption func(*tableConfig)

type tableConfig struct {
	keyColumn string
	docColumn string
	keyGen    KeyGenerator
}

// WithColumns overrides the key and document column names.
func WithColumns(key, doc string) TableOption {
	return func(c *tableConfig) {
		c.keyColumn = key
		c.docColumn = doc
	}
}

// WithKeyGenerator sets the key generator for string-keyed tables.
// Default UUIDv7Generator.
func WithKeyGenerator(g KeyGenerator) TableOption {
	return func(c *tableConfig) { c.keyGen = g }
}

// NewTable binds a handle to an existing table without issuing any DDL.
func NewTable[K Key](s *Store, name string, opts ...TableOption) (*Table[K], error) {
	cfg := tableConfig{
		keyColumn: queryir.DefaultKeyColumn,
		docColumn: queryir.DefaultDocColumn,
		keyGen:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	def := queryir.Table{Name: name, KeyColumn: cfg.keyColumn, DocColumn: cfg.docColumn}
	if err := queryir.ValidateTable(def); err != nil {
		return nil, err
	}

	return &Table[K]{
		store:   s,
		def:     def,
		keyType: keyTypeOf[K](),
		keyGen:  cfg.keyGen,
	}, nil
}

// OpenTable binds a handle and creates the table if it does not exist.
func OpenTable[K Key](ctx context.Context, s *Store, name string, opts ...TableOption) (*Table[K], error) {
	t, err := NewTable[K](s, name, opts...)
	if err != nil {
		return nil, err
	}
	ddl, err := s.compiler.CompileCreateTable(t.def, t.keyType)
	if err != nil {
		return nil, err
	}
	if _, err := s.exec(ctx, s.db, "create_table", name, ddl, nil); err != nil {
		return nil, fmt.Errorf("open table %s: %w", name, err)
	}
	return t, nil
}

// Name returns the table name.
func (t *Table[K]) Name() string { return t.def.Name }

// Def returns the table reference used to build queries.
func (t *Table[K]) Def() queryir.Table { return t.def }

// Select starts a query over this table projecting whole documents.
func (t *Table[K]) Select() queryir.Select { return queryir.From(t.def) }

// Store returns the store the table is bound to.
func (t *Table[K]) Store() *Store { return t.store }

// decodeKey converts a native key value (from the engine or a generator)
// into K.
func (t *Table[K]) decodeKey(v any) (K, error) {
	var k K
	err := codec.DecodeNative(t.def.Key(), v, &k)
	return k, err
}

func keyTypeOf[K Key]() querysql.KeyType {
	var zero K
	if reflect.TypeOf(zero).Kind() == reflect.String {
		return querysql.KeyText
	}
	return querysql.KeyInteger
}
