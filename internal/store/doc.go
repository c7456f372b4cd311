// Package store executes nosqlite statements against SQLite: the result
// iterator, the mutation engine and the index manager.
//
// # Connections
//
// Every operation takes the connection handle explicitly as a Conn, which
// *sql.DB, *sql.Conn and *sql.Tx all satisfy. The Store owns the *sql.DB
// and the shared configuration (logger, metrics, codec, compiler) but
// never acts as an ambient connection.
//
// Store.Open configures the database the same way for both drivers:
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
//   - one open connection: statements are serialized
//
// With a single connection, an open Iterator holds the connection until it
// is exhausted or closed. Close iterators before issuing other statements;
// a statement that has to wait for one is logged at Warn.
//
// # Atomicity
//
// Insert on an engine-keyed table is two statements (insert, then key
// retrieval). When the handle can begin a transaction (TxBeginner) both run
// in one transaction owned by Insert. When the handle is already a *sql.Tx
// the caller owns the transaction boundary.
//
// # Errors
//
// Engine errors are mapped once, here: constraint violations from either
// driver become CONSTRAINT errors, everything else STORAGE. Zero affected
// rows is never an error.
package store
