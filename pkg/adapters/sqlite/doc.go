// Package sqlite provides a core.Backend stored in a single SQLite file.
//
// It uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Every key is one row of the kv table; values are stored as the
// encoded bytes handed over by the storage layer.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory and applied by Initialize.
//
// # Thread Safety
//
// All operations are safe for concurrent use. The database runs in WAL mode
// with a busy timeout, so readers do not block the writer.
package sqlite
