// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - SourceStore: Source configuration persistence
//   - DocumentStore: Document, chunk, embedding and tag persistence
//   - JobStore: Ingest job lifecycle persistence
//   - QueryStore: Query provenance persistence
//   - EmbeddingStore: Embedding reads for vector index rebuild
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. All timestamps are epoch milliseconds.
//
// # Data Location
//
// By default, the database is stored at ~/.recall/recall.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
