// Package domain defines the core business entities for Recall.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - Document: A logically-distinct unit of ingested content
//   - Chunk: A retrievable passage within a document
//   - Embedding: A dense vector attached to a chunk
//   - Source: A configured local data source (file, folder, mailbox)
//   - IngestJob: One recorded invocation of the ingest pipeline
//   - Query / QueryResult: The durable provenance record of a retrieval
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
package domain
