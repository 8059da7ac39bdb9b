// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Loader / LoaderRegistry: Extracts documents from filesystem paths
//   - DocumentStore: Document, chunk, embedding and tag persistence
//   - SourceStore: Source configuration persistence
//   - JobStore: Ingest job persistence
//   - QueryStore: Query provenance persistence
//   - EmbeddingStore: Embedding reads for index rebuild
//   - Embedder / EmbedderRegistry: Text to vector encoding
//   - VectorIndex: In-memory nearest-neighbour search
//   - LexicalRanker: Term-based candidate scoring
//   - Reranker: Second-pass shortlist rescoring
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or loader package
package driven
