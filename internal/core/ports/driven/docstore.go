package driven

import (
	"context"

	"github.com/recallhq/recall/internal/core/domain"
)

// DocumentStore persists documents, chunks, embeddings and tags.
// Backed by SQLite, the single source of truth.
type DocumentStore interface {
	// SaveBundle stores a document together with its chunks and
	// embeddings in one transaction. A crash mid-call must leave no
	// partial document/chunk/embedding set.
	SaveBundle(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, embeddings []domain.Embedding) error

	// FindByHash returns the non-deleted document with the given
	// content hash, or domain.ErrNotFound.
	FindByHash(ctx context.Context, sha256 string) (*domain.Document, error)

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument soft-deletes a document: it stops blocking
	// re-ingest by hash and its chunks stop appearing in retrieval.
	// Returns domain.ErrNotFound for unknown or already deleted IDs.
	DeleteDocument(ctx context.Context, id string) error

	// GetChunks retrieves all chunks for a document, ordered by ordinal.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetCandidates hydrates chunk IDs into retrieval candidates by
	// joining chunks with their documents and sources. Unknown IDs are
	// silently absent from the result.
	GetCandidates(ctx context.Context, chunkIDs []string) (map[string]*domain.Candidate, error)

	// DocumentIDsWithAllTags returns the subset of docIDs whose
	// documents carry every one of the given tags.
	DocumentIDsWithAllTags(ctx context.Context, docIDs []string, tags []string) (map[string]bool, error)

	// AddTags attaches labels to a document, creating tag rows as needed.
	AddTags(ctx context.Context, documentID string, labels []string) error
}

// EmbeddingStore reads persisted embeddings for index rebuild.
type EmbeddingStore interface {
	// ListEmbeddings returns all embeddings for a model identifier.
	ListEmbeddings(ctx context.Context, model string) ([]domain.Embedding, error)
}
