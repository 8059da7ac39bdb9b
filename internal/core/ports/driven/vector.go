package driven

import "context"

// VectorIndex provides nearest-neighbour search over chunk vectors.
//
// The index is a derived, rebuildable cache of persisted embeddings,
// not a source of truth: a process restart always requires a Rebuild
// from the durable store. The interface is independent of the scan
// strategy so an approximate-nearest-neighbour backend can be
// substituted without changing callers.
type VectorIndex interface {
	// Upsert appends vectors for the given chunk IDs. Every vector
	// whose length differs from the index dimension is rejected with
	// domain.ErrDimensionMismatch.
	Upsert(ids []string, vectors [][]float32) error

	// Search returns up to topK hits ranked by descending dot product.
	// Inputs are pre-normalised, so this equals cosine similarity.
	Search(vector []float32, topK int) ([]VectorHit, error)

	// Rebuild reconstructs the index from all persisted embeddings for
	// a model, replacing in-memory state atomically. The dimension of
	// the first vector found is adopted; an empty store leaves the
	// index unchanged.
	Rebuild(ctx context.Context, store EmbeddingStore, model string) error

	// Size returns the number of indexed vectors.
	Size() int
}

// VectorHit is one nearest-neighbour search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the dot product with the query vector.
	Score float64
}
