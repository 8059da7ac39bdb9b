// Package memory provides a brute-force in-memory vector index. It is
// a rebuildable cache over the persisted embeddings table, scanned
// linearly per query.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/recallhq/recall/internal/core/domain"
	"github.com/recallhq/recall/internal/core/ports/driven"
	"github.com/recallhq/recall/internal/embedding"
)

// Index holds chunk vectors in memory behind a read-write lock.
// Reads during search take the read lock, so concurrent queries never
// block each other.
type Index struct {
	mu      sync.RWMutex
	dim     int
	ids     []string
	vectors [][]float32
	slots   map[string]int
}

// New creates an empty index with the given dimension.
func New(dim int) *Index {
	return &Index{dim: dim, slots: make(map[string]int)}
}

// Size returns the number of indexed vectors.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Upsert inserts or replaces the vector for each chunk ID.
func (idx *Index) Upsert(ids []string, vectors [][]float32) error {
	if len(ids) == 0 {
		return nil
	}
	for _, vec := range vectors {
		if len(vec) != idx.dim {
			return domain.ErrDimensionMismatch
		}
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i, id := range ids {
		if slot, ok := idx.slots[id]; ok {
			idx.vectors[slot] = vectors[i]
			continue
		}
		idx.slots[id] = len(idx.ids)
		idx.ids = append(idx.ids, id)
		idx.vectors = append(idx.vectors, vectors[i])
	}
	return nil
}

// Search scans every vector and returns the topK by descending dot
// product. Ties break on chunk ID.
func (idx *Index) Search(vector []float32, topK int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if len(idx.ids) == 0 {
		return nil, nil
	}
	if len(vector) != idx.dim {
		return nil, domain.ErrDimensionMismatch
	}
	hits := make([]driven.VectorHit, len(idx.ids))
	for i, stored := range idx.vectors {
		hits[i] = driven.VectorHit{ChunkID: idx.ids[i], Score: dot(stored, vector)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if topK > 0 && topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// Rebuild replaces the index contents with all persisted embeddings
// for the model. The dimension of the first stored vector is adopted
// and every remaining vector must match it. An empty store leaves the
// index unchanged.
func (idx *Index) Rebuild(ctx context.Context, store driven.EmbeddingStore, model string) error {
	rows, err := store.ListEmbeddings(ctx, model)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	ids := make([]string, 0, len(rows))
	vectors := make([][]float32, 0, len(rows))
	slots := make(map[string]int, len(rows))
	dim := 0
	for _, row := range rows {
		vec, err := embedding.VectorFromBytes(row.Vector)
		if err != nil {
			return err
		}
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return domain.ErrDimensionMismatch
		}
		slots[row.ChunkID] = len(ids)
		ids = append(ids, row.ChunkID)
		vectors = append(vectors, vec)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.dim = dim
	idx.ids = ids
	idx.vectors = vectors
	idx.slots = slots
	return nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
