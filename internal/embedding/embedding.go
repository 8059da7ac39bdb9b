// Package embedding provides the deterministic hashed embedder and the
// registry that hands out models by name.
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/recallhq/recall/internal/core/ports/driven"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "hashed-384"

// DefaultDim is the vector dimensionality of the default model.
const DefaultDim = 384

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Model is a hashed bag-of-words embedder. Identical input always
// yields an identical vector, so embeddings survive restarts without
// external model downloads.
type Model struct {
	name string
	dim  int
}

// NewModel creates a hashed model with the given name and dimension.
func NewModel(name string, dim int) *Model {
	if name == "" {
		name = DefaultModel
	}
	if dim <= 0 {
		dim = DefaultDim
	}
	return &Model{name: name, dim: dim}
}

// Name returns the model identifier persisted alongside each vector.
func (m *Model) Name() string { return m.name }

// Dim returns the vector dimensionality.
func (m *Model) Dim() int { return m.dim }

// Encode embeds each text into an L2-normalised vector. Zero-token
// texts produce the zero vector.
func (m *Model) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec := make([]float32, m.dim)
		for _, token := range tokenize(text) {
			vec[hashToken(token, m.dim)]++
		}
		normalize(vec)
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

func hashToken(token string, dim int) int {
	h := fnv.New64a()
	h.Write([]byte(token))
	return int(h.Sum64() % uint64(dim))
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sum)
	for i, v := range vec {
		vec[i] = float32(float64(v) * inv)
	}
}

// Registry caches models by name so repeated lookups share instances.
type Registry struct {
	mu     sync.Mutex
	dim    int
	models map[string]*Model
}

// NewRegistry creates a registry whose models use the given dimension.
func NewRegistry(dim int) *Registry {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &Registry{dim: dim, models: make(map[string]*Model)}
}

// Get returns the model for name, creating it on first use. An empty
// name maps to the default model.
func (r *Registry) Get(name string) driven.Embedder {
	if name == "" {
		name = DefaultModel
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	model, ok := r.models[name]
	if !ok {
		model = NewModel(name, r.dim)
		r.models[name] = model
	}
	return model
}
