package driven

import "context"

// Embedder turns passage text into fixed-dimension vectors.
//
// Implementations must be deterministic for a given model key and
// return one unit-L2-normalised vector per input text. Zero vectors
// stay zero.
type Embedder interface {
	// Encode returns one vector per input text.
	Encode(ctx context.Context, texts []string) ([][]float32, error)

	// Dim returns the fixed vector dimensionality for this model.
	Dim() int

	// Name returns the model identifier.
	Name() string
}

// EmbedderRegistry hands out one Embedder per model key. It replaces
// hidden process-wide singleton state with an explicit object passed
// into the pipeline and query orchestrator, so tests can reset it
// deterministically.
type EmbedderRegistry interface {
	// Get returns the embedder for a model key, creating it on first use.
	Get(model string) Embedder
}
