package driving

import (
	"context"

	"github.com/recallhq/recall/internal/core/domain"
)

// QueryOptions configure one retrieval call.
type QueryOptions struct {
	// K is the number of results to return; zero uses the configured
	// default.
	K int

	// Rerank overrides the configured rerank setting when non-nil.
	Rerank *bool

	// Hybrid overrides hybrid (dense + lexical) fusion when non-nil.
	// Defaults to on.
	Hybrid *bool

	// Filters narrow the candidate set.
	Filters domain.QueryFilters
}

// QueryService answers natural-language queries with ranked,
// provenance-tagged passages.
type QueryService interface {
	// Query runs the full retrieval flow and persists the provenance
	// record. Queries either fully succeed or fully fail.
	Query(ctx context.Context, text string, opts QueryOptions) (*domain.QueryResponse, error)

	// Why replays exactly the persisted results of a prior query,
	// ordered by stored rank, independent of the live index state.
	Why(ctx context.Context, queryID string) (*domain.QueryResponse, error)
}
