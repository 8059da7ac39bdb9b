package driven

import (
	"context"

	"github.com/recallhq/recall/internal/core/domain"
)

// SourceStore persists source configurations.
type SourceStore interface {
	// Save stores or updates a source.
	Save(ctx context.Context, source domain.Source) error

	// Get retrieves a source by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// GetByURI retrieves a source by its URI, or domain.ErrNotFound.
	GetByURI(ctx context.Context, uri string) (*domain.Source, error)

	// List returns all configured sources.
	List(ctx context.Context) ([]domain.Source, error)

	// Delete removes a source and, via cascade, its documents.
	Delete(ctx context.Context, id string) error
}

// JobStore persists ingest job records. Jobs are created running,
// finished exactly once, and never deleted.
type JobStore interface {
	// StartJob inserts a new job in the running state.
	StartJob(ctx context.Context, job domain.IngestJob) error

	// FinishJob marks a job terminal with its final stats and detail.
	FinishJob(ctx context.Context, id string, status domain.JobStatus, stats domain.IngestStats, detail string) error

	// GetJob retrieves a job by ID, or domain.ErrNotFound.
	GetJob(ctx context.Context, id string) (*domain.IngestJob, error)
}

// QueryStore persists the query provenance trail.
type QueryStore interface {
	// SaveQueryRecord stores a query and its ordered results in one
	// transaction. Result rank is the slice position.
	SaveQueryRecord(ctx context.Context, query domain.Query, results []domain.QueryResult) error

	// GetQueryResults replays the persisted results for a prior query,
	// ordered by stored rank. Returns domain.ErrNotFound when the
	// query is unknown or produced no rows.
	GetQueryResults(ctx context.Context, queryID string) ([]domain.QueryResult, error)
}
