package driving

import (
	"context"

	"github.com/recallhq/recall/internal/core/domain"
)

// IngestService runs ingest jobs for external actors.
type IngestService interface {
	// IngestPaths ingests an explicit list of filesystem paths.
	// A report is returned even under partial failure.
	IngestPaths(ctx context.Context, paths []string) (*domain.IngestReport, error)

	// IngestSources ingests the given sources, or all configured
	// sources when sourceIDs is empty.
	IngestSources(ctx context.Context, sourceIDs []string) (*domain.IngestReport, error)
}
