package domain

// JobStatus is the lifecycle state of an ingest job.
// Transitions: running -> completed or running -> failed. Terminal.
type JobStatus string

const (
	// JobRunning is the initial state, set when the job row is created.
	JobRunning JobStatus = "running"

	// JobCompleted means the batch finished, possibly with per-path errors.
	JobCompleted JobStatus = "completed"

	// JobFailed means the surrounding orchestration failed.
	JobFailed JobStatus = "failed"
)

// IngestJob records one invocation of the ingest pipeline.
type IngestJob struct {
	// ID is the unique identifier for the job.
	ID string

	// SourceID is set when the job covers exactly one source.
	SourceID string

	// Status is the lifecycle state.
	Status JobStatus

	// StartedAt is when the job started, epoch ms.
	StartedAt int64

	// FinishedAt is when the job reached a terminal state, epoch ms.
	// Zero while running.
	FinishedAt int64

	// Stats aggregates per-path outcomes.
	Stats IngestStats

	// Detail carries the failure reason for failed jobs.
	Detail string
}

// IngestStats aggregates the outcome counts of an ingest job.
type IngestStats struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Chunks    int `json:"chunks"`
}

// Per-path ingest outcomes.
const (
	IngestProcessed = "processed"
	IngestSkipped   = "skipped"
	IngestError     = "error"
)

// IngestResult is the outcome for a single processed path (or a single
// document within a multi-document path).
type IngestResult struct {
	// DocumentID identifies the persisted or pre-existing document.
	// Empty when loading failed.
	DocumentID string `json:"document_id,omitempty"`

	// Path is the filesystem path this outcome refers to.
	Path string `json:"path"`

	// Status is processed, skipped or error.
	Status string `json:"status"`

	// Detail carries the error message for error outcomes.
	Detail string `json:"detail,omitempty"`

	// Chunks is the number of chunks produced for processed documents.
	Chunks int `json:"chunks,omitempty"`
}

// IngestReport is the caller-visible summary of an ingest job.
// It is always returned, even under partial failure.
type IngestReport struct {
	JobID   string         `json:"job_id"`
	Stats   IngestStats    `json:"stats"`
	Results []IngestResult `json:"results"`
}

// Apply counts a batch of results into the stats.
func (s *IngestStats) Apply(results []IngestResult) {
	for _, r := range results {
		switch r.Status {
		case IngestProcessed:
			s.Processed++
			s.Chunks += r.Chunks
		case IngestSkipped:
			s.Skipped++
		case IngestError:
			s.Failed++
		}
	}
}
