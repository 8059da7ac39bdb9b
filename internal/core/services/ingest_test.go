package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/internal/adapters/driven/storage/sqlite"
	"github.com/recallhq/recall/internal/adapters/driven/vectorindex/memory"
	"github.com/recallhq/recall/internal/chunker"
	"github.com/recallhq/recall/internal/core/domain"
	"github.com/recallhq/recall/internal/embedding"
	"github.com/recallhq/recall/internal/loaders"
	"github.com/recallhq/recall/internal/ranking"
	"github.com/recallhq/recall/internal/rerank"
)

const testModel = "hashed-64"

type harness struct {
	store     *sqlite.Store
	pipeline  *Pipeline
	retriever *Retriever
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	embedders := embedding.NewRegistry(64)
	index := memory.New(64)

	pipeline := NewPipeline(
		store.SourceStore(),
		store.DocumentStore(),
		store.JobStore(),
		loaders.NewRegistry(),
		chunker.New(),
		embedders,
		index,
		testModel,
	)
	pipeline.SetFolderGlobs(
		"**/*.{md,markdown,mdx,txt,text,log,mbox}",
		"**/{.git,.obsidian,node_modules}/**",
	)

	retriever := NewRetriever(
		store.DocumentStore(),
		store.QueryStore(),
		embedders,
		index,
		ranking.NewBM25(),
		rerank.NewScorer(),
		RetrieverConfig{
			Model:         testModel,
			TopKDense:     50,
			TopKFinal:     5,
			MMRLambda:     0.5,
			RRFWeight:     60,
			RerankEnabled: true,
			HybridEnabled: true,
		},
	)

	return &harness{store: store, pipeline: pipeline, retriever: retriever}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngestPathsProcessesFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "notes.md",
		"# Solar\n\nSolar panels generate electricity from sunlight.\n")

	report, err := h.pipeline.IngestPaths(ctx, []string{path})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stats.Processed)
	assert.Equal(t, 0, report.Stats.Failed)
	assert.GreaterOrEqual(t, report.Stats.Chunks, 1)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.IngestProcessed, report.Results[0].Status)
	assert.NotEmpty(t, report.Results[0].DocumentID)

	job, err := h.store.JobStore().GetJob(ctx, report.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, job.Status)
	assert.Equal(t, report.Stats, job.Stats)

	// A source keyed by the file URI was created on first use.
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	source, err := h.store.SourceStore().GetByURI(ctx, "file://"+abs)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceKindFile, source.Kind)
	assert.Equal(t, "notes.md", source.Label)
}

func TestIngestPathsSkipsDuplicateContent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "notes.md", "The same content twice.\n")

	first, err := h.pipeline.IngestPaths(ctx, []string{path})
	require.NoError(t, err)
	require.Equal(t, 1, first.Stats.Processed)

	second, err := h.pipeline.IngestPaths(ctx, []string{path})
	require.NoError(t, err)

	assert.Equal(t, 0, second.Stats.Processed)
	assert.Equal(t, 1, second.Stats.Skipped)
	require.Len(t, second.Results, 1)
	assert.Equal(t, domain.IngestSkipped, second.Results[0].Status)
	assert.Equal(t, first.Results[0].DocumentID, second.Results[0].DocumentID)
}

func TestIngestAfterDeleteReprocesses(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "notes.md", "Content that comes and goes.\n")

	first, err := h.pipeline.IngestPaths(ctx, []string{path})
	require.NoError(t, err)
	require.Equal(t, 1, first.Stats.Processed)

	require.NoError(t,
		h.store.DocumentStore().DeleteDocument(ctx, first.Results[0].DocumentID))

	// A soft-deleted document no longer blocks the hash, so the same
	// content ingests again as a new document.
	second, err := h.pipeline.IngestPaths(ctx, []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Stats.Processed)
	assert.NotEqual(t, first.Results[0].DocumentID, second.Results[0].DocumentID)
}

func TestIngestPathsUnsupportedSuffix(t *testing.T) {
	h := newHarness(t)

	path := writeFile(t, t.TempDir(), "image.png", "not text")

	report, err := h.pipeline.IngestPaths(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stats.Failed)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.IngestError, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Detail, "unsupported")
}

func TestFinishJobRecordsOrchestrationFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	job := domain.IngestJob{
		ID:        domain.NewID("job"),
		Status:    domain.JobRunning,
		StartedAt: domain.NowMS(),
	}
	require.NoError(t, h.store.JobStore().StartJob(ctx, job))

	report, err := h.pipeline.finishJob(ctx, job.ID, nil, context.Canceled)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)

	stored, err := h.store.JobStore().GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, stored.Status)
	assert.Equal(t, context.Canceled.Error(), stored.Detail)
}

func TestIngestPathsMissingFileIsReported(t *testing.T) {
	h := newHarness(t)

	report, err := h.pipeline.IngestPaths(context.Background(),
		[]string{filepath.Join(t.TempDir(), "absent.md")})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stats.Failed)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.IngestError, report.Results[0].Status)
	assert.NotEmpty(t, report.Results[0].Detail)
}

func TestIngestPathsWhitespaceOnlyFileSkipped(t *testing.T) {
	h := newHarness(t)

	path := writeFile(t, t.TempDir(), "blank.txt", "   \n\n\t\n")

	report, err := h.pipeline.IngestPaths(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stats.Skipped)
	assert.Equal(t, "no extractable text", report.Results[0].Detail)
}

func TestIngestSourcesWalksFolder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	dir := t.TempDir()
	writeFile(t, dir, "a.md", "First document about gardening.\n")
	writeFile(t, dir, "b.txt", "Second document about carpentry.\n")
	writeFile(t, dir, "data.bin", "binary payload")
	writeFile(t, dir, ".git/config", "ignored repository metadata")

	source := domain.Source{
		ID:   domain.NewID("src"),
		Kind: domain.SourceKindFolder,
		URI:  "file://" + dir,
	}
	require.NoError(t, h.store.SourceStore().Save(ctx, source))

	report, err := h.pipeline.IngestSources(ctx, []string{source.ID})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stats.Processed)
	assert.Equal(t, 0, report.Stats.Failed)

	job, err := h.store.JobStore().GetJob(ctx, report.JobID)
	require.NoError(t, err)
	assert.Equal(t, source.ID, job.SourceID)
}

func TestIngestSourcesEmptyListCoversAllSources(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	dirA := t.TempDir()
	dirB := t.TempDir()
	writeFile(t, dirA, "a.md", "Alpha document content.\n")
	writeFile(t, dirB, "b.md", "Beta document content.\n")

	for _, dir := range []string{dirA, dirB} {
		require.NoError(t, h.store.SourceStore().Save(ctx, domain.Source{
			ID:   domain.NewID("src"),
			Kind: domain.SourceKindFolder,
			URI:  "file://" + dir,
		}))
	}

	report, err := h.pipeline.IngestSources(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stats.Processed)

	// Multi-source jobs carry no single source attribution.
	job, err := h.store.JobStore().GetJob(ctx, report.JobID)
	require.NoError(t, err)
	assert.Empty(t, job.SourceID)
}

func TestIngestSourcesRejectsNonFileScheme(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	source := domain.Source{
		ID:   domain.NewID("src"),
		Kind: domain.SourceKindFolder,
		URI:  "https://example.com/docs",
	}
	require.NoError(t, h.store.SourceStore().Save(ctx, source))

	report, err := h.pipeline.IngestSources(ctx, []string{source.ID})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	require.NotNil(t, report)

	// A source that cannot be enumerated aborts the whole job.
	job, jobErr := h.store.JobStore().GetJob(ctx, report.JobID)
	require.NoError(t, jobErr)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Contains(t, job.Detail, "unsupported source scheme")
}

func TestIngestSourcesUnknownID(t *testing.T) {
	h := newHarness(t)

	_, err := h.pipeline.IngestSources(context.Background(), []string{"src_missing"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSplitPatterns(t *testing.T) {
	got := splitPatterns("**/*.{md,txt}, docs/**")
	assert.Equal(t, []string{"**/*.{md,txt}", "docs/**"}, got)

	assert.Empty(t, splitPatterns(""))
	assert.Equal(t, []string{"*.md"}, splitPatterns("*.md"))
}

func TestPathFromURI(t *testing.T) {
	path, err := pathFromURI("file:///home/user/notes")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/notes", path)

	_, err = pathFromURI("s3://bucket/key")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
