package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/internal/core/domain"
	"github.com/recallhq/recall/internal/embedding"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

// createTestSource creates a source to satisfy foreign key constraints.
func createTestSource(t *testing.T, store *Store, sourceID string) {
	t.Helper()
	source := domain.Source{
		ID:   sourceID,
		Kind: domain.SourceKindFolder,
		URI:  "file:///tmp/" + sourceID,
	}
	require.NoError(t, store.SourceStore().Save(context.Background(), source))
}

// createTestBundle persists a document with two chunks and embeddings.
func createTestBundle(t *testing.T, store *Store, sourceID, docID string) []domain.Chunk {
	t.Helper()
	now := domain.NowMS()
	doc := &domain.Document{
		ID:         docID,
		SourceID:   sourceID,
		ExternalID: "/tmp/" + docID + ".md",
		Title:      "Test Document",
		MIME:       "text/markdown",
		SHA256:     "hash-" + docID,
		Text:       "first passage text\n\nsecond passage text",
		SizeBytes:  40,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	chunks := []domain.Chunk{
		{ID: docID + "-c0", DocumentID: docID, Ordinal: 0, StartChar: 0, EndChar: 18,
			Text: "first passage text", TokenCount: 3, CreatedAt: now},
		{ID: docID + "-c1", DocumentID: docID, Ordinal: 1, StartChar: 20, EndChar: 39,
			Text: "second passage text", TokenCount: 3, CreatedAt: now},
	}
	embeddings := []domain.Embedding{
		{ChunkID: chunks[0].ID, Model: "hashed-4", Dim: 4,
			Vector: embedding.VectorBytes([]float32{1, 0, 0, 0}), Style: domain.StyleDense, CreatedAt: now},
		{ChunkID: chunks[1].ID, Model: "hashed-4", Dim: 4,
			Vector: embedding.VectorBytes([]float32{0, 1, 0, 0}), Style: domain.StyleDense, CreatedAt: now},
	}
	require.NoError(t, store.DocumentStore().SaveBundle(context.Background(), doc, chunks, embeddings))
	return chunks
}

func TestNewStoreCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "recall.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestSourceStoreRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	sources := store.SourceStore()

	source := domain.Source{
		ID:          "src_1",
		Kind:        domain.SourceKindFolder,
		URI:         "file:///home/user/notes",
		Label:       "notes",
		IncludeGlob: "**/*.md",
	}
	require.NoError(t, sources.Save(ctx, source))

	got, err := sources.Get(ctx, "src_1")
	require.NoError(t, err)
	assert.Equal(t, source.URI, got.URI)
	assert.Equal(t, source.IncludeGlob, got.IncludeGlob)
	assert.NotZero(t, got.CreatedAt)

	byURI, err := sources.GetByURI(ctx, source.URI)
	require.NoError(t, err)
	assert.Equal(t, "src_1", byURI.ID)

	list, err := sources.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, sources.Delete(ctx, "src_1"))
	_, err = sources.Get(ctx, "src_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourceStoreGetMissing(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.SourceStore().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.SourceStore().GetByURI(context.Background(), "file:///nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveBundleAndReadBack(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestSource(t, store, "src_1")
	chunks := createTestBundle(t, store, "src_1", "doc_1")

	docs := store.DocumentStore()
	doc, err := docs.GetDocument(ctx, "doc_1")
	require.NoError(t, err)
	assert.Equal(t, "Test Document", doc.Title)
	assert.False(t, doc.IsDeleted)

	gotChunks, err := docs.GetChunks(ctx, "doc_1")
	require.NoError(t, err)
	require.Len(t, gotChunks, 2)
	assert.Equal(t, 0, gotChunks[0].Ordinal)
	assert.Equal(t, chunks[0].Text, gotChunks[0].Text)

	embs, err := store.EmbeddingStore().ListEmbeddings(ctx, "hashed-4")
	require.NoError(t, err)
	assert.Len(t, embs, 2)
	assert.Equal(t, 4, embs[0].Dim)
}

func TestFindByHash(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestSource(t, store, "src_1")
	createTestBundle(t, store, "src_1", "doc_1")

	docs := store.DocumentStore()
	found, err := docs.FindByHash(ctx, "hash-doc_1")
	require.NoError(t, err)
	assert.Equal(t, "doc_1", found.ID)

	_, err = docs.FindByHash(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetCandidatesJoinsSourceAndDocument(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestSource(t, store, "src_1")
	chunks := createTestBundle(t, store, "src_1", "doc_1")

	candidates, err := store.DocumentStore().GetCandidates(ctx, []string{chunks[0].ID, "chk_unknown"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[chunks[0].ID]
	require.NotNil(t, c)
	assert.Equal(t, "doc_1", c.DocumentID)
	assert.Equal(t, "src_1", c.SourceID)
	assert.Equal(t, "/tmp/doc_1.md", c.ExternalID)
	assert.Equal(t, "file:///tmp/src_1", c.URI)
	assert.Equal(t, c.URI, c.Meta["uri"])
}

func TestGetCandidatesEmpty(t *testing.T) {
	store := setupTestStore(t)
	candidates, err := store.DocumentStore().GetCandidates(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestTags(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestSource(t, store, "src_1")
	createTestBundle(t, store, "src_1", "doc_1")
	createTestBundle(t, store, "src_1", "doc_2")

	docs := store.DocumentStore()
	require.NoError(t, docs.AddTags(ctx, "doc_1", []string{"work", "project"}))
	require.NoError(t, docs.AddTags(ctx, "doc_2", []string{"work"}))
	// Re-tagging is a no-op, not an error.
	require.NoError(t, docs.AddTags(ctx, "doc_1", []string{"work"}))

	allowed, err := docs.DocumentIDsWithAllTags(ctx, []string{"doc_1", "doc_2"}, []string{"work", "project"})
	require.NoError(t, err)
	assert.True(t, allowed["doc_1"])
	assert.False(t, allowed["doc_2"])

	allowed, err = docs.DocumentIDsWithAllTags(ctx, []string{"doc_1", "doc_2"}, []string{"work"})
	require.NoError(t, err)
	assert.True(t, allowed["doc_1"])
	assert.True(t, allowed["doc_2"])
}

func TestJobLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	jobs := store.JobStore()

	job := domain.IngestJob{
		ID:        "job_1",
		Status:    domain.JobRunning,
		StartedAt: domain.NowMS(),
	}
	require.NoError(t, jobs.StartJob(ctx, job))

	running, err := jobs.GetJob(ctx, "job_1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobRunning, running.Status)
	assert.Zero(t, running.FinishedAt)

	stats := domain.IngestStats{Processed: 3, Skipped: 1, Chunks: 12}
	require.NoError(t, jobs.FinishJob(ctx, "job_1", domain.JobCompleted, stats, ""))

	done, err := jobs.GetJob(ctx, "job_1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, done.Status)
	assert.Equal(t, stats, done.Stats)
	assert.NotZero(t, done.FinishedAt)
}

func TestFinishJobMissing(t *testing.T) {
	store := setupTestStore(t)
	err := store.JobStore().FinishJob(context.Background(), "job_nope", domain.JobCompleted, domain.IngestStats{}, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueryRecordRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestSource(t, store, "src_1")
	chunks := createTestBundle(t, store, "src_1", "doc_1")

	query := domain.Query{
		ID:        "qry_1",
		Text:      "passage",
		Reranked:  true,
		CreatedAt: domain.NowMS(),
	}
	results := []domain.QueryResult{
		{
			ChunkID:    chunks[1].ID,
			DocumentID: "doc_1",
			Score:      0.8,
			Text:       chunks[1].Text,
			StartChar:  chunks[1].StartChar,
			EndChar:    chunks[1].EndChar,
			Provenance: domain.Provenance{
				QueryID:    "qry_1",
				Rank:       0,
				Score:      0.8,
				SourceID:   "src_1",
				DocumentID: "doc_1",
				DeepLink:   "/tmp/doc_1.md#char=20-39",
			},
		},
		{
			ChunkID:    chunks[0].ID,
			DocumentID: "doc_1",
			Score:      0.5,
			Text:       chunks[0].Text,
		},
	}
	require.NoError(t, store.QueryStore().SaveQueryRecord(ctx, query, results))

	replayed, err := store.QueryStore().GetQueryResults(ctx, "qry_1")
	require.NoError(t, err)
	require.Len(t, replayed, 2)
	// Rank order is slice position at save time.
	assert.Equal(t, chunks[1].ID, replayed[0].ChunkID)
	assert.Equal(t, 0.8, replayed[0].Score)
	assert.Equal(t, "/tmp/doc_1.md#char=20-39", replayed[0].Provenance.DeepLink)
	assert.Equal(t, chunks[1].Text, replayed[0].Text)
}

func TestDeleteDocumentSoftDeletes(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestSource(t, store, "src_1")
	chunks := createTestBundle(t, store, "src_1", "doc_1")
	docs := store.DocumentStore()

	require.NoError(t, docs.DeleteDocument(ctx, "doc_1"))

	// The hash stops blocking re-ingest.
	_, err := docs.FindByHash(ctx, "hash-doc_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Chunks of deleted documents no longer hydrate.
	candidates, err := docs.GetCandidates(ctx, []string{chunks[0].ID, chunks[1].ID})
	require.NoError(t, err)
	assert.Empty(t, candidates)

	// The row itself survives for audit.
	doc, err := docs.GetDocument(ctx, "doc_1")
	require.NoError(t, err)
	assert.True(t, doc.IsDeleted)

	// Deleting twice reports not-found.
	assert.ErrorIs(t, docs.DeleteDocument(ctx, "doc_1"), domain.ErrNotFound)
}

func TestDeleteDocumentMissing(t *testing.T) {
	store := setupTestStore(t)
	err := store.DocumentStore().DeleteDocument(context.Background(), "doc_nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetQueryResultsMissing(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.QueryStore().GetQueryResults(context.Background(), "qry_nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetQueryResultsEmptyQueryIsNotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	query := domain.Query{
		ID:        "qry_empty",
		Text:      "matched nothing",
		CreatedAt: domain.NowMS(),
	}
	require.NoError(t, store.QueryStore().SaveQueryRecord(ctx, query, nil))

	// A persisted query with zero result rows replays as not-found,
	// same as an unknown query ID.
	_, err := store.QueryStore().GetQueryResults(ctx, "qry_empty")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourceDeleteCascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestSource(t, store, "src_1")
	createTestBundle(t, store, "src_1", "doc_1")

	require.NoError(t, store.SourceStore().Delete(ctx, "src_1"))

	_, err := store.DocumentStore().GetDocument(ctx, "doc_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, err := store.DocumentStore().GetChunks(ctx, "doc_1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
