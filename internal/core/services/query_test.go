package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/internal/core/domain"
	"github.com/recallhq/recall/internal/core/ports/driving"
)

// ingestDoc writes and ingests one document, returning its ID.
func ingestDoc(t *testing.T, h *harness, name, content string) string {
	t.Helper()
	path := writeFile(t, t.TempDir(), name, content)
	report, err := h.pipeline.IngestPaths(context.Background(), []string{path})
	require.NoError(t, err)
	require.Equal(t, 1, report.Stats.Processed, "ingest of %s", name)
	return report.Results[0].DocumentID
}

func TestQueryFindsRelevantPassage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	solarID := ingestDoc(t, h, "solar.md",
		"Solar panels generate electricity from sunlight on the roof.\n")
	ingestDoc(t, h, "cats.md",
		"Cats sleep through most of the day and hunt at dusk.\n")

	resp, err := h.retriever.Query(ctx, "solar electricity", driving.QueryOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Results)
	top := resp.Results[0]
	assert.Equal(t, solarID, top.DocumentID)
	assert.Contains(t, top.Text, "Solar panels")
	assert.Greater(t, top.Score, 0.0)
}

func TestQueryProvenanceAndDeepLink(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ingestDoc(t, h, "solar.md", "Solar panels generate electricity.\n")

	resp, err := h.retriever.Query(ctx, "solar", driving.QueryOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	top := resp.Results[0]
	prov := top.Provenance
	assert.Equal(t, resp.QueryID, prov.QueryID)
	assert.Equal(t, 0, prov.Rank)
	assert.NotEmpty(t, prov.SourceID)
	assert.NotEmpty(t, prov.ExternalID)
	assert.Equal(t,
		fmt.Sprintf("%s#char=%d-%d", prov.ExternalID, top.StartChar, top.EndChar),
		prov.DeepLink)
}

func TestWhyReplaysPersistedResults(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ingestDoc(t, h, "solar.md", "Solar panels generate electricity.\n")
	ingestDoc(t, h, "wind.md", "Wind turbines also generate electricity.\n")

	resp, err := h.retriever.Query(ctx, "generate electricity", driving.QueryOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	replay, err := h.retriever.Why(ctx, resp.QueryID)
	require.NoError(t, err)

	require.Len(t, replay.Results, len(resp.Results))
	for i, got := range replay.Results {
		want := resp.Results[i]
		assert.Equal(t, want.ChunkID, got.ChunkID, "rank %d", i)
		assert.Equal(t, want.Text, got.Text, "rank %d", i)
		assert.Equal(t, i, got.Provenance.Rank)
	}
}

func TestWhyEmptyResultQueryIsNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp, err := h.retriever.Query(ctx, "nothing ingested yet", driving.QueryOptions{})
	require.NoError(t, err)
	require.Empty(t, resp.Results)

	_, err = h.retriever.Why(ctx, resp.QueryID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWhyUnknownQuery(t *testing.T) {
	h := newHarness(t)

	_, err := h.retriever.Why(context.Background(), "qry_missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueryEmptyTextRejected(t *testing.T) {
	h := newHarness(t)

	_, err := h.retriever.Query(context.Background(), "   ", driving.QueryOptions{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryEmptyIndexYieldsEmptyResponse(t *testing.T) {
	h := newHarness(t)

	resp, err := h.retriever.Query(context.Background(), "anything", driving.QueryOptions{})
	require.NoError(t, err)

	assert.Empty(t, resp.Results)
	assert.NotEmpty(t, resp.QueryID)
}

func TestQueryKOptionTruncates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		ingestDoc(t, h, fmt.Sprintf("doc%d.md", i),
			fmt.Sprintf("Gardening note number %d about planting tomatoes.\n", i))
	}

	resp, err := h.retriever.Query(ctx, "planting tomatoes", driving.QueryOptions{K: 2})
	require.NoError(t, err)

	assert.Len(t, resp.Results, 2)
}

func TestQueryTagFilter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	workID := ingestDoc(t, h, "work.md", "Electricity notes for the office project.\n")
	ingestDoc(t, h, "home.md", "Electricity notes for the home workshop.\n")

	require.NoError(t, h.store.DocumentStore().AddTags(ctx, workID, []string{"work"}))

	resp, err := h.retriever.Query(ctx, "electricity notes", driving.QueryOptions{
		Filters: domain.QueryFilters{Tags: []string{"work"}},
	})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Results)
	for _, result := range resp.Results {
		assert.Equal(t, workID, result.DocumentID)
	}
}

func TestQueryDocumentFilter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ingestDoc(t, h, "a.md", "Electricity from solar panels.\n")
	wantID := ingestDoc(t, h, "b.md", "Electricity from wind turbines.\n")

	resp, err := h.retriever.Query(ctx, "electricity", driving.QueryOptions{
		Filters: domain.QueryFilters{DocumentIDs: []string{wantID}},
	})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Results)
	for _, result := range resp.Results {
		assert.Equal(t, wantID, result.DocumentID)
	}
}

func TestQueryRerankDisabledOverride(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ingestDoc(t, h, "solar.md", "Solar panels generate electricity.\n")

	off := false
	resp, err := h.retriever.Query(ctx, "solar", driving.QueryOptions{Rerank: &off})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Results)
}

func TestQueryRerankKeepsFusedScores(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ingestDoc(t, h, "solar.md", "Solar panels generate electricity from sunlight.\n")
	ingestDoc(t, h, "wind.md", "Wind turbines generate electricity from moving air.\n")
	ingestDoc(t, h, "cats.md", "Cats sleep through most of the day.\n")

	off := false
	plain, err := h.retriever.Query(ctx, "generate electricity",
		driving.QueryOptions{Rerank: &off})
	require.NoError(t, err)

	reranked, err := h.retriever.Query(ctx, "generate electricity",
		driving.QueryOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, plain.Results)
	fused := make(map[string]float64, len(plain.Results))
	for _, result := range plain.Results {
		fused[result.ChunkID] = result.Score
	}

	// Reranking may reorder the head but must not replace the fused
	// score that gets persisted with each result.
	require.NotEmpty(t, reranked.Results)
	for _, result := range reranked.Results {
		want, ok := fused[result.ChunkID]
		require.True(t, ok, "chunk %s missing from plain run", result.ChunkID)
		assert.InDelta(t, want, result.Score, 1e-9)
	}
}

func TestQueryDenseOnlyMode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ingestDoc(t, h, "solar.md", "Solar panels generate electricity from sunlight.\n")
	ingestDoc(t, h, "cats.md", "Cats sleep through most of the day.\n")

	off := false
	resp, err := h.retriever.Query(ctx, "solar electricity",
		driving.QueryOptions{Hybrid: &off})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Results)
	assert.Contains(t, resp.Results[0].Text, "Solar panels")
}
