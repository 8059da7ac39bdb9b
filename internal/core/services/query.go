package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/recallhq/recall/internal/core/domain"
	"github.com/recallhq/recall/internal/core/ports/driven"
	"github.com/recallhq/recall/internal/core/ports/driving"
	"github.com/recallhq/recall/internal/logger"
	"github.com/recallhq/recall/internal/ranking"
	"github.com/recallhq/recall/internal/rerank"
)

// Ensure Retriever implements the interface.
var _ driving.QueryService = (*Retriever)(nil)

// RetrieverConfig carries the tunables of the retrieval flow.
type RetrieverConfig struct {
	// Model is the embedding model identifier.
	Model string

	// TopKDense is the vector search candidate pool size.
	TopKDense int

	// TopKFinal is the default result count.
	TopKFinal int

	// MMRLambda balances relevance against diversity. Zero disables
	// the diversification pass.
	MMRLambda float64

	// RRFWeight is the K constant of reciprocal rank fusion.
	RRFWeight float64

	// RerankEnabled turns the second-pass reranker on by default.
	RerankEnabled bool

	// HybridEnabled fuses dense and lexical rankings by default.
	HybridEnabled bool
}

// Retriever answers queries with ranked, provenance-tagged passages
// and persists every query's result set for later replay.
type Retriever struct {
	docStore    driven.DocumentStore
	queryStore  driven.QueryStore
	embedders   driven.EmbedderRegistry
	vectorIndex driven.VectorIndex
	lexical     driven.LexicalRanker
	reranker    driven.Reranker
	cfg         RetrieverConfig
}

// NewRetriever creates a new retriever.
func NewRetriever(
	docStore driven.DocumentStore,
	queryStore driven.QueryStore,
	embedders driven.EmbedderRegistry,
	vectorIndex driven.VectorIndex,
	lexical driven.LexicalRanker,
	reranker driven.Reranker,
	cfg RetrieverConfig,
) *Retriever {
	if cfg.TopKDense <= 0 {
		cfg.TopKDense = 100
	}
	if cfg.TopKFinal <= 0 {
		cfg.TopKFinal = 8
	}
	return &Retriever{
		docStore:    docStore,
		queryStore:  queryStore,
		embedders:   embedders,
		vectorIndex: vectorIndex,
		lexical:     lexical,
		reranker:    reranker,
		cfg:         cfg,
	}
}

// Query runs the full retrieval flow: embed, vector search, hydrate,
// filter, fuse, diversify, rerank, persist.
func (r *Retriever) Query(ctx context.Context, text string, opts driving.QueryOptions) (*domain.QueryResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty query text", domain.ErrInvalidInput)
	}

	k := opts.K
	if k <= 0 {
		k = r.cfg.TopKFinal
	}

	logger.Section("Query")
	logger.Debug("Query: %q (k=%d)", text, k)

	embedder := r.embedders.Get(r.cfg.Model)
	vectors, err := embedder.Encode(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := r.vectorIndex.Search(vectors[0], r.cfg.TopKDense)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Dense search: %d hit(s)", len(hits))

	candidates, ordered, err := r.hydrate(ctx, hits)
	if err != nil {
		return nil, err
	}

	ordered, err = r.applyFilters(ctx, candidates, ordered, opts.Filters)
	if err != nil {
		return nil, err
	}

	hybrid := r.cfg.HybridEnabled
	if opts.Hybrid != nil {
		hybrid = *opts.Hybrid
	}
	if hybrid {
		ordered = r.fuse(text, candidates, ordered)
	}

	if r.cfg.MMRLambda > 0 && len(ordered) > 1 {
		ordered = r.diversify(candidates, ordered, k)
	}

	scores := make(map[string]float64, len(ordered))
	for _, id := range ordered {
		scores[id] = candidates[id].Relevance()
	}

	useRerank := rerank.Enabled(r.cfg.RerankEnabled, opts.Rerank)
	if useRerank && len(ordered) > 0 {
		ordered = r.rerankHead(text, candidates, ordered, scores, k)
	}

	if len(ordered) > k {
		ordered = ordered[:k]
	}

	query := domain.Query{
		ID:        domain.NewID("qry"),
		Text:      text,
		Filters:   opts.Filters,
		Reranked:  useRerank,
		CreatedAt: domain.NowMS(),
	}
	results := buildResults(query.ID, candidates, ordered, scores)

	if err := r.queryStore.SaveQueryRecord(ctx, query, results); err != nil {
		return nil, fmt.Errorf("persisting query: %w", err)
	}

	logger.Debug("Query %s: %d result(s)", query.ID, len(results))
	return &domain.QueryResponse{QueryID: query.ID, Results: results}, nil
}

// Why replays the persisted results of a prior query verbatim.
func (r *Retriever) Why(ctx context.Context, queryID string) (*domain.QueryResponse, error) {
	results, err := r.queryStore.GetQueryResults(ctx, queryID)
	if err != nil {
		return nil, err
	}
	return &domain.QueryResponse{QueryID: queryID, Results: results}, nil
}

// hydrate joins vector hits with their chunk, document and source
// rows. Hits whose chunk no longer exists are dropped.
func (r *Retriever) hydrate(ctx context.Context, hits []driven.VectorHit) (map[string]*domain.Candidate, []string, error) {
	if len(hits) == 0 {
		return map[string]*domain.Candidate{}, nil, nil
	}

	chunkIDs := make([]string, len(hits))
	for i, hit := range hits {
		chunkIDs[i] = hit.ChunkID
	}

	candidates, err := r.docStore.GetCandidates(ctx, chunkIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("hydrating candidates: %w", err)
	}

	ordered := make([]string, 0, len(hits))
	for _, hit := range hits {
		candidate, ok := candidates[hit.ChunkID]
		if !ok {
			continue
		}
		candidate.DenseScore = hit.Score
		ordered = append(ordered, hit.ChunkID)
	}
	return candidates, ordered, nil
}

// applyFilters narrows the ordered candidate list. All present filters
// must hold; the tag filter requires a document to carry every tag.
func (r *Retriever) applyFilters(ctx context.Context, candidates map[string]*domain.Candidate, ordered []string, filters domain.QueryFilters) ([]string, error) {
	if filters.Empty() || len(ordered) == 0 {
		return ordered, nil
	}

	sourceSet := stringSet(filters.SourceIDs)
	docSet := stringSet(filters.DocumentIDs)

	kept := make([]string, 0, len(ordered))
	for _, id := range ordered {
		candidate := candidates[id]
		if len(sourceSet) > 0 && !sourceSet[candidate.SourceID] {
			continue
		}
		if len(docSet) > 0 && !docSet[candidate.DocumentID] {
			continue
		}
		kept = append(kept, id)
	}

	if len(filters.Tags) > 0 && len(kept) > 0 {
		docIDs := make([]string, 0, len(kept))
		seen := map[string]bool{}
		for _, id := range kept {
			docID := candidates[id].DocumentID
			if !seen[docID] {
				seen[docID] = true
				docIDs = append(docIDs, docID)
			}
		}
		tagged, err := r.docStore.DocumentIDsWithAllTags(ctx, docIDs, filters.Tags)
		if err != nil {
			return nil, fmt.Errorf("tag filter: %w", err)
		}
		filtered := kept[:0]
		for _, id := range kept {
			if tagged[candidates[id].DocumentID] {
				filtered = append(filtered, id)
			}
		}
		kept = filtered
	}

	logger.Debug("Filters kept %d of %d candidate(s)", len(kept), len(ordered))
	return kept, nil
}

// fuse merges the dense ranking with a lexical ranking over the same
// candidates via reciprocal rank fusion.
func (r *Retriever) fuse(text string, candidates map[string]*domain.Candidate, ordered []string) []string {
	if len(ordered) == 0 {
		return ordered
	}

	docs := make([]driven.LexicalDoc, len(ordered))
	for i, id := range ordered {
		docs[i] = driven.LexicalDoc{ID: id, Text: candidates[id].Text}
	}

	lexHits := r.lexical.Rank(text, docs)
	lexOrdered := make([]string, len(lexHits))
	for i, hit := range lexHits {
		lexOrdered[i] = hit.ID
		candidates[hit.ID].LexicalScore = hit.Score
	}

	fused := ranking.ReciprocalRankFusion([][]string{ordered, lexOrdered}, r.cfg.RRFWeight)
	out := make([]string, len(fused))
	for i, item := range fused {
		out[i] = item.ID
		candidates[item.ID].FusedScore = item.Score
	}
	return out
}

// diversify reorders the full candidate list with maximal marginal
// relevance so near-duplicate passages do not crowd the head.
func (r *Retriever) diversify(candidates map[string]*domain.Candidate, ordered []string, k int) []string {
	mmrCands := make([]ranking.MMRCandidate, len(ordered))
	for i, id := range ordered {
		mmrCands[i] = ranking.MMRCandidate{
			ID:        id,
			Relevance: candidates[id].Relevance(),
			Text:      candidates[id].Text,
		}
	}
	topK := len(ordered)
	if k > topK {
		topK = k
	}
	return ranking.MMR(mmrCands, topK, r.cfg.MMRLambda, nil)
}

// rerankHead reorders the shortlist head with the second-pass model.
// The head covers twice the requested result count so near-misses can
// climb in. Only the order changes; the persisted score stays the
// fused (or dense) relevance.
func (r *Retriever) rerankHead(text string, candidates map[string]*domain.Candidate, ordered []string, scores map[string]float64, k int) []string {
	head := 2 * k
	if head < k+2 {
		head = k + 2
	}

	rcands := make([]driven.RerankCandidate, len(ordered))
	for i, id := range ordered {
		rcands[i] = driven.RerankCandidate{
			ChunkID: id,
			Text:    candidates[id].Text,
			Score:   scores[id],
		}
	}

	reranked := r.reranker.Rerank(text, rcands, head)
	out := make([]string, len(reranked))
	for i, rc := range reranked {
		out[i] = rc.ChunkID
	}
	return out
}

// buildResults maps the final ordering onto persisted result records,
// each carrying full provenance including a character-span deep link.
func buildResults(queryID string, candidates map[string]*domain.Candidate, ordered []string, scores map[string]float64) []domain.QueryResult {
	results := make([]domain.QueryResult, len(ordered))
	for i, id := range ordered {
		candidate := candidates[id]
		score := scores[id]
		results[i] = domain.QueryResult{
			ChunkID:    candidate.ChunkID,
			DocumentID: candidate.DocumentID,
			Score:      score,
			Text:       candidate.Text,
			StartChar:  candidate.StartChar,
			EndChar:    candidate.EndChar,
			Provenance: domain.Provenance{
				QueryID:    queryID,
				Rank:       i,
				Score:      score,
				SourceID:   candidate.SourceID,
				DocumentID: candidate.DocumentID,
				ExternalID: candidate.ExternalID,
				URI:        candidate.URI,
				DeepLink:   DeepLink(candidate.ExternalID, candidate.StartChar, candidate.EndChar),
				Meta:       candidate.Meta,
			},
		}
	}
	return results
}

// DeepLink formats the character-span locator for a passage.
func DeepLink(externalID string, startChar, endChar int) string {
	return fmt.Sprintf("%s#char=%d-%d", externalID, startChar, endChar)
}

func stringSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
