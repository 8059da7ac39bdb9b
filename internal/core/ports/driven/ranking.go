package driven

// LexicalDoc is one candidate passage handed to the lexical ranker.
type LexicalDoc struct {
	ID   string
	Text string
}

// LexicalHit is one scored passage from the lexical ranker.
type LexicalHit struct {
	ID    string
	Score float64
}

// LexicalRanker scores candidates against a query using term statistics.
// Two variants exist, selected at construction time: a full BM25
// ranking over the candidate set, and a deterministic term-overlap
// fallback with a length penalty.
type LexicalRanker interface {
	// Rank returns all docs scored and ordered by descending score.
	Rank(query string, docs []LexicalDoc) []LexicalHit
}

// RerankCandidate is one shortlist entry handed to the reranker.
type RerankCandidate struct {
	ChunkID string
	Text    string
	Score   float64
}

// Reranker re-scores a shortlist with a second-pass model.
//
// Only the first topK candidates are re-scored; the remainder is
// appended unscored in original order. Rerank never drops candidates,
// it only reorders the head.
type Reranker interface {
	Rerank(query string, candidates []RerankCandidate, topK int) []RerankCandidate
}
