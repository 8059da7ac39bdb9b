package domain

// QueryFilters narrow a query's candidate set. All present filters must
// hold; Tags requires a document to carry every listed tag.
type QueryFilters struct {
	SourceIDs   []string `json:"source_ids,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Empty reports whether no filter is set.
func (f QueryFilters) Empty() bool {
	return len(f.SourceIDs) == 0 && len(f.DocumentIDs) == 0 && len(f.Tags) == 0
}

// Query captures one retrieval call: the literal query text, applied
// filters, and whether reranking ran.
type Query struct {
	// ID is the unique identifier for the query.
	ID string

	// Text is the literal query text.
	Text string

	// Filters are the filters that were applied.
	Filters QueryFilters

	// Reranked records whether the reranker ran for this query.
	Reranked bool

	// CreatedAt is when the query was executed, epoch ms.
	CreatedAt int64
}

// Provenance explains why a result was returned. It is persisted with
// each QueryResult so the ranking can be reconstructed verbatim later,
// independent of the live index state.
type Provenance struct {
	QueryID    string         `json:"query_id"`
	Rank       int            `json:"rank"`
	Score      float64        `json:"score"`
	SourceID   string         `json:"source_id"`
	DocumentID string         `json:"document_id"`
	ExternalID string         `json:"external_id"`
	URI        string         `json:"uri,omitempty"`
	DeepLink   string         `json:"deep_link"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// QueryResult is one ranked chunk returned for a query.
type QueryResult struct {
	ChunkID    string     `json:"chunk_id"`
	DocumentID string     `json:"document_id"`
	Score      float64    `json:"score"`
	Text       string     `json:"text"`
	StartChar  int        `json:"start_char"`
	EndChar    int        `json:"end_char"`
	Provenance Provenance `json:"provenance"`
}

// QueryResponse is the caller-visible result set for a query, also
// returned verbatim by the why lookup.
type QueryResponse struct {
	QueryID string        `json:"query_id"`
	Results []QueryResult `json:"results"`
}

// Candidate is a hydrated retrieval candidate flowing through the query
// orchestrator: a chunk joined with its document and source attributes
// plus the evolving scores.
type Candidate struct {
	ChunkID    string
	DocumentID string
	SourceID   string
	ExternalID string
	URI        string
	Text       string
	StartChar  int
	EndChar    int
	Meta       map[string]any

	// DenseScore is the cosine similarity from the vector search.
	DenseScore float64

	// LexicalScore is the term-based score, zero when absent from the
	// lexical ranking.
	LexicalScore float64

	// FusedScore is the reciprocal-rank-fusion score, or the dense
	// score when fusion did not run.
	FusedScore float64
}

// Relevance returns the best available score for ranking decisions.
func (c *Candidate) Relevance() float64 {
	if c.FusedScore != 0 {
		return c.FusedScore
	}
	return c.DenseScore
}
