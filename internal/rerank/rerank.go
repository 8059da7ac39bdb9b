// Package rerank re-scores retrieval shortlists with a second-pass
// text similarity model.
package rerank

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/recallhq/recall/internal/core/ports/driven"
)

// Similarity scores query/passage affinity in [0, 1].
type Similarity func(query, text string) float64

// Scorer reranks a shortlist by fuzzy similarity to the query. It
// never drops candidates: entries past the shortlist head keep their
// incoming order behind the re-scored head.
type Scorer struct {
	similarity Similarity
}

// Option configures the scorer.
type Option func(*Scorer)

// WithSimilarity replaces the default similarity function.
func WithSimilarity(fn Similarity) Option {
	return func(s *Scorer) {
		if fn != nil {
			s.similarity = fn
		}
	}
}

// NewScorer builds a reranker. The default similarity is Sorensen-Dice
// over bigrams of the lowercased texts.
func NewScorer(opts ...Option) *Scorer {
	dice := metrics.NewSorensenDice()
	s := &Scorer{
		similarity: func(query, text string) float64 {
			return strutil.Similarity(strings.ToLower(query), strings.ToLower(text), dice)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rerank re-scores the first topK candidates and sorts them by
// descending similarity; the remainder follows unscored in its
// original order. A non-positive topK re-scores everything.
func (s *Scorer) Rerank(query string, candidates []driven.RerankCandidate, topK int) []driven.RerankCandidate {
	if len(candidates) == 0 {
		return nil
	}
	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}

	head := make([]driven.RerankCandidate, topK)
	copy(head, candidates[:topK])
	for i := range head {
		head[i].Score = s.similarity(query, head[i].Text)
	}
	sort.SliceStable(head, func(i, j int) bool { return head[i].Score > head[j].Score })

	out := make([]driven.RerankCandidate, 0, len(candidates))
	out = append(out, head...)
	out = append(out, candidates[topK:]...)
	return out
}

// Enabled resolves the rerank decision: an explicit override wins,
// otherwise the configured default applies.
func Enabled(configured bool, override *bool) bool {
	if override != nil {
		return *override
	}
	return configured
}
