package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/recallhq/recall/internal/core/ports/driven"
)

// BM25 parameter defaults.
const (
	DefaultBM25K1 = 1.5
	DefaultBM25B  = 0.75
)

// BM25 ranks candidates with Okapi BM25 computed over the candidate
// set itself. Term statistics are per-query, not corpus-wide, which is
// accurate enough for shortlists of a few hundred passages.
type BM25 struct {
	K1 float64
	B  float64
}

// NewBM25 returns a ranker with the standard parameters.
func NewBM25() *BM25 {
	return &BM25{K1: DefaultBM25K1, B: DefaultBM25B}
}

// Rank scores every doc against the query and returns them ordered by
// descending score. Ties keep candidate order.
func (r *BM25) Rank(query string, docs []driven.LexicalDoc) []driven.LexicalHit {
	if len(docs) == 0 {
		return nil
	}

	tokened := make([][]string, len(docs))
	df := make(map[string]int)
	totalLen := 0
	for i, doc := range docs {
		tokened[i] = tokenize(doc.Text)
		totalLen += len(tokened[i])
		seen := make(map[string]bool)
		for _, term := range tokened[i] {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}
	avgLen := float64(totalLen) / float64(len(docs))
	if avgLen == 0 {
		avgLen = 1
	}

	n := float64(len(docs))
	idf := func(term string) float64 {
		d := float64(df[term])
		return math.Log(1 + (n-d+0.5)/(d+0.5))
	}

	queryTerms := tokenize(query)
	hits := make([]driven.LexicalHit, len(docs))
	for i, doc := range docs {
		tf := make(map[string]int, len(tokened[i]))
		for _, term := range tokened[i] {
			tf[term]++
		}
		docLen := float64(len(tokened[i]))
		var score float64
		for _, term := range queryTerms {
			freq := float64(tf[term])
			if freq == 0 {
				continue
			}
			norm := r.K1 * (1 - r.B + r.B*docLen/avgLen)
			score += idf(term) * freq * (r.K1 + 1) / (freq + norm)
		}
		hits[i] = driven.LexicalHit{ID: doc.ID, Score: score}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}

// Overlap is the deterministic fallback ranker: the count of query
// terms present in a doc, damped by document length.
type Overlap struct{}

// Rank scores docs by query-term overlap with a length penalty and
// returns them ordered by descending score.
func (Overlap) Rank(query string, docs []driven.LexicalDoc) []driven.LexicalHit {
	if len(docs) == 0 {
		return nil
	}
	queryTerms := make(map[string]bool)
	for _, term := range tokenize(query) {
		queryTerms[term] = true
	}
	hits := make([]driven.LexicalHit, len(docs))
	for i, doc := range docs {
		terms := tokenize(doc.Text)
		matched := make(map[string]bool)
		for _, term := range terms {
			if queryTerms[term] {
				matched[term] = true
			}
		}
		score := float64(len(matched)) / (1.0 + float64(len(terms)))
		hits[i] = driven.LexicalHit{ID: doc.ID, Score: score}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}

// tokenize lowercases and splits on whitespace.
func tokenize(text string) []string {
	fields := strings.Fields(text)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}
