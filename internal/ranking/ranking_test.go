package ranking

import (
	"testing"

	"github.com/recallhq/recall/internal/core/ports/driven"
)

func TestReciprocalRankFusion(t *testing.T) {
	dense := []string{"a", "b", "c"}
	lexical := []string{"b", "a", "d"}
	fused := ReciprocalRankFusion([][]string{dense, lexical}, 60)
	if len(fused) != 4 {
		t.Fatalf("got %d items, want 4", len(fused))
	}
	// a: 1/61 + 1/62, b: 1/61 + 1/62, c: 1/63, d: 1/63.
	// Equal scores break on id, so a before b and c before d.
	wantOrder := []string{"a", "b", "c", "d"}
	for i, want := range wantOrder {
		if fused[i].ID != want {
			t.Errorf("position %d = %s, want %s", i, fused[i].ID, want)
		}
	}
	if fused[0].Score <= fused[2].Score {
		t.Errorf("doubly ranked id %f not above singly ranked %f", fused[0].Score, fused[2].Score)
	}
}

func TestReciprocalRankFusionIgnoresInputListOrder(t *testing.T) {
	dense := []string{"x", "y"}
	lexical := []string{"y", "z"}
	a := ReciprocalRankFusion([][]string{dense, lexical}, 60)
	b := ReciprocalRankFusion([][]string{lexical, dense}, 60)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("position %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestReciprocalRankFusionEmpty(t *testing.T) {
	if got := ReciprocalRankFusion(nil, 60); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestBM25RanksTermMatchFirst(t *testing.T) {
	docs := []driven.LexicalDoc{
		{ID: "cooking", Text: "a recipe for sourdough bread and butter"},
		{ID: "golang", Text: "goroutines and channels make concurrency simple"},
		{ID: "mixed", Text: "bread crumbs in a concurrency talk"},
	}
	hits := NewBM25().Rank("sourdough bread", docs)
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want all 3", len(hits))
	}
	if hits[0].ID != "cooking" {
		t.Errorf("top hit = %s, want cooking", hits[0].ID)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not sorted descending at %d", i)
		}
	}
	if hits[len(hits)-1].ID != "golang" {
		t.Errorf("last hit = %s, want the no-match doc", hits[len(hits)-1].ID)
	}
}

func TestBM25Empty(t *testing.T) {
	if got := NewBM25().Rank("anything", nil); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestOverlapScoresAndSorts(t *testing.T) {
	docs := []driven.LexicalDoc{
		{ID: "short", Text: "alpha beta"},
		{ID: "long", Text: "alpha beta and a great many other unrelated words here"},
		{ID: "none", Text: "nothing relevant"},
	}
	hits := Overlap{}.Rank("alpha beta", docs)
	if hits[0].ID != "short" {
		t.Errorf("top = %s, want the short doc (length penalty)", hits[0].ID)
	}
	if hits[2].ID != "none" || hits[2].Score != 0 {
		t.Errorf("no-match doc = %v, want zero score last", hits[2])
	}
}

func TestOverlapCountsDistinctTerms(t *testing.T) {
	docs := []driven.LexicalDoc{{ID: "rep", Text: "alpha alpha alpha"}}
	hits := Overlap{}.Rank("alpha", docs)
	// One distinct matched term over 1+3 tokens.
	if want := 1.0 / 4.0; hits[0].Score != want {
		t.Errorf("score = %f, want %f", hits[0].Score, want)
	}
}

func TestMMRPureRelevance(t *testing.T) {
	cands := []MMRCandidate{
		{ID: "low", Relevance: 0.1, Text: "one"},
		{ID: "high", Relevance: 0.9, Text: "two"},
		{ID: "mid", Relevance: 0.5, Text: "three"},
	}
	got := MMR(cands, 3, 1.0, nil)
	want := []string{"high", "mid", "low"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestMMRPenalisesNearDuplicates(t *testing.T) {
	cands := []MMRCandidate{
		{ID: "first", Relevance: 0.9, Text: "the cache stores recent documents"},
		{ID: "dupe", Relevance: 0.85, Text: "the cache stores recent documents"},
		{ID: "other", Relevance: 0.5, Text: "watching folders for new files"},
	}
	got := MMR(cands, 2, 0.5, nil)
	if len(got) != 2 {
		t.Fatalf("got %d ids, want 2", len(got))
	}
	if got[0] != "first" || got[1] != "other" {
		t.Errorf("got %v, want [first other]", got)
	}
}

func TestMMRTopKExceedsCandidates(t *testing.T) {
	cands := []MMRCandidate{
		{ID: "a", Relevance: 0.2, Text: "aa"},
		{ID: "b", Relevance: 0.4, Text: "bb"},
	}
	got := MMR(cands, 10, 0.5, nil)
	if len(got) != 2 {
		t.Errorf("got %d ids, want all candidates", len(got))
	}
}

func TestTokenSetSimilarity(t *testing.T) {
	if got := TokenSetSimilarity("alpha beta", "alpha beta"); got != 1.0 {
		t.Errorf("identical texts = %f, want 1.0", got)
	}
	if got := TokenSetSimilarity("alpha", "beta"); got != 0 {
		t.Errorf("disjoint texts = %f, want 0", got)
	}
	if got := TokenSetSimilarity("", "anything"); got != 0 {
		t.Errorf("empty text = %f, want 0", got)
	}
	got := TokenSetSimilarity("alpha beta", "beta gamma")
	if want := 1.0 / 3.0; got != want {
		t.Errorf("partial overlap = %f, want %f", got, want)
	}
}
