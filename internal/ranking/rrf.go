// Package ranking implements the fusion, lexical scoring and
// diversification stages of hybrid retrieval.
package ranking

import "sort"

// DefaultRRFWeight is the K constant in the 1/(K+rank) contribution.
const DefaultRRFWeight = 60.0

// RankedItem is one fused entry with its accumulated score.
type RankedItem struct {
	ID    string
	Score float64
}

// ReciprocalRankFusion merges ranked id lists. Each appearance of an
// id at 1-based rank r contributes 1/(weight+r); absolute scores from
// the source rankings are ignored. Ties break on id so the output is
// deterministic regardless of input list order.
func ReciprocalRankFusion(rankings [][]string, weight float64) []RankedItem {
	if weight <= 0 {
		weight = DefaultRRFWeight
	}
	scores := make(map[string]float64)
	for _, hits := range rankings {
		for i, id := range hits {
			scores[id] += 1.0 / (weight + float64(i+1))
		}
	}
	fused := make([]RankedItem, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, RankedItem{ID: id, Score: score})
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ID < fused[j].ID
	})
	return fused
}
