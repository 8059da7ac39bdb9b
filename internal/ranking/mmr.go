package ranking

import "strings"

// DefaultMMRLambda balances relevance against diversity in MMR.
const DefaultMMRLambda = 0.5

// MMRCandidate is one entry considered for diversified selection.
type MMRCandidate struct {
	ID        string
	Relevance float64
	Text      string
}

// SimilarityFunc scores how alike two passages are, in [0, 1].
type SimilarityFunc func(a, b string) float64

// MMR selects up to topK candidates by maximal marginal relevance:
// each round picks the candidate maximising
// lambda*relevance - (1-lambda)*max_similarity_to_selected.
// A nil similarity falls back to token-set Jaccard. Candidate order
// breaks ties, so equal scores keep the incoming ranking.
func MMR(candidates []MMRCandidate, topK int, lambda float64, similarity SimilarityFunc) []string {
	if len(candidates) == 0 || topK <= 0 {
		return nil
	}
	if similarity == nil {
		similarity = TokenSetSimilarity
	}

	remaining := make([]MMRCandidate, len(candidates))
	copy(remaining, candidates)
	var selected []MMRCandidate
	var out []string

	for len(remaining) > 0 && len(selected) < topK {
		bestIdx := -1
		bestScore := 0.0
		for i, cand := range remaining {
			diversity := 0.0
			for _, chosen := range selected {
				if sim := similarity(cand.Text, chosen.Text); sim > diversity {
					diversity = sim
				}
			}
			score := lambda*cand.Relevance - (1-lambda)*diversity
			if bestIdx == -1 || score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}
		selected = append(selected, remaining[bestIdx])
		out = append(out, remaining[bestIdx].ID)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return out
}

// TokenSetSimilarity is Jaccard similarity over lowercased token sets.
func TokenSetSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for term := range setA {
		if setB[term] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, term := range strings.Fields(strings.ToLower(text)) {
		set[term] = true
	}
	return set
}
