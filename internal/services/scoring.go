package services

import "strings"

const (
	DefaultSimilarityWeight = 0.7
	DefaultMatchWeight      = 0.3
)

// ScoreWeights balance vector similarity against skill overlap.
type ScoreWeights struct {
	Similarity float64
	Match      float64
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Similarity: DefaultSimilarityWeight, Match: DefaultMatchWeight}
}

// Normalized scales the weights to sum to 1. A pair summing to zero or less
// falls back to the defaults.
func (w ScoreWeights) Normalized() ScoreWeights {
	total := w.Similarity + w.Match
	if total <= 0 {
		return DefaultScoreWeights()
	}
	return ScoreWeights{Similarity: w.Similarity / total, Match: w.Match / total}
}

// MatchRatio is the share of query skills present in matched, in [0,1].
// It is 0 for an empty query.
func MatchRatio(matched, query []string) float64 {
	if len(query) == 0 {
		return 0
	}

	have := make(map[string]struct{}, len(matched))
	for _, m := range matched {
		have[strings.ToLower(m)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(query))
	hits := 0
	for _, q := range query {
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := have[key]; ok {
			hits++
		}
	}

	return clamp01(float64(hits) / float64(len(seen)))
}

// FinalScore combines similarity and match ratio into one ranking score in [0,1].
func FinalScore(similarity, matchRatio float64, weights ScoreWeights) float64 {
	w := weights.Normalized()
	return clamp01(clamp01(similarity)*w.Similarity + clamp01(matchRatio)*w.Match)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
