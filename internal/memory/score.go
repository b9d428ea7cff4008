package memory

import (
	"math"
	"time"
)

// similarityFromDistance maps a Euclidean distance to (0, 1],
// monotonically decreasing in distance.
func similarityFromDistance(distance float64) float64 {
	return 1 / (1 + distance)
}

// relevance combines similarity, importance, recency decay and access
// frequency into a single ranking score:
//
//	similarity × importance × exp(-ageDays/decayDays) × (1 + accessCount/10)
//
// Retrieve calls it with the real query similarity; prune calls it with
// similarity 1.0, yielding a query-independent retention score.
func relevance(similarity, importance, ageDays float64, accessCount int, decayDays float64) float64 {
	decay := math.Exp(-ageDays / decayDays)
	accessBoost := 1 + float64(accessCount)/10
	return similarity * importance * decay * accessBoost
}

// ageDays truncates to whole days, so records created within the same
// day share a decay factor and ranking falls back to tie-breaking
// rules instead of sub-day timestamp noise.
func ageDays(now, created time.Time) float64 {
	d := now.Sub(created).Hours() / 24
	if d < 0 {
		return 0
	}
	return math.Trunc(d)
}
