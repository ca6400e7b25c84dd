// Package cost defines the scaled-negative-log-probability cost convention
// used throughout the recognition pipeline: zero means certainty, WorstCost
// means impossibility, and every intermediate cost is an integer
// proportional to -log(probability).
package cost

import "math"

const (
	// Scale applied to -log(probability) to keep costs in a useful integer
	// range. Every Prob2Cost/Cost2Prob pair must use the same scale.
	Scale = 10000.0

	// MinProbCost is Prob2Cost(0): a large sentinel standing in for "no
	// chance at all" without overflowing downstream integer additions.
	MinProbCost = 100000

	// WorstCost is a finite upper bound strictly greater than any cost a
	// real recognition can produce, used so callers can threshold failures
	// without special-casing a sentinel.
	WorstCost = 1000000

	// minProbForLog avoids log(0); probabilities below this saturate at
	// MinProbCost rather than +Inf.
	minProbForLog = 1e-4
)

// Prob2Cost converts a probability in [0, 1] to an integer cost. Monotone
// non-increasing in prob: Prob2Cost(0) == MinProbCost, Prob2Cost(1) == 0.
func Prob2Cost(prob float64) int {
	if prob <= minProbForLog {
		return MinProbCost
	}
	if prob >= 1.0 {
		return 0
	}
	c := int(-Scale * math.Log(prob))
	if c > MinProbCost {
		return MinProbCost
	}
	if c < 0 {
		return 0
	}
	return c
}

// Cost2Prob inverts Prob2Cost: Cost2Prob(Prob2Cost(p)) ~= p within the
// rounding induced by the integer scale.
func Cost2Prob(c int) float64 {
	if c <= 0 {
		return 1.0
	}
	if c >= MinProbCost {
		return 0.0
	}
	return math.Exp(-float64(c) / Scale)
}
