package solver

import "math"

const (
	// DefaultPriorMidpoint is the rank at which a word is half as plausible
	// as the most common words.
	DefaultPriorMidpoint = 1500.0
	// DefaultPriorSteepness controls how sharply plausibility falls off
	// around the midpoint.
	DefaultPriorSteepness = 0.05
)

// sigmoid is a logistic curve decreasing in rank.
func sigmoid(rank, midpoint, steepness float64) float64 {
	return 1 / (1 + math.Exp(steepness*(rank-midpoint)))
}

// computePrior fills prior (sized to the dictionary) with normalised
// rank-based weights over possibilities and zero elsewhere. If every weight
// underflows to zero the set is weighted uniformly instead.
func computePrior(prior []float64, possibilities []int, midpoint, steepness float64) {
	for i := range prior {
		prior[i] = 0
	}
	var sum float64
	for _, idx := range possibilities {
		w := sigmoid(float64(idx), midpoint, steepness)
		prior[idx] = w
		sum += w
	}
	if sum <= 0 {
		if len(possibilities) == 0 {
			return
		}
		u := 1 / float64(len(possibilities))
		for _, idx := range possibilities {
			prior[idx] = u
		}
		return
	}
	for _, idx := range possibilities {
		prior[idx] /= sum
	}
}
