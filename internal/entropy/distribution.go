// Package entropy aggregates weighted feedback outcomes into the 243-way
// pattern distribution of a guess and reduces it to Shannon entropy.
package entropy

import (
	"fmt"
	"math"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/word"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
)

// Distribution is the probability of each feedback pattern, indexed by
// match.Result.Index.
type Distribution [match.Patterns]float64

// Candidate is a possible secret and its plausibility weight.
type Candidate struct {
	Word   word.Encoding
	Weight float64
}

// Outcome is a candidate's feedback against a guess, kept so a caller can
// later filter candidates by the pattern actually observed.
type Outcome struct {
	Result match.Result
	Weight float64
}

// PatternDistribution computes the normalised distribution of the feedback
// guess would receive across candidates.
func PatternDistribution(guess word.Encoding, candidates []Candidate) (Distribution, error) {
	outcomes := make([]Outcome, len(candidates))
	for i, c := range candidates {
		outcomes[i] = Outcome{Result: match.Compute(guess, c.Word), Weight: c.Weight}
	}
	return FromOutcomes(outcomes)
}

// FromOutcomes accumulates precomputed outcomes. A zero total weight means
// there is nothing to normalise by and is reported as ErrEmptyCandidateSet.
func FromOutcomes(outcomes []Outcome) (Distribution, error) {
	var d Distribution
	var total float64
	for _, o := range outcomes {
		if o.Weight < 0 {
			return Distribution{}, fmt.Errorf("negative weight %v for pattern %s", o.Weight, o.Result)
		}
		d[o.Result.Index()] += o.Weight
		total += o.Weight
	}
	if total <= 0 {
		return Distribution{}, fmt.Errorf("%w: %d candidates, total weight %v",
			apperrors.ErrEmptyCandidateSet, len(outcomes), total)
	}
	for i := range d {
		d[i] /= total
	}
	return d, nil
}

// Entropy returns the Shannon entropy of d in bits. Empty buckets contribute 0.
func Entropy(d Distribution) float64 {
	var h float64
	for _, p := range d {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}

func (d Distribution) Sum() float64 {
	var s float64
	for _, p := range d {
		s += p
	}
	return s
}
