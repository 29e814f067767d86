// Package solver drives the round-by-round guess selection: it owns the
// possibility set and the rank prior, proposes the next guess under one of two
// policies, and narrows the set from observed feedback.
//
// A Session is single-threaded. Step is a CPU-bound scan over the dictionary
// with no I/O; concurrent play uses one Session per goroutine or process.
package solver

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/calibration"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/entropy"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/word"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/logger"
)

// Options configures a Session. Zero prior parameters select the defaults;
// MaxRounds of 0 disables the round cap.
type Options struct {
	Policy         Policy
	Curve          *calibration.Curve
	PriorMidpoint  float64
	PriorSteepness float64
	MaxRounds      int
}

// Proposal is the guess Step (or Adopt) put forward for the current round.
type Proposal struct {
	Index   int
	Word    word.Encoding
	Entropy float64
	// ExpectedScore is +Inf under MaximizeEntropy.
	ExpectedScore float64
	Policy        Policy
}

// Round is one answered guess.
type Round struct {
	Guess    word.Encoding
	Index    int
	Feedback match.Result
	Before   int
	After    int
}

type Session struct {
	dict      *word.Dictionary
	policy    Policy
	curve     *calibration.Curve
	midpoint  float64
	steepness float64
	maxRounds int
	logger    *slog.Logger

	prior         []float64
	possibilities []int
	guessed       *bitset.BitSet
	history       []Round
	state         State

	proposal *Proposal
	// results[j] is the proposal's feedback against possibilities[j].
	results []match.Result

	outcomes []entropy.Outcome
}

// New creates a Fresh session over dict. MinimizeScore without a usable curve
// falls back to MaximizeEntropy.
func New(dict *word.Dictionary, opts Options) (*Session, error) {
	if dict == nil || dict.Len() == 0 {
		return nil, fmt.Errorf("%w: dictionary is empty", apperrors.ErrEmptyCandidateSet)
	}
	if opts.MaxRounds < 0 {
		return nil, fmt.Errorf("max rounds must not be negative, got %d", opts.MaxRounds)
	}
	s := &Session{
		dict:      dict,
		policy:    opts.Policy,
		curve:     opts.Curve,
		midpoint:  opts.PriorMidpoint,
		steepness: opts.PriorSteepness,
		maxRounds: opts.MaxRounds,
		logger:    logger.WithComponent("solver"),
		prior:     make([]float64, dict.Len()),
		guessed:   bitset.New(uint(dict.Len())),
	}
	if s.midpoint == 0 {
		s.midpoint = DefaultPriorMidpoint
	}
	if s.steepness == 0 {
		s.steepness = DefaultPriorSteepness
	}
	if s.policy == MinimizeScore && s.curve.Empty() {
		s.logger.Warn("calibration curve unavailable, falling back",
			"requested", MinimizeScore,
			"policy", MaximizeEntropy,
			"error", apperrors.ErrCurveUnavailable,
		)
		s.policy = MaximizeEntropy
	}
	s.Reset()
	return s, nil
}

// Reset returns the session to Fresh: every dictionary word is possible again,
// the guess history is cleared and the prior recomputed.
func (s *Session) Reset() {
	n := s.dict.Len()
	if cap(s.possibilities) < n {
		s.possibilities = make([]int, n)
	}
	s.possibilities = s.possibilities[:n]
	for i := range s.possibilities {
		s.possibilities[i] = i
	}
	s.guessed.ClearAll()
	s.history = s.history[:0]
	s.clearProposal()
	s.UpdatePrior()
	s.state = Fresh
	if n == 1 {
		s.state = Solved
	}
}

// UpdatePrior recomputes the rank prior over the current possibility set.
func (s *Session) UpdatePrior() {
	computePrior(s.prior, s.possibilities, s.midpoint, s.steepness)
}

// Step proposes the next guess. Every dictionary word not yet guessed in this
// session is scored against the prior-weighted possibility set. When a single
// candidate remains it is proposed directly.
func (s *Session) Step() (Proposal, error) {
	if s.state == Exhausted {
		return Proposal{}, fmt.Errorf("%w: round cap of %d reached", apperrors.ErrNoGuessAvailable, s.maxRounds)
	}
	prev := s.state
	s.state = Proposing
	s.clearProposal()

	if len(s.possibilities) == 1 {
		if p, ok := s.proposeSolution(); ok {
			return p, nil
		}
	}

	remainingBits := math.Log2(float64(len(s.possibilities)))
	best := Proposal{Index: -1, ExpectedScore: math.Inf(1), Policy: s.policy}
	if cap(s.outcomes) < len(s.possibilities) {
		s.outcomes = make([]entropy.Outcome, len(s.possibilities))
	}
	outcomes := s.outcomes[:len(s.possibilities)]
	bestResults := make([]match.Result, len(s.possibilities))

	for i, guess := range s.dict.Words() {
		if s.guessed.Test(uint(i)) {
			continue
		}
		for j, idx := range s.possibilities {
			outcomes[j] = entropy.Outcome{
				Result: match.Compute(guess, s.dict.At(idx)),
				Weight: s.prior[idx],
			}
		}
		dist, err := entropy.FromOutcomes(outcomes)
		if err != nil {
			s.state = prev
			return Proposal{}, fmt.Errorf("scoring %s: %w", guess, err)
		}
		h := entropy.Entropy(dist)

		switch s.policy {
		case MaximizeEntropy:
			if h <= best.Entropy {
				continue
			}
		case MinimizeScore:
			moves, err := s.curve.Interpolate(remainingBits - h)
			if err != nil {
				s.state = prev
				return Proposal{}, fmt.Errorf("scoring %s: %w", guess, err)
			}
			// The prior is indexed by dictionary rank, so an implausible
			// word is charged nearly the full cost of the remaining moves.
			score := 1 + (1-s.prior[i])*moves
			if score >= best.ExpectedScore {
				continue
			}
			best.ExpectedScore = score
		}
		best.Index = i
		best.Word = guess
		best.Entropy = h
		for j := range outcomes {
			bestResults[j] = outcomes[j].Result
		}
	}

	if best.Index < 0 {
		// No guess separates the weighted candidates, e.g. when the prior
		// puts all its mass on one of them. Guess the most plausible one.
		if p, ok := s.proposeLikeliest(); ok {
			return p, nil
		}
		s.state = prev
		return Proposal{}, fmt.Errorf("%w: %d candidates remain, %d words guessed",
			apperrors.ErrNoGuessAvailable, len(s.possibilities), len(s.history))
	}
	s.proposal = &best
	s.results = bestResults
	s.state = AwaitingFeedback
	s.logger.Debug("guess proposed",
		"guess", best.Word.String(),
		"policy", s.policy,
		"entropy", best.Entropy,
		"expected_score", best.ExpectedScore,
		"remaining", len(s.possibilities),
	)
	return best, nil
}

func (s *Session) proposeSolution() (Proposal, bool) {
	idx := s.possibilities[0]
	if s.guessed.Test(uint(idx)) {
		return Proposal{}, false
	}
	p := Proposal{
		Index:         idx,
		Word:          s.dict.At(idx),
		ExpectedScore: 1,
		Policy:        s.policy,
	}
	if s.policy == MaximizeEntropy {
		p.ExpectedScore = math.Inf(1)
	}
	s.proposal = &p
	s.results = []match.Result{match.Compute(p.Word, p.Word)}
	s.state = AwaitingFeedback
	return p, true
}

func (s *Session) proposeLikeliest() (Proposal, bool) {
	best := -1
	for _, idx := range s.possibilities {
		if s.guessed.Test(uint(idx)) {
			continue
		}
		if best < 0 || s.prior[idx] > s.prior[best] {
			best = idx
		}
	}
	if best < 0 {
		return Proposal{}, false
	}
	p := Proposal{Index: best, ExpectedScore: math.Inf(1), Policy: s.policy}
	if err := s.Adopt(p); err != nil {
		return Proposal{}, false
	}
	return *s.proposal, true
}

// Adopt installs a proposal computed elsewhere, typically a cached Step
// result for the same dictionary, policy and history.
func (s *Session) Adopt(p Proposal) error {
	if s.state == Exhausted {
		return fmt.Errorf("%w: round cap of %d reached", apperrors.ErrNoGuessAvailable, s.maxRounds)
	}
	if p.Index < 0 || p.Index >= s.dict.Len() {
		return fmt.Errorf("proposal index %d out of range [0,%d)", p.Index, s.dict.Len())
	}
	if s.guessed.Test(uint(p.Index)) {
		return fmt.Errorf("%s was already guessed in this session", s.dict.At(p.Index))
	}
	p.Word = s.dict.At(p.Index)
	results := make([]match.Result, len(s.possibilities))
	for j, idx := range s.possibilities {
		results[j] = match.Compute(p.Word, s.dict.At(idx))
	}
	s.proposal = &p
	s.results = results
	s.state = AwaitingFeedback
	return nil
}

// ApplyFeedback answers the pending proposal with the feedback observed
// against the hidden secret, keeping only the candidates that would have
// produced exactly that feedback. Feedback that no candidate is consistent
// with leaves the session untouched and returns ErrNoConsistentCandidate.
func (s *Session) ApplyFeedback(observed match.Result) error {
	if s.proposal == nil {
		return apperrors.ErrNoProposal
	}
	kept := make([]int, 0, len(s.possibilities))
	for j, idx := range s.possibilities {
		if s.results[j] == observed {
			kept = append(kept, idx)
		}
	}
	if len(kept) == 0 {
		return fmt.Errorf("%w: %s answered with %s among %d candidates",
			apperrors.ErrNoConsistentCandidate, s.proposal.Word, observed, len(s.possibilities))
	}

	p := *s.proposal
	s.guessed.Set(uint(p.Index))
	s.history = append(s.history, Round{
		Guess:    p.Word,
		Index:    p.Index,
		Feedback: observed,
		Before:   len(s.possibilities),
		After:    len(kept),
	})
	s.possibilities = kept
	s.clearProposal()
	s.UpdatePrior()

	switch {
	case len(s.possibilities) == 1:
		s.state = Solved
	case s.maxRounds > 0 && len(s.history) >= s.maxRounds:
		s.state = Exhausted
	default:
		s.state = Proposing
	}
	return nil
}

func (s *Session) clearProposal() {
	s.proposal = nil
	s.results = nil
}

// Filter returns the members of possibilities whose feedback against guess
// equals observed. It is the stateless form of ApplyFeedback.
func Filter(dict *word.Dictionary, possibilities []int, guess word.Encoding, observed match.Result) []int {
	kept := make([]int, 0, len(possibilities))
	for _, idx := range possibilities {
		if match.Compute(guess, dict.At(idx)) == observed {
			kept = append(kept, idx)
		}
	}
	return kept
}

func (s *Session) State() State { return s.state }

func (s *Session) Policy() Policy { return s.policy }

func (s *Session) Dictionary() *word.Dictionary { return s.dict }

func (s *Session) Curve() *calibration.Curve { return s.curve }

// PriorParams returns the logistic midpoint and steepness in use.
func (s *Session) PriorParams() (midpoint, steepness float64) {
	return s.midpoint, s.steepness
}

// Remaining is the size of the possibility set.
func (s *Session) Remaining() int { return len(s.possibilities) }

// Possibilities returns a copy of the candidate dictionary indices.
func (s *Session) Possibilities() []int {
	out := make([]int, len(s.possibilities))
	copy(out, s.possibilities)
	return out
}

// Prior returns a copy of the plausibility weights, indexed by dictionary rank.
func (s *Session) Prior() []float64 {
	out := make([]float64, len(s.prior))
	copy(out, s.prior)
	return out
}

// Proposal returns the pending proposal, if any.
func (s *Session) Proposal() (Proposal, bool) {
	if s.proposal == nil {
		return Proposal{}, false
	}
	return *s.proposal, true
}

// Solution returns the remaining word once the session is solved.
func (s *Session) Solution() (word.Encoding, bool) {
	if len(s.possibilities) != 1 {
		return word.Encoding{}, false
	}
	return s.dict.At(s.possibilities[0]), true
}

// Guesses returns the answered guesses in order.
func (s *Session) Guesses() []word.Encoding {
	out := make([]word.Encoding, len(s.history))
	for i, r := range s.history {
		out[i] = r.Guess
	}
	return out
}

// History returns the answered rounds in order.
func (s *Session) History() []Round {
	out := make([]Round, len(s.history))
	copy(out, s.history)
	return out
}

// Guessed reports whether the word at dictionary index i was already guessed.
func (s *Session) Guessed(i int) bool {
	return s.guessed.Test(uint(i))
}
