package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/calibration"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/entropy"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/word"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
)

var fiveWords = []string{"CRANE", "SLATE", "TRACE", "BULKY", "ADIEU"}

func newDict(t *testing.T, words ...string) *word.Dictionary {
	t.Helper()
	d, err := word.NewDictionary(words)
	require.NoError(t, err)
	return d
}

func testCurve(t *testing.T) *calibration.Curve {
	t.Helper()
	curve, err := calibration.Build([]calibration.Observation{
		{Entropy: 0, MovesRemaining: 1},
		{Entropy: 1, MovesRemaining: 2},
		{Entropy: 2.3, MovesRemaining: 2.5},
		{Entropy: 4, MovesRemaining: 3},
	}, 0.2)
	require.NoError(t, err)
	return curve
}

// solve answers every proposal with the feedback secret produces.
func solve(t *testing.T, s *Session, secret word.Encoding) []string {
	t.Helper()
	var guesses []string
	for s.State() != Solved {
		require.Less(t, len(guesses), 10, "session did not converge")
		p, err := s.Step()
		require.NoError(t, err)
		guesses = append(guesses, p.Word.String())
		require.NoError(t, s.ApplyFeedback(match.Compute(p.Word, secret)))
	}
	return guesses
}

func TestNewRejectsEmptyDictionary(t *testing.T) {
	_, err := New(newDict(t), Options{})
	assert.ErrorIs(t, err, apperrors.ErrEmptyCandidateSet)
}

func TestNewFallsBackWithoutCurve(t *testing.T) {
	s, err := New(newDict(t, fiveWords...), Options{Policy: MinimizeScore})
	require.NoError(t, err)
	assert.Equal(t, MaximizeEntropy, s.Policy())

	s, err = New(newDict(t, fiveWords...), Options{Policy: MinimizeScore, Curve: testCurve(t)})
	require.NoError(t, err)
	assert.Equal(t, MinimizeScore, s.Policy())
}

func TestFreshSession(t *testing.T) {
	s, err := New(newDict(t, fiveWords...), Options{})
	require.NoError(t, err)

	assert.Equal(t, Fresh, s.State())
	assert.Equal(t, len(fiveWords), s.Remaining())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, s.Possibilities())
	_, ok := s.Proposal()
	assert.False(t, ok)

	single, err := New(newDict(t, "CRANE"), Options{})
	require.NoError(t, err)
	assert.Equal(t, Solved, single.State())
}

func TestPrior(t *testing.T) {
	s, err := New(newDict(t, fiveWords...), Options{PriorMidpoint: 2, PriorSteepness: 1})
	require.NoError(t, err)

	prior := s.Prior()
	sum := 0.0
	for i, p := range prior {
		sum += p
		if i > 0 {
			assert.Less(t, p, prior[i-1], "plausibility must fall with rank")
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	p, err := s.Step()
	require.NoError(t, err)
	secret := s.Dictionary().At(3)
	require.NoError(t, s.ApplyFeedback(match.Compute(p.Word, secret)))

	prior = s.Prior()
	sum = 0
	inSet := make(map[int]bool)
	for _, idx := range s.Possibilities() {
		inSet[idx] = true
	}
	for i, w := range prior {
		sum += w
		if !inSet[i] {
			assert.Zero(t, w, "word %d is no longer possible", i)
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestStepMaximizesEntropy(t *testing.T) {
	s, err := New(newDict(t, fiveWords...), Options{PriorMidpoint: 2, PriorSteepness: 1})
	require.NoError(t, err)

	p, err := s.Step()
	require.NoError(t, err)
	assert.Equal(t, AwaitingFeedback, s.State())
	assert.Equal(t, MaximizeEntropy, p.Policy)
	assert.True(t, math.IsInf(p.ExpectedScore, 1))

	prior := s.Prior()
	bestIdx, bestH := -1, 0.0
	for i, guess := range s.Dictionary().Words() {
		cands := make([]entropy.Candidate, 0, s.Remaining())
		for _, idx := range s.Possibilities() {
			cands = append(cands, entropy.Candidate{Word: s.Dictionary().At(idx), Weight: prior[idx]})
		}
		d, err := entropy.PatternDistribution(guess, cands)
		require.NoError(t, err)
		if h := entropy.Entropy(d); h > bestH {
			bestIdx, bestH = i, h
		}
	}
	assert.Equal(t, bestIdx, p.Index)
	assert.InDelta(t, bestH, p.Entropy, 1e-12)
	assert.Equal(t, s.Dictionary().At(bestIdx), p.Word)
}

func TestStepMinimizesScore(t *testing.T) {
	s, err := New(newDict(t, fiveWords...), Options{Policy: MinimizeScore, Curve: testCurve(t)})
	require.NoError(t, err)

	p, err := s.Step()
	require.NoError(t, err)
	assert.Equal(t, MinimizeScore, p.Policy)
	assert.GreaterOrEqual(t, p.ExpectedScore, 1.0)
	assert.False(t, math.IsInf(p.ExpectedScore, 0))
}

func TestEndToEndConvergence(t *testing.T) {
	policies := []struct {
		name string
		opts Options
	}{
		{"maximize-entropy", Options{}},
		{"minimize-score", Options{Policy: MinimizeScore, Curve: testCurve(t)}},
	}
	for _, pc := range policies {
		t.Run(pc.name, func(t *testing.T) {
			dict := newDict(t, fiveWords...)
			s, err := New(dict, pc.opts)
			require.NoError(t, err)

			for i := 0; i < dict.Len(); i++ {
				s.Reset()
				secret := dict.At(i)
				guesses := solve(t, s, secret)

				sol, ok := s.Solution()
				require.True(t, ok)
				assert.Equal(t, secret, sol, "secret %s", secret)
				assert.LessOrEqual(t, len(guesses), dict.Len())

				seen := make(map[string]bool)
				for _, g := range guesses {
					assert.False(t, seen[g], "%s guessed twice", g)
					seen[g] = true
				}
				assert.Len(t, s.History(), len(guesses))
			}
		})
	}
}

func TestApplyFeedbackWithoutProposal(t *testing.T) {
	s, err := New(newDict(t, fiveWords...), Options{})
	require.NoError(t, err)
	err = s.ApplyFeedback(match.Result{})
	assert.ErrorIs(t, err, apperrors.ErrNoProposal)
}

func TestApplyFeedbackInconsistent(t *testing.T) {
	s, err := New(newDict(t, fiveWords...), Options{})
	require.NoError(t, err)
	p, err := s.Step()
	require.NoError(t, err)

	possible := make(map[match.Result]bool)
	for _, idx := range s.Possibilities() {
		possible[match.Compute(p.Word, s.Dictionary().At(idx))] = true
	}
	var impossible match.Result
	for idx := 0; idx < match.Patterns; idx++ {
		if r := match.FromIndex(idx); !possible[r] {
			impossible = r
			break
		}
	}

	err = s.ApplyFeedback(impossible)
	assert.ErrorIs(t, err, apperrors.ErrNoConsistentCandidate)
	assert.Equal(t, len(fiveWords), s.Remaining(), "a rejected answer must not narrow the set")
	assert.Empty(t, s.History())
	assert.Equal(t, AwaitingFeedback, s.State())
	assert.False(t, s.Guessed(p.Index))
}

func TestFilterIsIdempotent(t *testing.T) {
	dict := newDict(t, "BATCH", "CATCH", "HATCH", "CRANE", "TRACE", "SLATE", "BULKY")
	all := []int{0, 1, 2, 3, 4, 5, 6}
	guess := dict.At(1)
	observed := match.Compute(guess, dict.At(2))

	once := Filter(dict, all, guess, observed)
	twice := Filter(dict, once, guess, observed)
	assert.Equal(t, once, twice)
	assert.Equal(t, []int{0, 2}, once)
}

func TestRoundCapExhausts(t *testing.T) {
	dict := newDict(t, "BATCH", "CATCH", "HATCH", "LATCH", "MATCH", "PATCH", "WATCH")
	s, err := New(dict, Options{MaxRounds: 1})
	require.NoError(t, err)

	p, err := s.Step()
	require.NoError(t, err)
	secret := dict.At(0)
	if p.Index == 0 {
		secret = dict.At(1)
	}
	require.NoError(t, s.ApplyFeedback(match.Compute(p.Word, secret)))
	require.Greater(t, s.Remaining(), 1)
	assert.Equal(t, Exhausted, s.State())

	_, err = s.Step()
	assert.ErrorIs(t, err, apperrors.ErrNoGuessAvailable)
}

func TestStepProposesLikeliestWhenNothingSeparates(t *testing.T) {
	// A steep prior at a tiny midpoint leaves all weight on rank 0.
	s, err := New(newDict(t, "CRANE", "SLATE", "BULKY"), Options{PriorMidpoint: 0.5, PriorSteepness: 10000})
	require.NoError(t, err)

	p, err := s.Step()
	require.NoError(t, err)
	assert.Equal(t, 0, p.Index)
	assert.Zero(t, p.Entropy)

	guesses := solve(t, s, s.Dictionary().At(2))
	sol, ok := s.Solution()
	require.True(t, ok)
	assert.Equal(t, "BULKY", sol.String())
	assert.NotEmpty(t, guesses)
}

func TestAdopt(t *testing.T) {
	s, err := New(newDict(t, fiveWords...), Options{})
	require.NoError(t, err)

	require.NoError(t, s.Adopt(Proposal{Index: 3, Policy: MaximizeEntropy}))
	p, ok := s.Proposal()
	require.True(t, ok)
	assert.Equal(t, "BULKY", p.Word.String())
	assert.Equal(t, AwaitingFeedback, s.State())

	assert.Error(t, s.Adopt(Proposal{Index: 99}))
	assert.Error(t, s.Adopt(Proposal{Index: -1}))

	secret := s.Dictionary().At(0)
	require.NoError(t, s.ApplyFeedback(match.Compute(p.Word, secret)))
	assert.True(t, s.Guessed(3))
	assert.Error(t, s.Adopt(Proposal{Index: 3}), "a guessed word cannot be proposed again")
}

func TestReset(t *testing.T) {
	s, err := New(newDict(t, fiveWords...), Options{})
	require.NoError(t, err)
	solve(t, s, s.Dictionary().At(4))
	require.NotEmpty(t, s.Guesses())

	s.Reset()
	assert.Equal(t, Fresh, s.State())
	assert.Empty(t, s.Guesses())
	assert.Equal(t, len(fiveWords), s.Remaining())
	for i := range fiveWords {
		assert.False(t, s.Guessed(i))
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("minimize-score")
	require.NoError(t, err)
	assert.Equal(t, MinimizeScore, p)

	p, err = ParsePolicy(MaximizeEntropy.String())
	require.NoError(t, err)
	assert.Equal(t, MaximizeEntropy, p)

	_, err = ParsePolicy("random")
	assert.Error(t, err)
}
