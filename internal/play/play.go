// Package play runs the interactive solve loop: it proposes a guess, reads
// the feedback the game showed for it and narrows the candidates until one
// word is left.
package play

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/calibration"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/solver"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/word"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/logger"
)

const prompt = "Enter feedback (M = Match, P = Partial, N = No match, e.g. MPNPN): "

// ChoosePolicy picks MinimizeScore when training shards matching pattern
// yield a non-empty curve and MaximizeEntropy otherwise.
func ChoosePolicy(pattern string, width float64) (solver.Policy, *calibration.Curve) {
	log := logger.WithComponent("play")
	curve, err := calibration.LoadFromGlob(pattern, width)
	if err != nil {
		if errors.Is(err, apperrors.ErrCurveUnavailable) {
			log.Info("no training data, using entropy policy", "pattern", pattern)
		} else {
			log.Warn("training data present but curve build failed, using entropy policy",
				"pattern", pattern,
				"error", err,
			)
		}
		return solver.MaximizeEntropy, nil
	}
	return solver.MinimizeScore, curve
}

// Game is one interactive solve over a session.
type Game struct {
	session   *solver.Session
	in        *bufio.Scanner
	out       io.Writer
	cache     *cache.ProposalCache
	namespace string
}

// New reads feedback lines from in and writes proposals and prompts to out.
// A nil cache computes every proposal.
func New(session *solver.Session, in io.Reader, out io.Writer, pc *cache.ProposalCache) *Game {
	if pc == nil {
		pc = cache.New(cache.Options{})
	}
	return &Game{
		session:   session,
		in:        bufio.NewScanner(in),
		out:       out,
		cache:     pc,
		namespace: cache.Namespace(session),
	}
}

// Run plays until a single candidate remains and returns it. Malformed or
// inconsistent feedback and end of input end the game with an error.
func (g *Game) Run(ctx context.Context) (word.Encoding, error) {
	s := g.session
	fmt.Fprintf(g.out, "Loaded dictionary with %d words, policy %s\n", s.Dictionary().Len(), s.Policy())

	for s.State() != solver.Solved {
		if err := ctx.Err(); err != nil {
			return word.Encoding{}, err
		}
		before := s.Remaining()
		p, _, err := g.cache.Propose(ctx, s, g.namespace)
		if err != nil {
			return word.Encoding{}, fmt.Errorf("cannot generate next guess: %w", err)
		}
		fmt.Fprintf(g.out, "Guess: %s, Expected #guesses: %s, Expected ΔEntropy: %.4f, Remaining Possibilities: %d\n",
			p.Word, formatScore(p.ExpectedScore), p.Entropy, before)

		feedback, err := g.readFeedback()
		if err != nil {
			return word.Encoding{}, err
		}
		if err := s.ApplyFeedback(feedback); err != nil {
			return word.Encoding{}, err
		}
		after := s.Remaining()
		fmt.Fprintf(g.out, "New Remaining Possibilities: %d, Actual ΔEntropy: %.4f\n",
			after, math.Log2(float64(before))-math.Log2(float64(after)))
	}

	sol, _ := s.Solution()
	fmt.Fprintf(g.out, "Solution Found: %s\n", sol)
	return sol, nil
}

func (g *Game) readFeedback() (match.Result, error) {
	fmt.Fprint(g.out, prompt)
	if !g.in.Scan() {
		if err := g.in.Err(); err != nil {
			return match.Result{}, fmt.Errorf("reading feedback: %w", err)
		}
		return match.Result{}, fmt.Errorf("reading feedback: %w", io.ErrUnexpectedEOF)
	}
	return match.ParseFeedback(g.in.Text())
}

func formatScore(score float64) string {
	if math.IsInf(score, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", score)
}
