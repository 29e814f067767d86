// Package match computes the per-position feedback a guess receives against a
// secret, and parses the same feedback from user input.
package match

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/word"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
)

// Outcome classifies one guessed letter. The numeric values are the base-3
// digits used by Result.Index.
type Outcome uint8

const (
	Absent Outcome = iota
	PresentElsewhere
	Exact
)

// Patterns is the number of distinct results (3^5).
const Patterns = 243

func (o Outcome) String() string {
	switch o {
	case Absent:
		return "N"
	case PresentElsewhere:
		return "P"
	case Exact:
		return "M"
	default:
		return "?"
	}
}

// Result is the feedback for a whole guess. It is comparable and can be used
// as a map key.
type Result [word.Length]Outcome

// Compute returns the feedback guess receives when the secret is secret.
//
// Exact matches consume the secret's letter counts first; only then are the
// remaining positions scanned left to right for letters present elsewhere.
// Guessing AABCC against AEXXA marks the first A exact and only one more A as
// present, because the secret holds two.
func Compute(guess, secret word.Encoding) Result {
	var r Result
	remaining := secret.Frequencies

	for i := 0; i < word.Length; i++ {
		if guess.Positions[i] == secret.Positions[i] {
			r[i] = Exact
			remaining[guess.Positions[i]-'A']--
		}
	}
	for i := 0; i < word.Length; i++ {
		if r[i] == Exact {
			continue
		}
		c := guess.Positions[i] - 'A'
		if remaining[c] > 0 {
			r[i] = PresentElsewhere
			remaining[c]--
		}
	}
	return r
}

// Index maps the result to [0, Patterns) as sum(outcome[i] * 3^i).
func (r Result) Index() int {
	idx, pow := 0, 1
	for _, o := range r {
		idx += int(o) * pow
		pow *= 3
	}
	return idx
}

// FromIndex is the inverse of Index.
func FromIndex(idx int) Result {
	var r Result
	for i := range r {
		r[i] = Outcome(idx % 3)
		idx /= 3
	}
	return r
}

// Solved reports whether every position is an exact match.
func (r Result) Solved() bool {
	for _, o := range r {
		if o != Exact {
			return false
		}
	}
	return true
}

// ExactCount returns the number of exact positions.
func (r Result) ExactCount() int {
	n := 0
	for _, o := range r {
		if o == Exact {
			n++
		}
	}
	return n
}

func (r Result) String() string {
	var b strings.Builder
	for _, o := range r {
		b.WriteString(o.String())
	}
	return b.String()
}

// ParseFeedback reads the M/P/N form typed by a player: M for an exact match,
// P for a letter present elsewhere, N for an absent letter.
func ParseFeedback(s string) (Result, error) {
	var r Result
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != word.Length {
		return r, fmt.Errorf("%w: want %d characters of M/P/N, got %q", apperrors.ErrInvalidFeedback, word.Length, s)
	}
	for i := 0; i < word.Length; i++ {
		switch s[i] {
		case 'M':
			r[i] = Exact
		case 'P':
			r[i] = PresentElsewhere
		case 'N':
			r[i] = Absent
		default:
			return Result{}, fmt.Errorf("%w: invalid character %q at position %d, use only M, P, N",
				apperrors.ErrInvalidFeedback, s[i], i+1)
		}
	}
	return r, nil
}
