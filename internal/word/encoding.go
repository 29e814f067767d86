// Package word provides the fixed-length word encoding the solver compares,
// and the rank-ordered dictionary the encodings are loaded into.
package word

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
)

// Length is the number of letters in every word the solver handles.
const Length = 5

// Alphabet is the number of distinct letter symbols.
const Alphabet = 26

// Encoding is one word as upper-case letter positions plus a per-letter count.
// Frequencies is derived from Positions and never edited on its own.
type Encoding struct {
	Positions   [Length]byte
	Frequencies [Alphabet]uint8
}

// Encode validates and encodes a 5-letter word. Lower-case input is accepted
// and normalised to upper case.
func Encode(w string) (Encoding, error) {
	var e Encoding
	if len(w) != Length {
		return e, fmt.Errorf("%w: %q has %d bytes, want %d", apperrors.ErrInvalidWordLength, w, len(w), Length)
	}
	for i := 0; i < Length; i++ {
		c := w[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			return Encoding{}, fmt.Errorf("%w: %q contains %q at position %d", apperrors.ErrInvalidWord, w, w[i], i)
		}
		e.Positions[i] = c
		e.Frequencies[c-'A']++
	}
	return e, nil
}

// MustEncode is Encode for literals known to be valid.
func MustEncode(w string) Encoding {
	e, err := Encode(w)
	if err != nil {
		panic(err)
	}
	return e
}

// String decodes the encoding back into its word.
func (e Encoding) String() string {
	return string(e.Positions[:])
}

// Equal reports whether two encodings spell the same word.
func (e Encoding) Equal(other Encoding) bool {
	return e.Positions == other.Positions
}

// Count returns how many times letter c (upper case) occurs in the word.
func (e Encoding) Count(c byte) int {
	return int(e.Frequencies[c-'A'])
}
