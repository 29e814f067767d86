package word

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
)

// Dictionary is the rank-ordered word list. Index 0 is the most common word.
// Indices are stable for the lifetime of the value and it is never mutated
// after loading.
type Dictionary struct {
	words []Encoding
	index map[[Length]byte]int
}

// NewDictionary encodes words in the given order. Duplicates are rejected so
// that a word maps to exactly one rank.
func NewDictionary(words []string) (*Dictionary, error) {
	d := &Dictionary{
		words: make([]Encoding, 0, len(words)),
		index: make(map[[Length]byte]int, len(words)),
	}
	for i, w := range words {
		e, err := Encode(w)
		if err != nil {
			return nil, fmt.Errorf("word %d: %w", i, err)
		}
		if prev, ok := d.index[e.Positions]; ok {
			return nil, fmt.Errorf("%w: %s appears at ranks %d and %d", apperrors.ErrInvalidWord, e, prev, i)
		}
		d.index[e.Positions] = len(d.words)
		d.words = append(d.words, e)
	}
	return d, nil
}

// LoadDictionary reads a newline-delimited word list ordered by rank.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", apperrors.ErrDictionaryLoad, path, err)
	}
	defer f.Close()

	d, err := ReadDictionary(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ReadDictionary parses a word list from r. Blank lines are skipped.
func ReadDictionary(r io.Reader) (*Dictionary, error) {
	scanner := bufio.NewScanner(r)
	var words []string
	for line := 1; scanner.Scan(); line++ {
		w := strings.TrimSpace(scanner.Text())
		if w == "" {
			continue
		}
		if _, err := Encode(w); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", apperrors.ErrDictionaryLoad, line, err)
		}
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDictionaryLoad, err)
	}
	d, err := NewDictionary(words)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDictionaryLoad, err)
	}
	return d, nil
}

func (d *Dictionary) Len() int {
	return len(d.words)
}

func (d *Dictionary) At(i int) Encoding {
	return d.words[i]
}

// Words returns the encodings in rank order. Callers must not modify it.
func (d *Dictionary) Words() []Encoding {
	return d.words
}

// Index returns the rank of w, or false if w is not in the dictionary.
func (d *Dictionary) Index(w string) (int, bool) {
	e, err := Encode(w)
	if err != nil {
		return 0, false
	}
	i, ok := d.index[e.Positions]
	return i, ok
}

// Digest is a stable hash of the word list in rank order.
func (d *Dictionary) Digest() string {
	h := sha256.New()
	for _, e := range d.words {
		h.Write(e.Positions[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
