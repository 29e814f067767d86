package simulate

import (
	"fmt"
	"io"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/calibration"
)

// Summary aggregates the sessions recorded in a set of shards.
type Summary struct {
	Sessions     int
	TotalGuesses int
	MaxGuesses   int
	// Histogram maps a guess count to the number of sessions that needed it.
	Histogram map[int]int
}

// Mean is the average number of guesses per session.
func (s Summary) Mean() float64 {
	if s.Sessions == 0 {
		return 0
	}
	return float64(s.TotalGuesses) / float64(s.Sessions)
}

// WithinRounds counts sessions that needed at most limit guesses.
func (s Summary) WithinRounds(limit int) int {
	n := 0
	for guesses, count := range s.Histogram {
		if guesses <= limit {
			n += count
		}
	}
	return n
}

// Write prints the summary as a small table.
func (s Summary) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "sessions: %d\nmean guesses: %.4f\nmax guesses: %d\n",
		s.Sessions, s.Mean(), s.MaxGuesses); err != nil {
		return err
	}
	keys := make([]int, 0, len(s.Histogram))
	for k := range s.Histogram {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%2d guesses: %d\n", k, s.Histogram[k]); err != nil {
			return err
		}
	}
	return nil
}

// SummariseRows groups rows into sessions. A session is a run of rows for
// one secret whose moves_remaining counts down to 1; its first row carries
// the number of guesses. Re-runs appended to the same shard count again.
func SummariseRows(rows []calibration.Row) Summary {
	sum := Summary{Histogram: make(map[int]int)}
	for i, r := range rows {
		if i > 0 {
			prev := rows[i-1]
			if prev.SecretIndex == r.SecretIndex && prev.MovesRemaining == r.MovesRemaining+1 {
				continue
			}
		}
		sum.Sessions++
		sum.TotalGuesses += r.MovesRemaining
		sum.Histogram[r.MovesRemaining]++
		sum.MaxGuesses = max(sum.MaxGuesses, r.MovesRemaining)
	}
	return sum
}

// Summarise loads every shard matching pattern and summarises it.
func Summarise(pattern string) (Summary, error) {
	rows, err := calibration.LoadRows(pattern)
	if err != nil {
		return Summary{}, err
	}
	return SummariseRows(rows), nil
}
