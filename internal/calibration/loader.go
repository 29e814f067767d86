package calibration

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/logger"
)

// Header is the first row of every shard file.
var Header = []string{"secret_idx", "entropy", "moves_remaining"}

// Row is one line of a shard file.
type Row struct {
	SecretIndex    int
	Entropy        float64
	MovesRemaining int
}

func (r Row) Observation() Observation {
	return Observation{Entropy: r.Entropy, MovesRemaining: float64(r.MovesRemaining)}
}

// Record renders the row in shard column order.
func (r Row) Record() []string {
	return []string{
		strconv.Itoa(r.SecretIndex),
		strconv.FormatFloat(r.Entropy, 'g', -1, 64),
		strconv.Itoa(r.MovesRemaining),
	}
}

// ReadRows parses a shard. The header row is required.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

func parseRow(rec []string) (Row, error) {
	idx, err := strconv.Atoi(rec[0])
	if err != nil {
		return Row{}, fmt.Errorf("secret_idx: %w", err)
	}
	h, err := strconv.ParseFloat(rec[1], 64)
	if err != nil {
		return Row{}, fmt.Errorf("entropy: %w", err)
	}
	moves, err := strconv.Atoi(rec[2])
	if err != nil {
		return Row{}, fmt.Errorf("moves_remaining: %w", err)
	}
	return Row{SecretIndex: idx, Entropy: h, MovesRemaining: moves}, nil
}

// ReadObservations parses a shard into curve observations.
func ReadObservations(r io.Reader) ([]Observation, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	obs := make([]Observation, len(rows))
	for i, row := range rows {
		obs[i] = row.Observation()
	}
	return obs, nil
}

// ShardFiles returns the regular files matching pattern in sorted order.
func ShardFiles(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad shard pattern %q: %w", pattern, err)
	}
	files := matches[:0]
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadRows reads every shard matching pattern.
func LoadRows(pattern string) ([]Row, error) {
	files, err := ShardFiles(pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no shards match %s", apperrors.ErrCurveUnavailable, pattern)
	}
	var rows []Row
	for _, path := range files {
		fileRows, err := readFile(path)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

func readFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shard: %w", err)
	}
	defer f.Close()
	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("shard %s: %w", path, err)
	}
	return rows, nil
}

// LoadFromGlob builds a curve from every shard matching pattern. A pattern
// that matches nothing, or shards without rows, report ErrCurveUnavailable.
func LoadFromGlob(pattern string, width float64) (*Curve, error) {
	rows, err := LoadRows(pattern)
	if err != nil {
		return nil, err
	}
	obs := make([]Observation, len(rows))
	for i, row := range rows {
		obs[i] = row.Observation()
	}
	curve, err := Build(obs, width)
	if err != nil {
		return nil, err
	}
	if curve.Empty() {
		return nil, fmt.Errorf("%w: shards matching %s have no rows", apperrors.ErrCurveUnavailable, pattern)
	}
	logger.WithComponent("calibration").Info("calibration curve built",
		"pattern", pattern,
		"observations", len(obs),
		"buckets", len(curve.buckets),
	)
	return curve, nil
}
