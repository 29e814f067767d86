package simulate

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/calibration"
)

// ShardWriter appends rows to one worker's shard file. No other writer may
// hold the same path.
type ShardWriter struct {
	f    *os.File
	w    *csv.Writer
	path string
}

// OpenShard opens path for appending, creating it and its directory if
// needed. The header is written only into an empty file.
func OpenShard(path string) (*ShardWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating shard directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening shard %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat shard %s: %w", path, err)
	}
	sw := &ShardWriter{f: f, w: csv.NewWriter(f), path: path}
	if info.Size() == 0 {
		if err := sw.w.Write(calibration.Header); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing shard header: %w", err)
		}
		if err := sw.Flush(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return sw, nil
}

// WriteSecret appends the rows of one completed secret and flushes them, so
// an abrupt stop loses at most the secret in progress.
func (s *ShardWriter) WriteSecret(rows []calibration.Row) error {
	for _, r := range rows {
		if err := s.w.Write(r.Record()); err != nil {
			return fmt.Errorf("writing shard row: %w", err)
		}
	}
	return s.Flush()
}

func (s *ShardWriter) Flush() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flushing shard %s: %w", s.path, err)
	}
	return nil
}

func (s *ShardWriter) Path() string {
	return s.path
}

func (s *ShardWriter) Close() error {
	flushErr := s.Flush()
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("closing shard %s: %w", s.path, err)
	}
	return flushErr
}
