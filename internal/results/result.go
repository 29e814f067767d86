// Package results records the outcome of each simulated solve session to the
// optional network sinks: a PostgreSQL table for querying finished runs and a
// Kafka topic for downstream consumers. The CSV shards written by the workers
// remain the calibration input; these sinks only mirror per-secret outcomes.
package results

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SessionResult is the outcome of playing one secret to completion.
type SessionResult struct {
	RunID       string    `json:"run_id"`
	Kind        string    `json:"kind"`
	WorkerID    int       `json:"worker_id"`
	SecretIndex int       `json:"secret_index"`
	Secret      string    `json:"secret"`
	Guesses     []string  `json:"guesses"`
	Solved      bool      `json:"solved"`
	Policy      string    `json:"policy"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Rounds is the number of guesses made.
func (r SessionResult) Rounds() int {
	return len(r.Guesses)
}

type Sink interface {
	Record(ctx context.Context, r SessionResult) error
	Close() error
}

// Fanout sends every result to all sinks. A failing sink is reported through
// onError and does not stop the others.
type Fanout struct {
	sinks   map[string]Sink
	onError func(sink string, err error)
	logger  *slog.Logger
}

func NewFanout(onError func(sink string, err error)) *Fanout {
	return &Fanout{
		sinks:   make(map[string]Sink),
		onError: onError,
		logger:  slog.Default().With("component", "result-fanout"),
	}
}

// Add registers a named sink.
func (f *Fanout) Add(name string, s Sink) {
	f.sinks[name] = s
}

func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Record never fails; sink errors are logged and handed to onError.
func (f *Fanout) Record(ctx context.Context, r SessionResult) {
	for name, s := range f.sinks {
		if err := s.Record(ctx, r); err != nil {
			f.logger.Warn("result sink failed",
				"sink", name,
				"secret_idx", r.SecretIndex,
				"error", err,
			)
			if f.onError != nil {
				f.onError(name, err)
			}
		}
	}
}

func (f *Fanout) Close() error {
	var errs []error
	for name, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
