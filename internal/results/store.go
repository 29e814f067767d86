package results

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/resilience"
)

// Schema creates the session_results table used by Store.
const Schema = `CREATE TABLE IF NOT EXISTS session_results (
    id           BIGSERIAL PRIMARY KEY,
    run_id       TEXT        NOT NULL,
    kind         TEXT        NOT NULL,
    worker_id    INTEGER     NOT NULL,
    secret_idx   INTEGER     NOT NULL,
    secret       TEXT        NOT NULL,
    guesses      TEXT[]      NOT NULL,
    rounds       INTEGER     NOT NULL,
    solved       BOOLEAN     NOT NULL,
    policy       TEXT        NOT NULL,
    finished_at  TIMESTAMPTZ NOT NULL,
    UNIQUE (run_id, secret_idx)
)`

// Store persists session results in PostgreSQL.
type Store struct {
	db     *sql.DB
	retry  resilience.RetryConfig
	logger *slog.Logger
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:     db,
		retry:  resilience.RetryConfig{MaxAttempts: 3},
		logger: slog.Default().With("component", "results-store"),
	}
}

// EnsureSchema creates the table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating session_results: %w", err)
	}
	return nil
}

// Record inserts one result. Re-recording the same secret for a run is a
// no-op, so a restarted worker can replay its partition.
func (s *Store) Record(ctx context.Context, r SessionResult) error {
	return resilience.Retry(ctx, "results-store-insert", s.retry, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO session_results
			   (run_id, kind, worker_id, secret_idx, secret, guesses, rounds, solved, policy, finished_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (run_id, secret_idx) DO NOTHING`,
			r.RunID, r.Kind, r.WorkerID, r.SecretIndex, r.Secret,
			pq.Array(r.Guesses), r.Rounds(), r.Solved, r.Policy, r.FinishedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting result for secret %d: %w", r.SecretIndex, err)
		}
		return nil
	})
}

// RunSummary aggregates the recorded results of one run.
type RunSummary struct {
	RunID     string
	Secrets   int
	Solved    int
	AvgRounds float64
}

// Summary aggregates every result recorded under runID.
func (s *Store) Summary(ctx context.Context, runID string) (RunSummary, error) {
	sum := RunSummary{RunID: runID}
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE solved), AVG(rounds)
		   FROM session_results WHERE run_id = $1`,
		runID,
	).Scan(&sum.Secrets, &sum.Solved, &avg)
	if err != nil {
		return RunSummary{}, fmt.Errorf("summarising run %s: %w", runID, err)
	}
	sum.AvgRounds = avg.Float64
	return sum, nil
}

// Guesses returns the guesses recorded for one secret of a run.
func (s *Store) Guesses(ctx context.Context, runID string, secretIdx int) ([]string, error) {
	var guesses []string
	err := s.db.QueryRowContext(ctx,
		`SELECT guesses FROM session_results WHERE run_id = $1 AND secret_idx = $2`,
		runID, secretIdx,
	).Scan(pq.Array(&guesses))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading guesses for secret %d: %w", secretIdx, err)
	}
	return guesses, nil
}

// Close is a no-op; the connection pool belongs to the caller.
func (s *Store) Close() error {
	return nil
}
