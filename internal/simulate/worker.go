package simulate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/calibration"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/results"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/solver"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/tracing"
)

// DefaultMaxSecrets bounds how many of the most common words are replayed.
const DefaultMaxSecrets = 1500

// WorkerOptions identifies one worker of a batch and the optional
// infrastructure it reports into. Cache, Sinks and Metrics may be nil.
type WorkerOptions struct {
	Kind       Kind
	ID         int
	Count      int
	RunID      string
	Dir        string
	MaxSecrets int
	Cache      *cache.ProposalCache
	Sinks      *results.Fanout
	Metrics    *metrics.Metrics
}

// Worker replays its partition of secrets through a private session and
// appends one row per round to its shard.
type Worker struct {
	opts      WorkerOptions
	session   *solver.Session
	cache     *cache.ProposalCache
	namespace string
	secrets   []int
}

// Outcome is what playing one secret produced.
type Outcome struct {
	Rows    []calibration.Row
	Guesses []string
	Solved  bool
	// Trace times each round of the solve.
	Trace *tracing.Span
}

// NewWorker binds a session to a worker slot. The session must not be shared.
func NewWorker(session *solver.Session, opts WorkerOptions) (*Worker, error) {
	if session == nil {
		return nil, errors.New("worker needs a session")
	}
	if opts.MaxSecrets <= 0 {
		opts.MaxSecrets = DefaultMaxSecrets
	}
	total := min(opts.MaxSecrets, session.Dictionary().Len())
	secrets, err := Partition(opts.ID, opts.Count, total)
	if err != nil {
		return nil, err
	}
	w := &Worker{
		opts:    opts,
		session: session,
		cache:   opts.Cache,
		secrets: secrets,
	}
	if w.cache == nil {
		w.cache = cache.New(cache.Options{Metrics: opts.Metrics})
	}
	w.namespace = cache.Namespace(session)
	return w, nil
}

// Secrets returns the dictionary indices this worker will play.
func (w *Worker) Secrets() []int {
	out := make([]int, len(w.secrets))
	copy(out, w.secrets)
	return out
}

// Run plays every secret in the partition, flushing the shard after each one.
// Cancellation stops the worker between secrets; rows already flushed stay.
func (w *Worker) Run(ctx context.Context) error {
	ctx = logger.WithWorker(ctx, w.opts.RunID, w.opts.ID)
	log := logger.FromContext(ctx).With("component", "worker", "kind", w.opts.Kind.String())

	shard, err := OpenShard(w.opts.Kind.ShardPath(w.opts.Dir, w.opts.ID))
	if err != nil {
		return err
	}
	defer func() {
		if err := shard.Close(); err != nil {
			log.Error("closing shard", "error", err)
		}
	}()

	if m := w.opts.Metrics; m != nil {
		m.WorkersRunning.Inc()
		defer m.WorkersRunning.Dec()
	}

	log.Info("worker started",
		"secrets", len(w.secrets),
		"policy", w.session.Policy(),
		"shard", shard.Path(),
	)
	start := time.Now()
	for n, secret := range w.secrets {
		if err := ctx.Err(); err != nil {
			log.Warn("worker interrupted", "completed", n, "error", err)
			return err
		}
		out, err := w.Play(ctx, secret)
		if err != nil {
			w.count("failed")
			return fmt.Errorf("worker %d secret %d: %w", w.opts.ID, secret, err)
		}
		if err := shard.WriteSecret(out.Rows); err != nil {
			return err
		}
		out.Trace.Log(ctx, log, slog.LevelDebug)
		w.report(ctx, secret, out)
	}
	log.Info("worker finished",
		"secrets", len(w.secrets),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Play solves one secret from a fresh session state, answering each proposal
// with the feedback the secret itself produces. The rows record, for every
// round, the entropy of the possibility set before the guess and how many
// guesses were still to come including it.
func (w *Worker) Play(ctx context.Context, secretIdx int) (Outcome, error) {
	s := w.session
	dict := s.Dictionary()
	if secretIdx < 0 || secretIdx >= dict.Len() {
		return Outcome{}, fmt.Errorf("secret index %d out of range [0,%d)", secretIdx, dict.Len())
	}
	secret := dict.At(secretIdx)
	s.Reset()

	var out Outcome
	ctx, out.Trace = tracing.Start(ctx, "solve", fmt.Sprintf("%s/%d", w.opts.RunID, secretIdx))
	out.Trace.SetAttr("secret", secret.String())
	defer out.Trace.End()

	var entropies []float64
	for s.State() != solver.Solved && s.State() != solver.Exhausted {
		entropies = append(entropies, math.Log2(float64(s.Remaining())))

		_, span := tracing.StartChild(ctx, "round")
		span.SetAttr("remaining", s.Remaining())
		began := time.Now()
		p, cached, err := w.cache.Propose(ctx, s, w.namespace)
		if err != nil {
			return Outcome{}, err
		}
		span.SetAttr("guess", p.Word.String())
		span.SetAttr("cached", cached)
		span.End()
		if m := w.opts.Metrics; m != nil {
			m.StepDuration.WithLabelValues(p.Policy.String()).Observe(time.Since(began).Seconds())
			m.PossibilitySetSize.Observe(float64(s.Remaining()))
		}
		out.Guesses = append(out.Guesses, p.Word.String())

		if err := s.ApplyFeedback(match.Compute(p.Word, secret)); err != nil {
			return Outcome{}, err
		}
	}

	total := len(entropies)
	out.Rows = make([]calibration.Row, total)
	for step, h := range entropies {
		out.Rows[step] = calibration.Row{
			SecretIndex:    secretIdx,
			Entropy:        h,
			MovesRemaining: total - step,
		}
	}
	if sol, ok := s.Solution(); ok && sol.Equal(secret) {
		out.Solved = true
	}
	return out, nil
}

func (w *Worker) report(ctx context.Context, secretIdx int, out Outcome) {
	outcome := "exhausted"
	if out.Solved {
		outcome = "solved"
	}
	w.count(outcome)
	if m := w.opts.Metrics; m != nil {
		m.GuessesPerSecret.WithLabelValues(w.opts.Kind.String()).Observe(float64(len(out.Guesses)))
	}
	if w.opts.Sinks == nil || w.opts.Sinks.Len() == 0 {
		return
	}
	w.opts.Sinks.Record(ctx, results.SessionResult{
		RunID:       w.opts.RunID,
		Kind:        w.opts.Kind.String(),
		WorkerID:    w.opts.ID,
		SecretIndex: secretIdx,
		Secret:      w.session.Dictionary().At(secretIdx).String(),
		Guesses:     out.Guesses,
		Solved:      out.Solved,
		Policy:      w.session.Policy().String(),
		FinishedAt:  time.Now().UTC(),
	})
}

func (w *Worker) count(outcome string) {
	if m := w.opts.Metrics; m != nil {
		m.SecretsSimulated.WithLabelValues(w.opts.Kind.String(), outcome).Inc()
	}
}
