package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/calibration"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/simulate"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/metrics"
)

func newBatchCmd(a *app, kind simulate.Kind) *cobra.Command {
	var workers int
	var inProcess bool
	short := "Generate training data for the calibration curve"
	if kind == simulate.Test {
		short = "Measure the score-minimising solver against known secrets"
	}
	cmd := &cobra.Command{
		Use:   kind.String(),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers < 0 {
				return apperrors.Newf(apperrors.ErrWorkerFailed, apperrors.ExitInput,
					"worker count must not be negative, got %d", workers)
			}
			return a.runBatch(cmd.Context(), cmd.OutOrStdout(), kind, workers, inProcess)
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of workers (0 uses the configured count, or one per CPU)")
	cmd.Flags().BoolVar(&inProcess, "in-process", false, "run workers as goroutines instead of processes")
	return cmd
}

func (a *app) runBatch(ctx context.Context, out io.Writer, kind simulate.Kind, requested int, inProcess bool) error {
	cfg := a.cfg
	if requested == 0 {
		requested = cfg.Workers.Count
	}
	n := simulate.WorkerCount(requested)
	runID := uuid.NewString()
	log := slog.Default().With("kind", kind.String(), "run_id", runID)

	var in *infra
	if inProcess || cfg.Metrics.Enabled {
		in = openInfra(ctx, cfg, infraOptions{cache: inProcess, sinks: inProcess})
		defer in.Close()
	}
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, in.reg, in.health.Routes)
		defer shutdown(context.Background())
	}

	fmt.Fprintf(os.Stderr, "Spawning %d %s workers\n", n, kind)
	log.Info("starting worker batch", "workers", n, "in_process", inProcess)
	start := time.Now()

	var err error
	if inProcess {
		err = a.runInProcess(ctx, in, kind, n, runID)
	} else {
		sp := simulate.NewSpawner(a.workerArgs())
		sp.Executable = cfg.Workers.Executable
		sp.Progress = os.Stderr
		err = sp.Run(ctx, kind, n, runID)
	}
	if err != nil {
		return err
	}
	log.Info("worker batch complete", "duration_ms", time.Since(start).Milliseconds())
	return a.afterBatch(out, kind)
}

func (a *app) runInProcess(ctx context.Context, in *infra, kind simulate.Kind, n int, runID string) error {
	cfg := a.cfg
	dict, err := loadDictionary(cfg)
	if err != nil {
		return err
	}
	return simulate.RunInProcess(ctx, n, func(id, n int) (*simulate.Worker, error) {
		session, err := workerSession(cfg, dict, kind)
		if err != nil {
			return nil, err
		}
		return simulate.NewWorker(session, simulate.WorkerOptions{
			Kind:       kind,
			ID:         id,
			Count:      n,
			RunID:      runID,
			Dir:        shardDir(cfg, kind),
			MaxSecrets: cfg.Workers.MaxSecrets,
			Cache:      in.proposalCache(),
			Sinks:      in.sinks,
			Metrics:    in.metrics,
		})
	})
}

// afterBatch reports what the batch produced: the curve for training data
// and the guess distribution for test data.
func (a *app) afterBatch(out io.Writer, kind simulate.Kind) error {
	cfg := a.cfg
	glob := kind.ShardGlob(shardDir(cfg, kind))
	if kind == simulate.Train {
		curve, err := calibration.LoadFromGlob(glob, cfg.Solver.BucketWidth)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Calibration curve: %d buckets from %s\n", len(curve.Buckets()), glob)
		return nil
	}
	sum, err := simulate.Summarise(glob)
	if err != nil {
		return err
	}
	return sum.Write(out)
}

func newWorkerCmd(a *app, kind simulate.Kind) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:    kind.WorkerCommand() + " <id> <n>",
		Short:  fmt.Sprintf("Play one partition of %s secrets (spawned by %s)", kind, kind),
		Args:   cobra.ExactArgs(2),
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return apperrors.Newf(apperrors.ErrWorkerFailed, apperrors.ExitInput, "worker id %q: %v", args[0], err)
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return apperrors.Newf(apperrors.ErrWorkerFailed, apperrors.ExitInput, "worker count %q: %v", args[1], err)
			}
			if runID == "" {
				runID = uuid.NewString()
			}
			return a.runWorker(cmd.Context(), kind, id, n, runID)
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "identifier shared by every worker of a batch")
	return cmd
}

func (a *app) runWorker(ctx context.Context, kind simulate.Kind, id, n int, runID string) error {
	cfg := a.cfg
	dict, err := loadDictionary(cfg)
	if err != nil {
		return err
	}
	session, err := workerSession(cfg, dict, kind)
	if err != nil {
		return err
	}

	in := openInfra(ctx, cfg, infraOptions{cache: true, sinks: true})
	defer in.Close()

	w, err := simulate.NewWorker(session, simulate.WorkerOptions{
		Kind:       kind,
		ID:         id,
		Count:      n,
		RunID:      runID,
		Dir:        shardDir(cfg, kind),
		MaxSecrets: cfg.Workers.MaxSecrets,
		Cache:      in.proposalCache(),
		Sinks:      in.sinks,
		Metrics:    in.metrics,
	})
	if err != nil {
		return err
	}
	runErr := w.Run(ctx)

	if url := cfg.Metrics.PushgatewayURL; url != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		grouping := map[string]string{"run_id": runID, "worker": strconv.Itoa(id)}
		if err := metrics.Push(pushCtx, url, "wordle_"+kind.String()+"_worker", in.reg, grouping); err != nil {
			slog.Warn("metrics push failed", "error", err)
		}
	}
	return runErr
}
