package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/logger"
)

// shutdownGrace is how long a worker may take to flush after an interrupt
// before it is killed.
const shutdownGrace = 10 * time.Second

// WorkerCount resolves a requested worker count: non-positive means one per
// logical CPU, and requests above the CPU count are capped.
func WorkerCount(requested int) int {
	cpus := runtime.NumCPU()
	if requested <= 0 || requested > cpus {
		return cpus
	}
	return requested
}

// Spawner launches a batch of worker processes by re-executing a binary with
// the kind's worker subcommand.
type Spawner struct {
	// Executable defaults to the running binary.
	Executable string
	// Args are appended after the worker arguments, e.g. a --config flag.
	Args []string
	// Stdout and Stderr are inherited by every worker.
	Stdout io.Writer
	Stderr io.Writer
	// Progress receives a progress bar; nil disables it.
	Progress io.Writer

	logger *slog.Logger
}

func NewSpawner(args []string) *Spawner {
	return &Spawner{
		Args:   args,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		logger: logger.WithComponent("spawner"),
	}
}

// Run starts n workers of the given kind and waits for all of them. A worker
// that cannot be started stops further spawning; the batch fails if any
// worker fails, but workers already running are left to finish and their
// shards are kept.
func (s *Spawner) Run(ctx context.Context, kind Kind, n int, runID string) error {
	if n < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", n)
	}
	exe := s.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return fmt.Errorf("%w: locating executable: %v", apperrors.ErrWorkerFailed, err)
		}
	}
	log := s.log().With("kind", kind.String(), "run_id", runID)

	bar := s.progress(kind, n)
	var g errgroup.Group
	var spawnErr error
	started := 0
	for id := 0; id < n; id++ {
		args := append([]string{kind.WorkerCommand(), strconv.Itoa(id), strconv.Itoa(n), "--run-id", runID}, s.Args...)
		cmd := exec.CommandContext(ctx, exe, args...)
		cmd.Stdout = s.Stdout
		cmd.Stderr = s.Stderr
		cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
		cmd.WaitDelay = shutdownGrace

		if err := cmd.Start(); err != nil {
			spawnErr = fmt.Errorf("starting worker %d: %w", id, err)
			log.Error("worker spawn failed", "worker_id", id, "error", err)
			break
		}
		started++
		log.Debug("worker started", "worker_id", id, "pid", cmd.Process.Pid)

		g.Go(func() error {
			err := cmd.Wait()
			if bar != nil {
				_ = bar.Add(1)
			}
			if err != nil {
				log.Error("worker failed", "worker_id", id, "error", err)
				return fmt.Errorf("worker %d: %w", id, err)
			}
			return nil
		})
	}

	waitErr := g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}
	if err := errors.Join(spawnErr, waitErr); err != nil {
		return fmt.Errorf("%w: %s batch %s: %w", apperrors.ErrWorkerFailed, kind, runID, err)
	}
	log.Info("worker batch finished", "workers", started)
	return nil
}

func (s *Spawner) progress(kind Kind, n int) *progressbar.ProgressBar {
	if s.Progress == nil {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(s.Progress),
		progressbar.OptionSetDescription(kind.String()+" workers"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
	)
}

func (s *Spawner) log() *slog.Logger {
	if s.logger == nil {
		s.logger = logger.WithComponent("spawner")
	}
	return s.logger
}
