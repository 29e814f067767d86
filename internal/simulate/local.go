package simulate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
)

// WorkerFactory builds worker id of n with everything it needs of its own.
type WorkerFactory func(id, n int) (*Worker, error)

// RunInProcess runs n workers as goroutines. Each worker comes from its own
// factory call so that no session or shard is shared. The first failure
// cancels the others between secrets.
func RunInProcess(ctx context.Context, n int, newWorker WorkerFactory) error {
	if n < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", n)
	}
	workers := make([]*Worker, n)
	for id := range workers {
		w, err := newWorker(id, n)
		if err != nil {
			return fmt.Errorf("%w: building worker %d: %w", apperrors.ErrWorkerFailed, id, err)
		}
		workers[id] = w
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrWorkerFailed, err)
	}
	return nil
}
