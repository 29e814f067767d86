// Package simulate generates calibration and evaluation data by replaying
// complete solve sessions against known secrets. Secrets are split across
// independent workers by stride partition; each worker owns its session and
// its shard file, so workers share no mutable state and the only
// synchronisation is waiting for all of them to finish.
package simulate

import (
	"fmt"
	"path/filepath"
)

// Kind selects what a batch of workers produces.
type Kind int

const (
	// Train shards feed the calibration curve.
	Train Kind = iota
	// Test shards measure how a configured solver performs.
	Test
)

func (k Kind) String() string {
	switch k {
	case Train:
		return "train"
	case Test:
		return "test"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// WorkerCommand is the subcommand a spawned worker process runs.
func (k Kind) WorkerCommand() string {
	return k.String() + "-worker"
}

func (k Kind) filePrefix() string {
	if k == Train {
		return "training_data"
	}
	return "testing_data"
}

// ShardPath is the file worker id appends to inside dir.
func (k Kind) ShardPath(dir string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%d.csv", k.filePrefix(), id))
}

// ShardGlob matches every shard of this kind inside dir.
func (k Kind) ShardGlob(dir string) string {
	return filepath.Join(dir, k.filePrefix()+"*.csv")
}
