package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/calibration"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/simulate"
)

func newCurveCmd(a *app) *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Print the calibration curve built from the training shards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pattern == "" {
				pattern = a.cfg.Solver.TrainingGlob
			}
			curve, err := calibration.LoadFromGlob(pattern, a.cfg.Solver.BucketWidth)
			if err != nil {
				return err
			}
			return writeCurve(cmd.OutOrStdout(), curve)
		},
	}
	cmd.Flags().StringVar(&pattern, "shards", "", "shard glob (defaults to solver.trainingGlob)")
	return cmd
}

func writeCurve(w io.Writer, curve *calibration.Curve) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "entropy\tavg moves\tsamples\t")
	for _, b := range curve.Buckets() {
		fmt.Fprintf(tw, "%.2f\t%.4f\t%d\t\n", b.Centre, b.AvgMoves, b.Count)
	}
	return tw.Flush()
}

func newReportCmd(a *app) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise the test shards, or a stored run when --run-id is set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID != "" {
				return a.reportRun(cmd.Context(), cmd.OutOrStdout(), runID)
			}
			glob := simulate.Test.ShardGlob(a.cfg.Workers.TestDir)
			sum, err := simulate.Summarise(glob)
			if err != nil {
				return err
			}
			return sum.Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "summarise a run recorded in PostgreSQL")
	return cmd
}

func (a *app) reportRun(ctx context.Context, w io.Writer, runID string) error {
	if !a.cfg.Postgres.Enabled {
		return errors.New("--run-id needs postgres.enabled")
	}
	in := openInfra(ctx, a.cfg, infraOptions{store: true})
	defer in.Close()
	if in.store == nil {
		return errors.New("postgres is unavailable")
	}
	sum, err := in.store.Summary(ctx, runID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "run: %s\nsecrets: %d\nsolved: %d\nmean guesses: %.4f\n",
		sum.RunID, sum.Secrets, sum.Solved, sum.AvgRounds)
	return err
}

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the shared proposal cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached proposal from Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Redis.Enabled {
				return errors.New("redis.enabled is false, nothing to clear")
			}
			in := openInfra(cmd.Context(), a.cfg, infraOptions{cache: true})
			defer in.Close()
			if in.redis == nil {
				return errors.New("redis is unavailable")
			}
			deleted, err := in.proposalCache().Invalidate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d cached proposals\n", deleted)
			return nil
		},
	})
	return cmd
}
