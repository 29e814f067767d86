package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/play"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/metrics"
)

func newPlayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Solve a game interactively from the feedback you enter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlay(cmd.Context())
		},
	}
}

func (a *app) runPlay(ctx context.Context) error {
	cfg := a.cfg
	dict, err := loadDictionary(cfg)
	if err != nil {
		return err
	}
	policy, curve := play.ChoosePolicy(cfg.Solver.TrainingGlob, cfg.Solver.BucketWidth)
	// Interactive games run until solved; the round cap only applies to
	// simulations.
	session, err := newSession(cfg, dict, policy, curve, 0)
	if err != nil {
		return err
	}

	in := openInfra(ctx, cfg, infraOptions{cache: true})
	defer in.Close()
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, in.reg, in.health.Routes)
		defer shutdown(context.Background())
	}

	_, err = play.New(session, os.Stdin, os.Stdout, in.proposalCache()).Run(ctx)
	return err
}
