package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/logger"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "wordle",
		Short: "Entropy-based Wordle solver with simulation-calibrated scoring",
		Long: `wordle proposes guesses that maximise expected information or minimise the
expected number of guesses, narrows the candidates from the feedback you enter,
and generates the training and test data that calibrate its scoring.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
			slog.Debug("configuration loaded", "path", a.configPath, "command", cmd.Name())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "path to config file")

	root.AddCommand(
		newPlayCmd(a),
		newBatchCmd(a, trainKind),
		newBatchCmd(a, testKind),
		newWorkerCmd(a, trainKind),
		newWorkerCmd(a, testKind),
		newCurveCmd(a),
		newReportCmd(a),
		newCacheCmd(a),
	)
	return root
}

// workerArgs are passed through to spawned workers so they read the same
// configuration as the parent.
func (a *app) workerArgs() []string {
	return []string{"--config=" + a.configPath}
}
