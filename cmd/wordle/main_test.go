package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
)

var cliWords = []string{"crane", "slate", "trace", "crate", "grace", "brace", "plate", "place"}

// workspace writes a dictionary and a config pointing every path into a
// temporary directory, and returns the config path.
func workspace(t *testing.T, bucketWidth float64) (dir, configPath string) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir = t.TempDir()
	dictPath := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(dictPath, []byte(strings.Join(cliWords, "\n")+"\n"), 0o644))

	configPath = filepath.Join(dir, "solver.yaml")
	cfg := fmt.Sprintf(`solver:
  dictionaryPath: %q
  bucketWidth: %v
  trainingGlob: %q
workers:
  trainDir: %q
  testDir: %q
logging:
  level: error
`, dictPath, bucketWidth,
		filepath.Join(dir, "train", "training_data*.csv"),
		filepath.Join(dir, "train"),
		filepath.Join(dir, "test"))
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))
	return dir, configPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeShard(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

const shardBody = "secret_idx,entropy,moves_remaining\n0,2,2\n0,0,1\n1,2,3\n1,1,2\n1,0,1\n"

func TestCurveCommand(t *testing.T) {
	dir, cfg := workspace(t, 0.5)
	writeShard(t, filepath.Join(dir, "train", "training_data.0.csv"), shardBody)

	out, err := execute(t, "--config", cfg, "curve")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4, out)
	assert.Contains(t, lines[0], "entropy")
	assert.Equal(t, []string{"0.25", "1.0000", "2"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"1.25", "2.0000", "1"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"2.25", "2.5000", "2"}, strings.Fields(lines[3]))
}

func TestCurveCommandWithoutShards(t *testing.T) {
	_, cfg := workspace(t, 0.5)
	_, err := execute(t, "--config", cfg, "curve")
	assert.ErrorIs(t, err, apperrors.ErrCurveUnavailable)
	assert.Equal(t, apperrors.ExitDataLoad, apperrors.ExitCode(err))
}

func TestReportCommand(t *testing.T) {
	dir, cfg := workspace(t, 0.5)
	writeShard(t, filepath.Join(dir, "test", "testing_data.0.csv"), shardBody)

	out, err := execute(t, "--config", cfg, "report")
	require.NoError(t, err)
	assert.Equal(t, "sessions: 2\nmean guesses: 2.5000\nmax guesses: 3\n 2 guesses: 1\n 3 guesses: 1\n", out)
}

func TestReportRunNeedsPostgres(t *testing.T) {
	_, cfg := workspace(t, 0.5)
	_, err := execute(t, "--config", cfg, "report", "--run-id", "abc")
	assert.ErrorContains(t, err, "postgres.enabled")
}

func TestBadConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "curve")
	assert.Error(t, err)
}

func TestNegativeWorkerCount(t *testing.T) {
	_, cfg := workspace(t, 0.5)
	_, err := execute(t, "--config", cfg, "train", "--workers=-1")
	assert.ErrorIs(t, err, apperrors.ErrWorkerFailed)
	assert.Equal(t, apperrors.ExitInput, apperrors.ExitCode(err))
}

func TestWorkerArgsValidated(t *testing.T) {
	_, cfg := workspace(t, 0.5)
	_, err := execute(t, "--config", cfg, "train-worker", "x", "2")
	assert.Equal(t, apperrors.ExitInput, apperrors.ExitCode(err))
}

func TestInProcessTrainThenTest(t *testing.T) {
	_, cfg := workspace(t, 0.2)

	out, err := execute(t, "--config", cfg, "train", "--in-process", "-w", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Calibration curve:")

	out, err = execute(t, "--config", cfg, "test", "--in-process", "-w", "2")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("sessions: %d\n", len(cliWords)))

	out, err = execute(t, "--config", cfg, "report")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, fmt.Sprintf("sessions: %d\n", len(cliWords))), out)

	out, err = execute(t, "--config", cfg, "curve")
	require.NoError(t, err)
	assert.Contains(t, out, "avg moves")
}
