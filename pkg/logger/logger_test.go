package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureDefault(t *testing.T, level, format string) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	SetupWriter(&buf, level, format)
	return &buf
}

func TestFromContextTagsWorker(t *testing.T) {
	buf := captureDefault(t, "info", "json")

	ctx := WithWorker(context.Background(), "run-7", 3)
	FromContext(ctx).Info("secret solved", "secret_idx", 12)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "secret solved", rec["msg"])
	assert.Equal(t, "run-7", rec["run_id"])
	assert.Equal(t, float64(3), rec["worker_id"])
	assert.Equal(t, float64(12), rec["secret_idx"])
}

func TestFromContextWithoutWorker(t *testing.T) {
	buf := captureDefault(t, "info", "text")
	FromContext(context.Background()).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.NotContains(t, buf.String(), "worker_id")
}

func TestLevelFilter(t *testing.T) {
	buf := captureDefault(t, "warn", "text")
	WithComponent("play").Info("dropped")
	WithComponent("play").Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "component=play")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
