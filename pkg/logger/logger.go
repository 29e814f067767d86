package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type contextKey struct{}

// Setup installs the default slog logger. Worker processes share stdout with
// their parent, so every record goes to stderr to keep the interactive prompt
// on stdout readable.
func Setup(level string, format string) {
	SetupWriter(os.Stderr, level, format)
}

func SetupWriter(w io.Writer, level string, format string) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithWorker attaches the worker identity to ctx so FromContext can tag every
// record a worker emits.
func WithWorker(ctx context.Context, runID string, workerID int) context.Context {
	return context.WithValue(ctx, contextKey{}, workerTag{runID: runID, workerID: workerID})
}

type workerTag struct {
	runID    string
	workerID int
}

func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if tag, ok := ctx.Value(contextKey{}).(workerTag); ok {
		logger = logger.With("run_id", tag.runID, "worker_id", tag.workerID)
	}
	return logger
}

func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
