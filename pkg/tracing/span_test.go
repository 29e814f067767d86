package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := Start(context.Background(), "solve", "run-1/7")
	for i := 0; i < 2; i++ {
		_, round := StartChild(ctx, "round")
		round.SetAttr("remaining", 10-i)
		round.End()
	}
	root.End()

	assert.Same(t, root, FromContext(ctx))
	children := root.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "run-1/7", children[1].TraceID)
	assert.Equal(t, []slog.Attr{slog.Any("remaining", 9)}, children[1].Attrs())
}

func TestDetachedChild(t *testing.T) {
	_, span := StartChild(context.Background(), "orphan")
	span.End()
	assert.Empty(t, span.TraceID)
	assert.Nil(t, FromContext(context.Background()))
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, root := Start(context.Background(), "solve", "t1")
	_, child := StartChild(ctx, "round")
	child.SetAttr("guess", "CRANE")
	child.End()
	root.End()

	root.Log(ctx, logger, slog.LevelDebug)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "span=solve")
	assert.Contains(t, lines[0], "depth=0")
	assert.Contains(t, lines[1], "guess=CRANE")
	assert.Contains(t, lines[1], "depth=1")

	buf.Reset()
	quiet := slog.New(slog.NewTextHandler(&buf, nil))
	root.Log(ctx, quiet, slog.LevelDebug)
	assert.Empty(t, buf.String())
}
