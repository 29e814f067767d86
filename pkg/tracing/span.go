// Package tracing records timed span trees for one unit of work, such as a
// simulated solve, and writes them to slog once the work is done.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

type Span struct {
	Name     string
	TraceID  string
	Start    time.Time
	Duration time.Duration

	mu       sync.Mutex
	attrs    []slog.Attr
	children []*Span
}

// Start begins a root span and stores it in the returned context.
func Start(ctx context.Context, name, traceID string) (context.Context, *Span) {
	span := &Span{Name: name, TraceID: traceID, Start: time.Now()}
	return context.WithValue(ctx, contextKey{}, span), span
}

// StartChild begins a span under the one in ctx. Without a parent the span
// is detached and only its own timing is kept.
func StartChild(ctx context.Context, name string) (context.Context, *Span) {
	child := &Span{Name: name, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		child.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, child), child
}

func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

func (s *Span) End() {
	s.Duration = time.Since(s.Start)
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

func (s *Span) Attrs() []slog.Attr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]slog.Attr(nil), s.attrs...)
}

func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// Log writes the tree depth first, one record per span, at level.
func (s *Span) Log(ctx context.Context, logger *slog.Logger, level slog.Level) {
	if !logger.Enabled(ctx, level) {
		return
	}
	s.log(ctx, logger, level, 0)
}

func (s *Span) log(ctx context.Context, logger *slog.Logger, level slog.Level, depth int) {
	attrs := append([]slog.Attr{
		slog.String("trace_id", s.TraceID),
		slog.String("span", s.Name),
		slog.Float64("duration_ms", float64(s.Duration.Microseconds())/1000),
		slog.Int("depth", depth),
	}, s.Attrs()...)
	logger.LogAttrs(ctx, level, "span", attrs...)
	for _, child := range s.Children() {
		child.log(ctx, logger, level, depth+1)
	}
}
