package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// StartServer serves /metrics for g on port until the returned shutdown
// function is called. Each route function may register further handlers,
// e.g. health endpoints.
func StartServer(port int, g prometheus.Gatherer, routes ...func(*http.ServeMux)) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	for _, r := range routes {
		r(mux)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}

// Push sends everything g gathers to a Pushgateway, grouped by the given
// labels. Workers call it once before exiting.
func Push(ctx context.Context, url, job string, g prometheus.Gatherer, grouping map[string]string) error {
	p := push.New(url, job).Gatherer(g)
	for k, v := range grouping {
		p = p.Grouping(k, v)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
