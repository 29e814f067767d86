// Package health reports whether the backends a long-running command was
// configured with are reachable. Checks run concurrently and the report's
// status is the worst component status.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Check probes one backend.
type Check func(ctx context.Context) Component

type Component struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

type Report struct {
	Status     Status               `json:"status"`
	Components map[string]Component `json:"components"`
	Timestamp  string               `json:"timestamp"`
}

type Checker struct {
	mu     sync.RWMutex
	checks map[string]Check
	logger *slog.Logger
}

func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]Check),
		logger: slog.Default().With("component", "health"),
	}
}

// Register adds a named check, replacing any check with the same name.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Optional turns a ping into a Check for a backend the solver can run
// without: a failed ping degrades rather than takes the report down.
func Optional(ping func(ctx context.Context) error) Check {
	return func(ctx context.Context) Component {
		if err := ping(ctx); err != nil {
			return Component{Status: StatusDegraded, Message: err.Error()}
		}
		return Component{Status: StatusUp}
	}
}

// Run executes every registered check.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]Component, len(checks)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	var mu sync.Mutex
	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			start := time.Now()
			result := check(ctx)
			result.Latency = time.Since(start).Round(time.Millisecond).String()
			mu.Lock()
			report.Components[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for name, comp := range report.Components {
		switch comp.Status {
		case StatusDown:
			report.Status = StatusDown
		case StatusDegraded:
			if report.Status == StatusUp {
				report.Status = StatusDegraded
			}
			c.logger.Debug("backend degraded", "backend", name, "message", comp.Message)
		}
	}
	return report
}

// Routes registers the liveness and readiness endpoints on mux. Readiness
// fails only when a component is down.
func (c *Checker) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
	mux.HandleFunc("GET /health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		report := c.Run(ctx)
		code := http.StatusOK
		if report.Status == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
