// Package metrics defines the Prometheus collectors the solver commands
// record into and the two ways they leave the process: a scrape endpoint for
// long-running commands and a Pushgateway push for short-lived workers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. Every field is safe for concurrent use.
type Metrics struct {
	StepDuration       *prometheus.HistogramVec
	ProposalsTotal     *prometheus.CounterVec
	PossibilitySetSize prometheus.Histogram
	SecretsSimulated   *prometheus.CounterVec
	GuessesPerSecret   *prometheus.HistogramVec
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	SinkFailuresTotal  *prometheus.CounterVec
	BreakerState       *prometheus.GaugeVec
	WorkersRunning     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solver_step_duration_seconds",
				Help:    "Time spent proposing one guess.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 9),
			},
			[]string{"policy"},
		),
		ProposalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solver_proposals_total",
				Help: "Guesses proposed, by policy and source (computed or cache).",
			},
			[]string{"policy", "source"},
		),
		PossibilitySetSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "solver_possibility_set_size",
				Help:    "Candidates remaining when a guess is proposed.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		SecretsSimulated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simulate_secrets_total",
				Help: "Secrets played by workers, by run kind and outcome (solved, exhausted, failed).",
			},
			[]string{"kind", "outcome"},
		),
		GuessesPerSecret: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "simulate_guesses_per_secret",
				Help:    "Guesses needed to narrow a secret to one candidate.",
				Buckets: prometheus.LinearBuckets(1, 1, 8),
			},
			[]string{"kind"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "proposal_cache_hits_total",
				Help: "Proposals served from the cache.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "proposal_cache_misses_total",
				Help: "Proposals that had to be computed.",
			},
		),
		SinkFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "result_sink_failures_total",
				Help: "Session results a sink failed to record, by sink.",
			},
			[]string{"sink"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		WorkersRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "simulate_workers_running",
				Help: "Worker processes or goroutines currently running.",
			},
		),
	}

	reg.MustRegister(
		m.StepDuration,
		m.ProposalsTotal,
		m.PossibilitySetSize,
		m.SecretsSimulated,
		m.GuessesPerSecret,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.SinkFailuresTotal,
		m.BreakerState,
		m.WorkersRunning,
	)
	return m
}

// Handler returns the scrape handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
