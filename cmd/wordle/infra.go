package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/calibration"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/results"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/simulate"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/solver"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/word"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/health"
	pkgkafka "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/resilience"
)

const (
	trainKind = simulate.Train
	testKind  = simulate.Test
)

// connectRetry bounds how long a command waits for an optional backend.
var connectRetry = resilience.RetryConfig{MaxAttempts: 3}

// infra holds the optional backends a command was configured with. Every
// backend is best effort: a connection failure is logged and the command
// runs without it.
type infra struct {
	cfg     *config.Config
	reg     *prometheus.Registry
	metrics *metrics.Metrics
	redis   *pkgredis.Client
	pg      *postgres.Client
	store   *results.Store
	sinks   *results.Fanout
	health  *health.Checker
	closers []func() error
	logger  *slog.Logger
}

type infraOptions struct {
	cache bool
	sinks bool
	store bool
}

func openInfra(ctx context.Context, cfg *config.Config, opts infraOptions) *infra {
	in := &infra{
		cfg:    cfg,
		reg:    prometheus.NewRegistry(),
		health: health.NewChecker(),
		logger: slog.Default().With("component", "infra"),
	}
	in.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	in.metrics = metrics.New(in.reg)
	in.sinks = results.NewFanout(func(sink string, err error) {
		in.metrics.SinkFailuresTotal.WithLabelValues(sink).Inc()
	})

	if opts.cache && cfg.Redis.Enabled {
		in.connectRedis(ctx)
	}
	if (opts.sinks || opts.store) && cfg.Postgres.Enabled {
		in.connectPostgres(ctx, opts.sinks)
	}
	if opts.sinks && cfg.Kafka.Enabled {
		producer := pkgkafka.NewProducer(cfg.Kafka, cfg.Kafka.ResultsTopic)
		in.sinks.Add("kafka", results.NewPublisher(producer, cfg.Kafka.BatchSize, cfg.Kafka.FlushInterval))
		in.logger.Info("publishing session results", "topic", cfg.Kafka.ResultsTopic)
	}
	return in
}

func (in *infra) connectRedis(ctx context.Context) {
	err := resilience.Retry(ctx, "redis-connect", connectRetry, func() error {
		c, err := pkgredis.NewClient(ctx, in.cfg.Redis)
		if err != nil {
			return err
		}
		in.redis = c
		return nil
	})
	if err != nil {
		in.logger.Warn("redis unavailable, using process-local proposal cache", "error", err)
		in.health.Register("redis", unavailable(err))
		return
	}
	in.closers = append(in.closers, in.redis.Close)
	in.health.Register("redis", health.Optional(in.redis.Ping))
}

func (in *infra) connectPostgres(ctx context.Context, asSink bool) {
	err := resilience.Retry(ctx, "postgres-connect", connectRetry, func() error {
		c, err := postgres.New(ctx, in.cfg.Postgres)
		if err != nil {
			return err
		}
		in.pg = c
		return nil
	})
	if err != nil {
		in.logger.Warn("postgres unavailable, session results not stored", "error", err)
		in.health.Register("postgres", unavailable(err))
		return
	}
	in.closers = append(in.closers, in.pg.Close)
	in.health.Register("postgres", health.Optional(in.pg.DB.PingContext))
	in.store = results.NewStore(in.pg.DB)
	if err := in.store.EnsureSchema(ctx); err != nil {
		in.logger.Warn("session_results schema unavailable", "error", err)
		in.store = nil
		return
	}
	if asSink {
		in.sinks.Add("postgres", in.store)
	}
}

// unavailable reports a backend that could not be connected at startup.
func unavailable(err error) health.Check {
	return func(context.Context) health.Component {
		return health.Component{Status: health.StatusDegraded, Message: err.Error()}
	}
}

// proposalCache returns a cache backed by Redis when it is connected.
func (in *infra) proposalCache() *cache.ProposalCache {
	opts := cache.Options{Metrics: in.metrics, TTL: in.cfg.Redis.CacheTTL}
	if in.redis != nil {
		opts.Backend = in.redis
		opts.IsMiss = pkgredis.IsMiss
	}
	return cache.New(opts)
}

// Close flushes the sinks before releasing connections they write through.
func (in *infra) Close() error {
	errs := []error{in.sinks.Close()}
	for i := len(in.closers) - 1; i >= 0; i-- {
		errs = append(errs, in.closers[i]())
	}
	return errors.Join(errs...)
}

func loadDictionary(cfg *config.Config) (*word.Dictionary, error) {
	dict, err := word.LoadDictionary(cfg.Solver.DictionaryPath)
	if err != nil {
		return nil, err
	}
	slog.Info("dictionary loaded", "path", cfg.Solver.DictionaryPath, "words", dict.Len())
	return dict, nil
}

func newSession(cfg *config.Config, dict *word.Dictionary, policy solver.Policy, curve *calibration.Curve, maxRounds int) (*solver.Session, error) {
	s, err := solver.New(dict, solver.Options{
		Policy:         policy,
		Curve:          curve,
		PriorMidpoint:  cfg.Solver.PriorMidpoint,
		PriorSteepness: cfg.Solver.PriorSteepness,
		MaxRounds:      maxRounds,
	})
	if err != nil {
		return nil, fmt.Errorf("creating solver: %w", err)
	}
	return s, nil
}

// workerSession builds the session a worker of the given kind plays with.
// Train workers maximise entropy; test workers minimise the expected score
// with the curve from the training shards, or fall back when there is none.
func workerSession(cfg *config.Config, dict *word.Dictionary, kind simulate.Kind) (*solver.Session, error) {
	if kind == simulate.Train {
		return newSession(cfg, dict, solver.MaximizeEntropy, nil, cfg.Solver.MaxRounds)
	}
	curve, err := calibration.LoadFromGlob(cfg.Solver.TrainingGlob, cfg.Solver.BucketWidth)
	if err != nil && !errors.Is(err, apperrors.ErrCurveUnavailable) {
		slog.Warn("training shards unreadable", "pattern", cfg.Solver.TrainingGlob, "error", err)
	}
	return newSession(cfg, dict, solver.MinimizeScore, curve, cfg.Solver.MaxRounds)
}

func shardDir(cfg *config.Config, kind simulate.Kind) string {
	if kind == simulate.Train {
		return cfg.Workers.TrainDir
	}
	return cfg.Workers.TestDir
}
