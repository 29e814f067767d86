// Package cache memoises solver proposals. A proposal depends only on the
// dictionary, the policy inputs and the guess/feedback history, so every
// session that reaches the same history (in particular every fresh session
// asking for its opening guess) can reuse it. Entries live in process memory
// and, when configured, in Redis so that worker processes share them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/internal/solver"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/resilience"
)

// KeyPrefix starts every Redis key the cache writes.
const KeyPrefix = "wordle:proposal:"

const remoteTimeout = 2 * time.Second

// Backend is the shared store; *redis.Client satisfies it.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

// Options configures a ProposalCache. Backend may be nil for a
// process-local cache. IsMiss distinguishes a missing key from a failure.
type Options struct {
	Backend Backend
	IsMiss  func(error) bool
	TTL     time.Duration
	Metrics *metrics.Metrics
}

type ProposalCache struct {
	backend Backend
	isMiss  func(error) bool
	ttl     time.Duration
	breaker *resilience.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu    sync.RWMutex
	local map[string]entry
	group singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	Index         int      `json:"index"`
	Entropy       float64  `json:"entropy"`
	ExpectedScore *float64 `json:"expected_score,omitempty"`
	Policy        int      `json:"policy"`
}

func New(opts Options) *ProposalCache {
	c := &ProposalCache{
		backend: opts.Backend,
		isMiss:  opts.IsMiss,
		ttl:     opts.TTL,
		metrics: opts.Metrics,
		logger:  slog.Default().With("component", "proposal-cache"),
		local:   make(map[string]entry),
	}
	if c.isMiss == nil {
		c.isMiss = func(error) bool { return false }
	}
	c.breaker = resilience.NewBreaker("proposal-cache", resilience.BreakerConfig{
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
		OnStateChange: func(name string, _, to resilience.State) {
			if c.metrics != nil {
				c.metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return c
}

// Namespace identifies everything besides the history that a proposal
// depends on. Compute it once per session configuration.
func Namespace(s *solver.Session) string {
	midpoint, steepness := s.PriorParams()
	raw := strings.Join([]string{
		s.Dictionary().Digest(),
		s.Policy().String(),
		s.Curve().Digest(),
		strconv.FormatFloat(midpoint, 'g', -1, 64),
		strconv.FormatFloat(steepness, 'g', -1, 64),
	}, "|")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:12])
}

// Key is the cache key for the session's next proposal.
func Key(namespace string, history []solver.Round) string {
	var b strings.Builder
	for _, r := range history {
		fmt.Fprintf(&b, "%d.%d/", r.Index, r.Feedback.Index())
	}
	sum := sha256.Sum256([]byte(b.String()))
	return KeyPrefix + namespace + ":" + hex.EncodeToString(sum[:16])
}

// Propose leaves s holding its next proposal, taking it from the cache when
// possible and computing it with s.Step otherwise. Concurrent callers with
// the same key share one computation.
func (c *ProposalCache) Propose(ctx context.Context, s *solver.Session, namespace string) (solver.Proposal, bool, error) {
	key := Key(namespace, s.History())
	if p, ok := c.lookup(ctx, key); ok {
		err := s.Adopt(p)
		if err == nil {
			p, _ = s.Proposal()
			c.recordHit(p)
			return p, true, nil
		}
		c.logger.Warn("discarding unusable cached proposal", "key", key, "error", err)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		p, err := s.Step()
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, p)
		return p, nil
	})
	if err != nil {
		return solver.Proposal{}, false, err
	}
	p := v.(solver.Proposal)
	if cur, ok := s.Proposal(); !ok || cur.Index != p.Index {
		if err := s.Adopt(p); err != nil {
			return solver.Proposal{}, false, fmt.Errorf("adopting shared proposal: %w", err)
		}
		p, _ = s.Proposal()
	}
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
		c.metrics.ProposalsTotal.WithLabelValues(p.Policy.String(), "computed").Inc()
	}
	return p, false, nil
}

func (c *ProposalCache) recordHit(p solver.Proposal) {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
		c.metrics.ProposalsTotal.WithLabelValues(p.Policy.String(), "cache").Inc()
	}
}

func (c *ProposalCache) lookup(ctx context.Context, key string) (solver.Proposal, bool) {
	c.mu.RLock()
	e, ok := c.local[key]
	c.mu.RUnlock()
	if ok {
		return e.proposal(), true
	}
	if c.backend == nil {
		return solver.Proposal{}, false
	}

	var data string
	err := c.breaker.Do(func() error {
		getCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
		defer cancel()
		var err error
		data, err = c.backend.Get(getCtx, key)
		if c.isMiss(err) {
			// A miss is a healthy answer.
			data = ""
			return nil
		}
		return err
	})
	if err != nil {
		c.logger.Debug("remote cache get failed", "key", key, "error", err)
		return solver.Proposal{}, false
	}
	if data == "" {
		return solver.Proposal{}, false
	}
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return solver.Proposal{}, false
	}
	c.mu.Lock()
	c.local[key] = e
	c.mu.Unlock()
	return e.proposal(), true
}

func (c *ProposalCache) store(ctx context.Context, key string, p solver.Proposal) {
	e := entry{Index: p.Index, Entropy: p.Entropy, Policy: int(p.Policy)}
	if !math.IsInf(p.ExpectedScore, 0) && !math.IsNaN(p.ExpectedScore) {
		score := p.ExpectedScore
		e.ExpectedScore = &score
	}
	c.mu.Lock()
	c.local[key] = e
	c.mu.Unlock()
	if c.backend == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Do(func() error {
		setCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
		defer cancel()
		return c.backend.Set(setCtx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Debug("remote cache set failed", "key", key, "error", err)
	}
}

func (e entry) proposal() solver.Proposal {
	p := solver.Proposal{
		Index:         e.Index,
		Entropy:       e.Entropy,
		ExpectedScore: math.Inf(1),
		Policy:        solver.Policy(e.Policy),
	}
	if e.ExpectedScore != nil {
		p.ExpectedScore = *e.ExpectedScore
	}
	return p
}

// Invalidate drops every cached proposal, locally and in the backend.
func (c *ProposalCache) Invalidate(ctx context.Context) (int64, error) {
	c.mu.Lock()
	c.local = make(map[string]entry)
	c.mu.Unlock()
	if c.backend == nil {
		return 0, nil
	}
	deleted, err := c.backend.DeletePrefix(ctx, KeyPrefix)
	if err != nil {
		return deleted, fmt.Errorf("invalidating proposal cache: %w", err)
	}
	c.logger.Info("proposal cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *ProposalCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
