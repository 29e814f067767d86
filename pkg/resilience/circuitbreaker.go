// Package resilience provides the fault-tolerance primitives used around the
// optional network sinks: a circuit breaker that stops the solver from waiting
// on an unhealthy cache, and an exponential-backoff retry.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig controls when the breaker trips and how long it stays open.
// OnStateChange runs with the breaker's lock held and must not call back
// into the breaker.
type BreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
	OnStateChange    func(name string, from, to State)
}

// Breaker trips open after FailureThreshold consecutive failures, rejects
// calls for Cooldown, then lets a single probe through.
type Breaker struct {
	name   string
	cfg    BreakerConfig
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "circuit-breaker", "name", name),
	}
}

// Do runs fn unless the breaker is open.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		wait := b.cfg.Cooldown - b.now().Sub(b.openedAt)
		if wait > 0 {
			return fmt.Errorf("%w: %s (retry after %v)", ErrCircuitOpen, b.name, wait)
		}
		b.transition(StateHalfOpen)
		b.probing = true
	case StateHalfOpen:
		if b.probing {
			return fmt.Errorf("%w: %s (probe in flight)", ErrCircuitOpen, b.name)
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	if err == nil {
		b.failures = 0
		if b.state != StateClosed {
			b.transition(StateClosed)
		}
		return
	}
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.openedAt = b.now()
		if b.state != StateOpen {
			b.transition(StateOpen)
		}
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.logger.Info("circuit state changed", "from", from, "to", to, "consecutive_failures", b.failures)
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, to)
	}
}
