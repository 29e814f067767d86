package results

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/kafka"
)

// BatchPublisher is the part of *kafka.Producer the Publisher uses.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
	Close() error
}

// Publisher buffers session results and publishes them to Kafka when the
// buffer reaches batchSize, when flushInterval elapses, and on Close.
type Publisher struct {
	producer      BatchPublisher
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger

	mu     sync.Mutex
	buffer []kafka.Event

	stop chan struct{}
	done chan struct{}
}

func NewPublisher(producer BatchPublisher, batchSize int, flushInterval time.Duration) *Publisher {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	p := &Publisher{
		producer:      producer,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "results-publisher"),
		buffer:        make([]kafka.Event, 0, batchSize),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *Publisher) loop() {
	defer close(p.done)
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := p.Flush(context.Background()); err != nil {
				p.logger.Error("periodic flush failed", "error", err)
			}
		case <-p.stop:
			return
		}
	}
}

// Record buffers r, publishing the buffer once it is full. Events that fail
// to publish stay buffered for the next flush.
func (p *Publisher) Record(ctx context.Context, r SessionResult) error {
	key := r.RunID + ":" + strconv.Itoa(r.SecretIndex)
	p.mu.Lock()
	p.buffer = append(p.buffer, kafka.Event{Key: key, Value: r})
	full := len(p.buffer) >= p.batchSize
	p.mu.Unlock()
	if full {
		return p.Flush(ctx)
	}
	return nil
}

// Flush publishes everything buffered.
func (p *Publisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buffer) == 0 {
		return nil
	}
	if err := p.producer.PublishBatch(ctx, p.buffer); err != nil {
		// Keep at most three batches; drop the oldest beyond that.
		if limit := p.batchSize * 3; len(p.buffer) > limit {
			dropped := len(p.buffer) - limit
			p.buffer = append(p.buffer[:0], p.buffer[dropped:]...)
			p.logger.Warn("buffer overflow, results dropped", "dropped", dropped)
		}
		return fmt.Errorf("publishing %d results: %w", len(p.buffer), err)
	}
	p.logger.Debug("results published", "count", len(p.buffer))
	p.buffer = p.buffer[:0]
	return nil
}

// Buffered returns the number of unpublished results.
func (p *Publisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}

// Close stops the flush loop, publishes what is left and closes the producer.
func (p *Publisher) Close() error {
	close(p.stop)
	<-p.done
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	flushErr := p.Flush(ctx)
	if err := p.producer.Close(); err != nil && flushErr == nil {
		return err
	}
	return flushErr
}
