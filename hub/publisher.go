package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rishabhfit2026/MiniTelemetry/component"
	"github.com/rishabhfit2026/MiniTelemetry/errors"
	"github.com/rishabhfit2026/MiniTelemetry/metric"
	"github.com/rishabhfit2026/MiniTelemetry/pkg/queue"
	"github.com/rishabhfit2026/MiniTelemetry/telemetry"
)

// DefaultSubject is the transport subject readings are published on.
const DefaultSubject = "telemetry.readings"

// progressEvery controls how often the publisher logs a progress line.
const progressEvery = 25

// Transport is the outbound boundary the publisher hands encoded
// payloads to. The NATS client satisfies it; tests substitute a capture.
type Transport interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Publisher is the single consumer of the handoff queue. It pops
// readings one at a time, assigns each the next sequence number for its
// sensor, encodes the wire payload, and publishes it. Sequence
// assignment and counter increment happen under one lock so no two
// readings from the same sensor ever share a sequence.
type Publisher struct {
	queue     *queue.Queue[telemetry.Reading]
	transport Transport
	subject   string
	logger    *slog.Logger
	core      *metric.Metrics

	mu        sync.Mutex
	sequences map[int]uint64
	published uint64
	started   bool

	done chan struct{}
}

// NewPublisher creates a publisher draining q into transport.
func NewPublisher(q *queue.Queue[telemetry.Reading], transport Transport, subject string, deps *component.Dependencies) (*Publisher, error) {
	if q == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Publisher", "NewPublisher", "nil queue")
	}
	if transport == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Publisher", "NewPublisher", "nil transport")
	}
	if subject == "" {
		subject = DefaultSubject
	}

	return &Publisher{
		queue:     q,
		transport: transport,
		subject:   subject,
		logger:    deps.GetLoggerWithComponent("publisher"),
		core:      deps.CoreMetrics(),
		sequences: make(map[int]uint64),
		done:      make(chan struct{}),
	}, nil
}

// Name implements component.LifecycleComponent.
func (p *Publisher) Name() string { return "publisher" }

// Initialize implements component.LifecycleComponent.
func (p *Publisher) Initialize() error { return nil }

// Start launches the consumer loop. The loop runs until the queue is
// closed and drained; cancelling ctx alone does not terminate it, so
// producers must close the queue during shutdown.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Publisher", "Start", "already started")
	}
	p.started = true

	go p.run(ctx)
	return nil
}

// Stop waits for the consumer loop to drain the queue and exit, then
// logs the final per-sensor sequence summary.
func (p *Publisher) Stop(timeout time.Duration) error {
	select {
	case <-p.done:
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("consumer still draining after %v", timeout),
			"Publisher", "Stop", "wait for drain")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Info("publisher summary", "total_published", p.published)
	for id, next := range p.sequences {
		p.logger.Info("sensor summary", "sensor", id, "messages", next)
	}
	return nil
}

// Published returns the total number of successfully published readings.
func (p *Publisher) Published() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published
}

// Sequences returns a copy of the per-sensor next-sequence counters.
func (p *Publisher) Sequences() map[int]uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[int]uint64, len(p.sequences))
	for id, seq := range p.sequences {
		out[id] = seq
	}
	return out
}

// run is the consumer loop. Pop blocks until a reading is available or
// the queue is closed and drained.
func (p *Publisher) run(ctx context.Context) {
	defer close(p.done)

	p.logger.Info("publishing readings", "subject", p.subject)

	for {
		reading, ok := p.queue.Pop()
		if !ok {
			p.logger.Info("queue closed and drained, publisher exiting")
			return
		}

		reading.Sequence = p.nextSequence(reading.SourceID)

		data, err := telemetry.Encode(reading)
		if err != nil {
			p.logger.Error("encode reading failed",
				"sensor", reading.SourceID, "error", err)
			if p.core != nil {
				p.core.RecordError("publisher", "encode")
			}
			continue
		}

		if err := p.transport.Publish(ctx, p.subject, data); err != nil {
			// The sequence is already consumed; downstream sees this as a
			// gap, which is exactly what a lost publish is.
			p.logger.Error("publish failed",
				"sensor", reading.SourceID, "sequence", reading.Sequence, "error", err)
			if p.core != nil {
				p.core.RecordError("publisher", "publish")
			}
			continue
		}

		total := p.recordPublished(reading.SourceID)
		if total%progressEvery == 0 {
			p.logger.Info("published",
				"total", total, "sensor", reading.SourceID, "sequence", reading.Sequence)
		}
	}
}

// nextSequence returns the sequence for a sensor's next reading and
// advances the counter atomically with respect to other lookups.
func (p *Publisher) nextSequence(sourceID int) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	seq := p.sequences[sourceID]
	p.sequences[sourceID] = seq + 1
	return seq
}

func (p *Publisher) recordPublished(sourceID int) uint64 {
	p.mu.Lock()
	p.published++
	total := p.published
	p.mu.Unlock()

	if p.core != nil {
		p.core.RecordReadingPublished(fmt.Sprintf("sensor-%d", sourceID))
	}
	return total
}
