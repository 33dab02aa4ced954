package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/rishabhfit2026/MiniTelemetry/errors"
)

// Subscriber is the inbound transport boundary. The NATS client
// satisfies it; tests substitute a direct feed.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error
}

// Receiver subscribes to the readings subject and feeds every delivered
// payload to the tracker. Decode failures are already handled inside
// the tracker (log and skip), so the delivery callback never fails the
// subscription.
type Receiver struct {
	subscriber Subscriber
	subject    string
	tracker    *Tracker
	logger     *slog.Logger
}

// NewReceiver creates a receiver feeding tracker from subscriber.
func NewReceiver(subscriber Subscriber, subject string, tracker *Tracker, logger *slog.Logger) (*Receiver, error) {
	if subscriber == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Receiver", "NewReceiver", "nil subscriber")
	}
	if tracker == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Receiver", "NewReceiver", "nil tracker")
	}
	if subject == "" {
		subject = "telemetry.readings"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Receiver{
		subscriber: subscriber,
		subject:    subject,
		tracker:    tracker,
		logger:     logger,
	}, nil
}

// Name implements component.LifecycleComponent.
func (r *Receiver) Name() string { return "receiver" }

// Initialize implements component.LifecycleComponent.
func (r *Receiver) Initialize() error { return nil }

// Start subscribes to the readings subject.
func (r *Receiver) Start(ctx context.Context) error {
	err := r.subscriber.Subscribe(ctx, r.subject, func(_ context.Context, data []byte) {
		// Tracker logs and skips malformed tuples
		_ = r.tracker.IngestPayload(data)
	})
	if err != nil {
		return errors.WrapTransient(err, "Receiver", "Start", "subscribe to readings")
	}

	r.logger.Info("listening for readings", "subject", r.subject)
	return nil
}

// Stop implements component.LifecycleComponent. The subscription is torn
// down when the NATS client closes.
func (r *Receiver) Stop(_ time.Duration) error { return nil }
