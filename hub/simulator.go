// Package hub implements the publisher-side pipeline: a Simulator that
// runs one generator goroutine per sensor feeding a shared handoff queue,
// and a Publisher that drains the queue, assigns per-sensor sequence
// numbers, and hands encoded payloads to the transport.
package hub

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rishabhfit2026/MiniTelemetry/component"
	"github.com/rishabhfit2026/MiniTelemetry/errors"
	"github.com/rishabhfit2026/MiniTelemetry/metric"
	"github.com/rishabhfit2026/MiniTelemetry/pkg/queue"
	"github.com/rishabhfit2026/MiniTelemetry/telemetry"
)

// DefaultInterval is the cadence each sensor generates readings at.
const DefaultInterval = 500 * time.Millisecond

// SimulatorConfig controls how readings are generated.
type SimulatorConfig struct {
	// NumSensors is how many generator goroutines to run. Sensor ids are
	// 0..NumSensors-1.
	NumSensors int

	// Interval is the generation cadence per sensor.
	Interval time.Duration

	// ArtificialDelay is added to every sleep, used to provoke timing
	// races in testing.
	ArtificialDelay time.Duration
}

// Simulator generates synthetic readings from a set of simulated sensors
// and pushes them onto the shared queue. Each sensor runs in its own
// goroutine; shutdown completes within one generation interval.
type Simulator struct {
	cfg    SimulatorConfig
	queue  *queue.Queue[telemetry.Reading]
	logger *slog.Logger
	core   *metric.Metrics

	mu      sync.Mutex
	group   *errgroup.Group
	started bool
}

// NewSimulator creates a simulator feeding q. The queue is closed by the
// simulator's Stop once all generators have exited, signalling the
// consumer that no more readings will arrive.
func NewSimulator(cfg SimulatorConfig, q *queue.Queue[telemetry.Reading], deps *component.Dependencies) (*Simulator, error) {
	if q == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Simulator", "NewSimulator", "nil queue")
	}
	if cfg.NumSensors <= 0 {
		cfg.NumSensors = 3
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	return &Simulator{
		cfg:    cfg,
		queue:  q,
		logger: deps.GetLoggerWithComponent("simulator"),
		core:   deps.CoreMetrics(),
	}, nil
}

// Name implements component.LifecycleComponent.
func (s *Simulator) Name() string { return "simulator" }

// Initialize implements component.LifecycleComponent.
func (s *Simulator) Initialize() error { return nil }

// Start launches one generator goroutine per sensor. The goroutines run
// until ctx is cancelled.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Simulator", "Start", "already started")
	}
	s.started = true

	g, gctx := errgroup.WithContext(ctx)
	s.group = g

	s.logger.Info("starting sensor generators",
		"sensors", s.cfg.NumSensors,
		"interval", s.cfg.Interval,
		"artificial_delay", s.cfg.ArtificialDelay)

	for id := 0; id < s.cfg.NumSensors; id++ {
		id := id
		g.Go(func() error {
			return s.runSensor(gctx, id)
		})
	}

	return nil
}

// Stop waits for all generators to exit, then closes the queue so the
// consumer can drain and terminate. The manager cancels the start context
// before calling Stop.
func (s *Simulator) Stop(timeout time.Duration) error {
	s.mu.Lock()
	group := s.group
	s.mu.Unlock()

	if group == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- group.Wait()
	}()

	var err error
	select {
	case err = <-done:
	case <-time.After(timeout):
		err = errors.WrapTransient(
			fmt.Errorf("generators still running after %v", timeout),
			"Simulator", "Stop", "wait for generators")
	}

	// Close regardless so the consumer is never left blocked
	s.queue.Close()
	s.logger.Info("sensor generators stopped")
	return err
}

// runSensor is one generator loop. It produces a reading every interval
// and pushes it onto the queue, blocking if the queue is bounded and full.
func (s *Simulator) runSensor(ctx context.Context, id int) error {
	profile := telemetry.ProfileFor(id)
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id))) //nolint:gosec // simulation values

	s.logger.Info("sensor started", "sensor", id, "type", profile.Name,
		"range_min", profile.Min, "range_max", profile.Max)

	sleep := s.cfg.Interval + s.cfg.ArtificialDelay
	timer := time.NewTimer(sleep)
	defer timer.Stop()

	for {
		value := profile.Min + rng.Float64()*(profile.Max-profile.Min)
		reading := telemetry.NewReading(id, value)

		if err := s.queue.Push(reading); err != nil {
			// Queue closed during shutdown is the normal exit path
			if stderrors.Is(err, errors.ErrQueueClosed) {
				s.logger.Info("sensor stopped", "sensor", id, "type", profile.Name)
				return nil
			}
			return errors.Wrap(err, "Simulator", "runSensor",
				fmt.Sprintf("push reading for sensor %d", id))
		}

		if s.core != nil {
			s.core.RecordReadingGenerated(fmt.Sprintf("sensor-%d", id))
		}

		timer.Reset(sleep)
		select {
		case <-ctx.Done():
			s.logger.Info("sensor stopped", "sensor", id, "type", profile.Name)
			return nil
		case <-timer.C:
		}
	}
}
