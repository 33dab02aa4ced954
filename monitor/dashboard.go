package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rishabhfit2026/MiniTelemetry/errors"
)

// DefaultRefreshInterval throttles dashboard renders.
const DefaultRefreshInterval = 2 * time.Second

// Dashboard periodically renders the tracker's snapshot to a writer.
// Renders are throttled to the refresh interval regardless of message
// rate, and an empty snapshot renders nothing.
type Dashboard struct {
	tracker  *Tracker
	out      io.Writer
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// NewDashboard creates a dashboard reading from tracker. A nil writer
// defaults to stdout; a non-positive interval defaults to 2s.
func NewDashboard(tracker *Tracker, out io.Writer, interval time.Duration, logger *slog.Logger) (*Dashboard, error) {
	if tracker == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Dashboard", "NewDashboard", "nil tracker")
	}
	if out == nil {
		out = os.Stdout
	}
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dashboard{
		tracker:  tracker,
		out:      out,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Name implements component.LifecycleComponent.
func (d *Dashboard) Name() string { return "dashboard" }

// Initialize implements component.LifecycleComponent.
func (d *Dashboard) Initialize() error { return nil }

// Start launches the refresh loop. Each tick also runs the tracker's
// staleness sweep so silent sensors are flagged even when no new
// messages arrive.
func (d *Dashboard) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Dashboard", "Start", "already started")
	}
	d.started = true

	go func() {
		defer close(d.done)

		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				d.tracker.CheckStaleness(now)
				d.Render()
			}
		}
	}()

	return nil
}

// Stop waits for the refresh loop to exit and prints the final summary.
func (d *Dashboard) Stop(timeout time.Duration) error {
	select {
	case <-d.done:
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("refresh loop still running after %v", timeout),
			"Dashboard", "Stop", "wait for refresh loop")
	}

	d.renderFinalSummary()
	return nil
}

// Render writes the current snapshot. Nothing is written while no
// sensor has data yet.
func (d *Dashboard) Render() {
	snapshot := d.tracker.Snapshot()
	if len(snapshot) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString("\n=== TELEMETRY DASHBOARD ===\n")
	b.WriteString(strings.Repeat("=", 78))
	b.WriteByte('\n')

	for _, s := range snapshot {
		fmt.Fprintf(&b, "[Sensor %d] Value: %.2f | Min: %.2f | Max: %.2f | Avg: %.2f | Count: %d",
			s.ID, s.Current, s.Min, s.Max, s.Avg, s.Count)
		if s.Dropped > 0 {
			fmt.Fprintf(&b, " | DROPPED: %d", s.Dropped)
		}
		b.WriteByte('\n')
	}

	if _, err := io.WriteString(d.out, b.String()); err != nil {
		d.logger.Error("dashboard write failed", "error", err)
	}
}

// renderFinalSummary writes the per-sensor totals at shutdown.
func (d *Dashboard) renderFinalSummary() {
	snapshot := d.tracker.Snapshot()

	var b strings.Builder
	b.WriteString("\n========== Final Summary ==========\n")
	for _, s := range snapshot {
		fmt.Fprintf(&b, "Sensor %d:\n", s.ID)
		fmt.Fprintf(&b, "  Total messages: %d\n", s.Count)
		fmt.Fprintf(&b, "  Dropped: %d\n", s.Dropped)
		fmt.Fprintf(&b, "  Min: %.2f\n", s.Min)
		fmt.Fprintf(&b, "  Max: %.2f\n", s.Max)
		fmt.Fprintf(&b, "  Avg: %.2f\n", s.Avg)
	}

	if _, err := io.WriteString(d.out, b.String()); err != nil {
		d.logger.Error("summary write failed", "error", err)
	}
}
