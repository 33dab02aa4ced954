// Package monitor implements the subscriber-side pipeline: a Tracker
// that maintains per-sensor gap, staleness, and rolling-statistics state
// from received wire payloads, a Dashboard that renders a throttled
// console view, and a Feed that broadcasts snapshots over WebSocket.
package monitor

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rishabhfit2026/MiniTelemetry/errors"
	"github.com/rishabhfit2026/MiniTelemetry/metric"
	"github.com/rishabhfit2026/MiniTelemetry/telemetry"
)

// DefaultStalenessThreshold is how long a sensor may stay silent before
// a staleness warning is emitted.
const DefaultStalenessThreshold = 500 * time.Millisecond

// DefaultSeenWindow bounds the per-sensor set of already-seen sequence
// numbers used for duplicate suppression.
const DefaultSeenWindow = 1024

// TrackerConfig controls detection thresholds.
type TrackerConfig struct {
	// StalenessThreshold is the max silent interval before warning.
	StalenessThreshold time.Duration

	// SeenWindow bounds the duplicate-suppression set per sensor.
	SeenWindow uint64

	// WarnRate limits warning log lines per second (burst allows short
	// spikes through). Zero disables limiting.
	WarnRate float64
}

// sourceState is the per-sensor tracking state. All fields are guarded
// by the Tracker mutex.
type sourceState struct {
	expectedSeq  uint64
	messageCount uint64
	droppedCount uint64
	duplicates   uint64

	currentValue float64
	minValue     float64
	maxValue     float64
	sumValue     float64

	lastTimestamp int64     // wire timestamp of the newest accepted reading
	lastSeenAt    time.Time // local receipt time, drives staleness
	staleWarned   bool      // suppresses repeated staleness warnings per silence

	initialized bool
	seen        map[uint64]struct{}
}

// SourceSummary is one sensor's row in a snapshot.
type SourceSummary struct {
	ID         int     `json:"id"`
	Current    float64 `json:"current"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Avg        float64 `json:"avg"`
	Count      uint64  `json:"count"`
	Dropped    uint64  `json:"dropped"`
	Duplicates uint64  `json:"duplicates"`
}

// Tracker consumes received tuples and maintains per-sensor expected
// sequence state, gap and duplicate accounting, range checks, and
// rolling statistics. One tracker instance is shared by the transport
// callback and the snapshot readers; a single mutex guards everything so
// snapshots are internally consistent.
type Tracker struct {
	cfg    TrackerConfig
	logger *slog.Logger
	core   *metric.Metrics
	warnLi *rate.Limiter

	mu      sync.Mutex
	sources map[int]*sourceState
}

// NewTracker creates a tracker with the given thresholds. Zero values in
// cfg fall back to the defaults.
func NewTracker(cfg TrackerConfig, logger *slog.Logger, core *metric.Metrics) *Tracker {
	if cfg.StalenessThreshold <= 0 {
		cfg.StalenessThreshold = DefaultStalenessThreshold
	}
	if cfg.SeenWindow == 0 {
		cfg.SeenWindow = DefaultSeenWindow
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.WarnRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.WarnRate), 5)
	}

	return &Tracker{
		cfg:     cfg,
		logger:  logger,
		core:    core,
		warnLi:  limiter,
		sources: make(map[int]*sourceState),
	}
}

// IngestPayload decodes a wire payload and feeds it to the tracker.
// Malformed payloads are logged and skipped; no sensor's state is
// touched and the returned error is classified invalid.
func (t *Tracker) IngestPayload(data []byte) error {
	reading, err := telemetry.Decode(data)
	if err != nil {
		t.logger.Error("malformed payload skipped", "error", err)
		if t.core != nil {
			t.core.RecordError("monitor", "decode")
		}
		return errors.Wrap(err, "Tracker", "IngestPayload", "decode payload")
	}

	t.Ingest(reading)
	return nil
}

// Ingest updates the state for a single received reading.
func (t *Tracker) Ingest(reading telemetry.Reading) {
	now := time.Now()
	sensor := fmt.Sprintf("sensor-%d", reading.SourceID)

	t.mu.Lock()
	defer t.mu.Unlock()

	state, exists := t.sources[reading.SourceID]
	if !exists {
		state = &sourceState{
			minValue: reading.Value,
			maxValue: reading.Value,
			seen:     make(map[uint64]struct{}),
		}
		t.sources[reading.SourceID] = state
	}

	if !state.initialized {
		// First message defines the baseline, it is never a gap
		state.expectedSeq = reading.Sequence
		state.initialized = true
		t.logger.Info("first message from sensor",
			"sensor", reading.SourceID, "sequence", reading.Sequence)
	} else {
		switch {
		case reading.Sequence == state.expectedSeq:
			// In order, nothing to flag
		case reading.Sequence > state.expectedSeq:
			gap := reading.Sequence - state.expectedSeq
			state.droppedCount += gap
			t.warn("dropped messages detected",
				"sensor", reading.SourceID,
				"dropped", gap,
				"expected", state.expectedSeq,
				"got", reading.Sequence)
			if t.core != nil {
				t.core.RecordGap(sensor)
			}
		default:
			// Duplicate or late arrival. Exact duplicates within the seen
			// window are silently suppressed; late arrivals below the
			// window are skipped too. Either way counters stay untouched
			// and droppedCount never decreases.
			if _, dup := state.seen[reading.Sequence]; dup {
				state.duplicates++
				if t.core != nil {
					t.core.RecordDuplicate(sensor)
				}
			}
			return
		}

		state.expectedSeq = reading.Sequence
	}

	// Accept the reading
	state.expectedSeq++
	state.messageCount++
	state.currentValue = reading.Value
	state.lastTimestamp = reading.GeneratedAt
	state.lastSeenAt = now
	state.staleWarned = false

	if reading.Value < state.minValue {
		state.minValue = reading.Value
	}
	if reading.Value > state.maxValue {
		state.maxValue = reading.Value
	}
	state.sumValue += reading.Value

	state.seen[reading.Sequence] = struct{}{}
	t.pruneSeenLocked(state)

	if t.core != nil {
		t.core.RecordReadingReceived("monitor", sensor)
	}

	// Range check against the sensor's declared profile
	profile := telemetry.ProfileFor(reading.SourceID)
	if !profile.InPlausibleRange(reading.Value) {
		t.warn("value out of plausible range",
			"sensor", reading.SourceID,
			"value", reading.Value,
			"range_min", profile.Min-telemetry.RangeMargin,
			"range_max", profile.Max+telemetry.RangeMargin)
		if t.core != nil {
			t.core.RecordRangeWarning(sensor)
		}
	}
}

// pruneSeenLocked drops seen entries below the window watermark.
func (t *Tracker) pruneSeenLocked(state *sourceState) {
	if uint64(len(state.seen)) <= t.cfg.SeenWindow {
		return
	}
	var watermark uint64
	if state.expectedSeq > t.cfg.SeenWindow {
		watermark = state.expectedSeq - t.cfg.SeenWindow
	}
	for seq := range state.seen {
		if seq < watermark {
			delete(state.seen, seq)
		}
	}
}

// CheckStaleness emits one warning per sensor whose silence exceeds the
// threshold. A sensor warns once per silent stretch; receiving a new
// reading rearms it. Expected sequences are never mutated here.
func (t *Tracker) CheckStaleness(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, state := range t.sources {
		if !state.initialized || state.staleWarned {
			continue
		}
		if silence := now.Sub(state.lastSeenAt); silence > t.cfg.StalenessThreshold {
			state.staleWarned = true
			t.warn("sensor data stale",
				"sensor", id, "silence", silence.Round(time.Millisecond))
			if t.core != nil {
				t.core.RecordStaleness(fmt.Sprintf("sensor-%d", id))
			}
		}
	}
}

// Snapshot returns per-sensor summaries ordered by sensor id, taken
// under one lock acquisition so the rows are mutually consistent.
func (t *Tracker) Snapshot() []SourceSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]SourceSummary, 0, len(t.sources))
	for id, state := range t.sources {
		if state.messageCount == 0 {
			continue
		}
		out = append(out, SourceSummary{
			ID:         id,
			Current:    state.currentValue,
			Min:        state.minValue,
			Max:        state.maxValue,
			Avg:        state.sumValue / float64(state.messageCount),
			Count:      state.messageCount,
			Dropped:    state.droppedCount,
			Duplicates: state.duplicates,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// warn logs a warning subject to the configured rate limit.
func (t *Tracker) warn(msg string, args ...any) {
	if t.warnLi != nil && !t.warnLi.Allow() {
		return
	}
	t.logger.Warn(msg, args...)
}
