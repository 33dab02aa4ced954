package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishabhfit2026/MiniTelemetry/telemetry"
)

func ingest(t *Tracker, sourceID int, sequence uint64, value float64) {
	t.Ingest(telemetry.Reading{
		SourceID:    sourceID,
		Value:       value,
		GeneratedAt: time.Now().UnixMilli(),
		Sequence:    sequence,
	})
}

func TestTrackerGapDetection(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)

	ingest(tr, 0, 0, 25.0)
	ingest(tr, 0, 1, 25.0)
	ingest(tr, 0, 5, 25.0)

	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, uint64(3), snapshot[0].Dropped)
	assert.Equal(t, uint64(3), snapshot[0].Count)

	// The next in-order sequence is accepted without a gap
	ingest(tr, 0, 6, 25.0)
	snapshot = tr.Snapshot()
	assert.Equal(t, uint64(3), snapshot[0].Dropped)
	assert.Equal(t, uint64(4), snapshot[0].Count)
}

func TestTrackerFirstMessageIsBaseline(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)

	// A monitor joining mid-stream sees its first sequence as the baseline
	ingest(tr, 0, 42, 25.0)

	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, uint64(0), snapshot[0].Dropped)
	assert.Equal(t, uint64(1), snapshot[0].Count)

	ingest(tr, 0, 43, 25.0)
	snapshot = tr.Snapshot()
	assert.Equal(t, uint64(0), snapshot[0].Dropped)
	assert.Equal(t, uint64(2), snapshot[0].Count)
}

func TestTrackerDuplicateSuppression(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)

	ingest(tr, 0, 0, 25.0)
	ingest(tr, 0, 1, 26.0)
	ingest(tr, 0, 1, 26.0) // exact duplicate

	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, uint64(0), snapshot[0].Dropped, "duplicates are not drops")
	assert.Equal(t, uint64(2), snapshot[0].Count, "duplicates do not count as new messages")
	assert.Equal(t, uint64(1), snapshot[0].Duplicates)

	// Statistics unaffected by the duplicate
	assert.InDelta(t, 25.5, snapshot[0].Avg, 1e-9)
}

func TestTrackerLateArrivalDoesNotDecreaseDropped(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)

	ingest(tr, 0, 0, 25.0)
	ingest(tr, 0, 5, 25.0) // gap of 4
	ingest(tr, 0, 2, 25.0) // one of the "dropped" messages arrives late

	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, uint64(4), snapshot[0].Dropped, "dropped count never decreases")
	assert.Equal(t, uint64(2), snapshot[0].Count, "late arrival is skipped")
}

func TestTrackerRollingStatistics(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)

	for i := 0; i < 10; i++ {
		ingest(tr, 0, uint64(i), 20.0+float64(i))
	}

	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 1)
	assert.InDelta(t, 20.0, snapshot[0].Min, 1e-9)
	assert.InDelta(t, 29.0, snapshot[0].Max, 1e-9)
	assert.InDelta(t, 24.5, snapshot[0].Avg, 1e-9)
	assert.Equal(t, uint64(10), snapshot[0].Count)
	assert.InDelta(t, 29.0, snapshot[0].Current, 1e-9)
}

func TestTrackerIndependentSources(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)

	ingest(tr, 0, 0, 25.0)
	ingest(tr, 1, 0, 1010.0)
	ingest(tr, 0, 3, 25.0) // gap on sensor 0 only
	ingest(tr, 1, 1, 1011.0)

	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 2)

	assert.Equal(t, 0, snapshot[0].ID)
	assert.Equal(t, uint64(2), snapshot[0].Dropped)
	assert.Equal(t, 1, snapshot[1].ID)
	assert.Equal(t, uint64(0), snapshot[1].Dropped)
}

func TestTrackerMalformedPayloadSkipped(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)

	require.NoError(t, tr.IngestPayload(
		[]byte(`{"id":0,"value":25.0,"timestamp":1,"sequence":0}`)))

	err := tr.IngestPayload([]byte(`garbage`))
	require.Error(t, err)

	err = tr.IngestPayload([]byte(`{"id":0,"value":25.0}`))
	require.Error(t, err)

	// State from the valid payload is intact
	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, uint64(1), snapshot[0].Count)
	assert.Equal(t, uint64(0), snapshot[0].Dropped)
}

func TestTrackerStaleness(t *testing.T) {
	tr := NewTracker(TrackerConfig{StalenessThreshold: 100 * time.Millisecond}, nil, nil)

	ingest(tr, 0, 0, 25.0)

	// Not yet stale
	tr.CheckStaleness(time.Now().Add(50 * time.Millisecond))
	tr.mu.Lock()
	assert.False(t, tr.sources[0].staleWarned)
	tr.mu.Unlock()

	// Past the threshold
	tr.CheckStaleness(time.Now().Add(200 * time.Millisecond))
	tr.mu.Lock()
	assert.True(t, tr.sources[0].staleWarned)
	expected := tr.sources[0].expectedSeq
	tr.mu.Unlock()
	assert.Equal(t, uint64(1), expected, "staleness never mutates expected sequence")

	// A fresh reading rearms the warning
	ingest(tr, 0, 1, 25.0)
	tr.mu.Lock()
	assert.False(t, tr.sources[0].staleWarned)
	tr.mu.Unlock()
}

func TestTrackerSnapshotOrdering(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)

	ingest(tr, 2, 0, 50.0)
	ingest(tr, 0, 0, 25.0)
	ingest(tr, 1, 0, 1010.0)

	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{snapshot[0].ID, snapshot[1].ID, snapshot[2].ID})
}

func TestTrackerSeenWindowPruning(t *testing.T) {
	tr := NewTracker(TrackerConfig{SeenWindow: 16}, nil, nil)

	for i := 0; i < 100; i++ {
		ingest(tr, 0, uint64(i), 25.0)
	}

	tr.mu.Lock()
	seenLen := len(tr.sources[0].seen)
	tr.mu.Unlock()
	assert.LessOrEqual(t, seenLen, 17, "seen set stays bounded by the window")
}
