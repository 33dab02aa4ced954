package monitor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a goroutine-safe strings.Builder for dashboard output.
type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestDashboardRenderEmptySnapshot(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)
	out := &syncBuffer{}

	d, err := NewDashboard(tr, out, time.Second, nil)
	require.NoError(t, err)

	d.Render()
	assert.Empty(t, out.String(), "no output before any sensor has data")
}

func TestDashboardRenderFormat(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)
	ingest(tr, 0, 0, 25.0)
	ingest(tr, 0, 1, 27.0)
	ingest(tr, 0, 5, 26.0) // gap of 3

	out := &syncBuffer{}
	d, err := NewDashboard(tr, out, time.Second, nil)
	require.NoError(t, err)

	d.Render()

	rendered := out.String()
	assert.Contains(t, rendered, "TELEMETRY DASHBOARD")
	assert.Contains(t, rendered, "[Sensor 0]")
	assert.Contains(t, rendered, "Value: 26.00")
	assert.Contains(t, rendered, "Min: 25.00")
	assert.Contains(t, rendered, "Max: 27.00")
	assert.Contains(t, rendered, "Avg: 26.00")
	assert.Contains(t, rendered, "Count: 3")
	assert.Contains(t, rendered, "DROPPED: 3")
}

func TestDashboardLifecycleAndFinalSummary(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)
	ingest(tr, 0, 0, 25.0)

	out := &syncBuffer{}
	d, err := NewDashboard(tr, out, 10*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Start(ctx))

	// Let a couple of ticks render
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, d.Stop(2*time.Second))

	rendered := out.String()
	assert.Contains(t, rendered, "TELEMETRY DASHBOARD")
	assert.Contains(t, rendered, "Final Summary")
	assert.Contains(t, rendered, "Total messages: 1")
}

func TestDashboardDoubleStart(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)
	d, err := NewDashboard(tr, &syncBuffer{}, time.Second, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, d.Start(ctx))
	require.Error(t, d.Start(ctx))

	cancel()
	require.NoError(t, d.Stop(2*time.Second))
}

// directSubscriber delivers payloads synchronously to the handler.
type directSubscriber struct {
	mu      sync.Mutex
	handler func(context.Context, []byte)
}

func (d *directSubscriber) Subscribe(_ context.Context, _ string, handler func(context.Context, []byte)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
	return nil
}

func (d *directSubscriber) deliver(data []byte) {
	d.mu.Lock()
	handler := d.handler
	d.mu.Unlock()
	if handler != nil {
		handler(context.Background(), data)
	}
}

func TestReceiverFeedsTracker(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)
	sub := &directSubscriber{}

	r, err := NewReceiver(sub, "", tr, nil)
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))

	sub.deliver([]byte(`{"id":0,"value":25.5,"timestamp":1724760000000,"sequence":0}`))
	sub.deliver([]byte(`{"id":0,"value":26.5,"timestamp":1724760000500,"sequence":1}`))
	sub.deliver([]byte(`not json`)) // skipped, stream continues
	sub.deliver([]byte(`{"id":0,"value":27.5,"timestamp":1724760001000,"sequence":2}`))

	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, uint64(3), snapshot[0].Count)
	assert.Equal(t, uint64(0), snapshot[0].Dropped)

	require.NoError(t, r.Stop(time.Second))
}
