package component

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeComponent records lifecycle calls for ordering assertions.
type fakeComponent struct {
	name    string
	journal *callJournal

	initErr  error
	startErr error
	stopErr  error
}

type callJournal struct {
	mu    sync.Mutex
	calls []string
}

func (j *callJournal) record(call string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, call)
}

func (j *callJournal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Initialize() error {
	f.journal.record("init:" + f.name)
	return f.initErr
}

func (f *fakeComponent) Start(_ context.Context) error {
	f.journal.record("start:" + f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(_ time.Duration) error {
	f.journal.record("stop:" + f.name)
	return f.stopErr
}

func TestManagerLifecycleOrdering(t *testing.T) {
	journal := &callJournal{}
	m := NewManager(nil)

	require.NoError(t, m.Register(&fakeComponent{name: "a", journal: journal}))
	require.NoError(t, m.Register(&fakeComponent{name: "b", journal: journal}))
	require.NoError(t, m.Register(&fakeComponent{name: "c", journal: journal}))

	require.NoError(t, m.Initialize())
	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(time.Second))

	assert.Equal(t, []string{
		"init:a", "init:b", "init:c",
		"start:a", "start:b", "start:c",
		"stop:c", "stop:b", "stop:a",
	}, journal.snapshot())
}

func TestManagerDuplicateName(t *testing.T) {
	journal := &callJournal{}
	m := NewManager(nil)

	require.NoError(t, m.Register(&fakeComponent{name: "a", journal: journal}))
	err := m.Register(&fakeComponent{name: "a", journal: journal})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate component name")
}

func TestManagerStartFailureStopsStartedComponents(t *testing.T) {
	journal := &callJournal{}
	m := NewManager(nil)

	require.NoError(t, m.Register(&fakeComponent{name: "a", journal: journal}))
	require.NoError(t, m.Register(&fakeComponent{
		name: "b", journal: journal, startErr: errors.New("boom"),
	}))
	require.NoError(t, m.Register(&fakeComponent{name: "c", journal: journal}))

	require.NoError(t, m.Initialize())
	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start component b")

	// a was rolled back, c was never started
	assert.Equal(t, []string{
		"init:a", "init:b", "init:c",
		"start:a", "start:b",
		"stop:a",
	}, journal.snapshot())

	states := m.States()
	assert.Equal(t, StateStopped, states["a"])
	assert.Equal(t, StateFailed, states["b"])
	assert.Equal(t, StateInitialized, states["c"])
}

func TestManagerInitializeFailureAborts(t *testing.T) {
	journal := &callJournal{}
	m := NewManager(nil)

	require.NoError(t, m.Register(&fakeComponent{
		name: "a", journal: journal, initErr: errors.New("bad config"),
	}))
	require.NoError(t, m.Register(&fakeComponent{name: "b", journal: journal}))

	err := m.Initialize()
	require.Error(t, err)
	assert.Equal(t, []string{"init:a"}, journal.snapshot())
}

func TestManagerStopCollectsErrors(t *testing.T) {
	journal := &callJournal{}
	m := NewManager(nil)

	require.NoError(t, m.Register(&fakeComponent{
		name: "a", journal: journal, stopErr: errors.New("flush failed"),
	}))
	require.NoError(t, m.Register(&fakeComponent{name: "b", journal: journal}))

	require.NoError(t, m.Initialize())
	require.NoError(t, m.Start(context.Background()))

	err := m.Stop(time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop component a")

	// b still stopped despite a's failure
	assert.Equal(t, []string{
		"init:a", "init:b",
		"start:a", "start:b",
		"stop:b", "stop:a",
	}, journal.snapshot())
}

func TestManagerDoubleStart(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Start(context.Background()))

	err := m.Start(context.Background())
	require.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "initialized", StateInitialized.String())
	assert.Equal(t, "started", StateStarted.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(99).String())
}
