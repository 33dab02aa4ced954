package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/rishabhfit2026/MiniTelemetry/errors"
)

func TestQueueBasicPushPop(t *testing.T) {
	q, err := New[int](0)
	require.NoError(t, err)

	require.NoError(t, q.Push(42))

	val, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, 42, val)
	assert.Equal(t, 0, q.Len())
}

func TestQueueFIFOOrdering(t *testing.T) {
	q, err := New[string](0)
	require.NoError(t, err)

	require.NoError(t, q.Push("first"))
	require.NoError(t, q.Push("second"))
	require.NoError(t, q.Push("third"))

	for _, want := range []string{"first", "second", "third"} {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

// Every item pushed by any producer must be popped exactly once.
func TestQueueMultiProducerExactlyOnce(t *testing.T) {
	q, err := New[int](0)
	require.NoError(t, err)

	const producers = 10
	const perProducer = 100

	counts := make(map[int]int)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			val, ok := q.Pop()
			if !ok {
				return
			}
			counts[val]++
		}
	}()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				require.NoError(t, q.Push(p*perProducer+i))
			}
		}(p)
	}

	wg.Wait()
	q.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not terminate after close")
	}

	assert.Len(t, counts, producers*perProducer)
	for val, n := range counts {
		assert.Equalf(t, 1, n, "item %d observed %d times", val, n)
	}
	assert.Equal(t, int64(producers*perProducer), q.Stats().Pushes())
	assert.Equal(t, int64(producers*perProducer), q.Stats().Pops())
}

func TestQueuePopAfterCloseDrainsPending(t *testing.T) {
	q, err := New[int](0)
	require.NoError(t, err)

	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))
	q.Close()

	val, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, val)

	val, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, val)

	_, ok = q.Pop()
	assert.False(t, ok, "pop on a closed drained queue must return the closed signal")
}

func TestQueueCloseWakesBlockedPop(t *testing.T) {
	q, err := New[int](0)
	require.NoError(t, err)

	popped := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		popped <- ok
	}()

	// Give the consumer a chance to block
	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-popped:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked pop was not woken by close")
	}
}

func TestQueuePushAfterClose(t *testing.T) {
	q, err := New[int](0)
	require.NoError(t, err)

	q.Close()
	err = q.Push(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrQueueClosed)

	// Close is idempotent
	q.Close()
	assert.True(t, q.Closed())
}

func TestQueueBoundedPushBlocksUntilPop(t *testing.T) {
	q, err := New[int](2)
	require.NoError(t, err)
	assert.Equal(t, 2, q.Capacity())

	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))

	pushDone := make(chan error, 1)
	go func() {
		pushDone <- q.Push(3)
	}()

	select {
	case <-pushDone:
		t.Fatal("push on a full bounded queue must block")
	case <-time.After(50 * time.Millisecond):
	}

	val, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, val)

	select {
	case err := <-pushDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked push was not unblocked by pop")
	}
}

func TestQueueCloseWakesBlockedPush(t *testing.T) {
	q, err := New[int](1)
	require.NoError(t, err)

	require.NoError(t, q.Push(1))

	pushDone := make(chan error, 1)
	go func() {
		pushDone <- q.Push(2)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-pushDone:
		require.Error(t, err)
		assert.ErrorIs(t, err, cerrors.ErrQueueClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked push was not woken by close")
	}
}

func TestQueueStatistics(t *testing.T) {
	q, err := New[int](0)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(i))
	}
	assert.Equal(t, int64(5), q.Stats().Pushes())
	assert.Equal(t, int64(5), q.Stats().Depth())
	assert.Equal(t, int64(5), q.Stats().MaxDepth())

	q.Pop()
	q.Pop()
	assert.Equal(t, int64(2), q.Stats().Pops())
	assert.Equal(t, int64(3), q.Stats().Depth())
	assert.Equal(t, int64(5), q.Stats().MaxDepth())

	summary := q.Stats().Summary()
	assert.Equal(t, int64(5), summary.Pushes)
	assert.Equal(t, int64(2), summary.Pops)
}

// The consumed-prefix compaction must not disturb FIFO order.
func TestQueueCompactionPreservesOrder(t *testing.T) {
	q, err := New[int](0)
	require.NoError(t, err)

	const n = 500
	for i := 0; i < n; i++ {
		require.NoError(t, q.Push(i))
	}
	for i := 0; i < n; i++ {
		val, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, i, val)
	}
	assert.Equal(t, 0, q.Len())
}
