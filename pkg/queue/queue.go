// Package queue provides a generic, thread-safe blocking handoff queue.
//
// The queue is a FIFO channel between many producers and one consumer.
// Push blocks while a bounded queue is full; Pop blocks until an item is
// available or the queue is closed and drained. Close is idempotent and
// wakes every blocked caller. Ordering is global arrival order across all
// producers, not per-producer order.
package queue

import (
	"sync"

	"github.com/rishabhfit2026/MiniTelemetry/errors"
)

// Queue is a blocking multi-producer FIFO handoff queue.
// A single logical consumer is expected to drain it; concurrent producers
// are fully supported.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	head     int
	capacity int // <= 0 means unbounded
	stats    *Statistics
	metrics  *queueMetrics

	notEmpty *sync.Cond
	notFull  *sync.Cond
	closed   bool
}

// New creates a handoff queue. A capacity <= 0 makes the queue unbounded;
// a positive capacity makes Push block while the queue is full.
// Returns an error if metrics registration fails when requested.
func New[T any](capacity int, options ...Option[T]) (*Queue[T], error) {
	opts := applyOptions(options...)

	var metrics *queueMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newQueueMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "Queue", "New", "metrics registration")
		}
	}

	q := &Queue[T]{
		capacity: capacity,
		stats:    NewStatistics(),
		metrics:  metrics,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q, nil
}

// Push appends an item to the queue. When the queue is bounded and full,
// Push blocks until space is available or the queue is closed. Pushing to
// a closed queue returns ErrQueueClosed.
func (q *Queue[T]) Push(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.WrapInvalid(errors.ErrQueueClosed, "Queue", "Push", "queue closed")
	}

	if q.capacity > 0 {
		for q.depthLocked() == q.capacity && !q.closed {
			q.notFull.Wait()
		}
		if q.closed {
			return errors.WrapInvalid(errors.ErrQueueClosed, "Queue", "Push",
				"queue closed during blocking wait")
		}
	}

	q.items = append(q.items, item)

	depth := q.depthLocked()
	q.stats.Push()
	q.stats.UpdateDepth(int64(depth))
	if q.metrics != nil {
		q.metrics.recordPush(depth)
	}

	q.notEmpty.Signal()
	return nil
}

// Pop removes and returns the oldest item. It blocks until an item is
// available. When the queue is closed and fully drained, Pop returns the
// zero value and false; that is the only way a blocked Pop terminates.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.depthLocked() == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	var zero T
	if q.depthLocked() == 0 {
		// Closed and drained
		return zero, false
	}

	item := q.items[q.head]
	q.items[q.head] = zero // release for GC
	q.head++

	// Reclaim the consumed prefix once it dominates the backing slice
	if q.head > 64 && q.head*2 >= len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}

	depth := q.depthLocked()
	q.stats.Pop()
	q.stats.UpdateDepth(int64(depth))
	if q.metrics != nil {
		q.metrics.recordPop(depth)
	}

	q.notFull.Signal()
	return item, true
}

// Close marks the queue closed and wakes all blocked producers and the
// consumer. Items already enqueued remain drainable via Pop. Close is
// idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true

	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Len returns the current number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.depthLocked()
}

// Capacity returns the configured bound, or 0 for an unbounded queue.
func (q *Queue[T]) Capacity() int {
	if q.capacity <= 0 {
		return 0
	}
	return q.capacity
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Stats returns queue statistics (always collected).
func (q *Queue[T]) Stats() *Statistics {
	return q.stats
}

func (q *Queue[T]) depthLocked() int {
	return len(q.items) - q.head
}
