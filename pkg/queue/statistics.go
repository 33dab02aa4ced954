package queue

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks queue activity for observability.
type Statistics struct {
	// Atomic counters for thread-safe updates
	pushes int64
	pops   int64

	// Protected by mutex
	mu        sync.RWMutex
	startTime time.Time
	depth     int64
	maxDepth  int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Push records a queue push.
func (s *Statistics) Push() {
	atomic.AddInt64(&s.pushes, 1)
}

// Pop records a queue pop.
func (s *Statistics) Pop() {
	atomic.AddInt64(&s.pops, 1)
}

// UpdateDepth updates the current queue depth.
func (s *Statistics) UpdateDepth(depth int64) {
	s.mu.Lock()
	s.depth = depth
	if depth > s.maxDepth {
		s.maxDepth = depth
	}
	s.mu.Unlock()
}

// Pushes returns the total number of pushed items.
func (s *Statistics) Pushes() int64 {
	return atomic.LoadInt64(&s.pushes)
}

// Pops returns the total number of popped items.
func (s *Statistics) Pops() int64 {
	return atomic.LoadInt64(&s.pops)
}

// Depth returns the current queue depth.
func (s *Statistics) Depth() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.depth
}

// MaxDepth returns the deepest the queue has been.
func (s *Statistics) MaxDepth() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxDepth
}

// Throughput returns the average number of pushes per second.
func (s *Statistics) Throughput() float64 {
	s.mu.RLock()
	elapsed := time.Since(s.startTime)
	s.mu.RUnlock()

	if elapsed == 0 {
		return 0.0
	}
	return float64(s.Pushes()) / elapsed.Seconds()
}

// Uptime returns how long the queue has existed.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Summary is a point-in-time snapshot of all statistics.
type Summary struct {
	Pushes     int64         `json:"pushes"`
	Pops       int64         `json:"pops"`
	Depth      int64         `json:"depth"`
	MaxDepth   int64         `json:"max_depth"`
	Throughput float64       `json:"throughput"`
	Uptime     time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() Summary {
	return Summary{
		Pushes:     s.Pushes(),
		Pops:       s.Pops(),
		Depth:      s.Depth(),
		MaxDepth:   s.MaxDepth(),
		Throughput: s.Throughput(),
		Uptime:     s.Uptime(),
	}
}
