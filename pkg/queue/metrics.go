package queue

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rishabhfit2026/MiniTelemetry/metric"
)

// queueMetrics holds Prometheus metrics for queue operations.
type queueMetrics struct {
	pushes prometheus.Counter
	pops   prometheus.Counter
	depth  prometheus.Gauge
}

// newQueueMetrics creates and registers queue metrics with the provided registry.
func newQueueMetrics(registry *metric.MetricsRegistry, prefix string) (*queueMetrics, error) {
	m := &queueMetrics{
		pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "minitelemetry",
			Subsystem:   "queue",
			Name:        "pushes_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of queue push operations",
		}),
		pops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "minitelemetry",
			Subsystem:   "queue",
			Name:        "pops_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of queue pop operations",
		}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "minitelemetry",
			Subsystem:   "queue",
			Name:        "depth",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of items in the queue",
		}),
	}

	if err := registry.RegisterCounter(prefix, "queue_pushes", m.pushes); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "queue_pops", m.pops); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "queue_depth", m.depth); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *queueMetrics) recordPush(depth int) {
	m.pushes.Inc()
	m.depth.Set(float64(depth))
}

func (m *queueMetrics) recordPop(depth int) {
	m.pops.Inc()
	m.depth.Set(float64(depth))
}
