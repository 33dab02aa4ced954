package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not component-specific)
type Metrics struct {
	// Component metrics
	ComponentStatus    *prometheus.GaugeVec
	ReadingsGenerated  *prometheus.CounterVec
	ReadingsPublished  *prometheus.CounterVec
	ReadingsReceived   *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec

	// Pipeline health metrics
	GapsDetected         *prometheus.CounterVec
	DuplicatesSuppressed *prometheus.CounterVec
	StalenessWarnings    *prometheus.CounterVec
	RangeWarnings        *prometheus.CounterVec

	// Sink metrics
	SinkRowsWritten prometheus.Counter
	SinkFlushes     prometheus.Counter
	SinkErrors      prometheus.Counter

	// NATS metrics
	NATSConnected  prometheus.Gauge
	NATSRTT        prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ComponentStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "minitelemetry",
				Subsystem: "component",
				Name:      "status",
				Help:      "Component status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)",
			},
			[]string{"component"},
		),

		ReadingsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minitelemetry",
				Subsystem: "readings",
				Name:      "generated_total",
				Help:      "Total number of sensor readings generated",
			},
			[]string{"sensor"},
		),

		ReadingsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minitelemetry",
				Subsystem: "readings",
				Name:      "published_total",
				Help:      "Total number of readings published to the transport",
			},
			[]string{"sensor"},
		),

		ReadingsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minitelemetry",
				Subsystem: "readings",
				Name:      "received_total",
				Help:      "Total number of readings received from the transport",
			},
			[]string{"component", "sensor"},
		),

		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "minitelemetry",
				Subsystem: "processing",
				Name:      "duration_seconds",
				Help:      "Reading processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"component", "operation"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minitelemetry",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"component", "type"},
		),

		GapsDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minitelemetry",
				Subsystem: "pipeline",
				Name:      "gaps_detected_total",
				Help:      "Total number of sequence gaps detected",
			},
			[]string{"sensor"},
		),

		DuplicatesSuppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minitelemetry",
				Subsystem: "pipeline",
				Name:      "duplicates_suppressed_total",
				Help:      "Total number of duplicate readings suppressed",
			},
			[]string{"sensor"},
		),

		StalenessWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minitelemetry",
				Subsystem: "pipeline",
				Name:      "staleness_warnings_total",
				Help:      "Total number of stale reading warnings",
			},
			[]string{"sensor"},
		),

		RangeWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minitelemetry",
				Subsystem: "pipeline",
				Name:      "range_warnings_total",
				Help:      "Total number of out-of-range value warnings",
			},
			[]string{"sensor"},
		),

		SinkRowsWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "minitelemetry",
				Subsystem: "sink",
				Name:      "rows_written_total",
				Help:      "Total number of rows written to the CSV sink",
			},
		),

		SinkFlushes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "minitelemetry",
				Subsystem: "sink",
				Name:      "flushes_total",
				Help:      "Total number of sink flushes",
			},
		),

		SinkErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "minitelemetry",
				Subsystem: "sink",
				Name:      "errors_total",
				Help:      "Total number of sink write errors",
			},
		),

		// NATS metrics
		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "minitelemetry",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSRTT: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "minitelemetry",
				Subsystem: "nats",
				Name:      "rtt_milliseconds",
				Help:      "NATS round-trip time in milliseconds",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "minitelemetry",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

// RecordComponentStatus updates component status metric
func (c *Metrics) RecordComponentStatus(component string, status int) {
	c.ComponentStatus.WithLabelValues(component).Set(float64(status))
}

// RecordReadingGenerated increments the generated reading counter
func (c *Metrics) RecordReadingGenerated(sensor string) {
	c.ReadingsGenerated.WithLabelValues(sensor).Inc()
}

// RecordReadingPublished increments the published reading counter
func (c *Metrics) RecordReadingPublished(sensor string) {
	c.ReadingsPublished.WithLabelValues(sensor).Inc()
}

// RecordReadingReceived increments the received reading counter
func (c *Metrics) RecordReadingReceived(component, sensor string) {
	c.ReadingsReceived.WithLabelValues(component, sensor).Inc()
}

// RecordProcessingDuration records processing time
func (c *Metrics) RecordProcessingDuration(component, operation string, duration time.Duration) {
	c.ProcessingDuration.WithLabelValues(component, operation).Observe(duration.Seconds())
}

// RecordError increments error counter
func (c *Metrics) RecordError(component, errorType string) {
	c.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordGap increments the sequence gap counter
func (c *Metrics) RecordGap(sensor string) {
	c.GapsDetected.WithLabelValues(sensor).Inc()
}

// RecordDuplicate increments the suppressed duplicate counter
func (c *Metrics) RecordDuplicate(sensor string) {
	c.DuplicatesSuppressed.WithLabelValues(sensor).Inc()
}

// RecordStaleness increments the staleness warning counter
func (c *Metrics) RecordStaleness(sensor string) {
	c.StalenessWarnings.WithLabelValues(sensor).Inc()
}

// RecordRangeWarning increments the out-of-range warning counter
func (c *Metrics) RecordRangeWarning(sensor string) {
	c.RangeWarnings.WithLabelValues(sensor).Inc()
}

// RecordSinkRow increments the sink row counter
func (c *Metrics) RecordSinkRow() {
	c.SinkRowsWritten.Inc()
}

// RecordSinkFlush increments the sink flush counter
func (c *Metrics) RecordSinkFlush() {
	c.SinkFlushes.Inc()
}

// RecordSinkError increments the sink error counter
func (c *Metrics) RecordSinkError() {
	c.SinkErrors.Inc()
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSRTT updates NATS round-trip time
func (c *Metrics) RecordNATSRTT(rtt time.Duration) {
	c.NATSRTT.Set(float64(rtt.Milliseconds()))
}

// RecordNATSReconnect increments reconnection counter
func (c *Metrics) RecordNATSReconnect() {
	c.NATSReconnects.Inc()
}
