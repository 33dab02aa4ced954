package component

import (
	"log/slog"

	"github.com/rishabhfit2026/MiniTelemetry/metric"
	"github.com/rishabhfit2026/MiniTelemetry/natsclient"
)

// PlatformMeta provides deployment identity to components. Instance is a
// unique id for this process, used to label logs and metrics when several
// hubs or monitors run side by side.
type PlatformMeta struct {
	Org      string // Organization namespace
	Instance string // Unique process instance id
}

// Dependencies provides all external dependencies needed by components.
// Components receive this structure rather than individual fields so that
// wiring stays uniform across the hub, monitor, and logger binaries.
type Dependencies struct {
	NATSClient      *natsclient.Client      // NATS client for messaging
	MetricsRegistry *metric.MetricsRegistry // Metrics registry for Prometheus (can be nil)
	Logger          *slog.Logger            // Structured logger (can be nil, defaults to slog.Default())
	Platform        PlatformMeta            // Deployment identity
}

// GetLogger returns the configured logger or a default logger if none is provided
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns a logger configured with component context
func (d *Dependencies) GetLoggerWithComponent(componentName string) *slog.Logger {
	return d.GetLogger().With("component", componentName)
}

// CoreMetrics returns the shared core metrics, or nil when metrics are
// disabled.
func (d *Dependencies) CoreMetrics() *metric.Metrics {
	if d.MetricsRegistry == nil {
		return nil
	}
	return d.MetricsRegistry.CoreMetrics()
}
