// Package metric provides Prometheus-based metrics collection and an HTTP
// server for pipeline monitoring and observability.
//
// The package offers a centralized metrics registry managing both core
// platform metrics (component status, reading flow, NATS health, pipeline
// anomalies, sink activity) and custom component-specific metrics. It
// includes an HTTP server exposing metrics in Prometheus format.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("metrics server error: %v", err)
//	    }
//	}()
//
//	core := registry.CoreMetrics()
//	core.RecordReadingGenerated("sensor-1")
//	core.RecordGap("sensor-1")
//
// The server exposes Prometheus-formatted metrics at /metrics and a health
// check at /health.
//
// # Core vs Component Metrics
//
// Core metrics cover what every deployment of the pipeline needs: reading
// counters, gap and duplicate counters, sink row counts, and NATS
// connectivity. Components register their own metrics through the
// MetricsRegistrar interface; the registry rejects duplicate names.
//
// All core metrics use the namespace "minitelemetry":
//   - minitelemetry_readings_generated_total{sensor="..."}
//   - minitelemetry_pipeline_gaps_detected_total{sensor="..."}
//   - minitelemetry_nats_connected
//
// All registry operations are safe for concurrent use.
package metric
