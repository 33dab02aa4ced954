// Package minitelemetry is a small sensor telemetry pipeline built on
// NATS pub/sub.
//
// # Architecture
//
// Three binaries share one wire format and one configuration file:
//
//	┌───────────────────────────────┐
//	│          sensorhub            │  Simulated sensors feed a
//	│  generators → queue → publish │  bounded handoff queue; the
//	└──────────────┬────────────────┘  publisher assigns per-sensor
//	               │                   sequences at queue exit.
//	      telemetry.readings (NATS)
//	               │
//	     ┌─────────┴──────────┐
//	     ↓                    ↓
//	┌──────────┐        ┌───────────────┐
//	│ monitor  │        │telemetry-logger│
//	│ tracker, │        │   CSV sink     │
//	│ dashboard│        └───────────────┘
//	└──────────┘
//
// The hub side is a classic multi-producer single-consumer handoff:
// one goroutine per sensor pushes readings into the queue, and a single
// publisher pops them, stamps each with the next sequence number for
// its sensor, and publishes the JSON payload. Sequence assignment at
// queue exit means the wire order is the sequence order per sensor.
//
// The monitor subscribes to the same subject, detects gaps and
// duplicates from the sequence stream, keeps rolling per-sensor
// statistics, flags silent sensors, and renders a throttled console
// dashboard. An optional WebSocket feed broadcasts the same snapshots
// to external viewers. The logger appends every reading to a CSV file.
//
// # Packages
//
// Core pipeline:
//   - telemetry: reading type, sensor profiles, JSON wire codec
//   - pkg/queue: bounded blocking MPSC handoff queue
//   - hub: sensor simulator and sequencing publisher
//   - monitor: sequence tracker, dashboard, WebSocket feed
//   - output/csv: CSV logger sink
//
// Infrastructure:
//   - component: lifecycle manager and shared dependencies
//   - natsclient: NATS connection management with circuit breaker
//   - metric: Prometheus metrics and the /metrics endpoint
//   - errors: structured error handling with retry classification
//   - config: file and environment configuration
//   - pkg/retry: retry policies with backoff
//
// # Binaries
//
//	# Start a local NATS server, then:
//	go run ./cmd/sensorhub --sensors 3 --interval 500ms
//	go run ./cmd/monitor --feed
//	go run ./cmd/telemetry-logger --output telemetry_log.csv
//
// All three accept --config pointing at a shared JSON or YAML file and
// stop cleanly on SIGINT/SIGTERM, draining in-flight readings first.
package minitelemetry
