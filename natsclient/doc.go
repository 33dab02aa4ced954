// Package natsclient manages the NATS connection used as the pipeline's
// transport. The transport is treated as a reliable, ordered-per-writer
// delivery channel for opaque byte payloads; this package only manages
// connection lifecycle, not message semantics.
//
// The client wraps nats.go with:
//
//   - A circuit breaker that opens after repeated connection failures and
//     backs off exponentially before retrying, so a dead broker does not
//     turn into a hot reconnect loop.
//   - Background health monitoring that pings the server and surfaces
//     status changes through a callback.
//   - Optional Prometheus connectivity metrics (connected gauge, RTT,
//     reconnect counter) via WithMetrics.
//
// Typical usage:
//
//	client, err := natsclient.NewClient(cfg.NATS.URL,
//	    natsclient.WithName("sensorhub"),
//	    natsclient.WithMetrics(registry),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	err = client.Publish(ctx, "telemetry.readings", payload)
//
// Connect, Publish, and Subscribe return ErrCircuitOpen or ErrNotConnected
// when the transport is unavailable; callers decide whether to retry.
package natsclient
