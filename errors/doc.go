// Package errors provides standardized error handling for MiniTelemetry.
//
// # Overview
//
// The package implements a three-class error classification: Transient
// (temporary, retryable), Invalid (bad input, non-retryable), and Fatal
// (unrecoverable, stop processing). Classification lets components make
// retry and recovery decisions without matching error strings by hand.
//
// Per-tuple errors in the telemetry stream (malformed payloads, missing
// fields) classify as Invalid and are recovered locally by logging and
// skipping the tuple. Transport hiccups classify as Transient and feed the
// reconnect path. Structural startup problems (bad configuration, an
// unwritable sink) classify as Fatal and abort the process with a non-zero
// exit status.
//
// # Quick Start
//
// Return standard error variables for known conditions:
//
//	if closed {
//	    return errors.ErrQueueClosed
//	}
//
// Wrap errors with component context:
//
//	if err := sink.Write(row); err != nil {
//	    return errors.WrapTransient(err, "CSVOutput", "Write", "append row")
//	}
//
// Make retry decisions based on the class:
//
//	if errors.IsTransient(err) {
//	    cfg := errors.DefaultRetryConfig()
//	    return retry.Do(ctx, cfg.ToRetryConfig(), op)
//	}
package errors
