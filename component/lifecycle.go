// Package component defines the lifecycle contract shared by every
// long-running piece of the pipeline (simulator, publisher, monitor,
// sinks) and the manager that starts and stops them in order.
package component

import (
	"context"
	"time"
)

// State represents the current lifecycle state of a component
type State int

const (
	// StateCreated indicates component was created but not initialized
	StateCreated State = iota
	// StateInitialized indicates component was initialized but not started
	StateInitialized
	// StateStarted indicates component is running
	StateStarted
	// StateStopped indicates component was stopped
	StateStopped
	// StateFailed indicates component failed during lifecycle operation
	StateFailed
)

// String returns a string representation of the component state
func (cs State) String() string {
	switch cs {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LifecycleComponent defines components that support full lifecycle
// management:
//   - Initialize() error                  // Setup/create only, NO context
//   - Start(ctx context.Context) error    // Start with context passed through
//   - Stop(timeout time.Duration) error   // Stop with timeout for graceful shutdown
//
// A component never stores the context it receives in Start; the manager
// owns the child context and cancels it during shutdown.
type LifecycleComponent interface {
	Name() string
	Initialize() error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}

// managedComponent tracks a component and its lifecycle state inside the
// Manager.
type managedComponent struct {
	component LifecycleComponent
	state     State

	// Child context for this specific component, created and cancelled
	// by the Manager.
	ctx    context.Context
	cancel context.CancelFunc

	lastError error
}
