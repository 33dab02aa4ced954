package component

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rishabhfit2026/MiniTelemetry/errors"
)

// Manager owns a set of lifecycle components and drives them through
// Initialize, Start, and Stop as a group. Components start in
// registration order and stop in reverse order so that downstream
// consumers outlive their producers during shutdown.
type Manager struct {
	mu         sync.Mutex
	components []*managedComponent
	logger     *slog.Logger
	started    bool
}

// NewManager creates a component manager. A nil logger falls back to
// slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// Register adds a component to the managed set. Registration order is
// start order.
func (m *Manager) Register(comp LifecycleComponent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Manager", "Register",
			"cannot register after start")
	}
	for _, mc := range m.components {
		if mc.component.Name() == comp.Name() {
			return errors.WrapInvalid(
				fmt.Errorf("component %s already registered", comp.Name()),
				"Manager", "Register", "duplicate component name")
		}
	}

	m.components = append(m.components, &managedComponent{
		component: comp,
		state:     StateCreated,
	})
	return nil
}

// Initialize initializes every registered component in order. The first
// failure aborts initialization and is returned.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mc := range m.components {
		if err := mc.component.Initialize(); err != nil {
			mc.state = StateFailed
			mc.lastError = err
			return errors.Wrap(err, "Manager", "Initialize",
				fmt.Sprintf("initialize component %s", mc.component.Name()))
		}
		mc.state = StateInitialized
		m.logger.Debug("component initialized", "component", mc.component.Name())
	}
	return nil
}

// Start starts every component in registration order, giving each its
// own child context derived from ctx. A start failure stops the
// components already started (in reverse) and returns the error.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Manager", "Start", "already started")
	}

	for i, mc := range m.components {
		childCtx, cancel := context.WithCancel(ctx)
		mc.ctx = childCtx
		mc.cancel = cancel

		if err := mc.component.Start(childCtx); err != nil {
			mc.state = StateFailed
			mc.lastError = err
			cancel()
			m.stopLocked(i-1, 5*time.Second)
			return errors.Wrap(err, "Manager", "Start",
				fmt.Sprintf("start component %s", mc.component.Name()))
		}
		mc.state = StateStarted
		m.logger.Info("component started", "component", mc.component.Name())
	}

	m.started = true
	return nil
}

// Stop stops all components in reverse registration order. Every
// component gets a chance to stop; errors are joined and returned after
// all stops complete.
func (m *Manager) Stop(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.stopLocked(len(m.components)-1, timeout)
	m.started = false
	return err
}

// stopLocked stops components [0..from] in reverse order. Caller holds m.mu.
func (m *Manager) stopLocked(from int, timeout time.Duration) error {
	var errs []error
	for i := from; i >= 0; i-- {
		mc := m.components[i]
		if mc.state != StateStarted {
			continue
		}

		if mc.cancel != nil {
			mc.cancel()
		}
		if err := mc.component.Stop(timeout); err != nil {
			mc.state = StateFailed
			mc.lastError = err
			errs = append(errs, errors.Wrap(err, "Manager", "Stop",
				fmt.Sprintf("stop component %s", mc.component.Name())))
			m.logger.Error("component stop failed",
				"component", mc.component.Name(), "error", err)
			continue
		}
		mc.state = StateStopped
		m.logger.Info("component stopped", "component", mc.component.Name())
	}
	return stderrors.Join(errs...)
}

// States returns a snapshot of component names to their current state.
func (m *Manager) States() map[string]State {
	m.mu.Lock()
	defer m.mu.Unlock()

	states := make(map[string]State, len(m.components))
	for _, mc := range m.components {
		states[mc.component.Name()] = mc.state
	}
	return states
}
