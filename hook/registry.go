package hook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry manages all registered hooks and provides efficient dispatch.
// It uses type-cached discovery so emitting an event touches only the hooks
// that subscribe to it.
type Registry struct {
	mu     sync.RWMutex
	hooks  []Hook
	logger *slog.Logger

	// Type-cached hook lists for efficient dispatch
	onDeposit              []OnDeposit
	onWithdrawal           []OnWithdrawal
	onWithdrawalFailed     []OnWithdrawalFailed
	onOwnershipTransferred []OnOwnershipTransferred
	onPolicyChanged        []OnPolicyChanged
	onEmergencyWithdrawal  []OnEmergencyWithdrawal
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a hook to the registry and caches its interfaces.
func (r *Registry) Register(h Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.hooks {
		if existing.Name() == h.Name() {
			return fmt.Errorf("hook: duplicate registration: %s", h.Name())
		}
	}

	r.hooks = append(r.hooks, h)

	if v, ok := h.(OnDeposit); ok {
		r.onDeposit = append(r.onDeposit, v)
	}
	if v, ok := h.(OnWithdrawal); ok {
		r.onWithdrawal = append(r.onWithdrawal, v)
	}
	if v, ok := h.(OnWithdrawalFailed); ok {
		r.onWithdrawalFailed = append(r.onWithdrawalFailed, v)
	}
	if v, ok := h.(OnOwnershipTransferred); ok {
		r.onOwnershipTransferred = append(r.onOwnershipTransferred, v)
	}
	if v, ok := h.(OnPolicyChanged); ok {
		r.onPolicyChanged = append(r.onPolicyChanged, v)
	}
	if v, ok := h.(OnEmergencyWithdrawal); ok {
		r.onEmergencyWithdrawal = append(r.onEmergencyWithdrawal, v)
	}

	r.logger.Info("hook registered", "name", h.Name())

	return nil
}

// Get returns a hook by name.
func (r *Registry) Get(name string) Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.hooks {
		if h.Name() == name {
			return h
		}
	}
	return nil
}

// Count returns the number of registered hooks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitDeposit emits a deposit event.
func (r *Registry) EmitDeposit(ctx context.Context, e DepositEvent) {
	r.mu.RLock()
	hooks := r.onDeposit
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnDeposit(ctx, e)
		}); err != nil {
			r.logger.Warn("hook OnDeposit failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdrawal emits a withdrawal event.
func (r *Registry) EmitWithdrawal(ctx context.Context, e WithdrawalEvent) {
	r.mu.RLock()
	hooks := r.onWithdrawal
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnWithdrawal(ctx, e)
		}); err != nil {
			r.logger.Warn("hook OnWithdrawal failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdrawalFailed emits a withdrawal failure event.
func (r *Registry) EmitWithdrawalFailed(ctx context.Context, e WithdrawalFailure) {
	r.mu.RLock()
	hooks := r.onWithdrawalFailed
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnWithdrawalFailed(ctx, e)
		}); err != nil {
			r.logger.Warn("hook OnWithdrawalFailed failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitOwnershipTransferred emits an ownership change event.
func (r *Registry) EmitOwnershipTransferred(ctx context.Context, e OwnershipTransfer) {
	r.mu.RLock()
	hooks := r.onOwnershipTransferred
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnOwnershipTransferred(ctx, e)
		}); err != nil {
			r.logger.Warn("hook OnOwnershipTransferred failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitPolicyChanged emits a policy change event.
func (r *Registry) EmitPolicyChanged(ctx context.Context, e PolicyChange) {
	r.mu.RLock()
	hooks := r.onPolicyChanged
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnPolicyChanged(ctx, e)
		}); err != nil {
			r.logger.Warn("hook OnPolicyChanged failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitEmergencyWithdrawal emits an administrative drain event.
func (r *Registry) EmitEmergencyWithdrawal(ctx context.Context, e EmergencyWithdrawal) {
	r.mu.RLock()
	hooks := r.onEmergencyWithdrawal
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnEmergencyWithdrawal(ctx, e)
		}); err != nil {
			r.logger.Warn("hook OnEmergencyWithdrawal failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a hook function with a timeout.
// Hooks must never block the custody pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, hookName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("hook timeout: %s", hookName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
