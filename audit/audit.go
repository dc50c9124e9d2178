// Package audit bridges Vault lifecycle events to an append-only trail.
//
// It defines a local Recorder interface so any backend can receive entries;
// the built-in MemoryRecorder keeps the trail in process, which is also the
// queryable default.
package audit

import (
	"context"
	"sync"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Action constants for trail entries.
const (
	ActionDeposit              = "vault.deposit"
	ActionWithdrawal           = "vault.withdrawal"
	ActionWithdrawalFailed     = "vault.withdrawal_failed"
	ActionOwnershipTransferred = "vault.ownership_transferred"
	ActionPolicyChanged        = "vault.policy_changed"
	ActionEmergencyWithdrawal  = "vault.emergency_withdrawal"
)

// Severity levels for trail entries.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Entry is one recorded lifecycle fact.
type Entry struct {
	types.Entity

	ID       id.ID          `json:"id"`
	Action   string         `json:"action"`
	Severity string         `json:"severity"`
	Account  id.ID          `json:"account,omitempty"`
	Amount   types.Amount   `json:"amount,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Recorder is the interface audit backends must implement. It is defined
// locally so the package carries no backend dependency; callers inject a
// RecorderFunc adapter at wiring time.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, e Entry) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, e Entry) error {
	return f(ctx, e)
}

// MemoryRecorder is an in-process append-only Recorder.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record implements Recorder.
func (m *MemoryRecorder) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of the trail in append order.
func (m *MemoryRecorder) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// ByAction returns the entries recorded for one action, in append order.
func (m *MemoryRecorder) ByAction(action string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of recorded entries.
func (m *MemoryRecorder) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
