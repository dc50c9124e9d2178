// Package hook provides an extensible observer system for Vault.
// Hooks subscribe to lifecycle events — deposits, withdrawals, ownership and
// policy changes — and are notified only after the corresponding state
// mutation has committed.
package hook

import (
	"context"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/policy"
	"github.com/xraph/vault/types"
)

// Hook is the base interface that all hooks must implement.
type Hook interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Event payloads
// ──────────────────────────────────────────────────

// DepositEvent describes a committed deposit.
type DepositEvent struct {
	Account    id.ID
	Amount     types.Amount
	NewBalance types.Amount
}

// WithdrawalEvent describes a committed withdrawal, after the debit and the
// outbound transfer both succeeded.
type WithdrawalEvent struct {
	Account    id.ID
	Amount     types.Amount
	NewBalance types.Amount
}

// WithdrawalFailure describes a withdrawal whose outbound transfer failed
// after the debit had committed; the debit has been compensated by the time
// the event fires.
type WithdrawalFailure struct {
	Account id.ID
	Amount  types.Amount
	Err     error
}

// OwnershipTransfer describes a committed ownership change.
type OwnershipTransfer struct {
	Previous id.ID
	Next     id.ID
}

// PolicyChange describes a committed policy mutation. Setting names the
// field that changed ("deposits_enabled", "withdrawals_enabled", "limits").
type PolicyChange struct {
	Setting string
	Policy  policy.Snapshot
}

// EmergencyWithdrawal describes a committed administrative drain.
type EmergencyWithdrawal struct {
	Owner  id.ID
	Amount types.Amount
}

// ──────────────────────────────────────────────────
// Capability interfaces
// ──────────────────────────────────────────────────

// OnDeposit is called after a deposit commits.
type OnDeposit interface {
	Hook
	OnDeposit(ctx context.Context, e DepositEvent) error
}

// OnWithdrawal is called after a withdrawal completes.
type OnWithdrawal interface {
	Hook
	OnWithdrawal(ctx context.Context, e WithdrawalEvent) error
}

// OnWithdrawalFailed is called when an outbound transfer fails and the
// debit has been compensated.
type OnWithdrawalFailed interface {
	Hook
	OnWithdrawalFailed(ctx context.Context, e WithdrawalFailure) error
}

// OnOwnershipTransferred is called after ownership changes hands.
type OnOwnershipTransferred interface {
	Hook
	OnOwnershipTransferred(ctx context.Context, e OwnershipTransfer) error
}

// OnPolicyChanged is called after a feature gate or limit change commits.
type OnPolicyChanged interface {
	Hook
	OnPolicyChanged(ctx context.Context, e PolicyChange) error
}

// OnEmergencyWithdrawal is called after an administrative drain commits.
type OnEmergencyWithdrawal interface {
	Hook
	OnEmergencyWithdrawal(ctx context.Context, e EmergencyWithdrawal) error
}
