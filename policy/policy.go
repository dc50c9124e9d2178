// Package policy holds the runtime-toggleable feature gates and deposit
// limits consulted by the vault's entry points.
package policy

import (
	"errors"

	"github.com/xraph/vault/types"
)

// Sentinel errors for policy checks.
var (
	ErrDisabled     = errors.New("policy: feature disabled")
	ErrOutOfBounds  = errors.New("policy: amount out of bounds")
	ErrInvalidRange = errors.New("policy: min exceeds max")
)

// Policy is the owner-controlled gate and limits state. It is a plain value
// holder; authorization of mutations is the vault's job.
//
// Limits apply to deposits only. Withdrawals are bounded by the caller's
// balance and gated by the enable flag, but carry no amount limits — the
// asymmetry is deliberate and mirrors the reference behavior.
type Policy struct {
	depositsEnabled    bool
	withdrawalsEnabled bool
	minDeposit         types.Amount
	maxDeposit         types.Amount
}

// Default returns the policy a fresh vault starts with: both features
// enabled, deposits bounded to [1, MaxAmount].
func Default() *Policy {
	return &Policy{
		depositsEnabled:    true,
		withdrawalsEnabled: true,
		minDeposit:         1,
		maxDeposit:         types.MaxAmount,
	}
}

// New returns a policy with explicit initial state. Returns ErrInvalidRange
// if min exceeds max.
func New(depositsEnabled, withdrawalsEnabled bool, minDeposit, maxDeposit types.Amount) (*Policy, error) {
	if minDeposit > maxDeposit {
		return nil, ErrInvalidRange
	}
	return &Policy{
		depositsEnabled:    depositsEnabled,
		withdrawalsEnabled: withdrawalsEnabled,
		minDeposit:         minDeposit,
		maxDeposit:         maxDeposit,
	}, nil
}

// CheckDeposit validates a deposit amount against the gate and limits.
func (p *Policy) CheckDeposit(amount types.Amount) error {
	if !p.depositsEnabled {
		return ErrDisabled
	}
	if amount < p.minDeposit || amount > p.maxDeposit {
		return ErrOutOfBounds
	}
	return nil
}

// CheckWithdrawal validates that withdrawals are enabled.
func (p *Policy) CheckWithdrawal() error {
	if !p.withdrawalsEnabled {
		return ErrDisabled
	}
	return nil
}

// SetDepositsEnabled toggles the deposit gate.
func (p *Policy) SetDepositsEnabled(enabled bool) {
	p.depositsEnabled = enabled
}

// SetWithdrawalsEnabled toggles the withdrawal gate.
func (p *Policy) SetWithdrawalsEnabled(enabled bool) {
	p.withdrawalsEnabled = enabled
}

// SetLimits updates the deposit bounds. Returns ErrInvalidRange if min
// exceeds max; the previous bounds stay in effect on failure.
func (p *Policy) SetLimits(minDeposit, maxDeposit types.Amount) error {
	if minDeposit > maxDeposit {
		return ErrInvalidRange
	}
	p.minDeposit = minDeposit
	p.maxDeposit = maxDeposit
	return nil
}

// Snapshot is a read-only copy of the policy state.
type Snapshot struct {
	DepositsEnabled    bool         `json:"deposits_enabled"`
	WithdrawalsEnabled bool         `json:"withdrawals_enabled"`
	MinDeposit         types.Amount `json:"min_deposit"`
	MaxDeposit         types.Amount `json:"max_deposit"`
}

// Snapshot returns a copy of the current state.
func (p *Policy) Snapshot() Snapshot {
	return Snapshot{
		DepositsEnabled:    p.depositsEnabled,
		WithdrawalsEnabled: p.withdrawalsEnabled,
		MinDeposit:         p.minDeposit,
		MaxDeposit:         p.maxDeposit,
	}
}
