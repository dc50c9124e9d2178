package audit

import (
	"context"
	"log/slog"

	"github.com/xraph/vault/hook"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Compile-time interface checks.
var (
	_ hook.Hook                   = (*Trail)(nil)
	_ hook.OnDeposit              = (*Trail)(nil)
	_ hook.OnWithdrawal           = (*Trail)(nil)
	_ hook.OnWithdrawalFailed     = (*Trail)(nil)
	_ hook.OnOwnershipTransferred = (*Trail)(nil)
	_ hook.OnPolicyChanged        = (*Trail)(nil)
	_ hook.OnEmergencyWithdrawal  = (*Trail)(nil)
)

// Trail subscribes to every vault lifecycle event and records an Entry for
// each through its Recorder.
type Trail struct {
	recorder Recorder
	memory   *MemoryRecorder
	logger   *slog.Logger
}

// Option configures a Trail.
type Option func(*Trail)

// WithRecorder routes entries to an external backend instead of the
// built-in memory recorder.
func WithRecorder(r Recorder) Option {
	return func(t *Trail) {
		t.recorder = r
		t.memory = nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trail) {
		t.logger = logger
	}
}

// NewTrail creates a Trail recording to an in-process memory recorder
// unless WithRecorder overrides it.
func NewTrail(opts ...Option) *Trail {
	mem := NewMemoryRecorder()
	t := &Trail{
		recorder: mem,
		memory:   mem,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements hook.Hook.
func (t *Trail) Name() string { return "audit-trail" }

// Entries returns the recorded trail. Nil when an external Recorder is in
// use.
func (t *Trail) Entries() []Entry {
	if t.memory == nil {
		return nil
	}
	return t.memory.Entries()
}

// ByAction returns recorded entries for one action. Nil when an external
// Recorder is in use.
func (t *Trail) ByAction(action string) []Entry {
	if t.memory == nil {
		return nil
	}
	return t.memory.ByAction(action)
}

// Len returns the number of recorded entries.
func (t *Trail) Len() int {
	if t.memory == nil {
		return 0
	}
	return t.memory.Len()
}

// OnDeposit implements hook.OnDeposit.
func (t *Trail) OnDeposit(ctx context.Context, e hook.DepositEvent) error {
	return t.record(ctx, ActionDeposit, SeverityInfo, e.Account, e.Amount, map[string]any{
		"new_balance": e.NewBalance,
	})
}

// OnWithdrawal implements hook.OnWithdrawal.
func (t *Trail) OnWithdrawal(ctx context.Context, e hook.WithdrawalEvent) error {
	return t.record(ctx, ActionWithdrawal, SeverityInfo, e.Account, e.Amount, map[string]any{
		"new_balance": e.NewBalance,
	})
}

// OnWithdrawalFailed implements hook.OnWithdrawalFailed.
func (t *Trail) OnWithdrawalFailed(ctx context.Context, e hook.WithdrawalFailure) error {
	return t.record(ctx, ActionWithdrawalFailed, SeverityWarning, e.Account, e.Amount, map[string]any{
		"error": e.Err.Error(),
	})
}

// OnOwnershipTransferred implements hook.OnOwnershipTransferred.
func (t *Trail) OnOwnershipTransferred(ctx context.Context, e hook.OwnershipTransfer) error {
	return t.record(ctx, ActionOwnershipTransferred, SeverityWarning, e.Next, 0, map[string]any{
		"previous": e.Previous.String(),
		"next":     e.Next.String(),
	})
}

// OnPolicyChanged implements hook.OnPolicyChanged.
func (t *Trail) OnPolicyChanged(ctx context.Context, e hook.PolicyChange) error {
	return t.record(ctx, ActionPolicyChanged, SeverityInfo, id.Nil, 0, map[string]any{
		"setting":             e.Setting,
		"deposits_enabled":    e.Policy.DepositsEnabled,
		"withdrawals_enabled": e.Policy.WithdrawalsEnabled,
		"min_deposit":         e.Policy.MinDeposit,
		"max_deposit":         e.Policy.MaxDeposit,
	})
}

// OnEmergencyWithdrawal implements hook.OnEmergencyWithdrawal.
func (t *Trail) OnEmergencyWithdrawal(ctx context.Context, e hook.EmergencyWithdrawal) error {
	return t.record(ctx, ActionEmergencyWithdrawal, SeverityCritical, e.Owner, e.Amount, nil)
}

func (t *Trail) record(ctx context.Context, action, severity string, account id.ID, amount types.Amount, meta map[string]any) error {
	entry := Entry{
		Entity:   types.NewEntity(),
		ID:       id.NewEvent(),
		Action:   action,
		Severity: severity,
		Account:  account,
		Amount:   amount,
		Metadata: meta,
	}

	if err := t.recorder.Record(ctx, entry); err != nil {
		t.logger.Warn("audit: failed to record entry",
			"action", action,
			"error", err,
		)
	}
	return nil
}
