// Package metrics provides a Prometheus hook for Vault that records
// lifecycle event counts and value volume.
// Register it as a vault hook to automatically track custody metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xraph/vault/hook"
)

// Compile-time interface checks.
var (
	_ hook.Hook                   = (*Hook)(nil)
	_ hook.OnDeposit              = (*Hook)(nil)
	_ hook.OnWithdrawal           = (*Hook)(nil)
	_ hook.OnWithdrawalFailed     = (*Hook)(nil)
	_ hook.OnOwnershipTransferred = (*Hook)(nil)
	_ hook.OnPolicyChanged        = (*Hook)(nil)
	_ hook.OnEmergencyWithdrawal  = (*Hook)(nil)
)

// Hook records vault lifecycle metrics against a Prometheus registerer.
type Hook struct {
	deposits             prometheus.Counter
	depositVolume        prometheus.Counter
	withdrawals          prometheus.Counter
	withdrawalVolume     prometheus.Counter
	withdrawalFailures   prometheus.Counter
	ownershipTransfers   prometheus.Counter
	policyChanges        prometheus.Counter
	emergencyWithdrawals prometheus.Counter
}

// New creates a metrics Hook registered against reg. Use a fresh
// prometheus.NewRegistry per vault instance to keep collectors separate.
func New(reg prometheus.Registerer) *Hook {
	factory := promauto.With(reg)

	return &Hook{
		deposits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "deposits_total",
			Help:      "Number of committed deposits",
		}),
		depositVolume: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "deposit_volume_total",
			Help:      "Total units deposited",
		}),
		withdrawals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "withdrawals_total",
			Help:      "Number of completed withdrawals",
		}),
		withdrawalVolume: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "withdrawal_volume_total",
			Help:      "Total units withdrawn",
		}),
		withdrawalFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "withdrawal_failures_total",
			Help:      "Number of withdrawals whose outbound transfer failed",
		}),
		ownershipTransfers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "ownership_transfers_total",
			Help:      "Number of ownership changes",
		}),
		policyChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "policy_changes_total",
			Help:      "Number of feature-gate and limit changes",
		}),
		emergencyWithdrawals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "emergency_withdrawals_total",
			Help:      "Number of administrative drains",
		}),
	}
}

// Name implements hook.Hook.
func (h *Hook) Name() string { return "metrics" }

// OnDeposit implements hook.OnDeposit.
func (h *Hook) OnDeposit(_ context.Context, e hook.DepositEvent) error {
	h.deposits.Inc()
	h.depositVolume.Add(float64(e.Amount))
	return nil
}

// OnWithdrawal implements hook.OnWithdrawal.
func (h *Hook) OnWithdrawal(_ context.Context, e hook.WithdrawalEvent) error {
	h.withdrawals.Inc()
	h.withdrawalVolume.Add(float64(e.Amount))
	return nil
}

// OnWithdrawalFailed implements hook.OnWithdrawalFailed.
func (h *Hook) OnWithdrawalFailed(context.Context, hook.WithdrawalFailure) error {
	h.withdrawalFailures.Inc()
	return nil
}

// OnOwnershipTransferred implements hook.OnOwnershipTransferred.
func (h *Hook) OnOwnershipTransferred(context.Context, hook.OwnershipTransfer) error {
	h.ownershipTransfers.Inc()
	return nil
}

// OnPolicyChanged implements hook.OnPolicyChanged.
func (h *Hook) OnPolicyChanged(context.Context, hook.PolicyChange) error {
	h.policyChanges.Inc()
	return nil
}

// OnEmergencyWithdrawal implements hook.OnEmergencyWithdrawal.
func (h *Hook) OnEmergencyWithdrawal(context.Context, hook.EmergencyWithdrawal) error {
	h.emergencyWithdrawals.Inc()
	return nil
}
