package metrics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vault/hook"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/metrics"
)

func TestCountersTrackEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := metrics.New(reg)
	ctx := context.Background()
	acct := id.NewAccount()

	require.NoError(t, h.OnDeposit(ctx, hook.DepositEvent{Account: acct, Amount: 100, NewBalance: 100}))
	require.NoError(t, h.OnDeposit(ctx, hook.DepositEvent{Account: acct, Amount: 50, NewBalance: 150}))
	require.NoError(t, h.OnWithdrawal(ctx, hook.WithdrawalEvent{Account: acct, Amount: 30, NewBalance: 120}))
	require.NoError(t, h.OnWithdrawalFailed(ctx, hook.WithdrawalFailure{Account: acct, Amount: 10, Err: errors.New("down")}))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	counts := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			counts[mf.GetName()] = m.GetCounter().GetValue()
		}
	}

	assert.Equal(t, float64(2), counts["vault_deposits_total"])
	assert.Equal(t, float64(150), counts["vault_deposit_volume_total"])
	assert.Equal(t, float64(1), counts["vault_withdrawals_total"])
	assert.Equal(t, float64(30), counts["vault_withdrawal_volume_total"])
	assert.Equal(t, float64(1), counts["vault_withdrawal_failures_total"])
}

func TestAdministrativeCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := metrics.New(reg)
	ctx := context.Background()

	require.NoError(t, h.OnOwnershipTransferred(ctx, hook.OwnershipTransfer{Previous: id.NewAccount(), Next: id.NewAccount()}))
	require.NoError(t, h.OnPolicyChanged(ctx, hook.PolicyChange{Setting: "limits"}))
	require.NoError(t, h.OnPolicyChanged(ctx, hook.PolicyChange{Setting: "deposits_enabled"}))
	require.NoError(t, h.OnEmergencyWithdrawal(ctx, hook.EmergencyWithdrawal{Owner: id.NewAccount(), Amount: 500}))

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			counts[mf.GetName()] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), counts["vault_ownership_transfers_total"])
	assert.Equal(t, float64(2), counts["vault_policy_changes_total"])
	assert.Equal(t, float64(1), counts["vault_emergency_withdrawals_total"])
}
