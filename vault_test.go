package vault_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vault"
	"github.com/xraph/vault/audit"
	"github.com/xraph/vault/hook"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/policy"
	"github.com/xraph/vault/transfer"
	"github.com/xraph/vault/types"
)

type fixture struct {
	router *transfer.Router
	owner  id.ID
	vault  *vault.Vault
}

func newFixture(t *testing.T, opts ...vault.Option) *fixture {
	t.Helper()

	router := transfer.NewRouter()
	owner := id.NewAccount()
	v, err := vault.New(owner, router, opts...)
	require.NoError(t, err)

	return &fixture{router: router, owner: owner, vault: v}
}

func (f *fixture) fund(t *testing.T, acct id.ID, amount types.Amount) {
	t.Helper()
	require.NoError(t, f.router.Mint(acct, amount))
}

func TestNewRejectsNilOwner(t *testing.T) {
	_, err := vault.New(id.Nil, transfer.NewRouter())
	require.ErrorIs(t, err, vault.ErrInvalidAddress)

	_, err = vault.New(id.NewAccount(), nil)
	require.Error(t, err)
}

func TestNewRejectsDuplicateHooks(t *testing.T) {
	_, err := vault.New(id.NewAccount(), transfer.NewRouter(),
		vault.WithHook(audit.NewTrail()),
		vault.WithHook(audit.NewTrail()),
	)
	require.Error(t, err)
}

func TestDepositWithdrawScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := id.NewAccount()
	f.fund(t, alice, 1000)

	require.NoError(t, f.vault.Deposit(ctx, alice, 1000))
	assert.Equal(t, types.Amount(1000), f.vault.BalanceOf(alice))
	assert.Equal(t, types.Amount(1000), f.vault.Total())
	assert.Equal(t, types.Amount(1000), f.router.Holdings(f.vault.Address()))
	assert.Equal(t, types.Amount(0), f.router.Holdings(alice))

	require.NoError(t, f.vault.Withdraw(ctx, alice, 400))
	assert.Equal(t, types.Amount(600), f.vault.BalanceOf(alice))
	assert.Equal(t, types.Amount(600), f.vault.Total())
	assert.Equal(t, types.Amount(400), f.router.Holdings(alice))

	// Withdrawing more than the balance fails and mutates nothing.
	require.ErrorIs(t, f.vault.Withdraw(ctx, alice, 1000), vault.ErrInsufficientBalance)
	assert.Equal(t, types.Amount(600), f.vault.BalanceOf(alice))
	assert.Equal(t, types.Amount(600), f.vault.Total())
	assert.Equal(t, types.Amount(400), f.router.Holdings(alice))
}

func TestDepositRequiresFunds(t *testing.T) {
	f := newFixture(t)
	broke := id.NewAccount()

	err := f.vault.Deposit(context.Background(), broke, 100)
	require.ErrorIs(t, err, vault.ErrTransferFailed)
	require.ErrorIs(t, err, transfer.ErrInsufficientFunds)
	assert.Equal(t, types.Amount(0), f.vault.Total())
}

func TestDepositBoundaries(t *testing.T) {
	p, err := policy.New(true, true, 100, 500)
	require.NoError(t, err)
	f := newFixture(t, vault.WithPolicy(p))
	ctx := context.Background()
	alice := id.NewAccount()
	f.fund(t, alice, 10_000)

	tests := []struct {
		name    string
		amount  types.Amount
		wantErr error
	}{
		{"below min", 99, vault.ErrAmountOutOfBounds},
		{"exactly min", 100, nil},
		{"exactly max", 500, nil},
		{"above max", 501, vault.ErrAmountOutOfBounds},
		{"zero", 0, vault.ErrAmountOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.vault.Deposit(ctx, alice, tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestFeatureGateToggles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := id.NewAccount()
	f.fund(t, alice, 1000)
	require.NoError(t, f.vault.Deposit(ctx, alice, 500))

	require.NoError(t, f.vault.SetWithdrawalsEnabled(ctx, f.owner, false))
	require.ErrorIs(t, f.vault.Withdraw(ctx, alice, 100), vault.ErrFeatureDisabled)

	require.NoError(t, f.vault.SetWithdrawalsEnabled(ctx, f.owner, true))
	require.NoError(t, f.vault.Withdraw(ctx, alice, 100))

	require.NoError(t, f.vault.SetDepositsEnabled(ctx, f.owner, false))
	require.ErrorIs(t, f.vault.Deposit(ctx, alice, 100), vault.ErrFeatureDisabled)

	require.NoError(t, f.vault.SetDepositsEnabled(ctx, f.owner, true))
	require.NoError(t, f.vault.Deposit(ctx, alice, 100))
}

func TestOwnerOnlyOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mallory := id.NewAccount()

	require.ErrorIs(t, f.vault.SetDepositsEnabled(ctx, mallory, false), vault.ErrUnauthorized)
	require.ErrorIs(t, f.vault.SetWithdrawalsEnabled(ctx, mallory, false), vault.ErrUnauthorized)
	require.ErrorIs(t, f.vault.SetLimits(ctx, mallory, 1, 2), vault.ErrUnauthorized)
	require.ErrorIs(t, f.vault.EmergencyWithdraw(ctx, mallory, 1), vault.ErrUnauthorized)
	require.ErrorIs(t, f.vault.TransferOwnership(ctx, mallory, mallory), vault.ErrUnauthorized)

	assert.True(t, vault.IsAuthError(vault.ErrUnauthorized))
}

func TestTransferOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	successor := id.NewAccount()

	require.ErrorIs(t, f.vault.TransferOwnership(ctx, f.owner, id.Nil), vault.ErrInvalidAddress)

	require.NoError(t, f.vault.TransferOwnership(ctx, f.owner, successor))
	assert.True(t, f.vault.Owner().Equal(successor))

	// The previous owner lost its powers; the successor gained them.
	require.ErrorIs(t, f.vault.SetLimits(ctx, f.owner, 1, 2), vault.ErrUnauthorized)
	require.NoError(t, f.vault.SetLimits(ctx, successor, 1, 2))
}

func TestSetLimitsRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.ErrorIs(t, f.vault.SetLimits(ctx, f.owner, 100, 50), vault.ErrInvalidRange)
	require.NoError(t, f.vault.SetLimits(ctx, f.owner, 50, 100))

	stats := f.vault.Stats()
	assert.Equal(t, types.Amount(50), stats.Policy.MinDeposit)
	assert.Equal(t, types.Amount(100), stats.Policy.MaxDeposit)
}

func TestWithdrawAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := id.NewAccount()
	f.fund(t, alice, 750)
	require.NoError(t, f.vault.Deposit(ctx, alice, 750))

	withdrawn, err := f.vault.WithdrawAll(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(750), withdrawn)
	assert.Equal(t, types.Amount(0), f.vault.BalanceOf(alice))
	assert.Equal(t, types.Amount(750), f.router.Holdings(alice))

	_, err = f.vault.WithdrawAll(ctx, alice)
	require.ErrorIs(t, err, vault.ErrNothingToWithdraw)
}

func TestWithdrawValidationOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.ErrorIs(t, f.vault.Withdraw(ctx, id.Nil, 1), vault.ErrInvalidAddress)
	require.ErrorIs(t, f.vault.Withdraw(ctx, id.NewAccount(), 0), vault.ErrZeroAmount)
	require.ErrorIs(t, f.vault.Withdraw(ctx, id.NewAccount(), 1), vault.ErrInsufficientBalance)
}

func TestTransferFailureCompensation(t *testing.T) {
	trail := audit.NewTrail()
	f := newFixture(t, vault.WithHook(trail))
	ctx := context.Background()
	alice := id.NewAccount()
	f.fund(t, alice, 500)
	require.NoError(t, f.vault.Deposit(ctx, alice, 500))

	// Alice's receiver refuses the payout, so the outbound transfer fails
	// after the debit committed.
	f.router.Register(alice, transfer.ReceiverFunc(func(context.Context, id.ID, types.Amount) error {
		return transfer.ErrRejected
	}))

	err := f.vault.Withdraw(ctx, alice, 200)
	require.ErrorIs(t, err, vault.ErrTransferFailed)

	// The compensating credit restored the books and the holdings.
	assert.Equal(t, types.Amount(500), f.vault.BalanceOf(alice))
	assert.Equal(t, types.Amount(500), f.vault.Total())
	assert.Equal(t, types.Amount(500), f.router.Holdings(f.vault.Address()))

	failures := trail.ByAction(audit.ActionWithdrawalFailed)
	require.Len(t, failures, 1)
	assert.True(t, failures[0].Account.Equal(alice))
}

func TestDivertingReceiverCannotDrainPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	victim := id.NewAccount()
	f.fund(t, victim, 1000)
	require.NoError(t, f.vault.Deposit(ctx, victim, 1000))

	attacker := id.NewAccount()
	accomplice := id.NewAccount()
	f.fund(t, attacker, 100)
	require.NoError(t, f.vault.Deposit(ctx, attacker, 100))

	// The attacker's receiver forwards each payout to an accomplice before
	// rejecting it, trying to make the vault refund value that already
	// left. The payout is not spendable until accepted, so the forward
	// finds nothing and every round just restores the books.
	f.router.Register(attacker, transfer.ReceiverFunc(func(ctx context.Context, _ id.ID, amount types.Amount) error {
		_ = f.router.Send(ctx, attacker, accomplice, amount)
		return transfer.ErrRejected
	}))

	for range 10 {
		require.ErrorIs(t, f.vault.Withdraw(ctx, attacker, 100), vault.ErrTransferFailed)
	}

	assert.Equal(t, types.Amount(0), f.router.Holdings(accomplice))
	assert.Equal(t, types.Amount(1100), f.router.Holdings(f.vault.Address()))
	assert.Equal(t, types.Amount(100), f.vault.BalanceOf(attacker))
	assert.Equal(t, types.Amount(1100), f.vault.Total())

	// The honest depositor is still whole.
	require.NoError(t, f.vault.Withdraw(ctx, victim, 1000))
	assert.Equal(t, types.Amount(1000), f.router.Holdings(victim))
}

func TestEmergencyWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := id.NewAccount()
	f.fund(t, alice, 1000)
	require.NoError(t, f.vault.Deposit(ctx, alice, 1000))

	require.NoError(t, f.vault.EmergencyWithdraw(ctx, f.owner, 300))

	// The drain debits the aggregate total only; alice's booked balance is
	// untouched. This is the documented administrative exception.
	assert.Equal(t, types.Amount(700), f.vault.Total())
	assert.Equal(t, types.Amount(1000), f.vault.BalanceOf(alice))
	assert.Equal(t, types.Amount(300), f.router.Holdings(f.owner))

	require.ErrorIs(t, f.vault.EmergencyWithdraw(ctx, f.owner, 701), vault.ErrArithmeticUnderflow)
}

func TestEmergencyWithdrawTransferFailureCompensation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := id.NewAccount()
	f.fund(t, alice, 800)
	require.NoError(t, f.vault.Deposit(ctx, alice, 800))

	// The owner's receiver refuses the drain, so the transfer fails after
	// the total was already debited.
	f.router.Register(f.owner, transfer.ReceiverFunc(func(context.Context, id.ID, types.Amount) error {
		return transfer.ErrRejected
	}))

	err := f.vault.EmergencyWithdraw(ctx, f.owner, 300)
	require.ErrorIs(t, err, vault.ErrTransferFailed)

	// The compensating credit restored the aggregate total and the pool.
	assert.Equal(t, types.Amount(800), f.vault.Total())
	assert.Equal(t, types.Amount(800), f.router.Holdings(f.vault.Address()))
	assert.Equal(t, types.Amount(0), f.router.Holdings(f.owner))
}

func TestHooksFireAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := id.NewAccount()
	f.fund(t, alice, 400)

	// The hook reads engine state at emission time; observing the
	// post-mutation values proves emission happens after commit.
	observer := &commitObserver{vault: f.vault}
	require.NoError(t, f.vault.RegisterHook(observer))

	require.NoError(t, f.vault.Deposit(ctx, alice, 400))
	require.NoError(t, f.vault.Withdraw(ctx, alice, 150))

	require.Len(t, observer.totals, 2)
	assert.Equal(t, types.Amount(400), observer.totals[0])
	assert.Equal(t, types.Amount(250), observer.totals[1])
}

type commitObserver struct {
	vault  *vault.Vault
	totals []types.Amount
}

func (o *commitObserver) Name() string { return "commit-observer" }

func (o *commitObserver) OnDeposit(context.Context, hook.DepositEvent) error {
	o.totals = append(o.totals, o.vault.Total())
	return nil
}

func (o *commitObserver) OnWithdrawal(context.Context, hook.WithdrawalEvent) error {
	o.totals = append(o.totals, o.vault.Total())
	return nil
}

func TestDebitVisibleDuringTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := id.NewAccount()
	f.fund(t, alice, 900)
	require.NoError(t, f.vault.Deposit(ctx, alice, 900))

	// The payout callback runs while the withdrawal is still in flight; the
	// books must already show the post-debit figures at that point.
	var midBalance, midTotal types.Amount
	f.router.Register(alice, transfer.ReceiverFunc(func(context.Context, id.ID, types.Amount) error {
		midBalance = f.vault.BalanceOf(alice)
		midTotal = f.vault.Total()
		return nil
	}))

	require.NoError(t, f.vault.Withdraw(ctx, alice, 300))
	assert.Equal(t, types.Amount(600), midBalance)
	assert.Equal(t, types.Amount(600), midTotal)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := id.NewAccount(), id.NewAccount()
	f.fund(t, alice, 300)
	f.fund(t, bob, 200)
	require.NoError(t, f.vault.Deposit(ctx, alice, 300))
	require.NoError(t, f.vault.Deposit(ctx, bob, 200))

	stats := f.vault.Stats()
	assert.True(t, stats.Owner.Equal(f.owner))
	assert.Equal(t, types.Amount(500), stats.Total)
	assert.Equal(t, types.Amount(500), stats.Holdings)
	assert.Equal(t, 2, stats.Accounts)
	assert.True(t, stats.Policy.DepositsEnabled)
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, vault.IsBalanceError(vault.ErrInsufficientBalance))
	assert.True(t, vault.IsBalanceError(vault.ErrNothingToWithdraw))
	assert.True(t, vault.IsPolicyError(vault.ErrFeatureDisabled))
	assert.True(t, vault.IsPolicyError(vault.ErrInvalidRange))
	assert.True(t, vault.IsArithmeticError(vault.ErrArithmeticOverflow))
	assert.False(t, vault.IsAuthError(vault.ErrInsufficientBalance))
}
