package vault

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/vault/book"
	"github.com/xraph/vault/hook"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/policy"
	"github.com/xraph/vault/transfer"
	"github.com/xraph/vault/types"
)

// Vault is the custody engine. It keeps a per-account balance ledger, an
// owner-controlled policy, and moves real value through a transfer.Router.
//
// Withdrawal follows checks-effects-interactions: the ledger is debited
// before the outbound transfer runs, so counterparty code that re-enters
// Withdraw during the transfer observes the already-reduced balance and the
// nested attempt fails. There is no reentrancy lock; ordering alone is the
// defense, and no lock is ever held across the transfer step.
type Vault struct {
	addr   id.ID
	router *transfer.Router
	ledger *book.Book
	hooks  *hook.Registry
	logger *slog.Logger

	// mu guards owner and policy. It is never held across Router.Send.
	mu     sync.RWMutex
	owner  id.ID
	policy *policy.Policy

	// initHooks holds hooks supplied via options until New registers them.
	initHooks []hook.Hook
}

// New creates a Vault owned by owner, settling value through router.
// The owner must be a real identity.
func New(owner id.ID, router *transfer.Router, opts ...Option) (*Vault, error) {
	if owner.IsNil() {
		return nil, ErrInvalidAddress
	}
	if router == nil {
		return nil, fmt.Errorf("vault: nil router")
	}

	v := &Vault{
		addr:   id.NewVault(),
		router: router,
		ledger: book.New(),
		hooks:  hook.NewRegistry(),
		logger: slog.Default(),
		owner:  owner,
		policy: policy.Default(),
	}

	for _, opt := range opts {
		opt(v)
	}

	v.hooks.WithLogger(v.logger)

	// A hook that fails to register would silently miss every event, so
	// construction fails instead.
	for _, h := range v.initHooks {
		if err := v.hooks.Register(h); err != nil {
			return nil, err
		}
	}
	v.initHooks = nil

	return v, nil
}

// Option configures a Vault instance.
type Option func(*Vault)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
	}
}

// WithHook registers a lifecycle hook. A registration failure, such as a
// duplicate hook name, fails New.
func WithHook(h hook.Hook) Option {
	return func(v *Vault) {
		v.initHooks = append(v.initHooks, h)
	}
}

// WithPolicy sets the initial policy state.
func WithPolicy(p *policy.Policy) Option {
	return func(v *Vault) {
		if p != nil {
			v.policy = p
		}
	}
}

// RegisterHook registers a lifecycle hook after construction.
func (v *Vault) RegisterHook(h hook.Hook) error {
	return v.hooks.Register(h)
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// Address returns the vault's own settlement address.
func (v *Vault) Address() id.ID { return v.addr }

// Owner returns the current owner.
func (v *Vault) Owner() id.ID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.owner
}

// BalanceOf returns the booked balance of an account.
func (v *Vault) BalanceOf(acct id.ID) types.Amount {
	return v.ledger.Balance(acct)
}

// Total returns the aggregate booked total.
func (v *Vault) Total() types.Amount {
	return v.ledger.Total()
}

// Stats is a read-only summary of the vault state.
type Stats struct {
	Owner    id.ID           `json:"owner"`
	Total    types.Amount    `json:"total"`
	Accounts int             `json:"accounts"`
	Holdings types.Amount    `json:"holdings"`
	Policy   policy.Snapshot `json:"policy"`
}

// Stats returns a snapshot of the vault: booked total, number of funded
// accounts, actual pool holdings, owner, and policy.
func (v *Vault) Stats() Stats {
	v.mu.RLock()
	owner := v.owner
	snap := v.policy.Snapshot()
	v.mu.RUnlock()

	return Stats{
		Owner:    owner,
		Total:    v.ledger.Total(),
		Accounts: v.ledger.Accounts(),
		Holdings: v.router.Holdings(v.addr),
		Policy:   snap,
	}
}

// ──────────────────────────────────────────────────
// Deposit
// ──────────────────────────────────────────────────

// Deposit pulls amount from the caller's holdings into the vault and
// credits the caller's booked balance.
//
// Guard order: caller identity, policy gate and limits, arithmetic
// preflight, then the inbound transfer, then the credit. The credit commits
// before the Deposit hook fires.
func (v *Vault) Deposit(ctx context.Context, caller id.ID, amount types.Amount) error {
	if caller.IsNil() {
		return ErrInvalidAddress
	}

	v.mu.RLock()
	err := v.policy.CheckDeposit(amount)
	v.mu.RUnlock()
	if err != nil {
		return err
	}

	// Preflight the credit so the pull below cannot land value the ledger
	// refuses to book.
	if _, err := v.ledger.Total().Add(amount); err != nil {
		return err
	}
	if _, err := v.ledger.Balance(caller).Add(amount); err != nil {
		return err
	}

	if err := v.router.Send(ctx, caller, v.addr, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	newBal, err := v.ledger.Credit(caller, amount)
	if err != nil {
		// Unreachable after the preflight; return the value if it happens.
		if sendErr := v.router.Send(ctx, v.addr, caller, amount); sendErr != nil {
			v.logger.Error("refund after failed credit",
				"account", caller.String(),
				"amount", amount,
				"error", sendErr,
			)
		}
		return err
	}

	v.logger.Debug("deposit",
		"account", caller.String(),
		"amount", amount,
		"balance", newBal,
	)

	v.hooks.EmitDeposit(ctx, hook.DepositEvent{
		Account:    caller,
		Amount:     amount,
		NewBalance: newBal,
	})
	return nil
}

// ──────────────────────────────────────────────────
// Withdrawal protocol
// ──────────────────────────────────────────────────

// Withdraw debits amount from the caller's booked balance and sends it to
// the caller's address.
//
// The debit commits before the outbound transfer is attempted. The transfer
// may synchronously run arbitrary counterparty code; a nested Withdraw
// issued from that code sees the post-debit balance and fails its own
// validation instead of double-spending.
//
// If the transfer itself fails, the already-committed debit is compensated
// by an explicit credit-back and the call reports ErrTransferFailed. The
// compensation is explicit because nothing in the host model rolls a failed
// operation back for us.
func (v *Vault) Withdraw(ctx context.Context, caller id.ID, amount types.Amount) error {
	// VALIDATED
	if caller.IsNil() {
		return ErrInvalidAddress
	}

	v.mu.RLock()
	err := v.policy.CheckWithdrawal()
	v.mu.RUnlock()
	if err != nil {
		return err
	}

	if amount.IsZero() {
		return ErrZeroAmount
	}
	if v.ledger.Balance(caller) < amount {
		return ErrInsufficientBalance
	}
	if v.ledger.Total() < amount {
		return ErrInsufficientBalance
	}

	// DEBITED — the ledger reflects the post-withdrawal balance before
	// control leaves this function.
	newBal, err := v.ledger.Debit(caller, amount)
	if err != nil {
		return err
	}

	// TRANSFERRING — re-entry risk point, no lock held.
	if sendErr := v.router.Send(ctx, v.addr, caller, amount); sendErr != nil {
		if _, creditErr := v.ledger.Credit(caller, amount); creditErr != nil {
			v.logger.Error("compensating credit failed",
				"account", caller.String(),
				"amount", amount,
				"error", creditErr,
			)
		}

		wrapped := fmt.Errorf("%w: %w", ErrTransferFailed, sendErr)
		v.logger.Warn("withdrawal transfer failed",
			"account", caller.String(),
			"amount", amount,
			"error", sendErr,
		)
		v.hooks.EmitWithdrawalFailed(ctx, hook.WithdrawalFailure{
			Account: caller,
			Amount:  amount,
			Err:     wrapped,
		})
		return wrapped
	}

	// COMPLETE
	v.logger.Debug("withdrawal",
		"account", caller.String(),
		"amount", amount,
		"balance", newBal,
	)

	v.hooks.EmitWithdrawal(ctx, hook.WithdrawalEvent{
		Account:    caller,
		Amount:     amount,
		NewBalance: newBal,
	})
	return nil
}

// WithdrawAll withdraws the caller's entire booked balance. It returns the
// amount withdrawn, or ErrNothingToWithdraw for an empty balance.
func (v *Vault) WithdrawAll(ctx context.Context, caller id.ID) (types.Amount, error) {
	if caller.IsNil() {
		return 0, ErrInvalidAddress
	}

	balance := v.ledger.Balance(caller)
	if balance.IsZero() {
		return 0, ErrNothingToWithdraw
	}

	if err := v.Withdraw(ctx, caller, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// EmergencyWithdraw drains amount from the pool to the owner. Owner only.
// It bypasses per-account balances and debits the aggregate total alone —
// the one operation allowed to leave total() below the sum of balances.
func (v *Vault) EmergencyWithdraw(ctx context.Context, caller id.ID, amount types.Amount) error {
	v.mu.RLock()
	err := v.requireOwner(caller)
	owner := v.owner
	v.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := v.ledger.DrainTotal(amount); err != nil {
		return err
	}

	if sendErr := v.router.Send(ctx, v.addr, owner, amount); sendErr != nil {
		if creditErr := v.ledger.CreditTotal(amount); creditErr != nil {
			v.logger.Error("compensating total credit failed",
				"amount", amount,
				"error", creditErr,
			)
		}
		return fmt.Errorf("%w: %w", ErrTransferFailed, sendErr)
	}

	v.logger.Warn("emergency withdrawal",
		"owner", owner.String(),
		"amount", amount,
	)

	v.hooks.EmitEmergencyWithdrawal(ctx, hook.EmergencyWithdrawal{
		Owner:  owner,
		Amount: amount,
	})
	return nil
}

// ──────────────────────────────────────────────────
// Administration
// ──────────────────────────────────────────────────

// TransferOwnership reassigns the owner. Owner only; the new owner must be
// a real identity. The check and the update happen in one critical section
// so no intermediate owner is ever visible.
func (v *Vault) TransferOwnership(ctx context.Context, caller, newOwner id.ID) error {
	if newOwner.IsNil() {
		return ErrInvalidAddress
	}

	v.mu.Lock()
	if err := v.requireOwner(caller); err != nil {
		v.mu.Unlock()
		return err
	}
	previous := v.owner
	v.owner = newOwner
	v.mu.Unlock()

	v.logger.Info("ownership transferred",
		"previous", previous.String(),
		"next", newOwner.String(),
	)

	v.hooks.EmitOwnershipTransferred(ctx, hook.OwnershipTransfer{
		Previous: previous,
		Next:     newOwner,
	})
	return nil
}

// SetDepositsEnabled toggles the deposit gate. Owner only.
func (v *Vault) SetDepositsEnabled(ctx context.Context, caller id.ID, enabled bool) error {
	v.mu.Lock()
	if err := v.requireOwner(caller); err != nil {
		v.mu.Unlock()
		return err
	}
	v.policy.SetDepositsEnabled(enabled)
	snap := v.policy.Snapshot()
	v.mu.Unlock()

	v.hooks.EmitPolicyChanged(ctx, hook.PolicyChange{Setting: "deposits_enabled", Policy: snap})
	return nil
}

// SetWithdrawalsEnabled toggles the withdrawal gate. Owner only.
func (v *Vault) SetWithdrawalsEnabled(ctx context.Context, caller id.ID, enabled bool) error {
	v.mu.Lock()
	if err := v.requireOwner(caller); err != nil {
		v.mu.Unlock()
		return err
	}
	v.policy.SetWithdrawalsEnabled(enabled)
	snap := v.policy.Snapshot()
	v.mu.Unlock()

	v.hooks.EmitPolicyChanged(ctx, hook.PolicyChange{Setting: "withdrawals_enabled", Policy: snap})
	return nil
}

// SetLimits updates the deposit bounds. Owner only; min must not exceed max.
func (v *Vault) SetLimits(ctx context.Context, caller id.ID, minDeposit, maxDeposit types.Amount) error {
	v.mu.Lock()
	if err := v.requireOwner(caller); err != nil {
		v.mu.Unlock()
		return err
	}
	if err := v.policy.SetLimits(minDeposit, maxDeposit); err != nil {
		v.mu.Unlock()
		return err
	}
	snap := v.policy.Snapshot()
	v.mu.Unlock()

	v.hooks.EmitPolicyChanged(ctx, hook.PolicyChange{Setting: "limits", Policy: snap})
	return nil
}

// requireOwner must be called with v.mu held.
func (v *Vault) requireOwner(caller id.ID) error {
	if !caller.Equal(v.owner) {
		return ErrUnauthorized
	}
	return nil
}
