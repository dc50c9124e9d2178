// Package insecure contains a deliberately vulnerable custody vault that
// issues the outbound transfer before debiting the ledger.
//
// It exists so the attack package can demonstrate, in a regression test
// that must keep passing, exactly what the transfer-then-debit ordering
// costs: a counterparty that re-enters Withdraw while the transfer is in
// flight still sees its pre-debit balance, passes validation again, and
// repeats until the pool is empty.
//
// Never use this package to hold value.
package insecure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/vault"
	"github.com/xraph/vault/book"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/transfer"
	"github.com/xraph/vault/types"
)

// Vault is the transfer-then-debit variant. Its surface is the minimal
// subset the adversary harness exercises.
type Vault struct {
	addr   id.ID
	router *transfer.Router
	ledger *book.Book
	logger *slog.Logger
}

// New creates an insecure vault settling value through router.
func New(router *transfer.Router) *Vault {
	return &Vault{
		addr:   id.NewVault(),
		router: router,
		ledger: book.New(),
		logger: slog.Default(),
	}
}

// Address returns the vault's settlement address.
func (v *Vault) Address() id.ID { return v.addr }

// BalanceOf returns the booked balance of an account.
func (v *Vault) BalanceOf(acct id.ID) types.Amount {
	return v.ledger.Balance(acct)
}

// Total returns the aggregate booked total.
func (v *Vault) Total() types.Amount {
	return v.ledger.Total()
}

// Deposit pulls amount from the caller's holdings and credits the ledger.
func (v *Vault) Deposit(ctx context.Context, caller id.ID, amount types.Amount) error {
	if caller.IsNil() {
		return vault.ErrInvalidAddress
	}

	if err := v.router.Send(ctx, caller, v.addr, amount); err != nil {
		return fmt.Errorf("%w: %w", vault.ErrTransferFailed, err)
	}
	_, err := v.ledger.Credit(caller, amount)
	return err
}

// Withdraw is the vulnerable path: it validates against the current
// balance, sends the value — running arbitrary counterparty code while the
// ledger still shows the pre-withdrawal balance — and only then debits.
// A reentrant caller passes validation as many times as the pool can pay.
func (v *Vault) Withdraw(ctx context.Context, caller id.ID, amount types.Amount) error {
	if caller.IsNil() {
		return vault.ErrInvalidAddress
	}
	if amount.IsZero() {
		return vault.ErrZeroAmount
	}
	if v.ledger.Balance(caller) < amount {
		return vault.ErrInsufficientBalance
	}

	// Interaction before effect: the counterparty runs here with the ledger
	// not yet debited.
	if err := v.router.Send(ctx, v.addr, caller, amount); err != nil {
		return fmt.Errorf("%w: %w", vault.ErrTransferFailed, err)
	}

	if _, err := v.ledger.Debit(caller, amount); err != nil {
		// The value is already gone; the books no longer cover the debit.
		// This is the wreckage reentrancy leaves behind.
		v.logger.Error("post-transfer debit failed",
			"account", caller.String(),
			"amount", amount,
			"error", err,
		)
		return err
	}
	return nil
}
