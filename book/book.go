// Package book implements the balance ledger: a mapping from account
// identity to a non-negative balance, plus an incrementally maintained
// aggregate total.
//
// The Book is pure bookkeeping. It performs no external calls and its
// internal mutex is released before any caller-controlled code can run, so
// it cannot participate in a reentrancy cycle. All arithmetic is checked:
// an operation that would overflow or underflow fails without mutating
// anything.
package book

import (
	"errors"
	"sync"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Sentinel errors for ledger mutations.
var (
	ErrInsufficientBalance = errors.New("book: insufficient balance")
	ErrZeroAmount          = errors.New("book: amount must be positive")
)

// Book holds per-account balances and the aggregate total.
type Book struct {
	mu       sync.Mutex
	balances map[string]types.Amount
	total    types.Amount
}

// New creates an empty Book.
func New() *Book {
	return &Book{
		balances: make(map[string]types.Amount),
	}
}

// Credit adds amount to the account's balance and to the aggregate total.
// It returns the new balance. The amount must be positive; either addition
// overflowing fails the whole operation with types.ErrOverflow.
func (b *Book) Credit(acct id.ID, amount types.Amount) (types.Amount, error) {
	if amount.IsZero() {
		return 0, ErrZeroAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := acct.String()

	newBal, err := b.balances[key].Add(amount)
	if err != nil {
		return 0, err
	}
	newTotal, err := b.total.Add(amount)
	if err != nil {
		return 0, err
	}

	b.balances[key] = newBal
	b.total = newTotal
	return newBal, nil
}

// Debit subtracts amount from the account's balance and from the aggregate
// total. It returns the new balance. The amount must be positive and must
// not exceed the account's balance; balances never go negative and never
// wrap.
func (b *Book) Debit(acct id.ID, amount types.Amount) (types.Amount, error) {
	if amount.IsZero() {
		return 0, ErrZeroAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := acct.String()

	bal := b.balances[key]
	if bal < amount {
		return 0, ErrInsufficientBalance
	}

	// Unreachable while the per-account invariant holds, but checked so a
	// broken total surfaces as an error rather than a wrapped value.
	newTotal, err := b.total.Sub(amount)
	if err != nil {
		return 0, err
	}

	newBal := bal - amount
	if newBal.IsZero() {
		delete(b.balances, key)
	} else {
		b.balances[key] = newBal
	}
	b.total = newTotal
	return newBal, nil
}

// DrainTotal debits amount from the aggregate total only, leaving
// per-account balances untouched. This is the full-sweep administrative
// escape hatch used by emergency withdrawal; it is the one mutation allowed
// to break the total == sum(balances) invariant.
func (b *Book) DrainTotal(amount types.Amount) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	newTotal, err := b.total.Sub(amount)
	if err != nil {
		return err
	}
	b.total = newTotal
	return nil
}

// CreditTotal adds amount back to the aggregate total only. It is the
// compensating inverse of DrainTotal for a failed emergency transfer.
func (b *Book) CreditTotal(amount types.Amount) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	newTotal, err := b.total.Add(amount)
	if err != nil {
		return err
	}
	b.total = newTotal
	return nil
}

// Balance returns the account's balance. Unknown accounts hold zero.
func (b *Book) Balance(acct id.ID) types.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[acct.String()]
}

// Total returns the aggregate total.
func (b *Book) Total() types.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// Accounts returns the number of accounts with a nonzero balance.
func (b *Book) Accounts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.balances)
}

// SumBalances recomputes the sum of all account balances. It exists so
// callers and tests can verify the solvency invariant against the
// incrementally maintained total.
func (b *Book) SumBalances() (types.Amount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sum types.Amount
	for _, bal := range b.balances {
		next, err := sum.Add(bal)
		if err != nil {
			return 0, err
		}
		sum = next
	}
	return sum, nil
}
