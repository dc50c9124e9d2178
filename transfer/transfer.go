// Package transfer implements the external value-transfer primitive.
//
// A Router moves units of value between address-keyed holdings. Delivering
// value to an address that has registered a Receiver synchronously runs that
// receiver's code before Send returns — and that code may call back into any
// operation of the system that initiated the transfer, including the very
// withdrawal still in progress. Callers must treat Send as a point where
// control leaves their own code and arbitrary re-entry can happen.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Sentinel errors for transfer attempts.
var (
	ErrInsufficientFunds = errors.New("transfer: insufficient funds")
	ErrRejected          = errors.New("transfer: recipient rejected value")
	ErrNilParty          = errors.New("transfer: nil party")
)

// Receiver is counterparty code run synchronously while value is in flight
// to its address. The amount is not spendable by the recipient until the
// receiver returns nil. Returning an error rejects the transfer; the
// in-flight value is returned to the sender and Send reports failure.
type Receiver interface {
	Receive(ctx context.Context, from id.ID, amount types.Amount) error
}

// ReceiverFunc adapts a function to the Receiver interface.
type ReceiverFunc func(ctx context.Context, from id.ID, amount types.Amount) error

// Receive implements Receiver.
func (f ReceiverFunc) Receive(ctx context.Context, from id.ID, amount types.Amount) error {
	return f(ctx, from, amount)
}

// Router moves value between per-address holdings and dispatches receiver
// callbacks. The internal mutex guards the holdings map only; it is released
// before any receiver code runs, so receivers are free to issue further
// transfers.
type Router struct {
	mu        sync.Mutex
	holdings  map[string]types.Amount
	receivers map[string]Receiver
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		holdings:  make(map[string]types.Amount),
		receivers: make(map[string]Receiver),
	}
}

// Register attaches receiver code to an address. Subsequent deliveries to
// that address run the receiver before Send returns.
func (r *Router) Register(addr id.ID, rcv Receiver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receivers[addr.String()] = rcv
}

// Mint credits freshly created value to an address. Used to fund parties in
// scenarios and harnesses.
func (r *Router) Mint(addr id.ID, amount types.Amount) error {
	if addr.IsNil() {
		return ErrNilParty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	newBal, err := r.holdings[addr.String()].Add(amount)
	if err != nil {
		return err
	}
	r.holdings[addr.String()] = newBal
	return nil
}

// Holdings returns the value currently held by an address.
func (r *Router) Holdings(addr id.ID) types.Amount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.holdings[addr.String()]
}

// Send attempts to move amount from one address to another and reports
// whether the attempt succeeded.
//
// Delivery is two-phase. The sender is debited first; then, if the
// recipient has registered a Receiver, that code runs synchronously with
// the value still in flight. The recipient's holdings are credited only
// after the receiver accepts, so a rejecting receiver has nothing it could
// have spent and the in-flight value goes straight back to the sender. A
// receiver error surfaces as ErrRejected. No lock is held while the
// receiver runs.
func (r *Router) Send(ctx context.Context, from, to id.ID, amount types.Amount) error {
	if from.IsNil() || to.IsNil() {
		return ErrNilParty
	}

	rcv, err := r.depart(from, to, amount)
	if err != nil {
		return err
	}

	if rcv != nil {
		if rcvErr := rcv.Receive(ctx, from, amount); rcvErr != nil {
			if refundErr := r.land(from, amount); refundErr != nil {
				return fmt.Errorf("transfer: refund after rejection: %w", refundErr)
			}
			return fmt.Errorf("%w: %w", ErrRejected, rcvErr)
		}
	}

	if err := r.land(to, amount); err != nil {
		// The recipient's holdings cannot absorb the value; bounce it back.
		if refundErr := r.land(from, amount); refundErr != nil {
			return errors.Join(err, refundErr)
		}
		return err
	}
	return nil
}

// depart debits the sender under lock and returns the recipient's receiver,
// if any, for the caller to invoke outside the lock. The amount stays in
// flight until land credits it.
func (r *Router) depart(from, to id.ID, amount types.Amount) (Receiver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fromKey := from.String()
	bal := r.holdings[fromKey]
	if bal < amount {
		return nil, ErrInsufficientFunds
	}

	r.holdings[fromKey] = bal - amount
	return r.receivers[to.String()], nil
}

// land credits in-flight value to an address.
func (r *Router) land(addr id.ID, amount types.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	newBal, err := r.holdings[addr.String()].Add(amount)
	if err != nil {
		return err
	}
	r.holdings[addr.String()] = newBal
	return nil
}
