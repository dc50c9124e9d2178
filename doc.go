// Package vault provides a reentrancy-safe value-custody engine for Go
// applications.
//
// Vault is designed as a library, not a service. Multiple parties deposit
// and withdraw an indivisible unit of value from a shared pool under strict
// per-party isolation, an owner-level administrative override, and a
// withdrawal path that stays safe even when the counterparty receiving
// value runs arbitrary code before the transfer returns.
//
// # Quick Start
//
// Create a router to settle value, then a vault on top of it:
//
//	import (
//	    "github.com/xraph/vault"
//	    "github.com/xraph/vault/id"
//	    "github.com/xraph/vault/transfer"
//	)
//
//	router := transfer.NewRouter()
//	owner := id.NewAccount()
//
//	v, err := vault.New(owner, router)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	alice := id.NewAccount()
//	router.Mint(alice, 1000)
//
//	v.Deposit(ctx, alice, 1000)
//	v.Withdraw(ctx, alice, 400) // alice now holds 400, books 600
//
// # The Reentrancy Hazard
//
// Delivering value to an address can synchronously run that address's
// registered receiver code, and that code may call back into any vault
// operation — including the withdrawal still in progress. Vault defeats
// this with checks-effects-interactions ordering: every withdrawal debits
// the ledger before the outbound transfer is attempted, so a nested
// withdrawal observes the already-reduced balance and fails its own
// validation. No lock is held across the transfer and no reentrancy flag
// is stored; temporal ordering alone carries the safety property.
//
// The insecure package ships a deliberately vulnerable transfer-then-debit
// variant, and the attack package a hostile counterparty that drains it,
// kept as a permanent demonstration that the ordering is load-bearing.
//
// # Invariants
//
// At every externally observable point:
//
//   - total() equals the sum of all account balances (emergency drains are
//     the documented administrative exception)
//   - no balance or total is ever negative; arithmetic is checked, never
//     wrapping
//   - failed operations mutate nothing, except a failed outbound transfer,
//     which is compensated by an explicit credit-back
//
// # Hooks
//
// Lifecycle events — deposits, withdrawals, ownership and policy changes —
// fire only after their state mutation commits. Register hooks at
// construction time:
//
//	v, err := vault.New(owner, router,
//	    vault.WithHook(audit.NewTrail()),
//	    vault.WithHook(metrics.New(prometheus.DefaultRegisterer)),
//	)
//
// # TypeID
//
// Every party uses TypeID for globally unique, prefix-qualified identity:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // Account holder
//	vault_01h2xcejqtf2nbrexx3vqjhp41 // Vault instance
//	evt_01h455vb4pex5vsknk084sn02q   // Audit event
//
// The zero ID is the null identity and is rejected wherever a real
// counterparty is required.
package vault
