package vault

import "github.com/xraph/vault/types"

// Re-export common types for convenience so users don't have to import the
// types package.

// Amount is re-exported from the types package.
type Amount = types.Amount

// Entity is re-exported from the types package.
type Entity = types.Entity

// MaxAmount is the largest representable Amount.
const MaxAmount = types.MaxAmount

// Re-export constructors and helpers
var (
	Sum       = types.Sum
	NewEntity = types.NewEntity
)
