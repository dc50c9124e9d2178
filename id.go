package vault

import "github.com/xraph/vault/id"

// ID is the identity type for every Vault party.
type ID = id.ID

// Prefix identifies the party kind encoded in a TypeID.
type Prefix = id.Prefix
