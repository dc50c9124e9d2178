// Package id defines TypeID-based identity types for all Vault parties.
//
// Every party in Vault — account holders, vault instances, harness
// controllers, audit events — is identified by a single ID struct with a
// prefix that names the party kind. IDs are K-sortable (UUIDv7-based),
// globally unique, and URL-safe in the format "prefix_suffix".
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the party kind encoded in a TypeID.
type Prefix string

// Prefix constants for all Vault party kinds.
const (
	PrefixAccount    Prefix = "acct"  // Account holder
	PrefixVault      Prefix = "vault" // Vault instance
	PrefixController Prefix = "ctrl"  // Harness controller
	PrefixEvent      Prefix = "evt"   // Audit event
)

// ID is the identity type for every Vault party.
// The zero value is Nil, the null identity; operations that require a real
// counterparty must reject it.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID, the null identity.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "acct_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewAccount generates a new unique account-holder ID.
func NewAccount() ID { return New(PrefixAccount) }

// NewVault generates a new unique vault-instance ID.
func NewVault() ID { return New(PrefixVault) }

// NewController generates a new unique harness-controller ID.
func NewController() ID { return New(PrefixController) }

// NewEvent generates a new unique audit-event ID.
func NewEvent() ID { return New(PrefixEvent) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the null identity.
func (i ID) IsNil() bool {
	return !i.valid
}

// Equal reports whether two IDs refer to the same party.
func (i ID) Equal(other ID) bool {
	if !i.valid || !other.valid {
		return i.valid == other.valid
	}

	return i.inner.String() == other.inner.String()
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}
