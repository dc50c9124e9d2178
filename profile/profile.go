// Package profile provides the companion user-record registry: string-keyed
// profiles per party identity with register/update/get semantics.
//
// Profiles carry no value and never touch the custody ledger or its
// invariants; the registry is ordinary keyed-record management kept beside
// the vault for callers that want named account holders.
package profile

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Sentinel errors for registry operations.
var (
	ErrAlreadyRegistered = errors.New("profile: already registered")
	ErrNotRegistered     = errors.New("profile: not registered")
	ErrInvalidField      = errors.New("profile: invalid field")
	ErrNilParty          = errors.New("profile: nil party")
)

// Profile is one user record.
type Profile struct {
	types.Entity

	Name  string `json:"name" validate:"required,min=2,max=64"`
	Age   int    `json:"age" validate:"gte=13,lte=120"`
	Email string `json:"email" validate:"required,email"`
}

// Changes is a partial update; nil fields keep their current value.
type Changes struct {
	Name  *string
	Age   *int
	Email *string
}

// Registry holds profiles keyed by party identity.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	validate *validator.Validate
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		profiles: make(map[string]Profile),
		validate: validator.New(),
	}
}

// Register stores a new profile for a party. Fails with
// ErrAlreadyRegistered if the party already has one, or ErrInvalidField if
// validation rejects any field.
func (r *Registry) Register(party id.ID, p Profile) error {
	if party.IsNil() {
		return ErrNilParty
	}
	if err := r.validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidField, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := party.String()
	if _, exists := r.profiles[key]; exists {
		return ErrAlreadyRegistered
	}

	p.Entity = types.NewEntity()
	r.profiles[key] = p
	return nil
}

// Update applies a partial change to an existing profile. Fails with
// ErrNotRegistered for unknown parties; a validation failure leaves the
// stored profile untouched.
func (r *Registry) Update(party id.ID, c Changes) error {
	if party.IsNil() {
		return ErrNilParty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := party.String()
	current, exists := r.profiles[key]
	if !exists {
		return ErrNotRegistered
	}

	next := current
	if c.Name != nil {
		next.Name = *c.Name
	}
	if c.Age != nil {
		next.Age = *c.Age
	}
	if c.Email != nil {
		next.Email = *c.Email
	}

	if err := r.validate.Struct(next); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidField, err)
	}

	next.Touch()
	r.profiles[key] = next
	return nil
}

// Get returns a party's profile, if registered.
func (r *Registry) Get(party id.ID) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[party.String()]
	return p, ok
}

// Count returns the number of registered profiles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}
