// Package types provides common types used across Vault.
package types

import (
	"errors"
	"math"
	"strconv"
)

// Arithmetic sentinel errors. Amount arithmetic is always checked — an
// operation that would wrap fails instead.
var (
	ErrOverflow  = errors.New("types: amount overflow")
	ErrUnderflow = errors.New("types: amount underflow")
)

// Amount is a quantity of the vault's indivisible unit.
// It is unsigned: no balance or total can ever go negative, and all
// arithmetic is checked rather than wrapping.
type Amount uint64

// MaxAmount is the largest representable Amount.
const MaxAmount = Amount(math.MaxUint64)

// Add returns a + b, or ErrOverflow if the sum does not fit.
func (a Amount) Add(b Amount) (Amount, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a - b, or ErrUnderflow if b exceeds a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// String returns the amount in decimal.
func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// Sum calculates the sum of multiple amounts with overflow checking.
func Sum(values ...Amount) (Amount, error) {
	var total Amount
	for _, v := range values {
		next, err := total.Add(v)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}
