package vault

import (
	"errors"

	"github.com/xraph/vault/book"
	"github.com/xraph/vault/policy"
	"github.com/xraph/vault/types"
)

// Sentinel errors for common failure scenarios. Leaf packages own the
// sentinels for the checks they perform; the aliases below bind them into
// one taxonomy so callers can match everything against the vault package.
var (
	// Access control errors
	ErrUnauthorized   = errors.New("vault: unauthorized")
	ErrInvalidAddress = errors.New("vault: invalid address")

	// Withdrawal protocol errors
	ErrTransferFailed    = errors.New("vault: transfer failed")
	ErrNothingToWithdraw = errors.New("vault: nothing to withdraw")

	// Ledger errors
	ErrInsufficientBalance = book.ErrInsufficientBalance
	ErrZeroAmount          = book.ErrZeroAmount

	// Policy errors
	ErrFeatureDisabled   = policy.ErrDisabled
	ErrAmountOutOfBounds = policy.ErrOutOfBounds
	ErrInvalidRange      = policy.ErrInvalidRange

	// Arithmetic errors
	ErrArithmeticOverflow  = types.ErrOverflow
	ErrArithmeticUnderflow = types.ErrUnderflow
)

// IsAuthError returns true if the error is an access-control failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidAddress)
}

// IsBalanceError returns true if the error relates to an account balance.
func IsBalanceError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrNothingToWithdraw) ||
		errors.Is(err, ErrZeroAmount)
}

// IsPolicyError returns true if the error is a feature-gate or limit failure.
func IsPolicyError(err error) bool {
	return errors.Is(err, ErrFeatureDisabled) ||
		errors.Is(err, ErrAmountOutOfBounds) ||
		errors.Is(err, ErrInvalidRange)
}

// IsArithmeticError returns true if the error is a checked-arithmetic failure.
func IsArithmeticError(err error) bool {
	return errors.Is(err, ErrArithmeticOverflow) ||
		errors.Is(err, ErrArithmeticUnderflow)
}
