package wallet

import "errors"

// ErrInvalidAmount is returned when a mutation carries a zero or negative amount.
var ErrInvalidAmount = errors.New("amount must be positive")

// ErrInvalidInput is returned for malformed inputs other than the amount:
// blank tenant IDs, unknown reasons, negative thresholds.
var ErrInvalidInput = errors.New("invalid input")

// ErrInsufficientBalance is returned when a debit would take the balance
// below zero. Nothing is written.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrAlreadyRefunded is returned when the transaction has already been
// refunded once.
var ErrAlreadyRefunded = errors.New("transaction already refunded")

// ErrDuplicateReference is returned when a mutation carries a reference that
// an earlier transaction with the same reason already recorded.
var ErrDuplicateReference = errors.New("reference already recorded")

// ErrAccountDisabled is returned when a mutation targets a disabled account.
var ErrAccountDisabled = errors.New("account is disabled")

// ErrConcurrencyExhausted is returned when the retry budget ran out before
// the mutation could win a conditional write. The caller may retry.
var ErrConcurrencyExhausted = errors.New("too many concurrent balance updates")
