package storage

import "errors"

// ErrAccountNotFound is returned when the tenant has no provisioned account.
var ErrAccountNotFound = errors.New("account not found")

// ErrAccountExists is returned when provisioning a tenant that already has an account.
var ErrAccountExists = errors.New("account already exists")

// ErrTransactionNotFound is returned when a transaction lookup matches nothing.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrVersionConflict is returned when a conditional write lost the race: the
// account row changed between the caller's read and its write. The caller is
// expected to re-read and retry.
var ErrVersionConflict = errors.New("account version conflict")

// ErrReferenceExists is returned when a write tried to claim a reference key
// that an earlier transaction already holds.
var ErrReferenceExists = errors.New("reference key already recorded")

// ErrInvalidCursor is returned when a pagination cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid pagination cursor")
