package core

import (
	"errors"
	"fmt"
)

// Sentinel errors share a small taxonomy so transports can map them to
// status codes without knowing which storage backend produced them.
var (
	// ErrValidation marks malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a lookup of a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrReferentialConflict marks a delete of a record still referenced
	// by transactions.
	ErrReferentialConflict = errors.New("record still referenced")
	// ErrInsufficientFunds marks a transfer rejected because the source
	// account would go negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

var (
	ErrEmptyName          = Validationf("name is required")
	ErrEmptyAccountType   = Validationf("account type is required")
	ErrInvalidKind        = Validationf("kind must be expense or income")
	ErrMissingUser        = Validationf("user is required")
	ErrMissingAccount     = Validationf("account is required")
	ErrMissingCategory    = Validationf("category is required")
	ErrMissingDate        = Validationf("date is required")
	ErrDescriptionTooLong = Validationf("description exceeds 200 characters")
	ErrAmountNotPositive  = Validationf("amount must be greater than zero")
	ErrAmountPrecision    = Validationf("amount must have at most two decimal places")
	ErrSameAccount        = Validationf("source and destination accounts must differ")
)

// Validationf builds a validation error wrapping ErrValidation so callers
// can classify it with errors.Is.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds a not-found error for the named entity.
func NotFoundf(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
}
