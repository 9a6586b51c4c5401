// Package errors defines the domain error taxonomy shared by services and handlers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidState      = "INVALID_STATE"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
	CodePartialSettlement = "PARTIAL_SETTLEMENT"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeValidationFailed  = "VALIDATION_FAILED"
)

// DomainError carries a stable code for callers and an optional cause.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError with the same code, so wrapped instances
// compare equal to the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "record not found",
	}
	ErrInvalidState = &DomainError{
		Code:    CodeInvalidState,
		Message: "operation not valid for current state",
	}
	ErrInsufficientFunds = &DomainError{
		Code:    CodeInsufficientFunds,
		Message: "insufficient wallet balance",
	}
	ErrStoreUnavailable = &DomainError{
		Code:    CodeStoreUnavailable,
		Message: "record store unavailable",
	}
	ErrPartialSettlement = &DomainError{
		Code:    CodePartialSettlement,
		Message: "settlement partially applied, reconciliation required",
	}
	ErrInvalidAmount = &DomainError{
		Code:    CodeInvalidAmount,
		Message: "invalid amount",
	}
	ErrValidation = &DomainError{
		Code:    CodeValidationFailed,
		Message: "validation failed",
	}
)

// Wrap returns a copy of sentinel with a new message and cause attached.
func Wrap(sentinel *DomainError, message string, cause error) *DomainError {
	if message == "" {
		message = sentinel.Message
	}
	return &DomainError{Code: sentinel.Code, Message: message, Err: cause}
}

// Newf returns a copy of sentinel with a formatted message and no cause.
func Newf(sentinel *DomainError, format string, args ...interface{}) *DomainError {
	return &DomainError{Code: sentinel.Code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the domain code from err, or "" if err carries none.
func CodeOf(err error) string {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}
