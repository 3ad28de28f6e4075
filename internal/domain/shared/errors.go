package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is makes sentinel comparison work by code, so wrapped domain errors
// with the same code match via errors.Is.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if errors.As(target, &de) {
		return e.Code == de.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound                = NewDomainError("NOT_FOUND", "Resource not found")
	ErrValidation              = NewDomainError("VALIDATION_FAILED", "Invalid input provided")
	ErrConcurrencyConflict     = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState            = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientFunds       = NewDomainError("INSUFFICIENT_FUNDS", "Insufficient funds available")
	ErrUnsupportedReversalType = NewDomainError("UNSUPPORTED_REVERSAL_TYPE", "Transaction type cannot be reversed")
	ErrAlreadyReversed         = NewDomainError("ALREADY_REVERSED", "Transaction has already been reversed")
)

// IsDomainError reports whether err carries the given domain error code.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
