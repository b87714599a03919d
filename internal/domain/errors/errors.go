// Package errors provides standardized error types for the domain layer.
// The categories encode the propagation policy: validation and conflict
// errors surface immediately, chain unavailability is recovered locally
// on the read path, and provisioning failures surface only after the
// bounded retry loop is exhausted.
package errors

import (
	"errors"
	"fmt"
)

// Standard error categories
var (
	// ErrValidation indicates malformed input (address, amount, token kind)
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a uniqueness conflict (duplicate primary address)
	ErrConflict = errors.New("conflict")

	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrChainUnavailable indicates a transient chain source failure
	ErrChainUnavailable = errors.New("chain source unavailable")

	// ErrInsufficientFunds indicates the sender balance cannot cover a transfer
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrProvisioningFailed indicates wallet provisioning exhausted all retries
	ErrProvisioningFailed = errors.New("provisioning failed")

	// ErrStoreUnavailable indicates a transient persistence failure
	ErrStoreUnavailable = errors.New("store unavailable")
)

// DomainError represents a domain-specific error with additional context
type DomainError struct {
	Err       error
	Code      string
	Message   string
	Details   map[string]interface{}
	Retryable bool
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target
func (e *DomainError) Is(target error) bool {
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// WithDetails adds details to the error
func (e *DomainError) WithDetails(details map[string]interface{}) *DomainError {
	e.Details = details
	return e
}

// ValidationError creates a validation error for a field
func ValidationError(field, message string) *DomainError {
	return &DomainError{
		Err:     ErrValidation,
		Code:    "VALIDATION_ERROR",
		Message: message,
		Details: map[string]interface{}{
			"field": field,
		},
	}
}

// UnsupportedTokenError creates a validation error for an unknown token kind
func UnsupportedTokenError(token string) *DomainError {
	return &DomainError{
		Err:     ErrValidation,
		Code:    "UNSUPPORTED_TOKEN",
		Message: fmt.Sprintf("unsupported token kind: %s", token),
	}
}

// NotFoundError creates a not found error
func NotFoundError(resource string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Code:    fmt.Sprintf("%s_NOT_FOUND", resource),
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// ConflictError creates a conflict error
func ConflictError(resource, reason string) *DomainError {
	return &DomainError{
		Err:     ErrConflict,
		Code:    "CONFLICT",
		Message: fmt.Sprintf("conflict with %s: %s", resource, reason),
	}
}

// ChainUnavailableError creates a transient chain failure error
func ChainUnavailableError(operation string, err error) *DomainError {
	de := &DomainError{
		Err:       ErrChainUnavailable,
		Code:      "CHAIN_UNAVAILABLE",
		Message:   fmt.Sprintf("chain source unavailable during %s", operation),
		Retryable: true,
	}
	if err != nil {
		de.Details = map[string]interface{}{
			"cause": err.Error(),
		}
	}
	return de
}

// InsufficientFundsError creates an insufficient funds error
func InsufficientFundsError(token string, available, requested uint64) *DomainError {
	return &DomainError{
		Err:     ErrInsufficientFunds,
		Code:    "INSUFFICIENT_FUNDS",
		Message: fmt.Sprintf("insufficient %s balance", token),
		Details: map[string]interface{}{
			"available_minor_units": available,
			"requested_minor_units": requested,
		},
	}
}

// ProvisioningError creates a fatal provisioning error after retries
func ProvisioningError(attempts int, err error) *DomainError {
	de := &DomainError{
		Err:     ErrProvisioningFailed,
		Code:    "PROVISIONING_FAILED",
		Message: fmt.Sprintf("wallet provisioning failed after %d attempts", attempts),
	}
	if err != nil {
		de.Details = map[string]interface{}{
			"cause": err.Error(),
		}
	}
	return de
}

// StoreUnavailableError creates a transient persistence error
func StoreUnavailableError(operation string, err error) *DomainError {
	de := &DomainError{
		Err:       ErrStoreUnavailable,
		Code:      "STORE_UNAVAILABLE",
		Message:   fmt.Sprintf("store unavailable during %s", operation),
		Retryable: true,
	}
	if err != nil {
		de.Details = map[string]interface{}{
			"cause": err.Error(),
		}
	}
	return de
}

// Error helpers for common patterns

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsChainUnavailable checks if an error is a transient chain failure
func IsChainUnavailable(err error) bool {
	return errors.Is(err, ErrChainUnavailable)
}

// IsInsufficientFunds checks if an error is an insufficient funds error
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsProvisioningFailed checks if an error is a fatal provisioning error
func IsProvisioningFailed(err error) bool {
	return errors.Is(err, ErrProvisioningFailed)
}

// ShouldRetry reports whether an error is safe to retry. Validation and
// conflict errors are never retried; transient store and chain failures
// are.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		return false
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Retryable
	}
	// Unclassified errors from the store driver are treated as transient.
	return true
}

// GetErrorCode extracts the error code from a domain error
func GetErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "UNKNOWN_ERROR"
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
