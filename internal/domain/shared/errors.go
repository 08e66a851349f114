// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")

	// Infrastructure errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrTimeout          = errors.New("operation timeout")
	ErrExternalService  = errors.New("external service error")

	// Consistency errors. ErrInconsistency marks data corruption (for example
	// a ledger row pointing at a catalog ordinal that does not exist) and must
	// never be silently converted into a normal outcome.
	ErrInconsistency = errors.New("data inconsistency detected")

	// ErrConstraintUnsatisfiable is returned when the problem generator cannot
	// produce a valid problem within the configured ranges and ceiling.
	ErrConstraintUnsatisfiable = errors.New("generation constraints unsatisfiable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "catalog", "ledger", "generator"
	Op      string // Operation that failed, e.g., "SaveDay", "MarkCompleted"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Catalog domain errors
var (
	ErrProblemNotFound = NewDomainError("catalog", "Get", ErrNotFound, "problem not found")
	ErrDayNotEmpty     = NewDomainError("catalog", "SaveDay", ErrAlreadyExists, "catalog already has problems for this date")
	ErrSparseOrdinals  = NewDomainError("catalog", "SaveDay", ErrValidation, "problem ordinals are not dense from zero")
)

// Ledger domain errors
var (
	ErrAttemptNotFound  = NewDomainError("ledger", "MarkCompleted", ErrNotFound, "attempt not found")
	ErrAttemptCompleted = NewDomainError("ledger", "MarkCompleted", ErrAlreadyProcessed, "attempt already completed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStoreUnavailable checks if the error is a transient persistence failure.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrTimeout)
}

// IsInconsistency checks if the error marks a hard data inconsistency.
func IsInconsistency(err error) bool {
	return errors.Is(err, ErrInconsistency)
}

// IsRetryable checks if the operation can be retried by the caller.
// Consistency and validation errors are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrExternalService)
}
