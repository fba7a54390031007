// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages. This package has zero external dependencies.
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
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Policy errors
	ErrPolicyViolation = errors.New("policy violation")
	ErrEntityInUse     = errors.New("entity is referenced by other records")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "child", "lesson", "payment"
	Op      string // Operation that failed, e.g., "Create", "Delete"
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

// Child domain errors
var (
	ErrChildNotFound   = NewDomainError("child", "Find", ErrNotFound, "child not found")
	ErrChildInUse      = NewDomainError("child", "Delete", ErrEntityInUse, "child has linked lessons or payments")
	ErrInvalidChildAge = NewDomainError("child", "Validate", ErrValueOutOfRange, "child age out of range")
	ErrInvalidPrice    = NewDomainError("child", "Validate", ErrNegativeValue, "unit price cannot be negative")
)

// Lesson domain errors
var (
	ErrLessonNotFound  = NewDomainError("lesson", "Find", ErrNotFound, "lesson not found")
	ErrInvalidTimeSpan = NewDomainError("lesson", "Validate", ErrValidation, "end time must be after start time")
	ErrInvalidDate     = NewDomainError("lesson", "Validate", ErrInvalidFormat, "invalid date format")
	ErrInvalidTime     = NewDomainError("lesson", "Validate", ErrInvalidFormat, "invalid time format")
)

// Payment domain errors
var (
	ErrPaymentNotFound     = NewDomainError("payment", "Find", ErrNotFound, "payment not found")
	ErrInvalidAmount       = NewDomainError("payment", "Validate", ErrValidation, "amount must be positive")
	ErrInvalidLessonsCount = NewDomainError("payment", "Validate", ErrValidation, "lessons count must be positive")
	ErrAmountNotDivisible  = NewDomainError("payment", "Derive", ErrPolicyViolation, "amount is not a whole multiple of the unit price")
	ErrPriceNotSet         = NewDomainError("payment", "Derive", ErrPolicyViolation, "child has no unit price configured")
)

// Operator domain errors
var (
	ErrOperatorNotFound  = NewDomainError("operator", "Find", ErrNotFound, "operator not found")
	ErrInvalidTelegramID = NewDomainError("operator", "Validate", ErrInvalidID, "invalid Telegram ID")
	ErrOperatorDenied    = NewDomainError("operator", "Authorize", ErrUnauthorized, "operator is not in the allowlist")
)

// External service errors
var (
	ErrTelegramAPIFailed = NewDomainError("telegram", "Send", ErrExternalService, "Telegram API request failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error. Validation
// errors are recovered locally: the current conversation state re-prompts
// and the error never propagates past the flow.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsPolicyViolation checks if the error is a policy violation. These are
// surfaced to the operator as a blocking message with guidance toward the
// valid alternative action.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrPolicyViolation) || errors.Is(err, ErrEntityInUse)
}

// IsUnauthorized checks if the error is an authorization failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrTimeout)
}
