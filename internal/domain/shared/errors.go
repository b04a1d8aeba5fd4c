// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
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
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Anti-cheat errors
	ErrAntiCheat = errors.New("anti-cheat violation")

	// Score calculation errors
	ErrScoreCalculation = errors.New("score calculation error")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrExpired         = errors.New("expired")

	// Infrastructure errors
	ErrCache              = errors.New("cache error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "run", "leaderboard", "progression"
	Op      string // Operation that failed, e.g., "Submit", "GetPage"
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

// Run domain errors
var (
	ErrRunNotFound       = NewDomainError("run", "Find", ErrNotFound, "run not found")
	ErrRunNotInProgress  = NewDomainError("run", "Complete", ErrInvalidState, "run is not in progress")
	ErrRunAlreadySettled = NewDomainError("run", "Complete", ErrStateTransition, "run already completed or abandoned")
	ErrMissingSignature  = NewDomainError("run", "Validate", ErrAntiCheat, "submission signature is missing")
	ErrInvalidToken      = NewDomainError("run", "Validate", ErrAntiCheat, "session token is malformed")
	ErrRunTooFast        = NewDomainError("run", "Validate", ErrAntiCheat, "run completed too quickly")
	ErrRunTooSlow        = NewDomainError("run", "Validate", ErrAntiCheat, "run exceeded maximum duration")
	ErrTurnCountMismatch = NewDomainError("run", "Validate", ErrAntiCheat, "turn count does not match score count")
	ErrTurnPointsRange   = NewDomainError("run", "Score", ErrScoreCalculation, "turn points out of range")
	ErrAnswerTimeRange   = NewDomainError("run", "Score", ErrScoreCalculation, "answer time out of range")
)

// Leaderboard domain errors
var (
	ErrInvalidScope      = NewDomainError("leaderboard", "Validate", ErrInvalidInput, "invalid leaderboard scope")
	ErrInvalidPagination = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid limit or offset")
	ErrRankNotFound      = NewDomainError("leaderboard", "GetRank", ErrNotFound, "user has no score in this period")
	ErrSnapshotNotFound  = NewDomainError("leaderboard", "FindSnapshot", ErrNotFound, "snapshot not found")
)

// Progression domain errors
var (
	ErrProfileNotFound = NewDomainError("progression", "Find", ErrNotFound, "profile not found")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsAntiCheat checks if the error is an anti-cheat violation.
func IsAntiCheat(err error) bool {
	return errors.Is(err, ErrAntiCheat)
}

// IsScoreCalculation checks if the error came from score calculation.
func IsScoreCalculation(err error) bool {
	return errors.Is(err, ErrScoreCalculation)
}

// IsConflict checks if the error is a state conflict (double submission,
// settled run, etc).
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrStateTransition) ||
		errors.Is(err, ErrAlreadyExists)
}

// IsCache checks if the error originated in the cache layer.
// Cache errors never bubble up to callers; this helper exists for logging.
func IsCache(err error) bool {
	return errors.Is(err, ErrCache)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
