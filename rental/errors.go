/*
errors.go - Centralized error types for the rental domain

PURPOSE:
  All domain error types in one place. The billing engine itself is total
  and never fails; everything that can go wrong lives at this boundary:
  malformed input rejected before the engine runs, missing records, and
  the destructive-apply confirmation gate.

USAGE:
  Callers branch with errors.Is / errors.As:

    if rental.IsNotFound(err) { ... 404 ... }
    var verr *rental.ValidationError
    if errors.As(err, &verr) { ... 400 with verr.Field ... }
*/
package rental

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRentalNotFound is returned when a referenced rental doesn't exist.
	ErrRentalNotFound = errors.New("rental not found")

	// ErrBondNotFound is returned when a referenced bond doesn't exist.
	ErrBondNotFound = errors.New("bond not found")

	// ErrPeriodNotFound is returned when a referenced period doesn't exist.
	ErrPeriodNotFound = errors.New("billing period not found")

	// ErrValidation is the root of all boundary validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrConfirmationRequired is returned when a destructive apply is
	// attempted without explicit confirmation. Applying a generated
	// timeline discards the rental's existing periods irrecoverably.
	ErrConfirmationRequired = errors.New("explicit confirmation required")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports a rejected field at the domain boundary.
// The engine's duration guards assume well-formed intervals, so inverted
// bounds are rejected here instead of silently producing zero segments.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRentalNotFound) ||
		errors.Is(err, ErrBondNotFound) ||
		errors.Is(err, ErrPeriodNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConfirmationRequired)
}
