// Package apperr defines the error taxonomy shared by the engine and its adapters.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad input: missing references, malformed values, duplicates
	// detected before persistence. Adapters report it as a client error.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState marks an operation that the current ledger state forbids.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint rejects a write.
	ErrConflict = errors.New("conflict")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// StateError describes an operation rejected by the current state.
type StateError struct {
	Op      string
	Message string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Is matches ErrInvalidState.
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// NewStateError creates a StateError.
func NewStateError(op, format string, args ...interface{}) *StateError {
	return &StateError{
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// NotFound wraps ErrNotFound with the kind and id of the missing record.
func NotFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}
