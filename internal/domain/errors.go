package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
)

// Dictionary error kinds. Each one wraps a base sentinel so that transports
// can map whole families with a single errors.Is check.
var (
	ErrDuplicateKey     = fmt.Errorf("radical %w", ErrAlreadyExists)
	ErrDuplicateFlexion = fmt.Errorf("flexion %w", ErrAlreadyExists)
	ErrDuplicateSynonym = fmt.Errorf("synonym %w", ErrAlreadyExists)

	ErrKeyNotFound     = fmt.Errorf("radical %w", ErrNotFound)
	ErrFlexionNotFound = fmt.Errorf("flexion %w", ErrNotFound)
	ErrSynonymNotFound = fmt.Errorf("synonym %w", ErrNotFound)

	ErrInvalidGroupID  = fmt.Errorf("%w: invalid synonym group id", ErrValidation)
	ErrInvalidPosition = fmt.Errorf("%w: invalid sense position", ErrValidation)

	ErrEmptyGroup = fmt.Errorf("%w: synonym group is empty", ErrConflict)
	ErrEmptyTree  = fmt.Errorf("%w: dictionary is empty", ErrConflict)

	// ErrConstruction reports a bulk build that could not complete. The
	// partially built dictionary is discarded.
	ErrConstruction = errors.New("dictionary construction failed")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
