package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a malformed search, export or typeahead request.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownField signals a field name outside the searchable catalogue.
	ErrUnknownField = errors.New("unknown field")
)

// ValidationError carries the offending request path next to the reason.
// Err optionally names a more specific sentinel such as ErrUnknownField.
type ValidationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

// NewValidationError creates a validation error for the given request path.
func NewValidationError(path, format string, args ...any) error {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// NewUnknownFieldError reports a field name outside the catalogue.
func NewUnknownFieldError(path, name string) error {
	return &ValidationError{Path: path, Reason: fmt.Sprintf("unknown field %q", name), Err: ErrUnknownField}
}
