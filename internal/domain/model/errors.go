package model

import (
	"errors"
	"fmt"
)

// ErrValidation is the kind of every input bounds violation.
var ErrValidation = errors.New("validation failed")

// ValidationError names the offending field and why it was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error { return ErrValidation }

func outOfRange(field string, lo, hi int) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("must be between %d and %d", lo, hi)}
}
