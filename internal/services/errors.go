package services

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotUnavailable means the slot does not exist, is nominally
	// unavailable or has already been claimed.
	ErrSlotUnavailable = errors.New("time slot unavailable")
	// ErrNotFound means a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation means a request was missing or had malformed fields.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field  string
	Reason string
}

// Error reports the field and why it was rejected.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
