package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSlotConflict            = errors.New("the requested time is no longer available")
	ErrSessionNotFound         = errors.New("session not found")
	ErrAlreadyCanceled         = errors.New("session is already canceled")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// FieldError attributes a validation failure to one input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries every offending field so the caller can fix its
// submission in one round trip.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "invalid booking request: " + strings.Join(names, ", ")
}

// PersistenceError marks a failed record store write. The request is fatal
// but retryable by the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
