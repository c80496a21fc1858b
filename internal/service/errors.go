// Package service holds the Digivite core: RSVP processing, table
// allocation, check-in verification and the admin read side.  Services
// return the sentinel and typed errors declared here; the HTTP layer
// translates them into status codes.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped with the missing entity, e.g. "guest not found".
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means no admin identity could be resolved.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller does not own the event.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict signals that existing state prevents the operation, such
	// as deleting a table that still seats guests.
	ErrConflict = errors.New("conflict")
	// ErrDuplicate is returned by repositories when a unique index rejects
	// a write.  Callers either retry with a new value or surface a conflict.
	ErrDuplicate = errors.New("duplicate key")
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// NotFound wraps ErrNotFound with the entity name.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Msg == "" {
		return e.Field + " is required"
	}
	return e.Msg
}

// Required builds the ValidationError for an absent field.
func Required(field string) error {
	return &ValidationError{Field: field}
}

// Invalid builds a ValidationError with a custom message.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// CapacityError is returned when seating a party would overflow a table.
type CapacityError struct {
	TableNumber int
	Capacity    int
	Requested   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("Table %d does not have enough seats", e.TableNumber)
}
