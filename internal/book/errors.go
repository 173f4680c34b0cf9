package book

import (
	"errors"
	"fmt"
)

// Store outcomes.
var (
	// ErrNotFound is returned by a Store when no record matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by a Store when a create hits a unique key.
	ErrConflict = errors.New("conflict")
)

// Reasons carried by a RejectedError.
var (
	ErrEmptyInput   = errors.New("empty input")
	ErrMalformedID  = errors.New("malformed id")
	ErrMissingField = errors.New("missing field")
	ErrInvalidType  = errors.New("invalid type")
	ErrInvalidInput = errors.New("invalid input")
)

// RejectedError reports client input refused before any store access.
type RejectedError struct {
	Field   string
	Reason  error
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch {
	case errors.Is(e.Reason, ErrEmptyInput):
		return fmt.Sprintf("%s is required", e.Field)
	case errors.Is(e.Reason, ErrMalformedID):
		return fmt.Sprintf("%s is not a valid id", e.Field)
	case errors.Is(e.Reason, ErrMissingField):
		return fmt.Sprintf("%s is required", e.Field)
	case errors.Is(e.Reason, ErrInvalidType):
		return fmt.Sprintf("%s must be a string", e.Field)
	default:
		return fmt.Sprintf("Invalid input: %s is invalid", e.Field)
	}
}

func (e *RejectedError) Unwrap() error { return e.Reason }

// NotFoundError reports a book id with no matching record.
type NotFoundError struct {
	ID ID
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("Book %s not found", e.ID) }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PersistenceError wraps a store failure with the operation that caused it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

// LookupError is the aggregate failure of the detail lookups. Error returns
// the caller-facing message; the cause is only reachable through Unwrap.
type LookupError struct {
	ID  ID
	Err error
}

func (e *LookupError) Error() string { return fmt.Sprintf("Error fetching book %s", e.ID) }

func (e *LookupError) Unwrap() error { return e.Err }

// CreationError is any failure while creating a book, including author and
// genre resolution.
type CreationError struct {
	Title string
	Err   error
}

func (e *CreationError) Error() string { return "Error creating book: " + e.Title }

func (e *CreationError) Unwrap() error { return e.Err }
