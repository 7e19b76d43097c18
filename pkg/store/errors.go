package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Load and Version when nothing was saved yet.
	ErrNotFound = errors.New("no snapshot stored")

	// ErrNilSnapshot is returned by Save for a nil snapshot.
	ErrNilSnapshot = errors.New("snapshot cannot be nil")

	// ErrUnsupportedScheme is returned by Open for an unknown URL scheme.
	ErrUnsupportedScheme = errors.New("unsupported store scheme")
)

// Error represents a failed store operation.
type Error struct {
	Backend   string // driver name ("sqlite", "sqlite3", "postgres")
	Operation string // operation that failed ("open", "save", "load", ...)
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("store error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(backend, operation string, cause error) *Error {
	return &Error{Backend: backend, Operation: operation, Cause: cause}
}
