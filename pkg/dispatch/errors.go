package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is returned when the request context ends before a
	// plugin handler is invoked. It wraps the context error.
	ErrCancelled = errors.New("dispatch cancelled")

	// ErrNoRequest is returned for an exchange without a request.
	ErrNoRequest = errors.New("exchange has no request")

	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid dispatch configuration")
)

// HandlerError wraps a failure returned by a plugin handler.
type HandlerError struct {
	Plugin string
	RuleID string
	Cause  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("plugin %s rule %s: %v", e.Plugin, e.RuleID, e.Cause)
}

func (e *HandlerError) Unwrap() error {
	return e.Cause
}
