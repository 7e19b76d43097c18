package register

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by Validate.
	ErrInvalidConfig = errors.New("invalid register config")

	// ErrNoAddress is returned when no non-loopback IPv4 address exists.
	ErrNoAddress = errors.New("no non-loopback IPv4 address found")
)

// StatusError is a non-2xx answer from the admin.
type StatusError struct {
	Path string
	Code int
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("register %s: admin answered %d: %s", e.Path, e.Code, e.Body)
}

// Temporary reports whether retrying may help.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == 429
}
