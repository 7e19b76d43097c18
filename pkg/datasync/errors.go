package datasync

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned when no handler is registered for a kind.
	ErrUnknownKind = errors.New("unknown entity kind")

	// ErrUnknownOperation is returned for an operation a handler does not
	// support.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrNotConnected is returned by a stream used after it was closed.
	ErrNotConnected = errors.New("not connected")
)

// DecodeError reports a frame or payload that could not be decoded.
type DecodeError struct {
	// Kind is the entity kind when known.
	Kind string
	// Payload is a prefix of the offending data, for diagnostics.
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("decode %s payload: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("decode event: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError builds a DecodeError keeping at most 128 bytes of payload.
func NewDecodeError(kind string, payload []byte, err error) *DecodeError {
	if len(payload) > 128 {
		payload = payload[:128]
	}
	return &DecodeError{Kind: kind, Payload: string(payload), Err: err}
}

// TransportError reports a failure to reach or talk to the control plane.
type TransportError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
