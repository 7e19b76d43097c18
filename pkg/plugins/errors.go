package plugins

import "errors"

// ErrInvalidHandle is returned when a rule handle cannot be decoded.
var ErrInvalidHandle = errors.New("invalid rule handle")
