package dispatch

import (
	"fmt"
	"net/http"
)

// DefaultPolicy decides the outcome when no plugin terminates a request.
type DefaultPolicy string

const (
	// PassThrough forwards unhandled requests to the upstream.
	PassThrough DefaultPolicy = "pass-through"

	// Reject answers unhandled requests with Config.RejectStatus.
	Reject DefaultPolicy = "reject"
)

// Config contains configuration for the dispatch engine.
type Config struct {
	// DefaultPolicy applies when the plugin chain is exhausted.
	// Default: PassThrough.
	DefaultPolicy DefaultPolicy

	// RejectStatus is the HTTP status of a Reject decision.
	// Default: 403.
	RejectStatus int
}

// DefaultConfig returns the default dispatch configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultPolicy: PassThrough,
		RejectStatus:  http.StatusForbidden,
	}
}

// Validate validates the dispatch configuration.
func (c *Config) Validate() error {
	switch c.DefaultPolicy {
	case PassThrough, Reject:
	default:
		return fmt.Errorf("%w: invalid default policy %q", ErrInvalidConfig, c.DefaultPolicy)
	}
	if c.RejectStatus < 400 || c.RejectStatus > 599 {
		return fmt.Errorf("%w: reject status %d is not an error status", ErrInvalidConfig, c.RejectStatus)
	}
	return nil
}

// WithDefaultPolicy sets the default policy.
func (c *Config) WithDefaultPolicy(p DefaultPolicy) *Config {
	c.DefaultPolicy = p
	return c
}

// WithRejectStatus sets the reject status.
func (c *Config) WithRejectStatus(status int) *Config {
	c.RejectStatus = status
	return c
}
