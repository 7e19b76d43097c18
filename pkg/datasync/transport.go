package datasync

import "context"

// Transport opens connections to the control plane.
type Transport interface {
	// Connect establishes a new stream. It is called again after every
	// failure.
	Connect(ctx context.Context) (Stream, error)
}

// Stream is one live connection.
type Stream interface {
	// Snapshot returns FULL_REFRESH events covering every kind. It is called
	// once per connection before Next.
	Snapshot(ctx context.Context) ([]*Event, error)

	// Next blocks until the next incremental event. A *DecodeError means one
	// frame was bad and the stream is still usable; any other error ends the
	// connection.
	Next(ctx context.Context) (*Event, error)

	Close() error
}
