// Package datasync keeps the node cache consistent with the control plane.
//
// A Session owns the connection lifecycle. On every (re)connect it asks the
// Transport for a full snapshot of all entity kinds and applies it before
// consuming incremental events. Events are routed by kind to a DataHandler,
// which updates the cache and notifies the registered subscribers.
//
// While disconnected the cache keeps its last state and the node keeps
// serving with it. Frames that cannot be decoded, unknown kinds and unknown
// operations are logged and dropped without tearing down the session.
package datasync
