// Package cache holds the node-local configuration: plugins, selectors,
// rules, application credentials and RPC metadata.
//
// Each entity kind lives in an immutable table published through an atomic
// pointer. Readers load the current table without locking. Writers copy the
// table, apply their change and swap the pointer, so a reader never sees a
// half-applied event. Writers are serialized per kind; different kinds can
// be written concurrently.
//
// Owner-keyed lists (selectors by plugin, rules by selector) are kept in
// ascending sort order with ties in insertion order. A selector or rule
// whose owner is absent is stored but not returned by owner lookups until
// the owner arrives.
package cache
