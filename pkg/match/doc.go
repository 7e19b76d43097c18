// Package match evaluates selector and rule conditions against an inbound
// request.
//
// Evaluation never fails: a missing parameter, an unparsable number, an
// invalid pattern or an unknown operator all count as a non-match. This
// keeps a bad configuration entry from taking down the request path.
//
// Selector and rule lists are expected in priority order (ascending sort,
// ties in insertion order). The cache package supplies them that way; the
// matchers only walk them and return the first hit.
package match
