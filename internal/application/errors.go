package application

import "errors"

// Failure taxonomy. Callers classify with errors.Is; the message wrapped
// around a sentinel carries the human-readable reason.
var (
	// ErrUnknownProvider: no metadata registered for the requested provider
	// key. Client error, not retried.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrInvalidRequest: malformed date range, same-currency conversion and
	// the like. Client error, not retried.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRateUnavailable: target currency missing from a successful
	// snapshot. Client error.
	ErrRateUnavailable = errors.New("rate unavailable")
	// ErrUpstreamUnavailable: the provider adapter failed. Safe for the
	// caller to retry; no partial cache state is ever committed.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
