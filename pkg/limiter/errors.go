package limiter

import "errors"

var (
	// ErrStoreUnavailable means the shared store could not be reached or the
	// check script could not execute. Under the fail-open policy the engine
	// absorbs it; it is never a user-visible failure.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")

	// ErrInvalidCredential means the tenant credential is missing or does not
	// resolve to a tenant. This is an authentication concern and is never
	// converted to fail-open.
	ErrInvalidCredential = errors.New("invalid tenant credential")

	// ErrMalformedRequest means the decision request is missing a required
	// field (endpoint or method).
	ErrMalformedRequest = errors.New("malformed rate limit request")
)
