// Package limiter provides distributed rate limiting based on the Sliding
// Window Log algorithm, with per-tenant rules resolved at decision time.
//
// The primary entry point is the Engine:
//
//	dec, err := engine.Decide(ctx, credential, callerID, endpoint, method)
//
// The returned Decision contains whether the request is allowed, the current
// count inside the window, how much quota remains, and a retry hint for
// callers that want to set rate-limit headers (for example, Retry-After).
//
// # Overview
//
// This package implements a sliding window log:
//
//   - Each admitted event is recorded with its timestamp under a bucket key.
//   - On every check, entries older than the trailing window are discarded
//     and the rest are counted.
//   - If the count is below the rule's maximum the event is admitted and
//     recorded; otherwise the call is denied with the time until the oldest
//     colliding entry leaves the window.
//
// Unlike fixed-window counters, the window slides continuously: quota does not
// reset at interval boundaries, it drains as old events age out.
//
// # Core Types
//
// Rule defines the policy: at most MaxEvents inside WindowSeconds, scoped by
// EndpointPattern and HTTPMethod ("*" matches any method). Rules are resolved
// per call by a RuleResolver and are immutable once resolved.
//
// The bucket key scopes one window to a (tenant, caller, endpoint, method)
// tuple. BuildKey produces it deterministically; an empty caller becomes
// "anonymous" and an empty method becomes "ALL".
//
// # Backends
//
// Two Store implementations share the same Check API:
//
//   - MemoryStore: an in-process log backed by a Go map. Useful for unit
//     tests, local development and single-instance deployments. Because its
//     state is local to the process, it does not enforce a global limit
//     across replicas.
//
//   - RedisStore: a distributed log backed by Redis sorted sets. It uses a
//     Lua script to perform the trim/count/insert cycle atomically, which
//     makes it safe across many application instances: for N concurrent
//     checks against the same key, the number of admissions never exceeds
//     the rule's maximum.
//
// Use RedisStore in production when you need a global budget, and MemoryStore
// in tests as a fast, dependency-free stand-in.
//
// # Failure Policy
//
// The Engine owns the availability tradeoff. Under FailOpen (the default) a
// store outage or timeout admits the request, returns a full-quota Decision
// and records an operational warning; enforcement accuracy is traded for
// availability so a Redis outage cannot cascade into blocking all traffic.
// Under FailClosed the same condition surfaces ErrStoreUnavailable and the
// boundary decides how to reject. Credential and request validation errors
// (ErrInvalidCredential, ErrMalformedRequest) always propagate; they are
// authentication concerns, not availability concerns.
//
// # Concurrency
//
// The Engine and both stores are safe for concurrent use by multiple
// goroutines. Cross-process atomicity is delegated entirely to the Redis
// script; no in-process lock could protect against other instances.
// RedisStore bounds every round trip with a timeout (WithTimeout), after
// which the call is treated as a store failure.
//
// # Storage Details
//
// RedisStore keeps one sorted set per bucket key, prefixed with "rate_limit:"
// (WithPrefix overrides). Scores and members are millisecond timestamps; the
// key's expiry is refreshed to the window length on every admitted write so
// idle buckets are reclaimed without truncating an active window.
//
// # Configuration
//
// RedisStore uses the Functional Options pattern:
//
//	store, _ := limiter.NewRedisStore(client,
//		limiter.WithPrefix("myapp:rate:"),
//		limiter.WithTimeout(2*time.Second),
//		limiter.WithRecorder(myMetrics),
//	)
package limiter
