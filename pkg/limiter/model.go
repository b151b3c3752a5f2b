package limiter

import "context"

// Rule is the effective limit applied to one decision: at most MaxEvents
// admitted events inside a trailing window of WindowSeconds.
type Rule struct {
	MaxEvents       int64
	WindowSeconds   int64
	EndpointPattern string
	HTTPMethod      string // "*" matches any method
}

// Valid reports whether the rule can be enforced at all.
func (r Rule) Valid() bool {
	return r.MaxEvents > 0 && r.WindowSeconds > 0
}

// Tenant is the identity resolved from a presented credential. The core does
// not own tenants; an IdentityResolver supplies one per call.
type Tenant struct {
	ID   string
	Tier string
}

// Decision is the outcome of a single rate limit check.
type Decision struct {
	Allowed           bool
	CurrentCount      int64
	Remaining         int64
	RetryAfterSeconds int64
}

// Result is the raw triple returned by the store-side check: allowed flag,
// current count inside the window, and seconds until the oldest colliding
// entry leaves the window (0 when allowed).
type Result struct {
	Allowed           bool
	CurrentCount      int64
	RetryAfterSeconds int64
}

// Store performs the atomic check-and-record step against shared state.
// Implementations must guarantee that trim, count and insert happen as one
// indivisible operation; splitting them reintroduces the check/use race.
type Store interface {
	Check(ctx context.Context, key string, maxEvents, windowSeconds, nowMillis int64) (Result, error)
}

// RuleResolver maps a tenant plus endpoint/method to an effective rule.
// Resolution never fails for a known tenant; it falls through to defaults.
type RuleResolver interface {
	Resolve(ctx context.Context, tenant Tenant, endpoint, method string) (Rule, error)
}

// IdentityResolver maps a presented credential to a tenant. Full credential
// validation lives with the external collaborator behind this interface.
type IdentityResolver interface {
	TenantFor(ctx context.Context, credential string) (Tenant, error)
}
