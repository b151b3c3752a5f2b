package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// FailurePolicy selects what a store outage means for callers.
type FailurePolicy int

const (
	// FailOpen admits requests when the store cannot answer. An outage in the
	// shared counting store must not cascade into blocking all traffic; this
	// trades strict enforcement for availability and is the default.
	FailOpen FailurePolicy = iota

	// FailClosed surfaces ErrStoreUnavailable instead, letting the boundary
	// reject traffic while the store is down.
	FailClosed
)

// Engine is the single entry point for admission decisions. It resolves the
// tenant and rule, builds the bucket key and runs the atomic store check.
// All fields are read-only after construction; the engine is safe for
// unlimited concurrent use.
type Engine struct {
	identity IdentityResolver
	rules    RuleResolver
	store    Store
	policy   FailurePolicy
	now      func() time.Time
	log      zerolog.Logger
	recorder MetricsRecorder
}

// EngineConfig carries the engine's collaborators. Identity, Rules and Store
// are required; the rest default sensibly.
type EngineConfig struct {
	Identity IdentityResolver
	Rules    RuleResolver
	Store    Store
	Policy   FailurePolicy
	Now      func() time.Time
	Logger   zerolog.Logger
	Recorder MetricsRecorder
}

func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		identity: cfg.Identity,
		rules:    cfg.Rules,
		store:    cfg.Store,
		policy:   cfg.Policy,
		now:      cfg.Now,
		log:      cfg.Logger,
		recorder: cfg.Recorder,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.recorder == nil {
		e.recorder = &NoOpMetricsRecorder{}
	}
	return e
}

// Decide checks whether one event for (credential, callerID, endpoint, method)
// may proceed. Quota exhaustion is not an error: it is a successful Decision
// with Allowed=false. Only credential and request validation failures return
// an error under the default fail-open policy.
func (e *Engine) Decide(ctx context.Context, credential, callerID, endpoint, method string) (Decision, error) {
	if credential == "" {
		return Decision{}, ErrInvalidCredential
	}
	if endpoint == "" {
		return Decision{}, fmt.Errorf("%w: endpoint is required", ErrMalformedRequest)
	}
	if method == "" {
		return Decision{}, fmt.Errorf("%w: method is required", ErrMalformedRequest)
	}

	tenant, err := e.identity.TenantFor(ctx, credential)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	rule, err := e.rules.Resolve(ctx, tenant, endpoint, method)
	if err != nil {
		// resolver falls through to defaults for known tenants, so an error
		// here means the rule source itself misbehaved
		return Decision{}, fmt.Errorf("resolve rule for tenant %s: %w", tenant.ID, err)
	}

	key := BuildKey(tenant.ID, callerID, endpoint, method)
	nowMillis := e.now().UnixMilli()

	res, err := e.store.Check(ctx, key, rule.MaxEvents, rule.WindowSeconds, nowMillis)
	if err != nil {
		return e.storeFailure(tenant, key, rule, err)
	}

	dec := decisionFrom(res, rule.MaxEvents)
	if dec.Allowed {
		e.recorder.Add("ratelimit.allowed", 1, nil)
	} else {
		e.recorder.Add("ratelimit.blocked", 1, nil)
		e.log.Debug().
			Str("tenant", tenant.ID).
			Str("key", key).
			Int64("retry_after_s", dec.RetryAfterSeconds).
			Msg("rate limit exceeded")
	}
	return dec, nil
}

// storeFailure applies the configured availability policy.
func (e *Engine) storeFailure(tenant Tenant, key string, rule Rule, err error) (Decision, error) {
	e.log.Warn().
		Err(err).
		Str("tenant", tenant.ID).
		Str("key", key).
		Msg("rate limit store unavailable")

	if e.policy == FailClosed {
		return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.recorder.Add("ratelimit.fail_open", 1, nil)
	return Decision{
		Allowed:           true,
		CurrentCount:      0,
		Remaining:         rule.MaxEvents,
		RetryAfterSeconds: 0,
	}, nil
}

// decisionFrom maps the store triple onto the caller-facing Decision,
// preserving its invariants: allowed decisions carry no retry hint, denied
// decisions report zero remaining.
func decisionFrom(res Result, maxEvents int64) Decision {
	if !res.Allowed {
		return Decision{
			Allowed:           false,
			CurrentCount:      res.CurrentCount,
			Remaining:         0,
			RetryAfterSeconds: res.RetryAfterSeconds,
		}
	}
	remaining := maxEvents - res.CurrentCount
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:      true,
		CurrentCount: res.CurrentCount,
		Remaining:    remaining,
	}
}
