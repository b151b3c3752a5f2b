// Package rules resolves effective rate limit rules for a tenant, endpoint
// and method, with an in-process cache and tiered fallback defaults.
package rules

import (
	"context"
	"sync"

	"github.com/vasan12sp/distributedRateLimiter/pkg/limiter"
)

// Source supplies a tenant's configured rules. It stands in for the external
// rule management system; implementations may hit a database, a config file
// or anything else.
type Source interface {
	RulesFor(ctx context.Context, tenantID string) ([]limiter.Rule, error)
}

// Resolver resolves rules with the following precedence, first match wins:
//
//  1. a tenant rule matching the endpoint and the exact method
//  2. a tenant rule matching the endpoint with the wildcard method "*"
//  3. the default rule for the tenant's subscription tier
//  4. the global default rule
//
// Resolved rules are memoized per tenant until Invalidate is called, so the
// remote source is consulted once per tenant rather than once per request.
type Resolver struct {
	source Source
	tiers  map[string]limiter.Rule
	def    limiter.Rule

	mu      sync.RWMutex
	tenants map[string]*tenantCache
}

type tenantCache struct {
	rules []limiter.Rule

	mu       sync.RWMutex
	resolved map[string]limiter.Rule // "endpoint:method" -> effective rule
}

// DefaultRule is applied when neither a tenant rule nor a tier default
// matches: 100 events per 60 second window.
var DefaultRule = limiter.Rule{
	MaxEvents:       100,
	WindowSeconds:   60,
	EndpointPattern: "*",
	HTTPMethod:      "*",
}

// DefaultTiers maps subscription tier names to their fallback rules. The tier
// table is a configuration input; these are only the shipped defaults.
func DefaultTiers() map[string]limiter.Rule {
	return map[string]limiter.Rule{
		"STARTER":      {MaxEvents: 100, WindowSeconds: 60, EndpointPattern: "*", HTTPMethod: "*"},
		"PROFESSIONAL": {MaxEvents: 1000, WindowSeconds: 60, EndpointPattern: "*", HTTPMethod: "*"},
		"ENTERPRISE":   {MaxEvents: 10000, WindowSeconds: 60, EndpointPattern: "*", HTTPMethod: "*"},
	}
}

// NewResolver builds a resolver over the given source. A nil tier table uses
// DefaultTiers; an invalid global default falls back to DefaultRule.
func NewResolver(source Source, tiers map[string]limiter.Rule, def limiter.Rule) *Resolver {
	if tiers == nil {
		tiers = DefaultTiers()
	}
	if !def.Valid() {
		def = DefaultRule
	}
	return &Resolver{
		source:  source,
		tiers:   tiers,
		def:     def,
		tenants: make(map[string]*tenantCache),
	}
}

// Resolve implements limiter.RuleResolver. It never fails for a known tenant:
// missing rules fall through to tier and global defaults. The only error case
// is the rule source failing on first population for a tenant.
func (r *Resolver) Resolve(ctx context.Context, tenant limiter.Tenant, endpoint, method string) (limiter.Rule, error) {
	tc, err := r.tenantCacheFor(ctx, tenant.ID)
	if err != nil {
		return limiter.Rule{}, err
	}

	memoKey := endpoint + ":" + method

	tc.mu.RLock()
	rule, ok := tc.resolved[memoKey]
	tc.mu.RUnlock()
	if ok {
		return rule, nil
	}

	if rule, ok := matchRules(tc.rules, endpoint, method); ok {
		tc.mu.Lock()
		tc.resolved[memoKey] = rule
		tc.mu.Unlock()
		return rule, nil
	}

	// only matches from the tenant's own rule list are memoized: the tier and
	// global fallbacks depend on the per-call tenant, and caching them would
	// let one caller's tier leak into another's decisions
	if tier, ok := r.tiers[tenant.Tier]; ok && tier.Valid() {
		return tier, nil
	}
	return r.def, nil
}

// Invalidate drops the tenant's cached rules. The rule management collaborator
// calls this after any rule change so the very next Resolve observes fresh
// rules instead of a stale entry.
func (r *Resolver) Invalidate(tenantID string) {
	r.mu.Lock()
	delete(r.tenants, tenantID)
	r.mu.Unlock()
}

func (r *Resolver) tenantCacheFor(ctx context.Context, tenantID string) (*tenantCache, error) {
	r.mu.RLock()
	tc, ok := r.tenants[tenantID]
	r.mu.RUnlock()
	if ok {
		return tc, nil
	}

	// populate outside the map lock; concurrent first resolves may each load
	// from the source, last writer wins, which is acceptable
	ruleList, err := r.source.RulesFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	tc = &tenantCache{
		rules:    ruleList,
		resolved: make(map[string]limiter.Rule),
	}

	r.mu.Lock()
	r.tenants[tenantID] = tc
	r.mu.Unlock()

	return tc, nil
}

func matchRules(ruleList []limiter.Rule, endpoint, method string) (limiter.Rule, bool) {
	for _, rule := range ruleList {
		if rule.Valid() && rule.HTTPMethod == method && matchEndpoint(rule.EndpointPattern, endpoint) {
			return rule, true
		}
	}
	for _, rule := range ruleList {
		if rule.Valid() && rule.HTTPMethod == "*" && matchEndpoint(rule.EndpointPattern, endpoint) {
			return rule, true
		}
	}
	return limiter.Rule{}, false
}
