package rules

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasan12sp/distributedRateLimiter/pkg/limiter"
)

// mutableSource lets tests swap a tenant's rules, standing in for the rule
// management collaborator changing rules upstream.
type mutableSource struct {
	mu    sync.Mutex
	rules map[string][]limiter.Rule
	loads int
}

func (s *mutableSource) RulesFor(_ context.Context, tenantID string) ([]limiter.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return append([]limiter.Rule(nil), s.rules[tenantID]...), nil
}

func (s *mutableSource) set(tenantID string, rs []limiter.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[tenantID] = rs
}

func rule(max, window int64, pattern, method string) limiter.Rule {
	return limiter.Rule{MaxEvents: max, WindowSeconds: window, EndpointPattern: pattern, HTTPMethod: method}
}

func TestResolver_Precedence(t *testing.T) {
	ctx := context.Background()
	src := &mutableSource{rules: map[string][]limiter.Rule{
		"acme": {
			rule(5, 10, "/api/orders", "POST"),
			rule(20, 60, "/api/orders", "*"),
			rule(50, 60, "/api/*", "*"),
		},
	}}
	r := NewResolver(src, nil, DefaultRule)
	tenant := limiter.Tenant{ID: "acme", Tier: "PROFESSIONAL"}

	t.Run("ExactMethodWins", func(t *testing.T) {
		got, err := r.Resolve(ctx, tenant, "/api/orders", "POST")
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.MaxEvents)
	})

	t.Run("WildcardMethodNext", func(t *testing.T) {
		got, err := r.Resolve(ctx, tenant, "/api/orders", "GET")
		require.NoError(t, err)
		assert.Equal(t, int64(20), got.MaxEvents)
	})

	t.Run("PatternRuleNext", func(t *testing.T) {
		got, err := r.Resolve(ctx, tenant, "/api/users", "GET")
		require.NoError(t, err)
		assert.Equal(t, int64(50), got.MaxEvents)
	})

	t.Run("TierDefaultWhenNoRuleMatches", func(t *testing.T) {
		got, err := r.Resolve(ctx, tenant, "/other", "GET")
		require.NoError(t, err)
		assert.Equal(t, int64(1000), got.MaxEvents, "PROFESSIONAL tier default")
	})

	t.Run("GlobalDefaultWithoutTier", func(t *testing.T) {
		got, err := r.Resolve(ctx, limiter.Tenant{ID: "acme", Tier: ""}, "/other", "GET")
		require.NoError(t, err)
		assert.Equal(t, DefaultRule, got)
	})
}

// Tier and global fallbacks must track the tenant presented on each call.
// Memoizing a fallback under the endpoint key would hand one caller's tier
// default to every later caller with the same tenant ID.
func TestResolver_FallbackFollowsCallTier(t *testing.T) {
	ctx := context.Background()
	src := &mutableSource{rules: map[string][]limiter.Rule{"acme": nil}}
	r := NewResolver(src, nil, DefaultRule)

	got, err := r.Resolve(ctx, limiter.Tenant{ID: "acme", Tier: "PROFESSIONAL"}, "/other", "GET")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.MaxEvents)

	got, err = r.Resolve(ctx, limiter.Tenant{ID: "acme", Tier: ""}, "/other", "GET")
	require.NoError(t, err)
	assert.Equal(t, DefaultRule, got, "tier-less call must fall back to the global default")

	got, err = r.Resolve(ctx, limiter.Tenant{ID: "acme", Tier: "ENTERPRISE"}, "/other", "GET")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), got.MaxEvents, "upgraded tier must be observed without Invalidate")
}

func TestResolver_CachesPerTenant(t *testing.T) {
	ctx := context.Background()
	src := &mutableSource{rules: map[string][]limiter.Rule{
		"acme": {rule(5, 10, "/api", "GET")},
	}}
	r := NewResolver(src, nil, DefaultRule)
	tenant := limiter.Tenant{ID: "acme", Tier: "STARTER"}

	for i := 0; i < 10; i++ {
		_, err := r.Resolve(ctx, tenant, "/api", "GET")
		require.NoError(t, err)
	}

	src.mu.Lock()
	loads := src.loads
	src.mu.Unlock()
	assert.Equal(t, 1, loads, "source should be consulted once per tenant")
}

func TestResolver_InvalidateObservesNewRules(t *testing.T) {
	ctx := context.Background()
	src := &mutableSource{rules: map[string][]limiter.Rule{
		"acme": {rule(5, 10, "/api", "GET")},
	}}
	r := NewResolver(src, nil, DefaultRule)
	tenant := limiter.Tenant{ID: "acme", Tier: "STARTER"}

	got, err := r.Resolve(ctx, tenant, "/api", "GET")
	require.NoError(t, err)
	require.Equal(t, int64(5), got.MaxEvents)

	// upstream rule change without invalidation: stale entry keeps serving
	src.set("acme", []limiter.Rule{rule(7, 10, "/api", "GET")})
	got, err = r.Resolve(ctx, tenant, "/api", "GET")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.MaxEvents)

	// after invalidation the very next resolve observes the new rule
	r.Invalidate("acme")
	got, err = r.Resolve(ctx, tenant, "/api", "GET")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.MaxEvents)
}

func TestResolver_ConcurrentResolves(t *testing.T) {
	ctx := context.Background()
	src := &mutableSource{rules: map[string][]limiter.Rule{
		"acme": {rule(5, 10, "/api", "GET")},
	}}
	r := NewResolver(src, nil, DefaultRule)
	tenant := limiter.Tenant{ID: "acme", Tier: "STARTER"}

	var wg sync.WaitGroup
	wg.Add(50)
	for i := 0; i < 50; i++ {
		go func() {
			defer wg.Done()
			got, err := r.Resolve(ctx, tenant, "/api", "GET")
			assert.NoError(t, err)
			assert.Equal(t, int64(5), got.MaxEvents)
		}()
	}
	wg.Wait()
}

func TestResolver_SkipsInvalidRules(t *testing.T) {
	ctx := context.Background()
	src := &mutableSource{rules: map[string][]limiter.Rule{
		"acme": {rule(0, 0, "/api", "GET")},
	}}
	r := NewResolver(src, nil, DefaultRule)

	got, err := r.Resolve(ctx, limiter.Tenant{ID: "acme"}, "/api", "GET")
	require.NoError(t, err)
	assert.Equal(t, DefaultRule, got, "unenforceable rules must fall through to defaults")
}

func TestStaticSource(t *testing.T) {
	ctx := context.Background()
	src := NewStaticSource(
		map[string]limiter.Tenant{"key-1": {ID: "acme", Tier: "STARTER"}},
		map[string][]limiter.Rule{"acme": {rule(5, 10, "/api", "GET")}},
	)

	t.Run("KnownCredential", func(t *testing.T) {
		tenant, err := src.TenantFor(ctx, "key-1")
		require.NoError(t, err)
		assert.Equal(t, "acme", tenant.ID)
	})

	t.Run("UnknownCredential", func(t *testing.T) {
		_, err := src.TenantFor(ctx, "nope")
		assert.Error(t, err)
	})

	t.Run("RulesForUnknownTenantIsEmpty", func(t *testing.T) {
		rs, err := src.RulesFor(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, rs)
	})
}
