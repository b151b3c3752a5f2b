package rules

import (
	"context"
	"fmt"

	"github.com/vasan12sp/distributedRateLimiter/pkg/limiter"
)

// StaticSource is an in-memory stand-in for the external rule management and
// identity systems: credential -> tenant and tenant -> rules, both fixed at
// construction. It implements Source and limiter.IdentityResolver, which is
// enough to run the limiter from a config file without any database.
type StaticSource struct {
	byCredential map[string]limiter.Tenant
	byTenant     map[string][]limiter.Rule
}

// NewStaticSource builds a source from credential->tenant and tenant->rules
// maps. Both maps are copied; the source is immutable and safe for concurrent
// use.
func NewStaticSource(tenants map[string]limiter.Tenant, ruleSets map[string][]limiter.Rule) *StaticSource {
	s := &StaticSource{
		byCredential: make(map[string]limiter.Tenant, len(tenants)),
		byTenant:     make(map[string][]limiter.Rule, len(ruleSets)),
	}
	for cred, t := range tenants {
		s.byCredential[cred] = t
	}
	for id, rs := range ruleSets {
		s.byTenant[id] = append([]limiter.Rule(nil), rs...)
	}
	return s
}

// TenantFor implements limiter.IdentityResolver.
func (s *StaticSource) TenantFor(ctx context.Context, credential string) (limiter.Tenant, error) {
	t, ok := s.byCredential[credential]
	if !ok {
		return limiter.Tenant{}, fmt.Errorf("unknown credential")
	}
	return t, nil
}

// RulesFor implements Source. Tenants without configured rules get an empty
// list and fall through to tier defaults.
func (s *StaticSource) RulesFor(ctx context.Context, tenantID string) ([]limiter.Rule, error) {
	return append([]limiter.Rule(nil), s.byTenant[tenantID]...), nil
}
