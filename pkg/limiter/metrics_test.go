package limiter

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// mockRecorder captures metrics in memory for assertion
type mockRecorder struct {
	mu       sync.Mutex
	counters map[string]float64
	timings  map[string][]float64
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{
		counters: make(map[string]float64),
		timings:  make(map[string][]float64),
	}
}

func (m *mockRecorder) Add(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += value
}

func (m *mockRecorder) Observe(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[name] = append(m.timings[name], value)
}

func (m *mockRecorder) counter(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

func TestEngine_Metrics(t *testing.T) {
	ctx := context.Background()
	rule := Rule{MaxEvents: 1, WindowSeconds: 10, EndpointPattern: "*", HTTPMethod: "*"}

	mock := newMockRecorder()
	engine := NewEngine(EngineConfig{
		Identity: &stubIdentity{tenants: map[string]Tenant{"key-1": {ID: "acme"}}},
		Rules:    &stubRules{rule: rule},
		Store:    NewMemoryStore(),
		Logger:   zerolog.Nop(),
		Recorder: mock,
	})

	engine.Decide(ctx, "key-1", "u", "/api", "GET") // admitted
	engine.Decide(ctx, "key-1", "u", "/api", "GET") // window full

	if got := mock.counter("ratelimit.allowed"); got != 1 {
		t.Errorf("Expected 'ratelimit.allowed' counter to be 1, got %v", got)
	}
	if got := mock.counter("ratelimit.blocked"); got != 1 {
		t.Errorf("Expected 'ratelimit.blocked' counter to be 1, got %v", got)
	}
}

func TestEngine_MetricsFailOpen(t *testing.T) {
	ctx := context.Background()
	rule := Rule{MaxEvents: 5, WindowSeconds: 10, EndpointPattern: "*", HTTPMethod: "*"}

	mock := newMockRecorder()
	engine := NewEngine(EngineConfig{
		Identity: &stubIdentity{tenants: map[string]Tenant{"key-1": {ID: "acme"}}},
		Rules:    &stubRules{rule: rule},
		Store:    &failingStore{err: errors.New("down")},
		Logger:   zerolog.Nop(),
		Recorder: mock,
	})

	engine.Decide(ctx, "key-1", "u", "/api", "GET")

	if got := mock.counter("ratelimit.fail_open"); got != 1 {
		t.Errorf("Expected 'ratelimit.fail_open' counter to be 1, got %v", got)
	}
}
