package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the limiter's operational counters through Prometheus. It
// implements limiter.MetricsRecorder so the core package stays free of any
// metrics dependency.
type Metrics struct {
	checks       prometheus.Counter
	allowed      prometheus.Counter
	blocked      prometheus.Counter
	failOpen     prometheus.Counter
	storeErrors  prometheus.Counter
	checkLatency prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ratelimiter_checks_total",
			Help: "Total rate limit check requests",
		}),
		allowed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ratelimiter_allowed_total",
			Help: "Requests admitted under quota",
		}),
		blocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ratelimiter_blocked_total",
			Help: "Requests denied because the window was full",
		}),
		failOpen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ratelimiter_fail_open_total",
			Help: "Requests admitted because the store was unavailable",
		}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ratelimiter_store_errors_total",
			Help: "Redis operation errors",
		}),
		checkLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ratelimiter_check_duration_seconds",
			Help:    "Latency of the atomic store check",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.checks, m.allowed, m.blocked, m.failOpen, m.storeErrors, m.checkLatency)
	return m
}

// Add implements limiter.MetricsRecorder.
func (m *Metrics) Add(name string, value float64, tags map[string]string) {
	switch name {
	case "ratelimit.call":
		m.checks.Add(value)
	case "ratelimit.allowed":
		m.allowed.Add(value)
	case "ratelimit.blocked":
		m.blocked.Add(value)
	case "ratelimit.fail_open":
		m.failOpen.Add(value)
	case "ratelimit.store_errors":
		m.storeErrors.Add(value)
	}
}

// Observe implements limiter.MetricsRecorder.
func (m *Metrics) Observe(name string, value float64, tags map[string]string) {
	if name == "ratelimit.latency" {
		m.checkLatency.Observe(value)
	}
}
