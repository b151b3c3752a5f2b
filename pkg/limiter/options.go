package limiter

import "time"

// Option configures a RedisStore.
type Option func(*RedisStore)

// WithPrefix sets the Redis key namespace prefix (default "rate_limit:").
func WithPrefix(prefix string) Option {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTimeout bounds each store round trip (default 5s). A check that exceeds
// the timeout is reported as ErrStoreUnavailable, which under the fail-open
// policy means the request is admitted.
func WithTimeout(d time.Duration) Option {
	return func(s *RedisStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRecorder injects a metrics backend (default no-op).
func WithRecorder(r MetricsRecorder) Option {
	return func(s *RedisStore) {
		if r != nil {
			s.recorder = r
		}
	}
}
