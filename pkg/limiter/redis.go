package limiter

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed sliding_window.lua
var slidingWindowScript string

// RedisStore runs the sliding window check as a single Lua script execution,
// so that trim, count and insert are one indivisible operation on the Redis
// side. That makes it safe to share one budget across many application
// instances: no two callers can both take the last slot.
type RedisStore struct {
	client    redis.Scripter
	scriptSHA string
	prefix    string
	timeout   time.Duration
	recorder  MetricsRecorder
}

// NewRedisStore verifies connectivity, loads the check script and returns a
// store ready for concurrent use.
func NewRedisStore(client *redis.Client, opts ...Option) (*RedisStore, error) {
	s := &RedisStore{
		client:   client,
		prefix:   "rate_limit:",
		timeout:  5 * time.Second,
		recorder: &NoOpMetricsRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	sha, err := client.ScriptLoad(ctx, slidingWindowScript).Result()
	if err != nil {
		return nil, fmt.Errorf("load sliding window script: %w", err)
	}
	s.scriptSHA = sha

	return s, nil
}

// Check implements Store. Any transport failure, timeout or script error is
// reported as ErrStoreUnavailable; admit and deny are both successful returns.
func (s *RedisStore) Check(ctx context.Context, key string, maxEvents, windowSeconds, nowMillis int64) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	s.recorder.Add("ratelimit.call", 1, nil)

	raw, err := s.eval(ctx, s.prefix+key, maxEvents, windowSeconds, nowMillis)
	s.recorder.Observe("ratelimit.latency", time.Since(start).Seconds(), nil)
	if err != nil {
		s.recorder.Add("ratelimit.store_errors", 1, nil)
		return Result{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		s.recorder.Add("ratelimit.store_errors", 1, nil)
		return Result{}, fmt.Errorf("%w: unexpected script reply %v", ErrStoreUnavailable, raw)
	}

	allowed, _ := values[0].(int64)
	count, _ := values[1].(int64)
	retryAfter, _ := values[2].(int64)

	return Result{
		Allowed:           allowed == 1,
		CurrentCount:      count,
		RetryAfterSeconds: retryAfter,
	}, nil
}

// eval runs the cached script, falling back to a plain EVAL if Redis was
// restarted and lost its script cache.
func (s *RedisStore) eval(ctx context.Context, key string, maxEvents, windowSeconds, nowMillis int64) (interface{}, error) {
	args := []interface{}{maxEvents, windowSeconds, nowMillis}

	raw, err := s.client.EvalSha(ctx, s.scriptSHA, []string{key}, args...).Result()
	if err == nil || !isNoScript(err) {
		return raw, err
	}
	return s.client.Eval(ctx, slidingWindowScript, []string{key}, args...).Result()
}

func isNoScript(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr) && redis.HasErrorPrefix(rerr, "NOSCRIPT")
}
