package limiter

import (
	"context"
	"sync"
)

// MemoryStore is an in-process sliding window log backed by a Go map. State is
// local to the process, so it does not enforce a global budget across
// replicas; it exists for unit tests, local development and single-instance
// deployments. The mutex makes the trim/count/insert step atomic within the
// process, mirroring what the Lua script guarantees on the Redis side.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string][]int64),
	}
}

// Check implements Store.
func (m *MemoryStore) Check(ctx context.Context, key string, maxEvents, windowSeconds, nowMillis int64) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	windowMillis := windowSeconds * 1000
	windowStart := nowMillis - windowMillis

	entries := m.windows[key]

	// entries are appended in timestamp order, so the live window is a suffix;
	// copy on trim so the expired head does not pin the backing array for
	// long-lived keys
	drop := 0
	for drop < len(entries) && entries[drop] < windowStart {
		drop++
	}
	if drop > 0 {
		entries = append([]int64(nil), entries[drop:]...)
	}

	count := int64(len(entries))
	if count < maxEvents {
		m.windows[key] = append(entries, nowMillis)
		return Result{
			Allowed:           true,
			CurrentCount:      count + 1,
			RetryAfterSeconds: 0,
		}, nil
	}

	m.windows[key] = entries

	// an empty window (zero budget) has no oldest entry to derive a hint from
	retryAfter := int64(0)
	if len(entries) > 0 {
		retryAfter = (entries[0] + windowMillis - nowMillis + 999) / 1000
	}
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Result{
		Allowed:           false,
		CurrentCount:      count,
		RetryAfterSeconds: retryAfter,
	}, nil
}
