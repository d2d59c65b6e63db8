package ratelimit

import (
	"context"
	"sync"

	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/clock"
)

type memoryBucket struct {
	tokens float64
	ts     int64 // unix milliseconds of last refill
}

// memoryLimiter is the single-process fallback used when redis is not
// configured. State is lost on restart, which is acceptable for a
// per-minute write limit.
type memoryLimiter struct {
	mu      sync.Mutex
	clock   clock.Clock
	buckets map[string]*memoryBucket
}

func NewMemoryLimiter(clk clock.Clock) Limiter {
	return &memoryLimiter{
		clock:   clk,
		buckets: make(map[string]*memoryBucket),
	}
}

func (m *memoryLimiter) Allow(_ context.Context, key string, rate float64, burst int) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().UnixMilli()
	bucket, ok := m.buckets[key]
	if !ok {
		bucket = &memoryBucket{tokens: float64(burst), ts: now}
		m.buckets[key] = bucket
	} else {
		delta := now - bucket.ts
		if delta < 0 {
			delta = 0
		}
		bucket.tokens += float64(delta) / 1000 * rate
		if bucket.tokens > float64(burst) {
			bucket.tokens = float64(burst)
		}
		bucket.ts = now
	}

	allowed := bucket.tokens >= 1
	if allowed {
		bucket.tokens--
	}

	return Result{
		Allowed:    allowed,
		Remaining:  int(bucket.tokens),
		RetryAfter: retryAfter(allowed, bucket.tokens, rate),
	}, nil
}
