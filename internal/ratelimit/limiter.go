package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of a single token bucket check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a token bucket keyed by an arbitrary string. rate is tokens
// per second, burst the bucket capacity.
type Limiter interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (Result, error)
}
