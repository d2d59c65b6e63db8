package ratelimit

import (
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/clock"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewLimiter prefers the shared redis instance so limits hold across
// replicas, falling back to a per-process bucket without one.
func NewLimiter(client *redis.Client, clk clock.Clock, log *zap.Logger) Limiter {
	if client == nil {
		log.Warn("redis not configured, rate limits are per process")
		return NewMemoryLimiter(clk)
	}
	return NewTokenBucket(client)
}

var Module = fx.Module("rate.limit",
	fx.Provide(NewLimiter),
	fx.Provide(NewWriteLimiter),
)
