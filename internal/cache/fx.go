package cache

import (
	"context"

	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRedisClient connects the shared redis client, or returns nil when redis
// is not configured. The rate limiter and cache store both consume it.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				// Cache unavailability is a degraded mode, not a startup failure.
				log.Warn("redis unreachable, cache degrades to store reads", zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			_ = ctx
			return client.Close()
		},
	})

	return client
}

// NewStore selects the cache backend: redis when configured, in-process otherwise.
func NewStore(client *redis.Client, log *zap.Logger) Store {
	if client == nil {
		log.Info("cache backend: in-memory")
		return NewMemoryStore()
	}
	log.Info("cache backend: redis")
	return NewRedisStore(client)
}

var Module = fx.Module("cache",
	fx.Provide(
		NewRedisClient,
		NewStore,
	),
)
