package ratelimit

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

const (
	keySubscriptionCreate     = "ratelimit:subscription:create:%d"
	keyPlanChange             = "ratelimit:subscription:change_plan:%d"
	keySubscriptionDeactivate = "ratelimit:subscription:deactivate:%d"
)

// Per-user budgets for the subscription write paths. Expressed as whole
// requests per minute; the bucket refills continuously at that rate.
const (
	createPerMinute     = 10
	planChangePerMinute = 5
	deactivatePerMinute = 10
)

// WriteLimiter throttles the mutating subscription endpoints per user.
type WriteLimiter struct {
	limiter Limiter
}

func NewWriteLimiter(limiter Limiter) *WriteLimiter {
	return &WriteLimiter{limiter: limiter}
}

func (w *WriteLimiter) AllowCreate(ctx context.Context, userID snowflake.ID) (Result, error) {
	key := fmt.Sprintf(keySubscriptionCreate, userID)
	return w.limiter.Allow(ctx, key, createPerMinute/60.0, createPerMinute)
}

func (w *WriteLimiter) AllowPlanChange(ctx context.Context, userID snowflake.ID) (Result, error) {
	key := fmt.Sprintf(keyPlanChange, userID)
	return w.limiter.Allow(ctx, key, planChangePerMinute/60.0, planChangePerMinute)
}

func (w *WriteLimiter) AllowDeactivate(ctx context.Context, userID snowflake.ID) (Result, error) {
	key := fmt.Sprintf(keySubscriptionDeactivate, userID)
	return w.limiter.Allow(ctx, key, deactivatePerMinute/60.0, deactivatePerMinute)
}
