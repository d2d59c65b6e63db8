package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/clock"
)

func TestMemoryLimiterBurstThenDeny(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewMemoryLimiter(clk)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := limiter.Allow(ctx, "k", 5.0/60.0, 5)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("request %d denied inside the burst", i)
		}
	}

	res, err := limiter.Allow(ctx, "k", 5.0/60.0, 5)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("request beyond the burst should be denied")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("retry_after = %v, want positive", res.RetryAfter)
	}
	// 5 per minute refills one token every 12 seconds.
	if res.RetryAfter > 12*time.Second {
		t.Errorf("retry_after = %v, want at most 12s", res.RetryAfter)
	}
}

func TestMemoryLimiterRefills(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewMemoryLimiter(clk)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if res, _ := limiter.Allow(ctx, "k", 5.0/60.0, 5); !res.Allowed {
			t.Fatalf("request %d denied inside the burst", i)
		}
	}
	if res, _ := limiter.Allow(ctx, "k", 5.0/60.0, 5); res.Allowed {
		t.Fatal("bucket should be empty")
	}

	clk.Advance(12 * time.Second)
	res, err := limiter.Allow(ctx, "k", 5.0/60.0, 5)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !res.Allowed {
		t.Fatal("one token should have refilled after 12s")
	}

	if res, _ := limiter.Allow(ctx, "k", 5.0/60.0, 5); res.Allowed {
		t.Fatal("only one token should have refilled")
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewMemoryLimiter(clk)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if res, _ := limiter.Allow(ctx, "a", 3.0/60.0, 3); !res.Allowed {
			t.Fatalf("key a request %d denied", i)
		}
	}
	if res, _ := limiter.Allow(ctx, "a", 3.0/60.0, 3); res.Allowed {
		t.Fatal("key a should be exhausted")
	}
	if res, _ := limiter.Allow(ctx, "b", 3.0/60.0, 3); !res.Allowed {
		t.Fatal("key b must not share key a's bucket")
	}
}

func TestWriteLimiterBudgets(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewWriteLimiter(NewMemoryLimiter(clk))
	ctx := context.Background()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	userID := node.Generate()

	// Plan changes budget 5 per minute, independent of the create budget.
	for i := 0; i < 5; i++ {
		res, err := limiter.AllowPlanChange(ctx, userID)
		if err != nil {
			t.Fatalf("plan change %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("plan change %d denied inside the budget", i)
		}
	}
	if res, _ := limiter.AllowPlanChange(ctx, userID); res.Allowed {
		t.Error("sixth plan change inside a minute should be denied")
	}
	if res, _ := limiter.AllowCreate(ctx, userID); !res.Allowed {
		t.Error("create budget must not share the plan change bucket")
	}

	// Another user draws from their own bucket.
	if res, _ := limiter.AllowPlanChange(ctx, node.Generate()); !res.Allowed {
		t.Error("plan change budget must be per user")
	}
}
