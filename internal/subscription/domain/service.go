package domain

import (
	"context"
	"errors"
	"time"

	plandomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/domain"
)

type CreateRequest struct {
	PlanID string         `json:"plan_id"`
	Notes  string         `json:"notes,omitempty"`
	Meta   map[string]any `json:"metadata,omitempty"`
}

type ChangePlanRequest struct {
	SubscriptionID string `json:"-"`
	PlanID         string `json:"plan_id"`
}

type DeactivateRequest struct {
	SubscriptionID string `json:"-"`
	Reason         string `json:"reason,omitempty"`
}

// View is the read-optimized subscription projection served to clients. The
// HTTP layer serializes this shape verbatim. Duration is whole days since
// StartDate, recomputed at read time, never stored.
type View struct {
	ID        string          `json:"id"`
	UserEmail string          `json:"user_email"`
	Plan      plandomain.View `json:"plan"`
	StartDate time.Time       `json:"start_date"`
	EndDate   *time.Time      `json:"end_date"`
	IsActive  bool            `json:"is_active"`
	Duration  int64           `json:"duration"`
	CreatedAt time.Time       `json:"created_at"`
}

// Service is the subscription state machine. Every mutation runs inside a
// store transaction and invalidates the owning user's cached views strictly
// after commit, before returning.
type Service interface {
	// Create subscribes the context user to a plan, atomically deactivating
	// any prior active subscription first.
	Create(ctx context.Context, req CreateRequest) (View, error)
	// ChangePlan switches an active subscription to a different active plan
	// in place, without touching StartDate or creating a record.
	ChangePlan(ctx context.Context, req ChangePlanRequest) (View, error)
	// Deactivate ends the subscription. Deactivating an already inactive
	// subscription is a logged no-op, not an error.
	Deactivate(ctx context.Context, req DeactivateRequest) (View, error)
	// GetActive returns the user's single active subscription view, or
	// ErrNoActiveSubscription when none exists.
	GetActive(ctx context.Context) (View, error)
	// List returns all of the user's subscriptions, newest first.
	List(ctx context.Context) ([]View, error)
}

var (
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidPlan         = errors.New("invalid_plan")
	ErrInvalidSubscription = errors.New("invalid_subscription")
	// ErrInactivePlan rejects subscribing to or switching onto an inactive plan.
	ErrInactivePlan = errors.New("inactive_plan")
	// ErrSamePlan rejects a plan change onto the plan already subscribed.
	ErrSamePlan = errors.New("same_plan")
	// ErrConcurrentModification surfaces a lost race on the single-active
	// uniqueness constraint; callers retry the whole operation once.
	ErrConcurrentModification = errors.New("concurrent_modification")
	ErrSubscriptionNotFound   = errors.New("subscription_not_found")
	ErrNoActiveSubscription   = errors.New("no_active_subscription")
)

// BuildView projects a subscription onto its read view. The record must be
// eager-loaded with its user, plan, and the plan's active features.
func BuildView(sub Subscription, now time.Time) View {
	days := int64(sub.Duration(now).Hours() / 24)
	return View{
		ID:        sub.ID.String(),
		UserEmail: sub.User.Email,
		Plan:      plandomain.BuildView(sub.Plan),
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
		IsActive:  sub.IsActive,
		Duration:  days,
		CreatedAt: sub.CreatedAt,
	}
}

// BuildViews projects a slice of eager-loaded subscriptions.
func BuildViews(subs []Subscription, now time.Time) []View {
	views := make([]View, 0, len(subs))
	for _, sub := range subs {
		views = append(views, BuildView(sub, now))
	}
	return views
}
