package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	// UpdateLifecycle persists a deactivation: is_active, end_date, notes.
	UpdateLifecycle(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	// UpdatePlan persists a plan switch: plan_id only.
	UpdatePlan(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	// FindByIDForUser scopes the lookup to the owning user so other users'
	// records are indistinguishable from absent ones. The record comes back
	// eager-loaded with user, plan, and the plan's active features.
	FindByIDForUser(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*Subscription, error)
	FindActiveByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
	// FindActiveProjected eager-loads user, plan, and active features in one
	// logical read for the projection.
	FindActiveProjected(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
	// ListProjected eager-loads the user's subscriptions newest first.
	ListProjected(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Subscription, error)
	// ListUserIDsByPlanIDs returns the distinct holders of subscriptions on
	// the given plans, for feature-save invalidation fan-out.
	ListUserIDsByPlanIDs(ctx context.Context, db *gorm.DB, planIDs []snowflake.ID) ([]snowflake.ID, error)
	UpsertUser(ctx context.Context, db *gorm.DB, user *User) error
	FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
}
