// Package domain contains the subscription persistence models, the state
// machine contract, and the read-view projection types.
package domain

import (
	"time"

	plandomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// User mirrors the externally owned identity for the projection join. This
// service never authenticates users; the identity provider owns the record.
type User struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Email     string       `gorm:"type:text;not null;uniqueIndex:ux_users_email"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

// Subscription binds a user to exactly one plan for a bounded time. StartDate
// is set once at creation and never mutated; EndDate is set exactly once when
// the record leaves the active state. An inactive subscription is terminal: a
// plan change on an active record mutates PlanID in place, while resubscribing
// always creates a new record.
//
// A partial unique index on (user_id) WHERE is_active enforces at most one
// active subscription per user; see internal/migration.
type Subscription struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	UserID    snowflake.ID      `gorm:"not null;index:ix_subscriptions_user_active,priority:1"`
	PlanID    snowflake.ID      `gorm:"not null;index:ix_subscriptions_plan_active,priority:1"`
	StartDate time.Time         `gorm:"not null;index"`
	EndDate   *time.Time        `gorm:""`
	IsActive  bool              `gorm:"not null;default:true;index:ix_subscriptions_user_active,priority:2;index:ix_subscriptions_plan_active,priority:2"`
	Notes     string            `gorm:"type:text"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`

	User User            `gorm:"foreignKey:UserID"`
	Plan plandomain.Plan `gorm:"foreignKey:PlanID"`
}

func (Subscription) TableName() string { return "subscriptions" }

// Duration reports how long the subscription has run: EndDate minus StartDate
// once ended, otherwise now minus StartDate. Recomputed at read time.
func (s Subscription) Duration(now time.Time) time.Duration {
	end := now
	if s.EndDate != nil {
		end = *s.EndDate
	}
	return end.Sub(s.StartDate)
}
