// Package domain contains the persistence model and service contract for
// subscription plans.
package domain

import (
	"time"

	featuredomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/domain"
	"github.com/bwmarrin/snowflake"
)

// Plan is a named, optionally priced bundle of features users subscribe to.
// Inactive plans stay readable for existing subscriptions but reject new ones.
type Plan struct {
	ID          snowflake.ID            `gorm:"primaryKey"`
	Name        string                  `gorm:"type:text;not null;uniqueIndex:ux_plans_name"`
	Description string                  `gorm:"type:text"`
	Price       *float64                `gorm:"type:decimal(10,2)"`
	IsActive    bool                    `gorm:"not null;default:true"`
	Features    []featuredomain.Feature `gorm:"many2many:plan_features"`
	CreatedAt   time.Time               `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time               `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Plan) TableName() string { return "plans" }

// ActiveFeatures returns the plan's active features. The repository preloads
// features filtered to active and ordered by name, so this is a derived view,
// never stored.
func (p Plan) ActiveFeatures() []featuredomain.Feature {
	active := make([]featuredomain.Feature, 0, len(p.Features))
	for _, f := range p.Features {
		if f.IsActive {
			active = append(active, f)
		}
	}
	return active
}
