package domain

import (
	"context"

	featuredomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, plan *Plan) error
	Update(ctx context.Context, db *gorm.DB, plan *Plan) error
	ReplaceFeatures(ctx context.Context, db *gorm.DB, plan *Plan, features []featuredomain.Feature) error
	// FindByID eager-loads the plan's active features in name order.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Plan, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Plan, error)
	// ListActive eager-loads active features for every active plan.
	ListActive(ctx context.Context, db *gorm.DB) ([]Plan, error)
	// ListIDsByFeatureID returns the IDs of plans containing the feature,
	// for feature-save invalidation fan-out.
	ListIDsByFeatureID(ctx context.Context, db *gorm.DB, featureID snowflake.ID) ([]snowflake.ID, error)
}
