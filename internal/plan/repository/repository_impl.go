package repository

import (
	"context"
	"errors"

	featuredomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/domain"
	plandomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() plandomain.Repository {
	return &repo{}
}

func activeFeaturesOrdered(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true).Order("features.name ASC")
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, plan *plandomain.Plan) error {
	return db.WithContext(ctx).Create(plan).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, plan *plandomain.Plan) error {
	return db.WithContext(ctx).
		Model(&plandomain.Plan{}).
		Where("id = ?", plan.ID).
		Updates(map[string]any{
			"name":        plan.Name,
			"description": plan.Description,
			"price":       plan.Price,
			"is_active":   plan.IsActive,
			"updated_at":  plan.UpdatedAt,
		}).Error
}

func (r *repo) ReplaceFeatures(ctx context.Context, db *gorm.DB, plan *plandomain.Plan, features []featuredomain.Feature) error {
	return db.WithContext(ctx).Model(plan).Association("Features").Replace(features)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*plandomain.Plan, error) {
	var plan plandomain.Plan
	err := db.WithContext(ctx).
		Preload("Features", activeFeaturesOrdered).
		Where("id = ?", id).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*plandomain.Plan, error) {
	var plan plandomain.Plan
	err := db.WithContext(ctx).Where("name = ?", name).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]plandomain.Plan, error) {
	var plans []plandomain.Plan
	err := db.WithContext(ctx).
		Preload("Features", activeFeaturesOrdered).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repo) ListIDsByFeatureID(ctx context.Context, db *gorm.DB, featureID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Table("plan_features").
		Where("feature_id = ?", featureID).
		Pluck("plan_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
