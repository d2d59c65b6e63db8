package repository

import (
	"context"
	"errors"

	featuredomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() featuredomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, feature *featuredomain.Feature) error {
	return db.WithContext(ctx).Create(feature).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, feature *featuredomain.Feature) error {
	return db.WithContext(ctx).
		Model(&featuredomain.Feature{}).
		Where("id = ?", feature.ID).
		Updates(map[string]any{
			"name":        feature.Name,
			"description": feature.Description,
			"is_active":   feature.IsActive,
			"updated_at":  feature.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*featuredomain.Feature, error) {
	var feature featuredomain.Feature
	err := db.WithContext(ctx).Where("id = ?", id).First(&feature).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &feature, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*featuredomain.Feature, error) {
	var feature featuredomain.Feature
	err := db.WithContext(ctx).Where("name = ?", name).First(&feature).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &feature, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter featuredomain.ListRequest) ([]featuredomain.Feature, error) {
	stmt := db.WithContext(ctx).Order("name ASC")
	if filter.Active != nil {
		stmt = stmt.Where("is_active = ?", *filter.Active)
	}

	var features []featuredomain.Feature
	if err := stmt.Find(&features).Error; err != nil {
		return nil, err
	}
	return features, nil
}
