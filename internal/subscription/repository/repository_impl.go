package repository

import (
	"context"
	"errors"

	subscriptiondomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func activeFeaturesOrdered(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true).Order("features.name ASC")
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Omit("User", "Plan").Create(subscription).Error
}

func (r *repo) UpdateLifecycle(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).
		Model(&subscriptiondomain.Subscription{}).
		Where("id = ?", subscription.ID).
		Updates(map[string]any{
			"is_active":  subscription.IsActive,
			"end_date":   subscription.EndDate,
			"notes":      subscription.Notes,
			"updated_at": subscription.UpdatedAt,
		}).Error
}

func (r *repo) UpdatePlan(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).
		Model(&subscriptiondomain.Subscription{}).
		Where("id = ?", subscription.ID).
		Updates(map[string]any{
			"plan_id":    subscription.PlanID,
			"updated_at": subscription.UpdatedAt,
		}).Error
}

func (r *repo) FindByIDForUser(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Preload("User").
		Preload("Plan").
		Preload("Plan.Features", activeFeaturesOrdered).
		Where("user_id = ? AND id = ?", userID, id).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) FindActiveByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) FindActiveProjected(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Preload("User").
		Preload("Plan").
		Preload("Plan.Features", activeFeaturesOrdered).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) ListProjected(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]subscriptiondomain.Subscription, error) {
	var subscriptions []subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Preload("User").
		Preload("Plan").
		Preload("Plan.Features", activeFeaturesOrdered).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) ListUserIDsByPlanIDs(ctx context.Context, db *gorm.DB, planIDs []snowflake.ID) ([]snowflake.ID, error) {
	if len(planIDs) == 0 {
		return nil, nil
	}

	var userIDs []snowflake.ID
	err := db.WithContext(ctx).
		Model(&subscriptiondomain.Subscription{}).
		Distinct("user_id").
		Where("plan_id IN ?", planIDs).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (r *repo) UpsertUser(ctx context.Context, db *gorm.DB, user *subscriptiondomain.User) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
		}).
		Create(user).Error
}

func (r *repo) FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.User, error) {
	var user subscriptiondomain.User
	err := db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
