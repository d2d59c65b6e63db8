// Package seed creates a small catalog of features, plans, and demo users so
// the API is exercisable immediately after startup.
package seed

import (
	"context"
	"errors"
	"time"

	featuredomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/domain"
	plandomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/domain"
	subscriptiondomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type featureSeed struct {
	name        string
	description string
}

type planSeed struct {
	name        string
	description string
	price       float64
	features    []int
}

var featureSeeds = []featureSeed{
	{"Basic API Access", "Access to basic API endpoints with rate limiting"},
	{"Unlimited API Access", "Unlimited access to all API endpoints"},
	{"Priority Support", "24/7 priority customer support"},
	{"Advanced Analytics", "Advanced analytics and reporting dashboard"},
	{"Custom Integrations", "Custom integration development support"},
	{"White Label", "White label solution for your brand"},
	{"SSO Integration", "Single Sign-On integration"},
	{"Data Export", "Export data in various formats"},
	{"Real-time Notifications", "Real-time push notifications"},
	{"Multi-user Access", "Team collaboration features"},
}

var planSeeds = []planSeed{
	{"Starter", "Perfect for individuals and small projects", 9.99, []int{0}},
	{"Professional", "Ideal for growing businesses and teams", 29.99, []int{1, 2, 3, 7}},
	{"Business", "Advanced features for established businesses", 79.99, []int{1, 2, 3, 4, 6, 7, 8, 9}},
	{"Enterprise", "Complete solution for large organizations", 199.99, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
}

var userSeeds = []string{
	"john@example.com",
	"jane@example.com",
	"bob@example.com",
}

// EnsureSampleData is idempotent; existing rows are matched by name or email
// and left as they are.
func EnsureSampleData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		features := make([]featuredomain.Feature, 0, len(featureSeeds))
		for _, fs := range featureSeeds {
			feature, err := ensureFeatureTx(ctx, tx, node, fs)
			if err != nil {
				return err
			}
			features = append(features, feature)
		}

		plans := make([]plandomain.Plan, 0, len(planSeeds))
		for _, ps := range planSeeds {
			plan, err := ensurePlanTx(ctx, tx, node, ps, features)
			if err != nil {
				return err
			}
			plans = append(plans, plan)
		}

		for i, email := range userSeeds {
			if err := ensureUserWithSubscriptionTx(ctx, tx, node, email, plans[i%len(plans)]); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureFeatureTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, fs featureSeed) (featuredomain.Feature, error) {
	var feature featuredomain.Feature
	err := tx.WithContext(ctx).Where("name = ?", fs.name).First(&feature).Error
	if err == nil {
		return feature, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return feature, err
	}
	now := time.Now().UTC()
	feature = featuredomain.Feature{
		ID:          node.Generate(),
		Name:        fs.name,
		Description: fs.description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(&feature).Error; err != nil {
		return feature, err
	}
	return feature, nil
}

func ensurePlanTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, ps planSeed, features []featuredomain.Feature) (plandomain.Plan, error) {
	var plan plandomain.Plan
	err := tx.WithContext(ctx).Where("name = ?", ps.name).First(&plan).Error
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return plan, err
	}
	now := time.Now().UTC()
	price := ps.price
	plan = plandomain.Plan{
		ID:          node.Generate(),
		Name:        ps.name,
		Description: ps.description,
		Price:       &price,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(&plan).Error; err != nil {
		return plan, err
	}

	attach := make([]featuredomain.Feature, 0, len(ps.features))
	for _, idx := range ps.features {
		attach = append(attach, features[idx])
	}
	if err := tx.WithContext(ctx).Model(&plan).Association("Features").Replace(attach); err != nil {
		return plan, err
	}
	return plan, nil
}

func ensureUserWithSubscriptionTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, email string, plan plandomain.Plan) error {
	var user subscriptiondomain.User
	err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	user = subscriptiondomain.User{
		ID:        node.Generate(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		return err
	}

	sub := subscriptiondomain.Subscription{
		ID:        node.Generate(),
		UserID:    user.ID,
		PlanID:    plan.ID,
		StartDate: now,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Omit("User", "Plan").Create(&sub).Error
}
