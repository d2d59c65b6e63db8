package domain

import (
	"context"
	"errors"
	"time"
)

type CreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price,omitempty"`
	FeatureIDs  []string `json:"feature_ids,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

type UpdateRequest struct {
	ID          string    `json:"id"`
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	FeatureIDs  *[]string `json:"feature_ids,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

// FeatureView is the feature shape embedded in plan and subscription views.
type FeatureView struct {
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// View is the read-optimized plan projection. FeatureCount counts active
// features only; Features holds active features sorted by name.
type View struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Price        *float64      `json:"price,omitempty"`
	Features     []FeatureView `json:"features"`
	FeatureCount int           `json:"feature_count"`
	IsActive     bool          `json:"is_active"`
	CreatedAt    time.Time     `json:"created_at"`
}

type Service interface {
	// ListActive returns the active plans, served from the plans:all cache.
	ListActive(ctx context.Context) ([]View, error)
	// Get returns one plan regardless of active flag, served from plan:<pid>.
	Get(ctx context.Context, id string) (View, error)
	Create(ctx context.Context, req CreateRequest) (*View, error)
	Update(ctx context.Context, req UpdateRequest) (*View, error)
}

var (
	ErrInvalidID      = errors.New("invalid_plan_id")
	ErrInvalidName    = errors.New("invalid_plan_name")
	ErrNegativePrice  = errors.New("negative_plan_price")
	ErrDuplicateName  = errors.New("duplicate_plan_name")
	ErrUnknownFeature = errors.New("unknown_feature")
	ErrNotFound       = errors.New("plan_not_found")
)

// BuildView projects a plan onto its read view. The plan's Features must
// already be restricted to active features in name order.
func BuildView(plan Plan) View {
	features := make([]FeatureView, 0, len(plan.Features))
	for _, f := range plan.ActiveFeatures() {
		features = append(features, FeatureView{Name: f.Name, IsActive: f.IsActive})
	}

	return View{
		ID:           plan.ID.String(),
		Name:         plan.Name,
		Description:  plan.Description,
		Price:        plan.Price,
		Features:     features,
		FeatureCount: len(features),
		IsActive:     plan.IsActive,
		CreatedAt:    plan.CreatedAt,
	}
}
