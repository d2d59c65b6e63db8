package domain

import (
	"context"
	"errors"
	"time"
)

type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

type UpdateRequest struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type ListRequest struct {
	Active *bool
}

type Response struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Service mutates features. Saves fan out to the plan listing cache and to
// the user-scoped caches of every subscriber on a plan holding the feature.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
}

// BuildResponse maps a stored feature onto its API shape.
func BuildResponse(f Feature) Response {
	return Response{
		ID:          f.ID.String(),
		Name:        f.Name,
		Description: f.Description,
		IsActive:    f.IsActive,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

var (
	ErrInvalidID     = errors.New("invalid_feature_id")
	ErrInvalidName   = errors.New("invalid_feature_name")
	ErrDuplicateName = errors.New("duplicate_feature_name")
	ErrNotFound      = errors.New("feature_not_found")
)
