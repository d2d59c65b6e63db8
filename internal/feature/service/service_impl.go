package service

import (
	"context"
	"strings"

	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/cache"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/clock"
	featuredomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/domain"
	plandomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/domain"
	subscriptiondomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/subscription/domain"
	pkgdb "github.com/anirbanchakraborty123/Api-based-subscription-service/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	repo     featuredomain.Repository
	planRepo plandomain.Repository
	subRepo  subscriptiondomain.Repository

	cache cache.Store
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     featuredomain.Repository
	PlanRepo plandomain.Repository
	SubRepo  subscriptiondomain.Repository
	Cache    cache.Store
}

func NewService(p ServiceParam) featuredomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("feature.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		planRepo: p.PlanRepo,
		subRepo:  p.SubRepo,
		cache:    p.Cache,
	}
}

// Create implements domain.Service.
func (s *Service) Create(ctx context.Context, req featuredomain.CreateRequest) (*featuredomain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, featuredomain.ErrInvalidName
	}

	now := s.clock.Now()
	feature := featuredomain.Feature{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		feature.IsActive = *req.IsActive
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, &feature)
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, featuredomain.ErrDuplicateName
		}
		return nil, err
	}

	s.invalidateFeature(ctx, feature.ID)

	s.log.Info("feature created",
		zap.String("feature_id", feature.ID.String()),
		zap.String("name", feature.Name),
	)

	resp := featuredomain.BuildResponse(feature)
	return &resp, nil
}

// Update implements domain.Service.
func (s *Service) Update(ctx context.Context, req featuredomain.UpdateRequest) (*featuredomain.Response, error) {
	featureID, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}

	feature, err := s.repo.FindByID(ctx, s.db, featureID)
	if err != nil {
		return nil, err
	}
	if feature == nil {
		return nil, featuredomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, featuredomain.ErrInvalidName
		}
		feature.Name = name
	}
	if req.Description != nil {
		feature.Description = strings.TrimSpace(*req.Description)
	}
	if req.IsActive != nil {
		feature.IsActive = *req.IsActive
	}

	feature.UpdatedAt = s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Update(ctx, tx, feature)
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, featuredomain.ErrDuplicateName
		}
		return nil, err
	}

	s.invalidateFeature(ctx, feature.ID)

	s.log.Info("feature updated",
		zap.String("feature_id", feature.ID.String()),
		zap.String("name", feature.Name),
		zap.Bool("is_active", feature.IsActive),
	)

	resp := featuredomain.BuildResponse(*feature)
	return &resp, nil
}

// List implements domain.Service.
func (s *Service) List(ctx context.Context, req featuredomain.ListRequest) ([]featuredomain.Response, error) {
	features, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return nil, err
	}

	responses := make([]featuredomain.Response, 0, len(features))
	for _, f := range features {
		responses = append(responses, featuredomain.BuildResponse(f))
	}
	return responses, nil
}

// invalidateFeature drops every cache entry whose payload embeds the
// feature: the global plan listing plus the per-user subscription views of
// everyone subscribed to a plan that carries it. Plan detail entries are
// untouched; feature saves do not rewrite plan rows.
func (s *Service) invalidateFeature(ctx context.Context, featureID snowflake.ID) {
	keys := []string{cache.PlansAllKey}

	planIDs, err := s.planRepo.ListIDsByFeatureID(ctx, s.db, featureID)
	if err != nil {
		s.log.Warn("feature fan-out lookup failed, relying on TTL expiry",
			zap.String("feature_id", featureID.String()),
			zap.Error(err),
		)
	} else if len(planIDs) > 0 {
		userIDs, err := s.subRepo.ListUserIDsByPlanIDs(ctx, s.db, planIDs)
		if err != nil {
			s.log.Warn("feature fan-out lookup failed, relying on TTL expiry",
				zap.String("feature_id", featureID.String()),
				zap.Error(err),
			)
		} else {
			for _, userID := range userIDs {
				keys = append(keys, cache.UserKeys(userID)...)
			}
		}
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("cache invalidation failed, relying on TTL expiry",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, featuredomain.ErrInvalidID
	}
	return id, nil
}
