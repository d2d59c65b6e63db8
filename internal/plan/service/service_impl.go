package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/cache"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/clock"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/config"
	featuredomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/domain"
	plandomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/domain"
	pkgdb "github.com/anirbanchakraborty123/Api-based-subscription-service/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	clock       clock.Clock
	repo        plandomain.Repository
	featureRepo featuredomain.Repository

	cache    cache.Store
	cacheCfg *config.CacheConfigHolder
}

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        plandomain.Repository
	FeatureRepo featuredomain.Repository
	Cache       cache.Store
	CacheCfg    *config.CacheConfigHolder
}

func NewService(p ServiceParam) plandomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("plan.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		featureRepo: p.FeatureRepo,
		cache:       p.Cache,
		cacheCfg:    p.CacheCfg,
	}
}

// ListActive implements domain.Service.
func (s *Service) ListActive(ctx context.Context) ([]plandomain.View, error) {
	var cached []plandomain.View
	if s.cacheGet(ctx, cache.PlansAllKey, &cached) {
		return cached, nil
	}

	plans, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return nil, err
	}

	views := make([]plandomain.View, 0, len(plans))
	for _, plan := range plans {
		views = append(views, plandomain.BuildView(plan))
	}

	s.cacheSet(ctx, cache.PlansAllKey, views, s.cacheCfg.Get().PlanTTL)
	return views, nil
}

// Get implements domain.Service.
func (s *Service) Get(ctx context.Context, id string) (plandomain.View, error) {
	planID, err := parseID(id, plandomain.ErrInvalidID)
	if err != nil {
		return plandomain.View{}, err
	}

	key := cache.PlanKey(planID)
	var cached plandomain.View
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	plan, err := s.repo.FindByID(ctx, s.db, planID)
	if err != nil {
		return plandomain.View{}, err
	}
	if plan == nil {
		return plandomain.View{}, plandomain.ErrNotFound
	}

	view := plandomain.BuildView(*plan)
	s.cacheSet(ctx, key, view, s.cacheCfg.Get().PlanTTL)
	return view, nil
}

// Create implements domain.Service.
func (s *Service) Create(ctx context.Context, req plandomain.CreateRequest) (*plandomain.View, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, plandomain.ErrInvalidName
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, plandomain.ErrNegativePrice
	}

	features, err := s.resolveFeatures(ctx, req.FeatureIDs)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	plan := plandomain.Plan{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &plan); err != nil {
			return err
		}
		if len(features) > 0 {
			return s.repo.ReplaceFeatures(ctx, tx, &plan, features)
		}
		return nil
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, plandomain.ErrDuplicateName
		}
		return nil, err
	}

	s.invalidatePlan(ctx, plan.ID)

	s.log.Info("plan created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("name", plan.Name),
	)

	plan.Features = activeSorted(features)
	view := plandomain.BuildView(plan)
	return &view, nil
}

// Update implements domain.Service.
func (s *Service) Update(ctx context.Context, req plandomain.UpdateRequest) (*plandomain.View, error) {
	planID, err := parseID(req.ID, plandomain.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.FindByID(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, plandomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, plandomain.ErrInvalidName
		}
		plan.Name = name
	}
	if req.Description != nil {
		plan.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, plandomain.ErrNegativePrice
		}
		plan.Price = req.Price
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	var features []featuredomain.Feature
	if req.FeatureIDs != nil {
		features, err = s.resolveFeatures(ctx, *req.FeatureIDs)
		if err != nil {
			return nil, err
		}
	}

	plan.UpdatedAt = s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, plan); err != nil {
			return err
		}
		if req.FeatureIDs != nil {
			return s.repo.ReplaceFeatures(ctx, tx, plan, features)
		}
		return nil
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, plandomain.ErrDuplicateName
		}
		return nil, err
	}

	s.invalidatePlan(ctx, plan.ID)

	s.log.Info("plan updated",
		zap.String("plan_id", plan.ID.String()),
		zap.String("name", plan.Name),
	)

	if req.FeatureIDs != nil {
		plan.Features = activeSorted(features)
	}
	view := plandomain.BuildView(*plan)
	return &view, nil
}

func (s *Service) resolveFeatures(ctx context.Context, ids []string) ([]featuredomain.Feature, error) {
	features := make([]featuredomain.Feature, 0, len(ids))
	for _, raw := range ids {
		id, err := parseID(raw, plandomain.ErrUnknownFeature)
		if err != nil {
			return nil, err
		}
		feature, err := s.featureRepo.FindByID(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if feature == nil {
			return nil, plandomain.ErrUnknownFeature
		}
		features = append(features, *feature)
	}
	return features, nil
}

// invalidatePlan drops the plan detail and global listing caches after a
// committed plan save.
func (s *Service) invalidatePlan(ctx context.Context, planID snowflake.ID) {
	keys := []string{cache.PlanKey(planID), cache.PlansAllKey}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("cache invalidation failed, relying on TTL expiry",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}

func (s *Service) cacheGet(ctx context.Context, key string, out any) bool {
	payload, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("cache read failed, falling through to store",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		s.log.Warn("cache entry corrupt, discarding",
			zap.String("key", key),
			zap.Error(err),
		)
		_ = s.cache.Delete(ctx, key)
		return false
	}
	return true
}

func (s *Service) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, payload, ttl); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func activeSorted(features []featuredomain.Feature) []featuredomain.Feature {
	sorted := make([]featuredomain.Feature, 0, len(features))
	for _, f := range features {
		if f.IsActive {
			sorted = append(sorted, f)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

func parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}
