package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/cache"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/clock"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/config"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/events"
	plandomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/domain"
	subscriptiondomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/subscription/domain"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/usercontext"
	pkgdb "github.com/anirbanchakraborty123/Api-based-subscription-service/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// supersededNote is appended to a subscription deactivated because the user
// subscribed to a new plan.
const supersededNote = "superseded by new subscription"

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	repo     subscriptiondomain.Repository
	planRepo plandomain.Repository

	cache    cache.Store
	cacheCfg *config.CacheConfigHolder
	emitter  events.Emitter
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     subscriptiondomain.Repository
	PlanRepo plandomain.Repository
	Cache    cache.Store
	CacheCfg *config.CacheConfigHolder
	Emitter  events.Emitter
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("subscription.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		planRepo: p.PlanRepo,
		cache:    p.Cache,
		cacheCfg: p.CacheCfg,
		emitter:  p.Emitter,
	}
}

// Create implements domain.Service.
func (s *Service) Create(ctx context.Context, req subscriptiondomain.CreateRequest) (subscriptiondomain.View, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return subscriptiondomain.View{}, subscriptiondomain.ErrInvalidUser
	}

	planID, err := parseID(req.PlanID, subscriptiondomain.ErrInvalidPlan)
	if err != nil {
		return subscriptiondomain.View{}, err
	}

	plan, err := s.planRepo.FindByID(ctx, s.db, planID)
	if err != nil {
		return subscriptiondomain.View{}, err
	}
	if plan == nil {
		return subscriptiondomain.View{}, plandomain.ErrNotFound
	}
	if !plan.IsActive {
		return subscriptiondomain.View{}, subscriptiondomain.ErrInactivePlan
	}

	now := s.clock.Now()
	subscription := subscriptiondomain.Subscription{
		ID:        s.genID.Generate(),
		UserID:    userID,
		PlanID:    plan.ID,
		StartDate: now,
		IsActive:  true,
		Notes:     strings.TrimSpace(req.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Meta != nil {
		subscription.Metadata = datatypes.JSONMap(req.Meta)
	}

	user := subscriptiondomain.User{
		ID:        userID,
		Email:     usercontext.UserEmailFromContext(ctx),
		CreatedAt: now,
		UpdatedAt: now,
	}

	var superseded *subscriptiondomain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Upsert unconditionally so an email changed at the identity
		// provider lands on the mirror row. An absent email header keeps
		// whatever is stored.
		existing, err := s.repo.FindUserByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			user.CreatedAt = existing.CreatedAt
			if user.Email == "" {
				user.Email = existing.Email
			}
		}
		if err := s.repo.UpsertUser(ctx, tx, &user); err != nil {
			return err
		}

		prior, err := s.repo.FindActiveByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if prior != nil {
			prior.IsActive = false
			prior.EndDate = &now
			prior.Notes = appendNote(prior.Notes, supersededNote)
			prior.UpdatedAt = now
			if err := s.repo.UpdateLifecycle(ctx, tx, prior); err != nil {
				return err
			}
			superseded = prior
		}

		return s.repo.Insert(ctx, tx, &subscription)
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			// A racing writer won the partial unique index; the caller
			// retries the whole operation rather than merging.
			return subscriptiondomain.View{}, subscriptiondomain.ErrConcurrentModification
		}
		return subscriptiondomain.View{}, err
	}

	s.invalidateUser(ctx, userID)

	fields := map[string]any{
		"subscription_id": subscription.ID.String(),
		"user_id":         userID.String(),
		"plan":            plan.Name,
	}
	if superseded != nil {
		fields["superseded_id"] = superseded.ID.String()
	}
	s.emitter.Emit(ctx, events.SubscriptionCreated, fields)

	s.log.Info("subscription created",
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("plan", plan.Name),
	)

	subscription.User = user
	subscription.Plan = *plan
	return subscriptiondomain.BuildView(subscription, now), nil
}

// ChangePlan implements domain.Service.
func (s *Service) ChangePlan(ctx context.Context, req subscriptiondomain.ChangePlanRequest) (subscriptiondomain.View, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return subscriptiondomain.View{}, subscriptiondomain.ErrInvalidUser
	}

	subscriptionID, err := parseID(req.SubscriptionID, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return subscriptiondomain.View{}, err
	}
	planID, err := parseID(req.PlanID, subscriptiondomain.ErrInvalidPlan)
	if err != nil {
		return subscriptiondomain.View{}, err
	}

	plan, err := s.planRepo.FindByID(ctx, s.db, planID)
	if err != nil {
		return subscriptiondomain.View{}, err
	}
	if plan == nil {
		return subscriptiondomain.View{}, plandomain.ErrNotFound
	}
	if !plan.IsActive {
		return subscriptiondomain.View{}, subscriptiondomain.ErrInactivePlan
	}

	now := s.clock.Now()
	var subscription *subscriptiondomain.Subscription
	var oldPlan string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByIDForUser(ctx, tx, userID, subscriptionID)
		if err != nil {
			return err
		}
		if found == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if found.PlanID == plan.ID {
			return subscriptiondomain.ErrSamePlan
		}

		oldPlan = found.Plan.Name
		found.PlanID = plan.ID
		found.UpdatedAt = now
		if err := s.repo.UpdatePlan(ctx, tx, found); err != nil {
			return err
		}

		subscription = found
		return nil
	})
	if err != nil {
		return subscriptiondomain.View{}, err
	}

	s.invalidateUser(ctx, userID)

	s.emitter.Emit(ctx, events.SubscriptionPlanChanged, map[string]any{
		"subscription_id": subscription.ID.String(),
		"user_id":         userID.String(),
		"old_plan":        oldPlan,
		"new_plan":        plan.Name,
	})

	s.log.Info("subscription plan changed",
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("old_plan", oldPlan),
		zap.String("new_plan", plan.Name),
	)

	subscription.Plan = *plan
	return subscriptiondomain.BuildView(*subscription, now), nil
}

// Deactivate implements domain.Service.
func (s *Service) Deactivate(ctx context.Context, req subscriptiondomain.DeactivateRequest) (subscriptiondomain.View, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return subscriptiondomain.View{}, subscriptiondomain.ErrInvalidUser
	}

	subscriptionID, err := parseID(req.SubscriptionID, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return subscriptiondomain.View{}, err
	}

	now := s.clock.Now()
	var subscription *subscriptiondomain.Subscription
	alreadyInactive := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByIDForUser(ctx, tx, userID, subscriptionID)
		if err != nil {
			return err
		}
		if found == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}

		if !found.IsActive {
			alreadyInactive = true
			subscription = found
			return nil
		}

		found.IsActive = false
		found.EndDate = &now
		found.Notes = appendNote(found.Notes, strings.TrimSpace(req.Reason))
		found.UpdatedAt = now
		if err := s.repo.UpdateLifecycle(ctx, tx, found); err != nil {
			return err
		}

		subscription = found
		return nil
	})
	if err != nil {
		return subscriptiondomain.View{}, err
	}

	if alreadyInactive {
		s.log.Warn("deactivate requested for already inactive subscription",
			zap.String("subscription_id", subscription.ID.String()),
			zap.String("user_id", userID.String()),
		)
		return subscriptiondomain.BuildView(*subscription, now), nil
	}

	s.invalidateUser(ctx, userID)

	s.emitter.Emit(ctx, events.SubscriptionDeactivated, map[string]any{
		"subscription_id": subscription.ID.String(),
		"user_id":         userID.String(),
		"plan":            subscription.Plan.Name,
		"reason":          strings.TrimSpace(req.Reason),
	})

	s.log.Info("subscription deactivated",
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("user_id", userID.String()),
	)

	return subscriptiondomain.BuildView(*subscription, now), nil
}

// GetActive implements domain.Service.
func (s *Service) GetActive(ctx context.Context) (subscriptiondomain.View, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return subscriptiondomain.View{}, subscriptiondomain.ErrInvalidUser
	}

	key := cache.ActiveSubscriptionKey(userID)
	var cached subscriptiondomain.View
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	subscription, err := s.repo.FindActiveProjected(ctx, s.db, userID)
	if err != nil {
		return subscriptiondomain.View{}, err
	}
	if subscription == nil {
		return subscriptiondomain.View{}, subscriptiondomain.ErrNoActiveSubscription
	}

	view := subscriptiondomain.BuildView(*subscription, s.clock.Now())
	s.cacheSet(ctx, key, view, s.cacheCfg.Get().ActiveTTL)
	return view, nil
}

// List implements domain.Service.
func (s *Service) List(ctx context.Context) ([]subscriptiondomain.View, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, subscriptiondomain.ErrInvalidUser
	}

	key := cache.UserSubscriptionsKey(userID)
	var cached []subscriptiondomain.View
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	subscriptions, err := s.repo.ListProjected(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	views := subscriptiondomain.BuildViews(subscriptions, s.clock.Now())
	s.cacheSet(ctx, key, views, s.cacheCfg.Get().ListTTL)
	return views, nil
}

// cacheGet reads and decodes a cached view. Cache failures degrade to a
// store read and are never surfaced to the caller.
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

// invalidateUser drops the user's cached views. Runs strictly after the write
// transaction commits and before the operation returns; a failed invalidation
// never rolls back the write, the TTL backstop covers it.
func (s *Service) invalidateUser(ctx context.Context, userID snowflake.ID) {
	keys := cache.UserKeys(userID)
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("cache invalidation failed, relying on TTL expiry",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}

func parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}

func appendNote(notes, note string) string {
	if note == "" {
		return notes
	}
	if notes == "" {
		return note
	}
	return notes + "\n" + note
}
