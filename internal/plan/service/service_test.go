package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/cache"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/clock"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/config"
	featuredomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/domain"
	featurerepository "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/repository"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/migration"
	plandomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/domain"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/repository"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clk   *clock.FakeClock
	store cache.Store
	svc   plandomain.Service

	analytics  featuredomain.Feature
	apiAccess  featuredomain.Feature
	deprecated featuredomain.Feature
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := migration.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	f := &fixture{
		db:    db,
		node:  node,
		clk:   clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		store: cache.NewMemoryStore(),
	}

	f.analytics = f.createFeature(t, "Advanced Analytics", true)
	f.apiAccess = f.createFeature(t, "Basic API Access", true)
	f.deprecated = f.createFeature(t, "Legacy Reports", false)

	f.svc = NewService(ServiceParam{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       f.clk,
		Repo:        repository.Provide(),
		FeatureRepo: featurerepository.Provide(),
		Cache:       f.store,
		CacheCfg:    config.NewStaticCacheConfigHolder(config.DefaultCacheConfig()),
	})
	return f
}

func (f *fixture) createFeature(t *testing.T, name string, active bool) featuredomain.Feature {
	t.Helper()
	now := f.clk.Now()
	feature := featuredomain.Feature{
		ID:        f.node.Generate(),
		Name:      name,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.db.Create(&feature).Error; err != nil {
		t.Fatalf("failed to create feature %q: %v", name, err)
	}
	return feature
}

func (f *fixture) cacheHas(t *testing.T, key string) bool {
	t.Helper()
	_, found, err := f.store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("cache get %q: %v", key, err)
	}
	return found
}

func price(v float64) *float64 { return &v }

func TestCreatePlan(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	view, err := f.svc.Create(ctx, plandomain.CreateRequest{
		Name:        "  Pro  ",
		Description: "For growing teams",
		Price:       price(29.99),
		FeatureIDs:  []string{f.apiAccess.ID.String(), f.analytics.ID.String(), f.deprecated.ID.String()},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if view.Name != "Pro" {
		t.Errorf("name = %q, want trimmed Pro", view.Name)
	}
	if !view.IsActive {
		t.Error("plans default to active")
	}
	if view.Price == nil || *view.Price != 29.99 {
		t.Errorf("price = %v", view.Price)
	}

	// The view carries active features only, sorted by name; the inactive
	// feature stays attached in storage but out of the projection.
	if view.FeatureCount != 2 {
		t.Fatalf("feature_count = %d, want 2", view.FeatureCount)
	}
	if view.Features[0].Name != "Advanced Analytics" || view.Features[1].Name != "Basic API Access" {
		t.Errorf("features out of order: %+v", view.Features)
	}

	var stored plandomain.Plan
	if err := f.db.Preload("Features").Where("name = ?", "Pro").First(&stored).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(stored.Features) != 3 {
		t.Errorf("stored features = %d, want all 3 attached", len(stored.Features))
	}
}

func TestCreatePlanValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, plandomain.CreateRequest{Name: "   "}); !errors.Is(err, plandomain.ErrInvalidName) {
		t.Errorf("blank name: err = %v, want ErrInvalidName", err)
	}
	if _, err := f.svc.Create(ctx, plandomain.CreateRequest{Name: "Cheap", Price: price(-1)}); !errors.Is(err, plandomain.ErrNegativePrice) {
		t.Errorf("negative price: err = %v, want ErrNegativePrice", err)
	}
	if _, err := f.svc.Create(ctx, plandomain.CreateRequest{
		Name:       "Ghost",
		FeatureIDs: []string{f.node.Generate().String()},
	}); !errors.Is(err, plandomain.ErrUnknownFeature) {
		t.Errorf("unknown feature: err = %v, want ErrUnknownFeature", err)
	}
}

func TestCreatePlanDuplicateName(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, plandomain.CreateRequest{Name: "Basic"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.svc.Create(ctx, plandomain.CreateRequest{Name: "Basic"})
	if !errors.Is(err, plandomain.ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
}

func TestListActiveCached(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, plandomain.CreateRequest{Name: "Basic", Price: price(9.99)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	views, err := f.svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("len = %d, want 1", len(views))
	}
	if !f.cacheHas(t, cache.PlansAllKey) {
		t.Fatal("listing should populate plans:all")
	}

	// A row inserted behind the service's back is invisible until the cache
	// entry is dropped.
	now := f.clk.Now()
	hidden := plandomain.Plan{ID: f.node.Generate(), Name: "Hidden", IsActive: true, CreatedAt: now, UpdatedAt: now}
	if err := f.db.Create(&hidden).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	views, err = f.svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("len = %d, want 1 served from cache", len(views))
	}

	if err := f.store.Delete(ctx, cache.PlansAllKey); err != nil {
		t.Fatalf("drop cache: %v", err)
	}
	views, err = f.svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("len = %d, want 2 after cache drop", len(views))
	}
}

func TestListActiveExcludesInactivePlans(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inactive := false
	if _, err := f.svc.Create(ctx, plandomain.CreateRequest{Name: "Retired", IsActive: &inactive}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Create(ctx, plandomain.CreateRequest{Name: "Live"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	views, err := f.svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 || views[0].Name != "Live" {
		t.Errorf("views = %+v, want only Live", views)
	}
}

func TestGetServesInactivePlan(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inactive := false
	created, err := f.svc.Create(ctx, plandomain.CreateRequest{Name: "Retired", IsActive: &inactive})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	view, err := f.svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.IsActive {
		t.Error("detail lookup must serve inactive plans")
	}

	if _, err := f.svc.Get(ctx, f.node.Generate().String()); !errors.Is(err, plandomain.ErrNotFound) {
		t.Errorf("missing plan: err = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Get(ctx, "not-a-number"); !errors.Is(err, plandomain.ErrInvalidID) {
		t.Errorf("bad id: err = %v, want ErrInvalidID", err)
	}
}

func TestUpdatePlanInvalidatesCaches(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, plandomain.CreateRequest{Name: "Basic", Price: price(9.99)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	planID, err := snowflake.ParseString(created.ID)
	if err != nil {
		t.Fatalf("parse id: %v", err)
	}

	// Warm both cache entries.
	if _, err := f.svc.ListActive(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := f.svc.Get(ctx, created.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !f.cacheHas(t, cache.PlansAllKey) || !f.cacheHas(t, cache.PlanKey(planID)) {
		t.Fatal("expected warm cache entries")
	}

	newPrice := 14.99
	view, err := f.svc.Update(ctx, plandomain.UpdateRequest{ID: created.ID, Price: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.Price == nil || *view.Price != 14.99 {
		t.Errorf("price = %v", view.Price)
	}

	if f.cacheHas(t, cache.PlansAllKey) {
		t.Error("plan save must drop plans:all")
	}
	if f.cacheHas(t, cache.PlanKey(planID)) {
		t.Error("plan save must drop its detail entry")
	}

	got, err := f.svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Price == nil || *got.Price != 14.99 {
		t.Errorf("reread price = %v", got.Price)
	}
}

func TestUpdatePlanReplacesFeatures(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, plandomain.CreateRequest{
		Name:       "Basic",
		FeatureIDs: []string{f.apiAccess.ID.String()},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ids := []string{f.analytics.ID.String()}
	view, err := f.svc.Update(ctx, plandomain.UpdateRequest{ID: created.ID, FeatureIDs: &ids})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.FeatureCount != 1 || view.Features[0].Name != "Advanced Analytics" {
		t.Errorf("features = %+v, want only Advanced Analytics", view.Features)
	}

	var stored plandomain.Plan
	if err := f.db.Preload("Features").Where("id = ?", created.ID).First(&stored).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(stored.Features) != 1 || stored.Features[0].Name != "Advanced Analytics" {
		t.Errorf("stored features = %+v, want replacement not merge", stored.Features)
	}
}

func TestUpdatePlanNotFound(t *testing.T) {
	f := setup(t)

	name := "Anything"
	_, err := f.svc.Update(context.Background(), plandomain.UpdateRequest{
		ID:   f.node.Generate().String(),
		Name: &name,
	})
	if !errors.Is(err, plandomain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
