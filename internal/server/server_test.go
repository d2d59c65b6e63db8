package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/cache"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/clock"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/config"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/events"
	featurerepository "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/repository"
	featureservice "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/service"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/migration"
	plandomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/domain"
	planrepository "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/repository"
	planservice "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/service"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/ratelimit"
	subscriptionrepository "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/subscription/repository"
	subscriptionservice "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/subscription/service"
)

type testServer struct {
	engine *gin.Engine
	node   *snowflake.Node
	db     *gorm.DB

	basic plandomain.Plan
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	store := cache.NewMemoryStore()
	cacheCfg := config.NewStaticCacheConfigHolder(config.DefaultCacheConfig())

	now := clk.Now()
	basic := plandomain.Plan{ID: node.Generate(), Name: "Basic", IsActive: true, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&basic).Error; err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	subscriptionSvc := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     subscriptionrepository.Provide(),
		PlanRepo: planrepository.Provide(),
		Cache:    store,
		CacheCfg: cacheCfg,
		Emitter:  events.NewZapEmitter(log),
	})
	planSvc := planservice.NewService(planservice.ServiceParam{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       clk,
		Repo:        planrepository.Provide(),
		FeatureRepo: featurerepository.Provide(),
		Cache:       store,
		CacheCfg:    cacheCfg,
	})
	featureSvc := featureservice.NewService(featureservice.ServiceParam{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     featurerepository.Provide(),
		PlanRepo: planrepository.Provide(),
		SubRepo:  subscriptionrepository.Provide(),
		Cache:    store,
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())
	NewServer(ServerParams{
		Gin:             engine,
		Cfg:             config.Config{HTTPAddr: ":0"},
		Log:             log,
		SubscriptionSvc: subscriptionSvc,
		PlanSvc:         planSvc,
		FeatureSvc:      featureSvc,
		WriteLimiter:    ratelimit.NewWriteLimiter(ratelimit.NewMemoryLimiter(clk)),
	})

	return &testServer{engine: engine, node: node, db: db, basic: basic}
}

func (s *testServer) do(t *testing.T, method, path, body string, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(HeaderUserID, userID)
		req.Header.Set(HeaderUserEmail, userID+"@example.com")
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestPlansAreReadableWithoutIdentity(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/plans", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data []plandomain.View `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Name != "Basic" {
		t.Errorf("data = %+v, want the Basic plan", resp.Data)
	}
}

func TestSubscriptionsRequireIdentity(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/subscriptions", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if payload := decodeError(t, rec); payload.Type != "unauthorized" {
		t.Errorf("error type = %q", payload.Type)
	}

	rec = s.do(t, http.MethodGet, "/api/subscriptions", "", "not-a-snowflake")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage header: status = %d, want 401", rec.Code)
	}
}

func TestCreateSubscriptionEndpoint(t *testing.T) {
	s := newTestServer(t)
	userID := s.node.Generate().String()

	rec := s.do(t, http.MethodPost, "/api/subscriptions",
		`{"plan_id":"`+s.basic.ID.String()+`"}`, userID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			ID       string `json:"id"`
			IsActive bool   `json:"is_active"`
			Plan     struct {
				Name string `json:"name"`
			} `json:"plan"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Data.IsActive || resp.Data.Plan.Name != "Basic" {
		t.Errorf("data = %+v", resp.Data)
	}

	rec = s.do(t, http.MethodGet, "/api/subscriptions/active", "", userID)
	if rec.Code != http.StatusOK {
		t.Fatalf("get active: status = %d", rec.Code)
	}
}

func TestCreateSubscriptionValidation(t *testing.T) {
	s := newTestServer(t)
	userID := s.node.Generate().String()

	rec := s.do(t, http.MethodPost, "/api/subscriptions", `{}`, userID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	payload := decodeError(t, rec)
	if payload.Type != "validation_error" {
		t.Errorf("error type = %q", payload.Type)
	}
	if len(payload.Errors) != 1 || payload.Errors[0].Field != "plan_id" {
		t.Errorf("errors = %+v, want plan_id", payload.Errors)
	}

	rec = s.do(t, http.MethodPost, "/api/subscriptions", `{not json`, userID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestGetActiveNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/subscriptions/active", "", s.node.Generate().String())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if payload := decodeError(t, rec); payload.Type != "not_found" {
		t.Errorf("error type = %q", payload.Type)
	}
}

func TestCreateSubscriptionRateLimited(t *testing.T) {
	s := newTestServer(t)
	userID := s.node.Generate().String()
	body := `{"plan_id":"` + s.basic.ID.String() + `"}`

	// Burn the per-user create budget. Every request is a valid write; the
	// limiter sits in front of the handler.
	for i := 0; i < 10; i++ {
		rec := s.do(t, http.MethodPost, "/api/subscriptions", body, userID)
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d, body = %s", i, rec.Code, rec.Body.String())
		}
	}

	rec := s.do(t, http.MethodPost, "/api/subscriptions", body, userID)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 must carry Retry-After")
	}
	if payload := decodeError(t, rec); payload.Type != "rate_limited" {
		t.Errorf("error type = %q", payload.Type)
	}

	// Another user is unaffected.
	rec = s.do(t, http.MethodPost, "/api/subscriptions", body, s.node.Generate().String())
	if rec.Code != http.StatusCreated {
		t.Errorf("other user: status = %d, want 201", rec.Code)
	}
}

func TestDuplicatePlanNameConflict(t *testing.T) {
	s := newTestServer(t)
	userID := s.node.Generate().String()

	rec := s.do(t, http.MethodPost, "/api/plans", `{"name":"Basic"}`, userID)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if payload := decodeError(t, rec); payload.Type != "conflict" {
		t.Errorf("error type = %q", payload.Type)
	}
}
