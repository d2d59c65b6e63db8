package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/cache"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/clock"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/config"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/events"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature"
	featuredomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/domain"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/observability/httplog"
	obsmetrics "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/observability/metrics"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/observability/tracing"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan"
	plandomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/domain"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/ratelimit"
	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/subscription"
	subscriptiondomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/subscription/domain"
)

var Module = fx.Module("http.server",
	obsmetrics.Module,
	tracing.Module,
	events.Module,
	ratelimit.Module,
	clock.Module,
	cache.Module,
	feature.Module,
	plan.Module,
	subscription.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httplog.GinMiddleware(log))
	r.Use(tracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger

	subscriptionSvc subscriptiondomain.Service
	planSvc         plandomain.Service
	featureSvc      featuredomain.Service
	writeLimiter    *ratelimit.WriteLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	SubscriptionSvc subscriptiondomain.Service
	PlanSvc         plandomain.Service
	FeatureSvc      featuredomain.Service
	WriteLimiter    *ratelimit.WriteLimiter
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http"),
		subscriptionSvc: p.SubscriptionSvc,
		planSvc:         p.PlanSvc,
		featureSvc:      p.FeatureSvc,
		writeLimiter:    p.WriteLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Plans --------
	api.GET("/plans", s.ListActivePlans)
	api.GET("/plans/:id", s.GetPlan)
	api.POST("/plans", s.IdentityRequired(), s.CreatePlan)
	api.PUT("/plans/:id", s.IdentityRequired(), s.UpdatePlan)

	// -------- Features --------
	api.GET("/features", s.IdentityRequired(), s.ListFeatures)
	api.POST("/features", s.IdentityRequired(), s.CreateFeature)
	api.PUT("/features/:id", s.IdentityRequired(), s.UpdateFeature)

	// -------- Subscriptions --------
	subs := api.Group("/subscriptions", s.IdentityRequired())
	subs.GET("", s.ListSubscriptions)
	subs.POST("", s.rateLimitWrite(s.writeLimiter.AllowCreate), s.CreateSubscription)
	subs.GET("/active", s.GetActiveSubscription)
	subs.PUT("/:id/change-plan", s.rateLimitWrite(s.writeLimiter.AllowPlanChange), s.ChangePlan)
	subs.POST("/:id/deactivate", s.rateLimitWrite(s.writeLimiter.AllowDeactivate), s.DeactivateSubscription)
}
