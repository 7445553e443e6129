// Package server exposes the authoritative connection API plus the tier,
// subscription and usage surfaces over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/venturebridge/venturebridge/internal/config"
	connectiondomain "github.com/venturebridge/venturebridge/internal/connection/domain"
	connectionrepo "github.com/venturebridge/venturebridge/internal/connection/repository"
	obslogger "github.com/venturebridge/venturebridge/internal/observability/logger"
	obsmetrics "github.com/venturebridge/venturebridge/internal/observability/metrics"
	obstracing "github.com/venturebridge/venturebridge/internal/observability/tracing"
	"github.com/venturebridge/venturebridge/internal/pricing"
	"github.com/venturebridge/venturebridge/internal/ratelimit"
	subscriptiondomain "github.com/venturebridge/venturebridge/internal/subscription/domain"
	"github.com/venturebridge/venturebridge/internal/tier"
	usagedomain "github.com/venturebridge/venturebridge/internal/usage/domain"
)

func NewEngine(log *zap.Logger, m *obsmetrics.Metrics, reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Log:             log.Named("http"),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(m.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	db              *gorm.DB
	store           *connectionrepo.Store
	registry        *tier.Registry
	localizer       *pricing.Localizer
	subscriptionSvc subscriptiondomain.Service
	usageSvc        usagedomain.Service
	limiter         *ratelimit.RequestLimiter
	metrics         *obsmetrics.Metrics
}

type Params struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	DB              *gorm.DB
	Store           *connectionrepo.Store
	Registry        *tier.Registry
	Localizer       *pricing.Localizer
	SubscriptionSvc subscriptiondomain.Service
	UsageSvc        usagedomain.Service
	Limiter         *ratelimit.RequestLimiter `optional:"true"`
	Metrics         *obsmetrics.Metrics       `optional:"true"`
}

func NewServer(p Params) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("server"),
		db:              p.DB,
		store:           p.Store,
		registry:        p.Registry,
		localizer:       p.Localizer,
		subscriptionSvc: p.SubscriptionSvc,
		usageSvc:        p.UsageSvc,
		limiter:         p.Limiter,
		metrics:         p.Metrics,
	}

	s.registerAPIRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AccountContext())

	// -------- Connections --------
	api.POST("/connections", s.MutationRateLimit(), s.CreateConnection)
	api.GET("/connections/status", s.GetConnectionStatus)
	api.POST("/connections/:id/status", s.MutationRateLimit(), s.UpdateConnectionStatus)
	api.POST("/connections/:id/accept", s.MutationRateLimit(), s.transition(connectiondomain.StatusAccepted))
	api.POST("/connections/:id/decline", s.MutationRateLimit(), s.transition(connectiondomain.StatusDeclined))
	api.POST("/connections/:id/close", s.MutationRateLimit(), s.CloseConnectionDeal)
	api.DELETE("/connections/:id", s.MutationRateLimit(), s.DeleteConnection)

	// -------- Tiers --------
	api.GET("/tiers", s.ListTiers)
	api.GET("/tiers/:id/price", s.GetTierPrice)

	// -------- Accounts --------
	api.GET("/accounts/:id/subscription", s.GetSubscription)
	api.PUT("/accounts/:id/subscription", s.MutationRateLimit(), s.PutSubscription)
	api.GET("/accounts/:id/usage", s.GetUsage)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.Engine(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(
		NewEngine,
		NewServer,
	),
	fx.Invoke(run),
)
