package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/tenura/internal/config"
	curvedomain "github.com/smallbiznis/tenura/internal/curve/domain"
	obslogger "github.com/smallbiznis/tenura/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/tenura/internal/observability/metrics"
	rewarddomain "github.com/smallbiznis/tenura/internal/reward/domain"
	subscriptiondomain "github.com/smallbiznis/tenura/internal/subscription/domain"
	tierdomain "github.com/smallbiznis/tenura/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *obsmetrics.HTTP) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(httpMetrics *obsmetrics.HTTP) *gin.Engine {
	return NewEngine(httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
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

type Server struct {
	engine *gin.Engine
	cfg    config.Config

	tierSvc         tierdomain.Service
	curveSvc        curvedomain.Service
	subscriptionSvc subscriptiondomain.Service
	rewardSvc       rewarddomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	TierSvc         tierdomain.Service
	CurveSvc        curvedomain.Service
	SubscriptionSvc subscriptiondomain.Service
	RewardSvc       rewarddomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		tierSvc:         p.TierSvc,
		curveSvc:        p.CurveSvc,
		subscriptionSvc: p.SubscriptionSvc,
		rewardSvc:       p.RewardSvc,
	}
}

func registerRoutes(s *Server) {
	v1 := s.engine.Group("/v1")

	tiers := v1.Group("/tiers")
	tiers.GET("", s.ListTiers)
	tiers.POST("", s.CreateTier)
	tiers.GET("/:id", s.GetTier)
	tiers.PUT("/:id", s.UpdateTier)

	curves := v1.Group("/curves")
	curves.POST("", s.CreateCurve)
	curves.GET("/:id", s.GetCurve)
	curves.GET("/:id/multiplier", s.GetCurveMultiplier)

	subs := v1.Group("/subscriptions")
	subs.POST("/purchase", s.Purchase)
	subs.POST("/grant", s.Grant)
	subs.POST("/:account/revoke", s.RevokeTime)
	subs.POST("/:account/refund", s.Refund)
	subs.POST("/:account/switch", s.SwitchTier)
	subs.POST("/:account/deactivate", s.Deactivate)
	subs.GET("/:account", s.GetSubscription)
	subs.GET("/:account/remaining", s.GetRemainingSeconds)

	rewards := v1.Group("/rewards")
	rewards.GET("/pool", s.GetRewardPool)
	rewards.POST("/allocate", s.AllocateRewards)
	rewards.GET("/holders/:account", s.GetRewardBalance)
	rewards.POST("/holders/:account/claim", s.ClaimRewards)
	rewards.POST("/holders/:account/burn", s.BurnShares)
}
