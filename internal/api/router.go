package api

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/green-credits/config"
	_ "github.com/d60-Lab/green-credits/docs"
	"github.com/d60-Lab/green-credits/internal/api/handler"
	"github.com/d60-Lab/green-credits/internal/api/middleware"
)

// SetupRouter 注册中间件与路由
func SetupRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.AccessLog())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if cfg.Storage.Backend == "local" && cfg.Storage.PublicPrefix != "" {
		r.Static(cfg.Storage.PublicPrefix, cfg.Storage.LocalDir)
	}

	limiter := middleware.NewUserRateLimiter(cfg.RateLimit)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWT))
	{
		v1.GET("/action-types", h.ListActionTypes)

		claims := v1.Group("/claims")
		claims.POST("", limiter.Middleware(), h.SubmitClaim)
		claims.GET("", h.ListMyClaims)
		claims.GET("/:id", h.GetClaim)
		claims.GET("/:id/similar", middleware.RequireReviewer(), h.SimilarClaims)
		claims.POST("/:id/votes", h.CastVote)

		v1.GET("/review/queue", middleware.RequireReviewer(), h.ReviewQueue)

		v1.GET("/wallet", h.Wallet)
		v1.GET("/ledger/statement", h.Statement)
		v1.GET("/multiplier", h.Multiplier)

		v1.GET("/rewards", h.ListRewards)
		v1.POST("/rewards/:id/redeem", h.Redeem)

		v1.POST("/quizzes/:id/attempts", h.SubmitQuiz)
	}
	return r
}
