package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/tracker/pkg/tracker/auth"
	"github.com/mikepea/tracker/pkg/tracker/config"
	"github.com/mikepea/tracker/pkg/tracker/domains"
	"github.com/mikepea/tracker/pkg/tracker/lifecycle"
	"github.com/mikepea/tracker/pkg/tracker/locale"
	"github.com/mikepea/tracker/pkg/tracker/logger"
	"github.com/mikepea/tracker/pkg/tracker/metrics"
	"github.com/mikepea/tracker/pkg/tracker/middleware"
	"github.com/mikepea/tracker/pkg/tracker/organizations"
	"github.com/mikepea/tracker/pkg/tracker/ownership"
	"github.com/mikepea/tracker/pkg/tracker/permissions"
	"github.com/mikepea/tracker/pkg/tracker/roles"
	"github.com/mikepea/tracker/pkg/tracker/store"
	"github.com/mikepea/tracker/pkg/tracker/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// newRouter wires every component over db and registers all routes.
func newRouter(cfg *config.Config, db *gorm.DB, appLog *logger.Logger, reg *prometheus.Registry) (*gin.Engine, error) {
	presenter, err := locale.New(cfg.Locale.Default)
	if err != nil {
		return nil, err
	}
	m := metrics.New(reg)

	zl := appLog.Logger
	s := store.New(db)
	evaluator := permissions.NewEvaluator(s, zl)
	resolver := ownership.NewResolver(s, zl)
	engine := lifecycle.NewEngine(s, evaluator, zl, m)
	roleService := roles.NewService(s, evaluator, zl, m)
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(appLog), middleware.Metrics(m))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// API routes
	api := r.Group("/api")
	api.Use(locale.Middleware(presenter))
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": cfg.App.Name,
			})
		})

		// Auth routes (public, rate limited per client)
		authHandler := auth.NewHandler(db, tokens, zl)
		authHandler.RegisterRoutes(api.Group("/auth", middleware.RateLimit(1, 10, 10*time.Minute)))

		protected := api.Group("", auth.Middleware(tokens))

		orgHandler := organizations.NewHandler(s, engine, roleService, evaluator, presenter, zl)
		orgGroup := protected.Group("/organizations")
		orgHandler.RegisterRoutes(orgGroup)
		orgHandler.RegisterMemberRoutes(orgGroup)

		domainHandler := domains.NewHandler(s, resolver, zl)
		domainHandler.RegisterRoutes(protected.Group("/domains"))

		userHandler := users.NewHandler(s, evaluator, presenter, zl)
		userHandler.RegisterRoutes(protected.Group("/users"))
	}

	return r, nil
}
