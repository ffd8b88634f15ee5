package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/tracker/pkg/tracker/config"
	"github.com/mikepea/tracker/pkg/tracker/database"
	"github.com/mikepea/tracker/pkg/tracker/logger"
	"github.com/mikepea/tracker/pkg/tracker/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Development: cfg.Log.Development,
		OutputPath:  cfg.Log.OutputPath,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLog.Sync()

	db, err := database.Open(cfg.Database, cfg.App.Debug)
	if err != nil {
		appLog.Fatal("failed to connect to database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer database.Close(db)

	if err := models.AutoMigrate(db); err != nil {
		appLog.Fatal("failed to run migrations", zap.Error(err))
	}
	appLog.Info("database migrations completed")

	if err := database.EnsureSuperAdmin(db, cfg.Seed, appLog.Logger); err != nil {
		appLog.Fatal("failed to ensure super admin exists", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r, err := newRouter(cfg, db, appLog, reg)
	if err != nil {
		appLog.Fatal("failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		appLog.Info("starting tracker server", zap.String("addr", srv.Addr), zap.String("environment", cfg.App.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLog.Error("graceful shutdown failed", zap.Error(err))
	}
	appLog.Info("server stopped")
}
