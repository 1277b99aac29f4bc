package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/prop-projector/internal/api"
	"github.com/stitts-dev/prop-projector/internal/api/handlers"
	"github.com/stitts-dev/prop-projector/internal/api/middleware"
	"github.com/stitts-dev/prop-projector/internal/app"
	"github.com/stitts-dev/prop-projector/internal/services"
	"github.com/stitts-dev/prop-projector/pkg/config"
	"github.com/stitts-dev/prop-projector/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer application.Close()

	if err := application.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Scheduled retraining
	if cfg.EnableRetrainJob {
		scheduler := services.NewRetrainScheduler(application.Training, cfg.RetrainSchedule, application.RetrainRequest, log)
		if err := scheduler.Start(); err != nil {
			log.Errorf("Failed to start retrain scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	checks := map[string]handlers.Pinger{
		"database": handlers.PingFunc(func(ctx context.Context) error { return application.DB.HealthCheck() }),
	}
	if application.Redis != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error { return application.Redis.Ping(ctx).Err() })
	}
	health := handlers.NewHealthHandler(checks)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))

	api.SetupOperational(router, health, application.Registry)
	api.SetupRoutes(router.Group("/api/v1"), api.Handlers{
		Projection: handlers.NewProjectionHandler(application.Projection),
		Models:     handlers.NewModelHandler(application.Training),
		Health:     health,
	}, cfg)

	for _, route := range router.Routes() {
		log.Debugf("%s %s", route.Method, route.Path)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // train-all runs inline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
