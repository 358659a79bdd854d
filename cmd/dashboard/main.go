package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"registration-analytics/config"
	"registration-analytics/internal/api"
	"registration-analytics/internal/api/handler"
	"registration-analytics/internal/app"
	"registration-analytics/internal/logger"
)

// @title Registration Analytics API
// @version 1.0
// @description Course-registration dashboard tables computed from the registration collection.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	log := logger.GetAppLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := logger.Init(cfg.LogConfig()); err != nil {
		log.WithError(err).Fatal("Failed to initialize logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to start")
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Warn("Failed to release resources")
		}
	}()

	// Warm the snapshot; the API retries lazily if this fails
	if _, err := a.Service.Snapshot(ctx); err != nil {
		log.WithError(err).Warn("Initial snapshot load failed")
	}

	var runs handler.RunReader
	if a.Store != nil {
		runs = a.Store
	}

	r := api.NewRouter(handler.New(a.Service, runs), a.Registry)
	if err := r.Start(ctx, cfg.Address); err != nil {
		log.WithError(err).Error("Server stopped")
	}
}
