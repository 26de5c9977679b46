// Command worker runs the long-lived service: the scheduled retrain worker
// plus the HTTP API (health, metrics, triage calculator).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"triguard/internal/adapters/config"
	pgclient "triguard/internal/adapters/postgres"
	"triguard/internal/bootstrap"
	"triguard/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s worker in %s mode", cfg.App.Name, cfg.App.Env)

	if cfg.Pipeline.Source == "postgres" {
		if err := pgclient.Migrate(cfg.Postgres); err != nil {
			log.Fatalf("Migrations failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	if container.FeatureStore != nil {
		if err := container.FeatureStore.EnsureSchema(ctx); err != nil {
			log.Warnf("Feature store schema check failed: %v", err)
		}
	}

	if err := container.Scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	go func() {
		if err := container.APIServer.Start(); err != nil {
			log.Errorf("HTTP server error: %v", err)
			cancel()
		}
	}()

	log.Info("Service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info("Shutting down...")
	case <-ctx.Done():
		log.Warn("Context cancelled, shutting down...")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	container.Shutdown(shutdownCtx)

	log.Info("Shutdown complete")
}
