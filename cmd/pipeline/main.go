// Command pipeline executes one training run and exits. Used for ad-hoc
// retrains and CI; the scheduled service lives in cmd/worker.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"triguard/internal/adapters/config"
	pgclient "triguard/internal/adapters/postgres"
	"triguard/internal/bootstrap"
	"triguard/pkg/logger"
)

func main() {
	migrate := flag.Bool("migrate", false, "apply database migrations before running")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s pipeline in %s mode", cfg.App.Name, cfg.App.Env)

	if *migrate && cfg.Pipeline.Source == "postgres" {
		if err := pgclient.Migrate(cfg.Postgres); err != nil {
			log.Fatalf("Migrations failed: %v", err)
		}
		log.Info("Migrations applied")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the run on SIGINT/SIGTERM so a partial run does not persist
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Warn("Interrupted, cancelling run")
		cancel()
	}()

	container, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer container.Shutdown(context.Background())

	if container.FeatureStore != nil {
		if err := container.FeatureStore.EnsureSchema(ctx); err != nil {
			log.Warnf("Feature store schema check failed: %v", err)
		}
	}

	summary, err := container.Runner.Run(ctx)
	if err != nil {
		log.Fatalf("Pipeline run failed: %v", err)
	}

	log.Infof("Run %s complete: OOF F1=%.5f threshold=%.3f train=%d test=%d",
		summary.RunID, summary.Metrics.EnsembleF1, summary.Metrics.Threshold,
		summary.Metrics.TrainRows, summary.Metrics.TestRows)
}
