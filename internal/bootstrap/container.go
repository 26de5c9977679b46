// Package bootstrap wires the application dependency graph. Both binaries
// build the same container; the worker binary additionally starts the
// scheduler and HTTP server.
package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"

	chclient "triguard/internal/adapters/clickhouse"
	"triguard/internal/adapters/config"
	"triguard/internal/adapters/errors/noop"
	"triguard/internal/adapters/errors/sentry"
	"triguard/internal/adapters/kafka"
	pgclient "triguard/internal/adapters/postgres"
	"triguard/internal/adapters/telegram"
	"triguard/internal/api"
	"triguard/internal/api/health"
	triageapi "triguard/internal/api/triage"
	"triguard/internal/domain/claims"
	"triguard/internal/events"
	"triguard/internal/metrics"
	"triguard/internal/pipeline"
	"triguard/internal/repository/csvdir"
	"triguard/internal/repository/featurestore"
	pgrepo "triguard/internal/repository/postgres"
	"triguard/internal/workers"
	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Data layer; Postgres and ClickHouse stay nil when unused
	Postgres   *pgclient.Client
	ClickHouse *chclient.Client
	Kafka      *kafka.Producer

	// Pipeline collaborators
	Repo         claims.Repository
	Predictions  *pgrepo.PredictionsRepository
	FeatureStore *featurestore.Sink
	Events       *events.Publisher
	Notifier     *telegram.Notifier
	Runner       *pipeline.Runner

	// Service layer
	Scheduler *workers.Scheduler
	APIServer *api.Server
}

// New builds the full dependency graph from configuration. Connections are
// verified eagerly so a misconfigured deployment fails at startup.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
		Log:    logger.Get(),
	}

	c.initErrorTracker()
	metrics.Init()

	if err := c.initDataSources(ctx); err != nil {
		return nil, err
	}
	c.initSinks()
	c.initRunner()
	c.initWorkers()
	c.initAPI()

	c.Log.Info("Container initialized")
	return c, nil
}

func (c *Container) initErrorTracker() {
	et := c.Config.ErrorTracking
	if !et.Enabled || et.SentryDSN == "" {
		c.Log.Info("Error tracking disabled")
		c.ErrorTracker = noop.New()
	} else if tracker, err := sentry.New(et.SentryDSN, et.Environment); err != nil {
		c.Log.Warnf("Failed to initialize Sentry: %v", err)
		c.ErrorTracker = noop.New()
	} else {
		c.Log.Info("Error tracking initialized (Sentry)")
		c.ErrorTracker = tracker
	}
	logger.SetErrorTracker(c.ErrorTracker)
}

func (c *Container) initDataSources(ctx context.Context) error {
	switch c.Config.Pipeline.Source {
	case "postgres":
		pg, err := pgclient.NewClient(c.Config.Postgres)
		if err != nil {
			return errors.Wrap(err, "connect postgres")
		}
		c.Postgres = pg
		c.Repo = pgrepo.NewTablesRepository(pg.DB(), c.Config.Postgres.Schema)
		c.Log.Infof("Claims source: postgres schema %s", c.Config.Postgres.Schema)
	case "csv":
		c.Repo = csvdir.NewTablesRepository(c.Config.Pipeline.CSVDir)
		c.Log.Infof("Claims source: csv directory %s", c.Config.Pipeline.CSVDir)
	default:
		return errors.Wrapf(errors.ErrInvalidInput,
			"unknown pipeline source %q", c.Config.Pipeline.Source)
	}

	if c.Config.ClickHouse.Enabled {
		ch, err := chclient.NewClient(c.Config.ClickHouse)
		if err != nil {
			return errors.Wrap(err, "connect clickhouse")
		}
		c.ClickHouse = ch
	}

	if c.Config.Kafka.Enabled {
		c.Kafka = kafka.NewProducer(kafka.ProducerConfig{
			Brokers: c.Config.Kafka.Brokers,
		})
	}

	if c.Config.Telegram.Enabled {
		notifier, err := telegram.NewNotifier(
			c.Config.Telegram.BotToken, c.Config.Telegram.ChatID)
		if err != nil {
			return errors.Wrap(err, "create telegram notifier")
		}
		c.Notifier = notifier
	}

	return nil
}

func (c *Container) initSinks() {
	if c.Postgres != nil {
		c.Predictions = pgrepo.NewPredictionsRepository(
			c.Postgres.DB(), c.Config.Postgres.Schema)
		prometheusCollector := metrics.NewCustomCollector(
			c.Log, c.Postgres.DB(), c.Config.Postgres.Schema)
		metrics.Register(prometheusCollector)
	}
	if c.ClickHouse != nil {
		c.FeatureStore = featurestore.NewSink(c.ClickHouse)
	}
	c.Events = events.NewPublisher(c.Kafka, c.Config.Kafka.Topic)
}

func (c *Container) initRunner() {
	c.Runner = pipeline.NewRunner(c.Config.Pipeline, pipeline.Deps{
		Repo:         c.Repo,
		Events:       c.Events,
		FeatureStore: c.FeatureStore,
		Predictions:  c.Predictions,
	})
}

func (c *Container) initWorkers() {
	c.Scheduler = workers.NewScheduler()
	c.Scheduler.RegisterWorker(workers.NewRetrainWorker(
		c.Runner,
		c.Notifier,
		c.Config.Worker.RetrainInterval,
		c.Config.Worker.RetrainEnabled,
	))
}

func (c *Container) initAPI() {
	healthHandler := health.New(
		c.Log,
		c.postgresDB(),
		c.ClickHouse,
		c.Config.App.Name,
		"dev",
	)
	c.APIServer = api.NewServer(api.ServerConfig{
		Addr:        c.Config.API.Addr,
		ServiceName: c.Config.App.Name,
		Version:     "dev",
	}, healthHandler, triageapi.NewHandler(), c.Scheduler, c.Log)
}

func (c *Container) postgresDB() *sqlx.DB {
	if c.Postgres == nil {
		return nil
	}
	return c.Postgres.DB()
}

// Shutdown closes connections in reverse initialization order.
func (c *Container) Shutdown(ctx context.Context) {
	if c.APIServer != nil {
		if err := c.APIServer.Shutdown(ctx); err != nil {
			c.Log.Warnf("API shutdown: %v", err)
		}
	}
	if c.Scheduler != nil && c.Scheduler.IsRunning() {
		if err := c.Scheduler.Stop(); err != nil {
			c.Log.Warnf("Scheduler stop: %v", err)
		}
	}
	if c.Kafka != nil {
		if err := c.Kafka.Close(); err != nil {
			c.Log.Warnf("Kafka close: %v", err)
		}
	}
	if c.ClickHouse != nil {
		if err := c.ClickHouse.Close(); err != nil {
			c.Log.Warnf("ClickHouse close: %v", err)
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			c.Log.Warnf("Postgres close: %v", err)
		}
	}
	if c.ErrorTracker != nil {
		if err := c.ErrorTracker.Flush(ctx); err != nil {
			c.Log.Warnf("Error tracker flush: %v", err)
		}
	}
}
