package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"triguard/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	Pipeline      PipelineConfig
	ErrorTracking ErrorTrackingConfig
	Worker        WorkerConfig
	API           APIConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"triguard"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// PostgresConfig reads the libpq-style variables the claims warehouse is
// provisioned with. Required only when PIPELINE_SOURCE=postgres; validated
// in Validate rather than via struct tags so CSV runs need no database.
type PostgresConfig struct {
	Host     string `envconfig:"PGHOST"`
	Port     int    `envconfig:"PGPORT" default:"5432"`
	User     string `envconfig:"PGUSER"`
	Password string `envconfig:"PGPASSWORD"`
	Database string `envconfig:"PGDATABASE"`
	SSLMode  string `envconfig:"PGSSLMODE" default:"require"`
	Schema   string `envconfig:"PGSCHEMA" default:"stg"`
	MaxConns int    `envconfig:"PGMAXCONNS" default:"10"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the connection string form used by golang-migrate
func (c PostgresConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"triguard"`
}

func (c ClickHouseConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_RUNS_TOPIC" default:"pipeline.runs"`
}

type TelegramConfig struct {
	Enabled  bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// PipelineConfig carries every knob of a single training run.
type PipelineConfig struct {
	// Source selects where the five tables come from: postgres or csv
	Source string `envconfig:"PIPELINE_SOURCE" default:"postgres"`
	CSVDir string `envconfig:"PIPELINE_CSV_DIR" default:"data/tri_guard_5_py_clean"`

	// Held-out calendar month used as the test partition
	CutoffYear  int `envconfig:"PIPELINE_CUTOFF_YEAR" default:"2016"`
	CutoffMonth int `envconfig:"PIPELINE_CUTOFF_MONTH" default:"9"`

	Folds int   `envconfig:"PIPELINE_CV_FOLDS" default:"5"`
	Seed  int64 `envconfig:"PIPELINE_SEED" default:"42"`

	// HPOEnabled switches between a full hyperparameter search and the
	// pre-optimized symmetric-tree parameters. Both entry points read this
	// flag so standalone and scheduled runs cannot silently diverge.
	HPOEnabled bool `envconfig:"PIPELINE_HPO_ENABLED" default:"false"`
	HPOTrials  int  `envconfig:"PIPELINE_HPO_TRIALS" default:"20"`

	ArtifactsDir string `envconfig:"PIPELINE_ARTIFACTS_DIR" default:"artifacts"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig configures the scheduled retraining service
type WorkerConfig struct {
	RetrainInterval time.Duration `envconfig:"WORKER_RETRAIN_INTERVAL" default:"720h"` // monthly
	RetrainEnabled  bool          `envconfig:"WORKER_RETRAIN_ENABLED" default:"true"`
}

type APIConfig struct {
	Addr string `envconfig:"API_ADDR" default:":8080"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces the per-source required variables. Missing connection
// parameters are a configuration error, reported before any computation.
func (c *Config) Validate() error {
	switch c.Pipeline.Source {
	case "postgres":
		for name, v := range map[string]string{
			"PGHOST":     c.Postgres.Host,
			"PGUSER":     c.Postgres.User,
			"PGPASSWORD": c.Postgres.Password,
			"PGDATABASE": c.Postgres.Database,
		} {
			if v == "" {
				return errors.Newf("missing required environment variable %s", name)
			}
		}
	case "csv":
		if c.Pipeline.CSVDir == "" {
			return errors.New("PIPELINE_CSV_DIR must be set when PIPELINE_SOURCE=csv")
		}
	default:
		return errors.Newf("unknown PIPELINE_SOURCE %q (want postgres or csv)", c.Pipeline.Source)
	}

	if c.Pipeline.CutoffMonth < 1 || c.Pipeline.CutoffMonth > 12 {
		return errors.Newf("PIPELINE_CUTOFF_MONTH %d out of range", c.Pipeline.CutoffMonth)
	}
	if c.Pipeline.Folds < 2 {
		return errors.Newf("PIPELINE_CV_FOLDS must be at least 2, got %d", c.Pipeline.Folds)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS must be set when KAFKA_ENABLED=true")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN must be set when TELEGRAM_ENABLED=true")
	}

	return nil
}
