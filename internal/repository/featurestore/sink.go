// Package featurestore archives engineered feature matrices to ClickHouse
// in long format, one row per (claim, feature). The archive is append-only
// and keyed by run so feature drift between retrains can be queried.
package featurestore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"triguard/internal/adapters/clickhouse"
	"triguard/internal/features"
	"triguard/internal/metrics"
	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

const createTableDDL = `
CREATE TABLE IF NOT EXISTS feature_values (
	run_id       UUID,
	partition    LowCardinality(String),
	claim_number String,
	feature      LowCardinality(String),
	value        Float64,
	created_at   DateTime DEFAULT now()
) ENGINE = MergeTree()
ORDER BY (run_id, feature, claim_number)`

// Sink writes feature sets into the ClickHouse archive.
type Sink struct {
	client *clickhouse.Client
	log    *logger.Logger
}

// NewSink creates a feature store sink
func NewSink(client *clickhouse.Client) *Sink {
	return &Sink{
		client: client,
		log:    logger.Get().With("component", "featurestore"),
	}
}

// EnsureSchema creates the archive table when missing.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if err := s.client.Exec(ctx, createTableDDL); err != nil {
		metrics.RecordDBQuery("clickhouse", "ensure_schema", err)
		return errors.Wrap(err, "create feature_values table")
	}
	metrics.RecordDBQuery("clickhouse", "ensure_schema", nil)
	return nil
}

// WriteFeatures appends one partition's numeric feature columns in a single
// batch. Missing values are stored as NaN, which ClickHouse Float64 holds
// natively.
func (s *Sink) WriteFeatures(ctx context.Context, runID uuid.UUID, partition string, fs *features.FeatureSet) error {
	if fs == nil || fs.Rows() == 0 {
		return nil
	}

	batch, err := s.client.Conn().PrepareBatch(ctx,
		"INSERT INTO feature_values (run_id, partition, claim_number, feature, value, created_at)")
	if err != nil {
		metrics.RecordDBQuery("clickhouse", "write_features", err)
		return errors.Wrap(err, "prepare feature batch")
	}

	now := time.Now().UTC()
	count := 0
	for _, name := range fs.NumericNames() {
		col, _ := fs.Column(name)
		for i, v := range col {
			if err := batch.Append(runID, partition, fs.IDs[i], name, v, now); err != nil {
				metrics.RecordDBQuery("clickhouse", "write_features", err)
				return errors.Wrapf(err, "append feature %s", name)
			}
			count++
		}
	}

	if err := batch.Send(); err != nil {
		metrics.RecordDBQuery("clickhouse", "write_features", err)
		return errors.Wrap(err, "send feature batch")
	}

	metrics.RecordDBQuery("clickhouse", "write_features", nil)
	s.log.Infof("Archived %d feature values (%s partition, run %s)", count, partition, runID)
	return nil
}
