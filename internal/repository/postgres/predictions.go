package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"triguard/internal/metrics"
	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

// PredictionsRepository persists scored claims so later runs and dashboards
// can compare probability drift per claim.
type PredictionsRepository struct {
	db     *sqlx.DB
	schema string
	log    *logger.Logger
}

// NewPredictionsRepository creates a repository over the given schema
func NewPredictionsRepository(db *sqlx.DB, schema string) *PredictionsRepository {
	return &PredictionsRepository{
		db:     db,
		schema: schema,
		log:    logger.Get().With("component", "postgres_predictions"),
	}
}

// Save writes one run's predictions in a single transaction.
func (r *PredictionsRepository) Save(ctx context.Context, runID uuid.UUID, ids []string, probs []float64, threshold float64) error {
	if len(ids) != len(probs) {
		return errors.Wrapf(errors.ErrInvalidInput,
			"ids %d != probabilities %d", len(ids), len(probs))
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		metrics.RecordDBQuery("postgres", "save_predictions", err)
		return errors.Wrap(err, "begin predictions transaction")
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s."subrogation_prediction"
			(run_id, claim_number, subrogation_proba, subrogation_pred)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, claim_number) DO UPDATE SET
			subrogation_proba = EXCLUDED.subrogation_proba,
			subrogation_pred  = EXCLUDED.subrogation_pred`, r.schema)

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		metrics.RecordDBQuery("postgres", "save_predictions", err)
		return errors.Wrap(err, "prepare predictions insert")
	}
	defer stmt.Close()

	for i, id := range ids {
		pred := 0
		if probs[i] >= threshold {
			pred = 1
		}
		if _, err := stmt.ExecContext(ctx, runID, id, probs[i], pred); err != nil {
			metrics.RecordDBQuery("postgres", "save_predictions", err)
			return errors.Wrapf(err, "insert prediction for claim %s", id)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordDBQuery("postgres", "save_predictions", err)
		return errors.Wrap(err, "commit predictions")
	}

	metrics.RecordDBQuery("postgres", "save_predictions", nil)
	r.log.Infof("Persisted %d predictions for run %s", len(ids), runID)
	return nil
}
