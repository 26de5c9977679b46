// Package report persists run outputs: the prediction file, the metrics
// summary, and a score distribution chart.
package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

// Metrics is the run summary written as JSON. Pointer fields are null when
// the underlying value is undefined, e.g. AUC on a single-class set or the
// positive rate of an empty test partition.
type Metrics struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	FamilyF1 map[string]float64 `json:"family_f1"`
	Weights  map[string]float64 `json:"weights"`

	EnsembleF1  float64  `json:"ensemble_f1"`
	EnsembleAUC *float64 `json:"ensemble_auc"`
	Threshold   float64  `json:"threshold"`

	FeatureCount int `json:"feature_count"`
	TrainRows    int `json:"train_rows"`
	TestRows     int `json:"test_rows"`

	TestPositiveRate *float64 `json:"test_positive_rate"`
}

// Writer writes run outputs under one directory, creating it on demand.
type Writer struct {
	dir string
	log *logger.Logger
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, log: logger.Get().With("component", "report")}
}

// WritePredictions writes claim_number, subrogation_proba and the
// thresholded subrogation_pred. An empty id list still produces a valid
// header-only file; a run with no held-out rows is not an error.
func (w *Writer) WritePredictions(ids []string, probs []float64, threshold float64) (string, error) {
	if len(ids) != len(probs) {
		return "", errors.Wrapf(errors.ErrInvalidInput,
			"ids %d != probabilities %d", len(ids), len(probs))
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create report directory")
	}

	path := filepath.Join(w.dir, "predictions.csv")
	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create predictions file")
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write([]string{"claim_number", "subrogation_proba", "subrogation_pred"}); err != nil {
		return "", errors.Wrap(err, "write predictions header")
	}
	for i, id := range ids {
		pred := "0"
		if probs[i] >= threshold {
			pred = "1"
		}
		row := []string{id, strconv.FormatFloat(probs[i], 'f', 6, 64), pred}
		if err := cw.Write(row); err != nil {
			return "", errors.Wrap(err, "write prediction row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", errors.Wrap(err, "flush predictions")
	}

	w.log.Infof("Wrote %d predictions to %s", len(ids), path)
	return path, nil
}

// WriteMetrics writes the run summary JSON.
func (w *Writer) WriteMetrics(m Metrics) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create report directory")
	}

	path := filepath.Join(w.dir, "metrics.json")
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal metrics")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "write metrics")
	}

	w.log.Infof("Wrote metrics to %s", path)
	return path, nil
}
