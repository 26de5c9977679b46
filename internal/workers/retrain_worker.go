package workers

import (
	"context"
	"time"

	"triguard/internal/adapters/telegram"
	"triguard/internal/pipeline"
)

// RetrainWorker runs the full training pipeline on a fixed schedule so the
// deployed model tracks fresh claims data. One iteration is one complete
// run: load, split, engineer, train, report.
type RetrainWorker struct {
	*BaseWorker
	runner   *pipeline.Runner
	notifier *telegram.Notifier
}

// NewRetrainWorker creates the scheduled retraining worker. The notifier is
// optional and may be nil.
func NewRetrainWorker(runner *pipeline.Runner, notifier *telegram.Notifier, interval time.Duration, enabled bool) *RetrainWorker {
	return &RetrainWorker{
		BaseWorker: NewBaseWorker("retrain", interval, enabled),
		runner:     runner,
		notifier:   notifier,
	}
}

// Run executes one retraining iteration
func (w *RetrainWorker) Run(ctx context.Context) error {
	start := time.Now()

	summary, err := w.runner.Run(ctx)
	if err != nil {
		w.RecordError(err, time.Since(start))
		if w.notifier != nil {
			if notifyErr := w.notifier.NotifyRunFailed("unknown", err); notifyErr != nil {
				w.Log().Warnf("Failed to notify run failure: %v", notifyErr)
			}
		}
		return err
	}

	w.RecordRun(time.Since(start))
	if w.notifier != nil {
		if notifyErr := w.notifier.NotifyRunCompleted(
			summary.RunID.String(),
			summary.Metrics.EnsembleF1,
			summary.Metrics.Threshold,
			summary.Metrics.TestRows,
			summary.Elapsed,
		); notifyErr != nil {
			w.Log().Warnf("Failed to notify run completion: %v", notifyErr)
		}
	}

	return nil
}
