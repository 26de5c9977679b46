// Package pipeline orchestrates one training run: load, split, engineer,
// optional hyperparameter search, ensemble training, and reporting. Stages
// run strictly in sequence since each consumes the previous stage's full
// output.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"triguard/internal/adapters/config"
	"triguard/internal/boost"
	"triguard/internal/dataset"
	"triguard/internal/domain/claims"
	"triguard/internal/ensemble"
	"triguard/internal/events"
	"triguard/internal/features"
	"triguard/internal/hpo"
	"triguard/internal/metrics"
	"triguard/internal/report"
	"triguard/internal/repository/featurestore"
	"triguard/internal/repository/postgres"
	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

// Deps are the runner's collaborators. Only Repo is required; the optional
// sinks are nil when their backing service is disabled.
type Deps struct {
	Repo         claims.Repository
	Events       *events.Publisher
	FeatureStore *featurestore.Sink
	Predictions  *postgres.PredictionsRepository
}

// Summary is the outcome of one completed run.
type Summary struct {
	RunID   uuid.UUID
	Metrics report.Metrics
	Elapsed time.Duration
}

// Runner executes pipeline runs. Each run is self-contained: fresh data,
// fresh artifacts, fresh models.
type Runner struct {
	cfg  config.PipelineConfig
	deps Deps
	log  *logger.Logger
}

func NewRunner(cfg config.PipelineConfig, deps Deps) *Runner {
	return &Runner{
		cfg:  cfg,
		deps: deps,
		log:  logger.Get().With("component", "pipeline"),
	}
}

// Run executes one full pipeline run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.New()
	started := time.Now()
	log := r.log.With("run_id", runID.String())

	log.Infof("Starting pipeline run (cutoff %d-%02d, folds=%d, seed=%d)",
		r.cfg.CutoffYear, r.cfg.CutoffMonth, r.cfg.Folds, r.cfg.Seed)
	_ = r.deps.Events.PublishRunStarted(ctx, runID)

	summary, err := r.run(ctx, runID, log)
	elapsed := time.Since(started)
	metrics.RecordPipelineRun(elapsed, err)

	if err != nil {
		log.Errorf("Pipeline run failed after %s: %v", elapsed, err)
		_ = r.deps.Events.PublishRunFailed(ctx, runID, err)
		return nil, err
	}

	summary.Elapsed = elapsed
	log.Infof("Pipeline run finished in %s (ensemble F1=%.5f)",
		elapsed, summary.Metrics.EnsembleF1)
	_ = r.deps.Events.PublishRunCompleted(ctx, runID,
		summary.Metrics.EnsembleF1, summary.Metrics.Threshold,
		summary.Metrics.TrainRows, summary.Metrics.TestRows)
	return summary, nil
}

func (r *Runner) run(ctx context.Context, runID uuid.UUID, log *logger.Logger) (*Summary, error) {
	// Load and join
	stageStart := time.Now()
	tables, err := r.deps.Repo.LoadTables(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load stage")
	}
	joined := dataset.Join(tables)
	metrics.RecordStage("load", time.Since(stageStart))
	log.Infof("Joined %d claims", joined.NumRows())

	// Split on the cutoff month
	stageStart = time.Now()
	trainFrame, testFrame := dataset.SplitByMonth(joined,
		r.cfg.CutoffYear, time.Month(r.cfg.CutoffMonth))
	metrics.RecordStage("split", time.Since(stageStart))
	log.Infof("Split: train=%d test=%d", trainFrame.NumRows(), testFrame.NumRows())

	// Engineer features, training statistics first
	stageStart = time.Now()
	eng := features.NewEngineer()
	trainFS, artifacts, err := eng.Fit(trainFrame)
	if err != nil {
		return nil, errors.Wrap(err, "feature stage")
	}

	var testFS *features.FeatureSet
	if testFrame.NumRows() > 0 {
		if testFS, err = eng.Transform(testFrame, artifacts); err != nil {
			return nil, errors.Wrap(err, "feature stage")
		}
	}

	artifactsPath := filepath.Join(r.cfg.ArtifactsDir, "artifacts.json")
	if err := artifacts.Save(artifactsPath); err != nil {
		log.Warnf("Failed to persist artifacts: %v", err)
	}
	metrics.RecordStage("features", time.Since(stageStart))

	// Hyperparameter search for the oblivious family, or fixed defaults
	stageStart = time.Now()
	obliviousParams := ensemble.ObliviousDefaults()
	if r.cfg.HPOEnabled {
		searcher := hpo.NewSearcher(hpo.Config{
			Trials: r.cfg.HPOTrials,
			Seed:   r.cfg.Seed,
			CV:     r.ensembleConfig(),
		})
		best, trials, err := searcher.Optimize(trainFS)
		if err != nil {
			return nil, errors.Wrap(err, "search stage")
		}
		log.Infof("Search selected parameters after %d trials", len(trials))
		r.applySearched(&obliviousParams, best)
	}
	metrics.RecordStage("hpo", time.Since(stageStart))

	// Cross-validated ensemble
	stageStart = time.Now()
	trainer := ensemble.NewTrainer(r.ensembleConfig(),
		ensemble.DefaultMembers(obliviousParams))
	result, err := trainer.Train(trainFS, testFS)
	if err != nil {
		return nil, errors.Wrap(err, "ensemble stage")
	}
	metrics.RecordStage("ensemble", time.Since(stageStart))

	// Report
	stageStart = time.Now()
	summary, err := r.report(ctx, runID, trainFS, testFS, result)
	if err != nil {
		return nil, errors.Wrap(err, "report stage")
	}
	metrics.RecordStage("report", time.Since(stageStart))

	return summary, nil
}

func (r *Runner) ensembleConfig() ensemble.Config {
	return ensemble.Config{
		Folds: r.cfg.Folds,
		Seed:  r.cfg.Seed,
	}
}

// applySearched keeps the fixed iteration budget and early stopping while
// adopting the searched shape and regularization parameters.
func (r *Runner) applySearched(dst *boost.Params, found boost.Params) {
	dst.LearningRate = found.LearningRate
	dst.MaxDepth = found.MaxDepth
	dst.MinChildSamples = found.MinChildSamples
	dst.RegLambda = found.RegLambda
	dst.BaggingTemperature = found.BaggingTemperature
	dst.RandomStrength = found.RandomStrength
}

func (r *Runner) report(ctx context.Context, runID uuid.UUID, trainFS, testFS *features.FeatureSet, result *ensemble.Result) (*Summary, error) {
	writer := report.NewWriter(r.cfg.ArtifactsDir)

	testIDs := []string{}
	testProbs := []float64{}
	testRows := 0
	if testFS != nil {
		testIDs = testFS.IDs
		testProbs = result.TestProbs
		testRows = testFS.Rows()
	}

	if _, err := writer.WritePredictions(testIDs, testProbs, result.Threshold); err != nil {
		return nil, err
	}

	m := report.Metrics{
		RunID:        runID.String(),
		GeneratedAt:  time.Now().UTC(),
		FamilyF1:     result.FamilyF1,
		Weights:      result.Weights,
		EnsembleF1:   result.F1,
		Threshold:    result.Threshold,
		FeatureCount: len(result.FeatureNames),
		TrainRows:    trainFS.Rows(),
		TestRows:     testRows,
	}
	if result.AUCDefined {
		auc := result.AUC
		m.EnsembleAUC = &auc
	}
	if testRows > 0 {
		positives := 0
		for _, p := range testProbs {
			if p >= result.Threshold {
				positives++
			}
		}
		rate := float64(positives) / float64(testRows)
		m.TestPositiveRate = &rate
	}

	if _, err := writer.WriteMetrics(m); err != nil {
		return nil, err
	}
	if _, err := writer.WriteScoreChart(runID.String(), result.OOF, testProbs); err != nil {
		return nil, err
	}

	r.updateGauges(result, trainFS.Rows(), testRows)

	// Optional sinks; their failures degrade the run, not abort it.
	if r.deps.Predictions != nil && testRows > 0 {
		if err := r.deps.Predictions.Save(ctx, runID, testIDs, testProbs, result.Threshold); err != nil {
			r.log.Errorf("Failed to persist predictions: %v", err)
		}
	}
	if r.deps.FeatureStore != nil {
		if err := r.deps.FeatureStore.WriteFeatures(ctx, runID, "train", trainFS); err != nil {
			r.log.Errorf("Failed to archive train features: %v", err)
		}
		if testFS != nil {
			if err := r.deps.FeatureStore.WriteFeatures(ctx, runID, "test", testFS); err != nil {
				r.log.Errorf("Failed to archive test features: %v", err)
			}
		}
	}

	return &Summary{RunID: runID, Metrics: m}, nil
}

func (r *Runner) updateGauges(result *ensemble.Result, trainRows, testRows int) {
	metrics.EnsembleF1.Set(result.F1)
	metrics.EnsembleThreshold.Set(result.Threshold)
	if result.AUCDefined {
		metrics.EnsembleAUC.Set(result.AUC)
	}
	for family, f1 := range result.FamilyF1 {
		metrics.FamilyF1.WithLabelValues(family).Set(f1)
	}
	metrics.PartitionRows.WithLabelValues("train").Set(float64(trainRows))
	metrics.PartitionRows.WithLabelValues("test").Set(float64(testRows))
}
