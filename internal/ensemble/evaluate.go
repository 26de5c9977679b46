package ensemble

import (
	"triguard/internal/boost"
	"triguard/internal/evaluation"
	"triguard/internal/features"
	"triguard/internal/smote"
	"triguard/pkg/errors"
)

// EvaluateParams scores one parameter candidate: the same fold loop as
// Train, but fitting a single family and returning the mean per-fold
// best-threshold F1. Used by the hyperparameter search.
func EvaluateParams(cfg Config, train *features.FeatureSet, style boost.Style, p boost.Params) (float64, error) {
	cfg = cfg.withDefaults()

	if train == nil || train.Rows() == 0 || train.Labels == nil {
		return 0, errors.Wrap(errors.ErrEmptyTrainingSet, "evaluation requires labeled rows")
	}
	folds, err := stratifiedFolds(train.Labels, cfg.Folds, cfg.Seed)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0,
		len(features.ModelFeatures)+len(features.CatFeatures)+len(features.TargetEncodeFeatures))
	names = append(names, features.ModelFeatures...)
	names = append(names, features.CatFeatures...)
	for _, c := range features.TargetEncodeFeatures {
		names = append(names, c+"_te")
	}

	sum := 0.0
	for foldIdx, valIdx := range folds {
		fold := foldIdx + 1
		trFS := train.Select(complement(valIdx, train.Rows()))
		vaFS := train.Select(valIdx)

		encTr, encVa, _ := encodeFold(trFS, vaFS, nil, cfg.TESmoothing)
		trX, err := assemble(trFS, names, encTr)
		if err != nil {
			return 0, err
		}
		vaX, err := assemble(vaFS, names, encVa)
		if err != nil {
			return 0, err
		}

		resX, resY := smote.Resample(trX, trFS.Labels,
			cfg.SMOTERatio, cfg.SMOTENeighbors, cfg.Seed)

		params := p
		params.Seed = cfg.Seed
		clf := newClassifier(style, params)
		if err := clf.Fit(resX, resY, vaX, vaFS.Labels); err != nil {
			return 0, errors.NewFoldFitError(fold, style.String(), err)
		}
		probs, err := clf.PredictProba(vaX)
		if err != nil {
			return 0, errors.NewFoldFitError(fold, style.String(), err)
		}

		_, f1 := evaluation.SweepF1(vaFS.Labels, probs)
		sum += f1
	}
	return sum / float64(len(folds)), nil
}
