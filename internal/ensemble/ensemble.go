// Package ensemble trains the F1-weighted cross-validated ensemble. Each
// fold fits every family on oversampled fold-training rows and accumulates
// out-of-fold predictions for weighting; final test inference refits every
// family on the full rebalanced training partition.
package ensemble

import (
	"triguard/internal/boost"
	"triguard/internal/evaluation"
	"triguard/internal/features"
	"triguard/internal/smote"
	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

// boostClassifier is the fitted-model surface the trainer depends on.
type boostClassifier interface {
	Fit(x [][]float64, y []int, evalX [][]float64, evalY []int) error
	PredictProba(x [][]float64) ([]float64, error)
}

// newClassifier is a seam so tests can observe which rows reach each fit.
var newClassifier = func(style boost.Style, p boost.Params) boostClassifier {
	return boost.NewClassifier(style, p)
}

// Config are the cross-validation knobs.
type Config struct {
	Folds          int
	Seed           int64
	TESmoothing    float64
	SMOTERatio     float64
	SMOTENeighbors int
}

func (c Config) withDefaults() Config {
	if c.Folds < 2 {
		c.Folds = 5
	}
	if c.TESmoothing <= 0 {
		c.TESmoothing = 30
	}
	if c.SMOTERatio <= 0 {
		c.SMOTERatio = 0.5
	}
	if c.SMOTENeighbors <= 0 {
		c.SMOTENeighbors = 5
	}
	return c
}

// Result is everything the reporter needs from a trained ensemble.
type Result struct {
	FeatureNames []string

	FamilyF1        map[string]float64
	FamilyThreshold map[string]float64
	Weights         map[string]float64

	OOF        []float64
	Threshold  float64
	F1         float64
	AUC        float64
	AUCDefined bool

	// TestProbs is nil when the test partition is empty.
	TestProbs []float64
}

// Trainer runs the cross-validated ensemble over a fixed member list.
type Trainer struct {
	cfg     Config
	members []Member
	log     *logger.Logger
}

func NewTrainer(cfg Config, members []Member) *Trainer {
	return &Trainer{
		cfg:     cfg.withDefaults(),
		members: members,
		log:     logger.Get().With("component", "ensemble"),
	}
}

// Train fits the ensemble on the training set and scores the optional test
// set. A nil or empty test set is legal; TestProbs stays nil.
func (t *Trainer) Train(train, test *features.FeatureSet) (*Result, error) {
	if train == nil || train.Rows() == 0 || train.Labels == nil {
		return nil, errors.Wrap(errors.ErrEmptyTrainingSet, "ensemble requires labeled rows")
	}

	folds, err := stratifiedFolds(train.Labels, t.cfg.Folds, t.cfg.Seed)
	if err != nil {
		return nil, err
	}

	hasTest := test != nil && test.Rows() > 0

	// Final model columns: curated numerics, label-encoded categoricals,
	// then the target-encoded columns, in a fixed order.
	featureNames := make([]string, 0,
		len(features.ModelFeatures)+len(features.CatFeatures)+len(features.TargetEncodeFeatures))
	featureNames = append(featureNames, features.ModelFeatures...)
	featureNames = append(featureNames, features.CatFeatures...)
	for _, c := range features.TargetEncodeFeatures {
		featureNames = append(featureNames, c+"_te")
	}

	oof := make(map[string][]float64, len(t.members))
	for _, m := range t.members {
		oof[m.Name] = make([]float64, train.Rows())
	}

	for foldIdx, valIdx := range folds {
		fold := foldIdx + 1
		trainIdx := complement(valIdx, train.Rows())

		trFS := train.Select(trainIdx)
		vaFS := train.Select(valIdx)

		encTr, encVa, _ := encodeFold(trFS, vaFS, nil, t.cfg.TESmoothing)

		trX, err := assemble(trFS, featureNames, encTr)
		if err != nil {
			return nil, err
		}
		vaX, err := assemble(vaFS, featureNames, encVa)
		if err != nil {
			return nil, err
		}

		foldSeed := t.cfg.Seed + int64(fold)
		resX, resY := smote.Resample(trX, trFS.Labels,
			t.cfg.SMOTERatio, t.cfg.SMOTENeighbors, foldSeed)

		t.log.Infof("Fold %d/%d: train=%d val=%d resampled=%d",
			fold, len(folds), len(trX), len(vaX), len(resX))

		for _, m := range t.members {
			p := m.Params
			p.Seed = foldSeed

			clf := newClassifier(m.Style, p)
			if err := clf.Fit(resX, resY, vaX, vaFS.Labels); err != nil {
				return nil, errors.NewFoldFitError(fold, m.Name, err)
			}

			vaProbs, err := clf.PredictProba(vaX)
			if err != nil {
				return nil, errors.NewFoldFitError(fold, m.Name, err)
			}
			for i, r := range valIdx {
				oof[m.Name][r] = vaProbs[i]
			}
		}
	}

	res := &Result{
		FeatureNames:    featureNames,
		FamilyF1:        make(map[string]float64, len(t.members)),
		FamilyThreshold: make(map[string]float64, len(t.members)),
		Weights:         make(map[string]float64, len(t.members)),
	}

	totalF1 := 0.0
	for _, m := range t.members {
		thr, f1 := evaluation.SweepF1(train.Labels, oof[m.Name])
		res.FamilyThreshold[m.Name] = thr
		res.FamilyF1[m.Name] = f1
		totalF1 += f1
		t.log.Infof("Family %s: OOF F1=%.5f (threshold %.3f)", m.Name, f1, thr)
	}
	if totalF1 == 0 {
		return nil, errors.Wrap(errors.ErrDegenerateWeights, "cannot weight ensemble")
	}
	for _, m := range t.members {
		res.Weights[m.Name] = res.FamilyF1[m.Name] / totalF1
	}

	res.OOF = make([]float64, train.Rows())
	for _, m := range t.members {
		w := res.Weights[m.Name]
		for i, p := range oof[m.Name] {
			res.OOF[i] += w * p
		}
	}

	res.Threshold, res.F1 = evaluation.SweepF1(train.Labels, res.OOF)
	res.AUC, res.AUCDefined = evaluation.AUC(train.Labels, res.OOF)
	t.log.Infof("Ensemble: OOF F1=%.5f threshold=%.3f AUC=%.4f",
		res.F1, res.Threshold, res.AUC)

	// Final inference: refit every family on the full rebalanced training
	// partition and combine with the out-of-fold weights. Weights and
	// threshold are already fixed, so test rows influence neither.
	if hasTest {
		if err := t.refitAndScore(train, test, featureNames, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (t *Trainer) refitAndScore(train, test *features.FeatureSet, featureNames []string, res *Result) error {
	encTr, encTe := encodeFull(train, test, t.cfg.TESmoothing)

	trX, err := assemble(train, featureNames, encTr)
	if err != nil {
		return err
	}
	teX, err := assemble(test, featureNames, encTe)
	if err != nil {
		return err
	}

	resX, resY := smote.Resample(trX, train.Labels,
		t.cfg.SMOTERatio, t.cfg.SMOTENeighbors, t.cfg.Seed)
	t.log.Infof("Refit: train=%d resampled=%d test=%d", len(trX), len(resX), len(teX))

	res.TestProbs = make([]float64, test.Rows())
	for _, m := range t.members {
		p := m.Params
		p.Seed = t.cfg.Seed

		clf := newClassifier(m.Style, p)
		if err := clf.Fit(resX, resY, nil, nil); err != nil {
			return errors.Wrapf(err, "refit family %s", m.Name)
		}
		probs, err := clf.PredictProba(teX)
		if err != nil {
			return errors.Wrapf(err, "score test with family %s", m.Name)
		}

		w := res.Weights[m.Name]
		for i, pr := range probs {
			res.TestProbs[i] += w * pr
		}
	}
	return nil
}

// encodeFull fits the target encodings on the whole training partition and
// the label encodings on the train+test value union, for the final refit.
func encodeFull(train, test *features.FeatureSet, smoothing float64) (encTr, encTe map[string][]float64) {
	encTr = make(map[string][]float64)
	encTe = make(map[string][]float64)

	for _, col := range features.TargetEncodeFeatures {
		trVals, _ := train.Cat(col)
		teVals, _ := test.Cat(col)

		enc := features.FitTargetEncoding(trVals, train.Labels, smoothing)
		name := col + "_te"
		encTr[name] = enc.Apply(trVals)
		encTe[name] = enc.Apply(teVals)
	}

	for _, col := range features.CatFeatures {
		trVals, _ := train.Cat(col)
		teVals, _ := test.Cat(col)

		enc := features.FitLabelEncoding(trVals, teVals)
		encTr[col] = enc.Apply(trVals)
		encTe[col] = enc.Apply(teVals)
	}
	return encTr, encTe
}

// encodeFold fits the target encodings on fold-training rows only and the
// label encodings on the value union of all partitions, then applies them.
// The test set may be nil.
func encodeFold(tr, va, te *features.FeatureSet, smoothing float64) (encTr, encVa, encTe map[string][]float64) {
	encTr = make(map[string][]float64)
	encVa = make(map[string][]float64)
	if te != nil && te.Rows() > 0 {
		encTe = make(map[string][]float64)
	}

	for _, col := range features.TargetEncodeFeatures {
		trVals, _ := tr.Cat(col)
		vaVals, _ := va.Cat(col)

		enc := features.FitTargetEncoding(trVals, tr.Labels, smoothing)
		name := col + "_te"
		encTr[name] = enc.Apply(trVals)
		encVa[name] = enc.Apply(vaVals)
		if encTe != nil {
			teVals, _ := te.Cat(col)
			encTe[name] = enc.Apply(teVals)
		}
	}

	for _, col := range features.CatFeatures {
		trVals, _ := tr.Cat(col)
		vaVals, _ := va.Cat(col)

		parts := [][]string{trVals, vaVals}
		var teVals []string
		if encTe != nil {
			teVals, _ = te.Cat(col)
			parts = append(parts, teVals)
		}

		enc := features.FitLabelEncoding(parts...)
		encTr[col] = enc.Apply(trVals)
		encVa[col] = enc.Apply(vaVals)
		if encTe != nil {
			encTe[col] = enc.Apply(teVals)
		}
	}
	return encTr, encVa, encTe
}

// assemble builds a row-major matrix from the named columns, preferring the
// fold-local encoded overlay over the engineered numeric columns.
func assemble(fs *features.FeatureSet, names []string, overlay map[string][]float64) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for j, name := range names {
		if c, ok := overlay[name]; ok {
			cols[j] = c
			continue
		}
		c, ok := fs.Column(name)
		if !ok {
			return nil, errors.Wrapf(errors.ErrInternal, "feature column %q not engineered", name)
		}
		cols[j] = c
	}

	rows := make([][]float64, fs.Rows())
	for i := range rows {
		row := make([]float64, len(names))
		for j := range names {
			row[j] = cols[j][i]
		}
		rows[i] = row
	}
	return rows, nil
}
