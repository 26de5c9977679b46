package ensemble

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triguard/internal/boost"
	"triguard/internal/features"
	"triguard/pkg/errors"
)

// syntheticSet fills every model feature with noise except liab_prct, which
// carries the label signal, so small trees can separate the classes fast.
func syntheticSet(n int, labeled bool, seed int64) *features.FeatureSet {
	rng := rand.New(rand.NewSource(seed))

	fs := features.NewFeatureSet(n)
	fs.IDs = make([]string, n)
	labels := make([]int, n)
	for i := range labels {
		fs.IDs[i] = fmt.Sprintf("C%03d", i)
		labels[i] = i % 2
	}
	if labeled {
		fs.Labels = labels
	}

	for _, name := range features.ModelFeatures {
		col := make([]float64, n)
		for i := range col {
			if name == "liab_prct" {
				col[i] = float64(labels[i])*50 + rng.Float64()
			} else {
				col[i] = rng.Float64()
			}
		}
		fs.Add(name, col)
	}

	catVals := []string{"alpha", "beta", "gamma"}
	for _, name := range features.CatFeatures {
		col := make([]string, n)
		for i := range col {
			col[i] = catVals[i%len(catVals)]
		}
		fs.AddCat(name, col)
	}
	for _, name := range features.TargetEncodeFeatures {
		col := make([]string, n)
		for i := range col {
			col[i] = catVals[(i/2)%len(catVals)]
		}
		fs.AddCat(name, col)
	}
	return fs
}

func testMembers() []Member {
	small := boost.Params{
		NumEstimators:   15,
		LearningRate:    0.3,
		MaxDepth:        3,
		NumLeaves:       8,
		MinChildSamples: 5,
	}
	return []Member{
		{Name: boost.LeafWise.String(), Style: boost.LeafWise, Params: small},
		{Name: boost.LevelWise.String(), Style: boost.LevelWise, Params: small},
		{Name: boost.Oblivious.String(), Style: boost.Oblivious, Params: small},
	}
}

func TestTrain_WeightsAndOOF(t *testing.T) {
	train := syntheticSet(90, true, 1)

	tr := NewTrainer(Config{Folds: 3, Seed: 42}, testMembers())
	res, err := tr.Train(train, nil)
	require.NoError(t, err)

	require.Len(t, res.OOF, 90)
	assert.Nil(t, res.TestProbs)

	sum := 0.0
	for _, m := range testMembers() {
		w, ok := res.Weights[m.Name]
		require.True(t, ok, "missing weight for %s", m.Name)
		assert.GreaterOrEqual(t, w, 0.0)
		sum += w

		_, ok = res.FamilyF1[m.Name]
		assert.True(t, ok)
		_, ok = res.FamilyThreshold[m.Name]
		assert.True(t, ok)
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// liab_prct alone separates the classes, so the blend should score well
	assert.Greater(t, res.F1, 0.5)
	assert.True(t, res.AUCDefined)

	// curated numerics, then label-encoded cats, then target-encoded columns
	expectLen := len(features.ModelFeatures) + len(features.CatFeatures) + len(features.TargetEncodeFeatures)
	assert.Len(t, res.FeatureNames, expectLen)
	assert.Equal(t, "accident_type_te", res.FeatureNames[expectLen-4])
}

func TestTrain_ScoresTestPartition(t *testing.T) {
	train := syntheticSet(90, true, 2)
	test := syntheticSet(20, false, 3)

	tr := NewTrainer(Config{Folds: 3, Seed: 42}, testMembers())
	res, err := tr.Train(train, test)
	require.NoError(t, err)

	require.Len(t, res.TestProbs, 20)
	for _, p := range res.TestProbs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestTrain_DeterministicForSeed(t *testing.T) {
	a, err := NewTrainer(Config{Folds: 3, Seed: 42}, testMembers()).
		Train(syntheticSet(60, true, 4), nil)
	require.NoError(t, err)
	b, err := NewTrainer(Config{Folds: 3, Seed: 42}, testMembers()).
		Train(syntheticSet(60, true, 4), nil)
	require.NoError(t, err)

	assert.Equal(t, a.OOF, b.OOF)
	assert.Equal(t, a.Weights, b.Weights)
	assert.Equal(t, a.Threshold, b.Threshold)
}

// spyClassifier stands in for a boosted model and records, via a row-id
// feature column, which rows it was fitted on and which it scored.
type spyClassifier struct {
	family    string
	idCol     int
	fitIDs    map[float64]bool
	scoredIDs map[float64]bool
}

func newSpyClassifier(family string, idCol int) *spyClassifier {
	return &spyClassifier{
		family:    family,
		idCol:     idCol,
		fitIDs:    make(map[float64]bool),
		scoredIDs: make(map[float64]bool),
	}
}

func (s *spyClassifier) Fit(x [][]float64, y []int, evalX [][]float64, evalY []int) error {
	for _, row := range x {
		s.fitIDs[row[s.idCol]] = true
	}
	return nil
}

func (s *spyClassifier) PredictProba(x [][]float64) ([]float64, error) {
	probs := make([]float64, len(x))
	for i, row := range x {
		id := row[s.idCol]
		s.scoredIDs[id] = true
		if int(id)%2 == 1 {
			probs[i] = 0.9
		} else {
			probs[i] = 0.1
		}
	}
	return probs, nil
}

// Every fold-train matrix must exclude that fold's validation rows, and each
// family must score every training row exactly once for its OOF column.
// Labels are balanced so fold-level SMOTE is a no-op and the fitted rows map
// one to one onto fold-training rows.
func TestTrain_FoldIsolationAndOOFCoverage(t *testing.T) {
	const rows = 60
	train := syntheticSet(rows, true, 7)
	rowID := make([]float64, rows)
	for i := range rowID {
		rowID[i] = float64(i)
	}
	train.Add("liab_prct", rowID)

	idCol := -1
	for i, name := range features.ModelFeatures {
		if name == "liab_prct" {
			idCol = i
			break
		}
	}
	require.NotEqual(t, -1, idCol)

	var spies []*spyClassifier
	orig := newClassifier
	newClassifier = func(style boost.Style, p boost.Params) boostClassifier {
		s := newSpyClassifier(style.String(), idCol)
		spies = append(spies, s)
		return s
	}
	defer func() { newClassifier = orig }()

	members := testMembers()
	res, err := NewTrainer(Config{Folds: 3, Seed: 42}, members).Train(train, nil)
	require.NoError(t, err)
	require.Len(t, spies, 3*len(members))

	scoredPerFamily := make(map[string]map[float64]int)
	for _, s := range spies {
		for id := range s.scoredIDs {
			assert.False(t, s.fitIDs[id],
				"family %s fitted on its own validation row %v", s.family, id)
		}
		assert.Len(t, s.fitIDs, rows-len(s.scoredIDs))

		counts := scoredPerFamily[s.family]
		if counts == nil {
			counts = make(map[float64]int)
			scoredPerFamily[s.family] = counts
		}
		for id := range s.scoredIDs {
			counts[id]++
		}
	}

	require.Len(t, scoredPerFamily, len(members))
	for family, counts := range scoredPerFamily {
		require.Len(t, counts, rows, "family %s", family)
		for id, n := range counts {
			assert.Equal(t, 1, n, "family %s scored row %v %d times", family, id, n)
		}
	}

	// The spies score odd rows 0.9 and even rows 0.1, and the weights sum to
	// one, so the blended OOF pins each prediction to its own row.
	for i, p := range res.OOF {
		want := 0.1
		if i%2 == 1 {
			want = 0.9
		}
		assert.InDelta(t, want, p, 1e-12, "row %d", i)
	}
}

func TestTrain_DegenerateWeights(t *testing.T) {
	// All labels zero: no threshold in the sweep grid yields a positive F1
	// for any family, so the blend has nothing to weight by.
	train := syntheticSet(60, true, 5)
	for i := range train.Labels {
		train.Labels[i] = 0
	}

	tr := NewTrainer(Config{Folds: 3, Seed: 42}, testMembers())
	_, err := tr.Train(train, nil)
	assert.ErrorIs(t, err, errors.ErrDegenerateWeights)
}

func TestTrain_EmptyTrainingSet(t *testing.T) {
	tr := NewTrainer(Config{Folds: 3, Seed: 42}, testMembers())

	_, err := tr.Train(nil, nil)
	assert.ErrorIs(t, err, errors.ErrEmptyTrainingSet)

	unlabeled := syntheticSet(10, false, 6)
	_, err = tr.Train(unlabeled, nil)
	assert.ErrorIs(t, err, errors.ErrEmptyTrainingSet)
}
