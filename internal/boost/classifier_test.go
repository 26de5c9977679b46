package boost

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triguard/pkg/errors"
)

// separable builds a dataset where feature 0 alone decides the label, with
// a little noise in the remaining features.
func separable(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		label := i % 2
		row := []float64{
			float64(label)*10 + rng.Float64(),
			rng.NormFloat64(),
			rng.NormFloat64(),
		}
		x[i] = row
		y[i] = label
	}
	return x, y
}

func smallParams() Params {
	return Params{
		NumEstimators: 30,
		LearningRate:  0.3,
		MaxDepth:      3,
		NumLeaves:     8,
		Seed:          42,
	}
}

func TestClassifier_LearnsSeparableData(t *testing.T) {
	x, y := separable(200, 1)

	for _, style := range []Style{LeafWise, LevelWise, Oblivious} {
		clf := NewClassifier(style, smallParams())
		require.NoError(t, clf.Fit(x, y, nil, nil), "style %s", style)

		probs, err := clf.PredictProba(x)
		require.NoError(t, err)
		require.Len(t, probs, len(x))

		correct := 0
		for i, p := range probs {
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
			if (p >= 0.5) == (y[i] == 1) {
				correct++
			}
		}
		assert.Greater(t, correct, 190, "style %s should separate the classes", style)
	}
}

func TestClassifier_DeterministicWithSeed(t *testing.T) {
	x, y := separable(120, 2)

	p := smallParams()
	p.Subsample = 0.8
	p.ColsampleByTree = 0.8
	p.BaggingTemperature = 1
	p.RandomStrength = 1

	a := NewClassifier(LeafWise, p)
	require.NoError(t, a.Fit(x, y, nil, nil))
	b := NewClassifier(LeafWise, p)
	require.NoError(t, b.Fit(x, y, nil, nil))

	pa, err := a.PredictProba(x)
	require.NoError(t, err)
	pb, err := b.PredictProba(x)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestClassifier_EarlyStoppingTruncates(t *testing.T) {
	x, y := separable(100, 3)
	evalX, evalY := separable(40, 4)

	p := smallParams()
	p.NumEstimators = 500
	p.EarlyStoppingRounds = 5

	clf := NewClassifier(LevelWise, p)
	require.NoError(t, clf.Fit(x, y, evalX, evalY))

	// Separable data converges long before the iteration budget runs out
	assert.Less(t, clf.NumTrees(), 500)
	assert.Greater(t, clf.NumTrees(), 0)
}

func TestClassifier_MissingValuesRouteThroughTrees(t *testing.T) {
	x, y := separable(100, 5)
	for i := 0; i < len(x); i += 7 {
		x[i][1] = math.NaN()
	}

	clf := NewClassifier(Oblivious, smallParams())
	require.NoError(t, clf.Fit(x, y, nil, nil))

	probs, err := clf.PredictProba(x)
	require.NoError(t, err)
	for _, p := range probs {
		assert.False(t, math.IsNaN(p))
	}
}

func TestClassifier_InvalidInput(t *testing.T) {
	clf := NewClassifier(LeafWise, smallParams())

	assert.ErrorIs(t, clf.Fit(nil, nil, nil, nil), errors.ErrInvalidInput)
	assert.ErrorIs(t, clf.Fit([][]float64{{1}}, []int{0, 1}, nil, nil), errors.ErrInvalidInput)

	ragged := [][]float64{{1, 2}, {1}}
	assert.ErrorIs(t, clf.Fit(ragged, []int{0, 1}, nil, nil), errors.ErrInvalidInput)
}

func TestClassifier_PredictBeforeFit(t *testing.T) {
	clf := NewClassifier(LeafWise, smallParams())
	_, err := clf.PredictProba([][]float64{{1, 2, 3}})
	assert.Error(t, err)
}

func TestStyleString(t *testing.T) {
	assert.Equal(t, "leaf_wise", LeafWise.String())
	assert.Equal(t, "level_wise", LevelWise.String())
	assert.Equal(t, "oblivious", Oblivious.String())
}
