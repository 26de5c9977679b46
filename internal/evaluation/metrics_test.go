package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholds_Grid(t *testing.T) {
	grid := Thresholds()
	require.Len(t, grid, 41)
	assert.InDelta(t, 0.20, grid[0], 1e-12)
	assert.InDelta(t, 0.40, grid[40], 1e-12)
	assert.InDelta(t, 0.005, grid[1]-grid[0], 1e-12)
}

func TestConfusion(t *testing.T) {
	y := []int{1, 1, 0, 0, 1}
	probs := []float64{0.9, 0.2, 0.8, 0.1, 0.5}

	tp, fp, fn, tn := Confusion(y, probs, 0.5)
	assert.Equal(t, 2, tp)
	assert.Equal(t, 1, fp)
	assert.Equal(t, 1, fn)
	assert.Equal(t, 1, tn)
}

func TestF1PrecisionRecall(t *testing.T) {
	y := []int{1, 1, 0, 0, 1}
	probs := []float64{0.9, 0.2, 0.8, 0.1, 0.5}

	// tp=2 fp=1 fn=1: precision 2/3, recall 2/3, f1 2/3
	assert.InDelta(t, 2.0/3.0, Precision(y, probs, 0.5), 1e-12)
	assert.InDelta(t, 2.0/3.0, Recall(y, probs, 0.5), 1e-12)
	assert.InDelta(t, 2.0/3.0, F1Score(y, probs, 0.5), 1e-12)
}

func TestF1Score_DegenerateZero(t *testing.T) {
	// no positive labels and no positive predictions
	assert.Equal(t, 0.0, F1Score([]int{0, 0}, []float64{0.1, 0.2}, 0.5))
	assert.Equal(t, 0.0, Precision([]int{0, 0}, []float64{0.1, 0.2}, 0.5))
	assert.Equal(t, 0.0, Recall([]int{0, 0}, []float64{0.1, 0.2}, 0.5))
}

func TestSweepF1_PicksBestThreshold(t *testing.T) {
	// Positives sit above 0.30, negatives below, with one negative at 0.32
	// so the sweep has to move past it.
	y := []int{1, 1, 1, 0, 0, 0}
	probs := []float64{0.38, 0.36, 0.34, 0.32, 0.15, 0.10}

	thr, f1 := SweepF1(y, probs)
	assert.Equal(t, 1.0, f1)
	assert.Greater(t, thr, 0.32)
	assert.LessOrEqual(t, thr, 0.34)
}

func TestSweepF1_TieResolvesToLowestThreshold(t *testing.T) {
	// Every grid point below 0.35 yields the same F1, so the first one wins.
	y := []int{1, 0}
	probs := []float64{0.35, 0.10}

	thr, f1 := SweepF1(y, probs)
	assert.Equal(t, 1.0, f1)
	assert.InDelta(t, 0.20, thr, 1e-12)
}

func TestSweepF1_AllZeroFallsBackToDefault(t *testing.T) {
	y := []int{0, 0, 0}
	probs := []float64{0.1, 0.1, 0.1}

	thr, f1 := SweepF1(y, probs)
	assert.Equal(t, 0.0, f1)
	assert.Equal(t, 0.3, thr)
}

func TestAUC(t *testing.T) {
	perfect, ok := AUC([]int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9})
	require.True(t, ok)
	assert.InDelta(t, 1.0, perfect, 1e-12)

	reversed, ok := AUC([]int{1, 1, 0, 0}, []float64{0.1, 0.2, 0.8, 0.9})
	require.True(t, ok)
	assert.InDelta(t, 0.0, reversed, 1e-12)
}

func TestAUC_TiesUseMidranks(t *testing.T) {
	// One positive and one negative share the same score: AUC counts the
	// tied pair as half a win.
	auc, ok := AUC([]int{1, 0, 1, 0}, []float64{0.9, 0.5, 0.5, 0.1})
	require.True(t, ok)
	assert.InDelta(t, 0.875, auc, 1e-12)
}

func TestAUC_UndefinedForSingleClass(t *testing.T) {
	_, ok := AUC([]int{1, 1}, []float64{0.4, 0.6})
	assert.False(t, ok)
	_, ok = AUC([]int{0, 0}, []float64{0.4, 0.6})
	assert.False(t, ok)
}
