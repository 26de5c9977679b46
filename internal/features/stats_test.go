package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile_LinearInterpolation(t *testing.T) {
	xs := []float64{1, 2, 3, 4}

	// pos = p*(n-1): 0.75 over 4 values lands at index 2.25
	assert.InDelta(t, 3.25, quantile(xs, 0.75), 1e-12)
	assert.InDelta(t, 2.5, quantile(xs, 0.5), 1e-12)
	assert.Equal(t, 1.0, quantile(xs, 0))
	assert.Equal(t, 4.0, quantile(xs, 1))
}

func TestQuantile_IgnoresNaN(t *testing.T) {
	xs := []float64{math.NaN(), 10, math.NaN(), 20}
	assert.InDelta(t, 15.0, quantile(xs, 0.5), 1e-12)
}

func TestQuantile_Degenerate(t *testing.T) {
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
	assert.True(t, math.IsNaN(quantile([]float64{math.NaN()}, 0.5)))
	assert.Equal(t, 7.0, quantile([]float64{7}, 0.99))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 3.0, median([]float64{1, 3, 5}))
	assert.Equal(t, 2.0, median([]float64{1, 3}))
}

func TestClip(t *testing.T) {
	assert.Equal(t, 5.0, clip(3, 5, 10))
	assert.Equal(t, 10.0, clip(12, 5, 10))
	assert.Equal(t, 7.0, clip(7, 5, 10))

	// NaN value passes through, NaN bounds are ignored
	assert.True(t, math.IsNaN(clip(math.NaN(), 0, 1)))
	assert.Equal(t, 12.0, clip(12, math.NaN(), math.NaN()))
	assert.Equal(t, 10.0, clip(12, math.NaN(), 10))
}
