package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triguard/pkg/errors"
)

func TestStratifiedFolds_Partition(t *testing.T) {
	labels := make([]int, 50)
	for i := range labels {
		if i%5 == 0 {
			labels[i] = 1
		}
	}

	folds, err := stratifiedFolds(labels, 5, 42)
	require.NoError(t, err)
	require.Len(t, folds, 5)

	seen := make(map[int]int)
	for _, fold := range folds {
		for _, r := range fold {
			seen[r]++
		}
	}
	require.Len(t, seen, 50)
	for r, n := range seen {
		assert.Equal(t, 1, n, "row %d assigned to %d folds", r, n)
	}

	// 10 positives dealt into 5 folds: exactly 2 per fold
	for f, fold := range folds {
		pos := 0
		for _, r := range fold {
			pos += labels[r]
		}
		assert.Equal(t, 2, pos, "fold %d", f)
	}
}

func TestStratifiedFolds_DeterministicForSeed(t *testing.T) {
	labels := make([]int, 30)
	for i := range labels {
		labels[i] = i % 2
	}

	a, err := stratifiedFolds(labels, 3, 7)
	require.NoError(t, err)
	b, err := stratifiedFolds(labels, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStratifiedFolds_Errors(t *testing.T) {
	_, err := stratifiedFolds([]int{0, 1, 0}, 1, 1)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = stratifiedFolds([]int{0, 1}, 3, 1)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestStratifiedFolds_SingleClass(t *testing.T) {
	labels := make([]int, 12)

	folds, err := stratifiedFolds(labels, 4, 1)
	require.NoError(t, err)

	total := 0
	for _, fold := range folds {
		assert.Len(t, fold, 3)
		total += len(fold)
	}
	assert.Equal(t, 12, total)
}

func TestComplement(t *testing.T) {
	out := complement([]int{1, 3}, 5)
	assert.Equal(t, []int{0, 2, 4}, out)

	assert.Equal(t, []int{0, 1, 2}, complement(nil, 3))
	assert.Empty(t, complement([]int{0, 1}, 2))
}
