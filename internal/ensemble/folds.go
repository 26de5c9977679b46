package ensemble

import (
	"math/rand"
	"sort"

	"triguard/pkg/errors"
)

// stratifiedFolds assigns every row to exactly one validation fold while
// keeping the class balance of each fold close to the full set. Rows of
// each class are shuffled with the seed and dealt into k chunks whose sizes
// differ by at most one.
func stratifiedFolds(labels []int, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "need at least 2 folds, got %d", k)
	}
	if len(labels) < k {
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"cannot split %d rows into %d folds", len(labels), k)
	}

	byClass := make(map[int][]int)
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	classes := make([]int, 0, len(byClass))
	for y := range byClass {
		classes = append(classes, y)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	folds := make([][]int, k)

	for _, y := range classes {
		idx := append([]int(nil), byClass[y]...)
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

		base := len(idx) / k
		rem := len(idx) % k
		pos := 0
		for f := 0; f < k; f++ {
			size := base
			if f < rem {
				size++
			}
			folds[f] = append(folds[f], idx[pos:pos+size]...)
			pos += size
		}
	}

	for f := range folds {
		sort.Ints(folds[f])
	}
	return folds, nil
}

// complement returns the rows outside the given validation fold.
func complement(valIdx []int, n int) []int {
	inVal := make([]bool, n)
	for _, i := range valIdx {
		inVal[i] = true
	}
	out := make([]int, 0, n-len(valIdx))
	for i := 0; i < n; i++ {
		if !inVal[i] {
			out = append(out, i)
		}
	}
	return out
}
