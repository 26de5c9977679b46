package features

import (
	"math"
	"sort"
)

// quantile computes the p-th quantile with linear interpolation between
// order statistics, ignoring NaN cells. Returns NaN when no finite values
// remain. This matches the interpolation the upstream analytics used, which
// differs from gonum's empirical cumulant kinds.
func quantile(xs []float64, p float64) float64 {
	vals := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)

	if len(vals) == 1 {
		return vals[0]
	}
	pos := p * float64(len(vals)-1)
	lo := int(math.Floor(pos))
	if lo >= len(vals)-1 {
		return vals[len(vals)-1]
	}
	frac := pos - float64(lo)
	return vals[lo] + frac*(vals[lo+1]-vals[lo])
}

func median(xs []float64) float64 {
	return quantile(xs, 0.5)
}

// clip bounds v to [lo, hi]. NaN bounds are ignored, NaN v passes through.
func clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	if !math.IsNaN(lo) && v < lo {
		return lo
	}
	if !math.IsNaN(hi) && v > hi {
		return hi
	}
	return v
}
