package boost

import (
	"math"
	"sort"
)

// maxCuts bounds the number of bin edges per feature so bins fit in a byte.
// Bin 0 is reserved for missing values.
const maxCuts = 254

// binner discretizes feature values into histogram bins using quantile cut
// points fitted on the training matrix.
type binner struct {
	edges [][]float64
}

func fitBinner(x [][]float64, nFeatures int) *binner {
	b := &binner{edges: make([][]float64, nFeatures)}

	vals := make([]float64, 0, len(x))
	for f := 0; f < nFeatures; f++ {
		vals = vals[:0]
		for _, row := range x {
			if !math.IsNaN(row[f]) {
				vals = append(vals, row[f])
			}
		}
		sort.Float64s(vals)

		// Distinct quantile cut points; duplicates collapse for
		// low-cardinality features so flags end up with two bins.
		edges := make([]float64, 0, maxCuts)
		for c := 1; c <= maxCuts; c++ {
			if len(vals) == 0 {
				break
			}
			idx := c * (len(vals) - 1) / (maxCuts + 1)
			v := vals[idx]
			if len(edges) == 0 || v > edges[len(edges)-1] {
				edges = append(edges, v)
			}
		}
		b.edges[f] = edges
	}
	return b
}

// transform maps a row-major matrix into feature-major bin columns.
func (b *binner) transform(x [][]float64) [][]uint8 {
	bins := make([][]uint8, len(b.edges))
	for f := range b.edges {
		col := make([]uint8, len(x))
		for i, row := range x {
			col[i] = b.bin(f, row[f])
		}
		bins[f] = col
	}
	return bins
}

func (b *binner) bin(feature int, v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(1 + sort.SearchFloat64s(b.edges[feature], v))
}

// binCount returns the number of bins for one feature, missing included.
func (b *binner) binCount(feature int) int {
	return len(b.edges[feature]) + 2
}
