// Package smote implements synthetic minority oversampling: new minority
// rows are interpolated between existing minority rows and their nearest
// minority neighbors. It runs on fold-training data only, never on
// validation or test rows.
package smote

import (
	"math"
	"math/rand"
	"sort"
)

// Resample oversamples the minority class until minority/majority reaches
// ratio, interpolating between each picked row and one of its k nearest
// minority neighbors. Inputs are not mutated; synthetic rows are appended
// after the originals. The output is deterministic for a given seed.
//
// When the class balance already meets the ratio, or the minority class has
// fewer than two rows, the inputs are returned unchanged.
func Resample(x [][]float64, y []int, ratio float64, k int, seed int64) ([][]float64, []int) {
	pos := 0
	for _, v := range y {
		if v == 1 {
			pos++
		}
	}
	neg := len(y) - pos

	minorityLabel := 1
	minority, majority := pos, neg
	if neg < pos {
		minorityLabel = 0
		minority, majority = neg, pos
	}

	target := int(math.Round(ratio * float64(majority)))
	synthCount := target - minority
	if synthCount <= 0 || minority < 2 {
		return x, y
	}

	minIdx := make([]int, 0, minority)
	for i, v := range y {
		if v == minorityLabel {
			minIdx = append(minIdx, i)
		}
	}

	if k > minority-1 {
		k = minority - 1
	}
	neighbors := nearestNeighbors(x, minIdx, k)

	rng := rand.New(rand.NewSource(seed))
	outX := make([][]float64, 0, len(x)+synthCount)
	outX = append(outX, x...)
	outY := make([]int, 0, len(y)+synthCount)
	outY = append(outY, y...)

	nFeat := len(x[0])
	for s := 0; s < synthCount; s++ {
		i := rng.Intn(len(minIdx))
		j := neighbors[i][rng.Intn(k)]

		base := x[minIdx[i]]
		other := x[minIdx[j]]
		u := rng.Float64()

		row := make([]float64, nFeat)
		for f := 0; f < nFeat; f++ {
			if math.IsNaN(base[f]) || math.IsNaN(other[f]) {
				row[f] = base[f]
				continue
			}
			row[f] = base[f] + u*(other[f]-base[f])
		}
		outX = append(outX, row)
		outY = append(outY, minorityLabel)
	}

	return outX, outY
}

// nearestNeighbors returns, for each minority row, the indices (into minIdx)
// of its k nearest minority neighbors by Euclidean distance. Brute force is
// fine at the fold sizes this pipeline sees.
func nearestNeighbors(x [][]float64, minIdx []int, k int) [][]int {
	type cand struct {
		idx  int
		dist float64
	}

	out := make([][]int, len(minIdx))
	for i, ri := range minIdx {
		cands := make([]cand, 0, len(minIdx)-1)
		for j, rj := range minIdx {
			if i == j {
				continue
			}
			cands = append(cands, cand{idx: j, dist: distance(x[ri], x[rj])})
		}
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].dist != cands[b].dist {
				return cands[a].dist < cands[b].dist
			}
			return cands[a].idx < cands[b].idx
		})

		nn := make([]int, k)
		for n := 0; n < k; n++ {
			nn[n] = cands[n].idx
		}
		out[i] = nn
	}
	return out
}

// distance skips dimensions where either value is missing.
func distance(a, b []float64) float64 {
	sum := 0.0
	for f := range a {
		if math.IsNaN(a[f]) || math.IsNaN(b[f]) {
			continue
		}
		d := a[f] - b[f]
		sum += d * d
	}
	return math.Sqrt(sum)
}
