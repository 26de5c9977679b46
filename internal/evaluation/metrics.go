// Package evaluation scores binary classifiers: thresholded F1 with its
// companion precision/recall, a fixed-grid threshold sweep, and rank-based
// ROC AUC.
package evaluation

import (
	"sort"
)

// Threshold sweep grid: 41 evenly spaced cutoffs across [0.20, 0.40].
const (
	ThresholdMin   = 0.20
	ThresholdMax   = 0.40
	ThresholdSteps = 41
)

// Thresholds returns the sweep grid.
func Thresholds() []float64 {
	out := make([]float64, ThresholdSteps)
	step := (ThresholdMax - ThresholdMin) / float64(ThresholdSteps-1)
	for i := range out {
		out[i] = ThresholdMin + float64(i)*step
	}
	return out
}

// Confusion counts outcomes at a threshold; probs >= threshold predict 1.
func Confusion(y []int, probs []float64, threshold float64) (tp, fp, fn, tn int) {
	for i, p := range probs {
		pred := p >= threshold
		actual := y[i] == 1
		switch {
		case pred && actual:
			tp++
		case pred && !actual:
			fp++
		case !pred && actual:
			fn++
		default:
			tn++
		}
	}
	return tp, fp, fn, tn
}

// F1Score at a threshold. Zero when no positive predictions or labels exist.
func F1Score(y []int, probs []float64, threshold float64) float64 {
	tp, fp, fn, _ := Confusion(y, probs, threshold)
	if 2*tp+fp+fn == 0 {
		return 0
	}
	return 2 * float64(tp) / float64(2*tp+fp+fn)
}

// Precision at a threshold.
func Precision(y []int, probs []float64, threshold float64) float64 {
	tp, fp, _, _ := Confusion(y, probs, threshold)
	if tp+fp == 0 {
		return 0
	}
	return float64(tp) / float64(tp+fp)
}

// Recall at a threshold.
func Recall(y []int, probs []float64, threshold float64) float64 {
	tp, _, fn, _ := Confusion(y, probs, threshold)
	if tp+fn == 0 {
		return 0
	}
	return float64(tp) / float64(tp+fn)
}

// SweepF1 scans the threshold grid and returns the best cutoff with its F1.
// Ties resolve to the lowest threshold since only strict improvements move
// the winner.
func SweepF1(y []int, probs []float64) (threshold, f1 float64) {
	threshold = 0.3
	for _, thr := range Thresholds() {
		if score := F1Score(y, probs, thr); score > f1 {
			f1 = score
			threshold = thr
		}
	}
	return threshold, f1
}

// AUC computes ROC AUC via the rank statistic, with midranks for tied
// scores. ok is false when either class is absent, which leaves the metric
// undefined.
func AUC(y []int, probs []float64) (auc float64, ok bool) {
	n := len(y)
	pos := 0
	for _, v := range y {
		if v == 1 {
			pos++
		}
	}
	neg := n - pos
	if pos == 0 || neg == 0 {
		return 0, false
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return probs[order[a]] < probs[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && probs[order[j]] == probs[order[i]] {
			j++
		}
		// 1-based midrank across the tie group
		mid := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = mid
		}
		i = j
	}

	sumPos := 0.0
	for i, v := range y {
		if v == 1 {
			sumPos += ranks[i]
		}
	}

	auc = (sumPos - float64(pos)*float64(pos+1)/2) / (float64(pos) * float64(neg))
	return auc, true
}
