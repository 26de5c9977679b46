package features

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TargetEncoding maps category values to a smoothed positive rate fitted on
// one fold's training rows. Unseen categories fall back to the global mean,
// so the encoding never leaks validation or test labels.
type TargetEncoding struct {
	mapping map[string]float64
	global  float64
}

// FitTargetEncoding fits the smoothed encoding on training values only:
// (sum + smoothing*globalMean) / (count + smoothing) per category.
func FitTargetEncoding(values []string, labels []int, smoothing float64) *TargetEncoding {
	y := make([]float64, len(labels))
	for i, l := range labels {
		y[i] = float64(l)
	}
	global := 0.0
	if len(y) > 0 {
		global = stat.Mean(y, nil)
	}

	sums := make(map[string]float64)
	counts := make(map[string]float64)
	for i, v := range values {
		sums[v] += y[i]
		counts[v]++
	}

	mapping := make(map[string]float64, len(sums))
	for v, sum := range sums {
		mapping[v] = (sum + smoothing*global) / (counts[v] + smoothing)
	}

	return &TargetEncoding{mapping: mapping, global: global}
}

// Apply encodes a column; categories never seen in training get the global mean.
func (t *TargetEncoding) Apply(values []string) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if enc, ok := t.mapping[v]; ok {
			out[i] = enc
			continue
		}
		out[i] = t.global
	}
	return out
}

// LabelEncoding assigns deterministic integer codes to category values. It
// is fitted on the union of all partitions so every value has a code; the
// codes carry no label information, only identity.
type LabelEncoding struct {
	codes map[string]float64
}

// FitLabelEncoding collects the distinct values across partitions and codes
// them in sorted order.
func FitLabelEncoding(partitions ...[]string) *LabelEncoding {
	seen := make(map[string]struct{})
	for _, part := range partitions {
		for _, v := range part {
			seen[v] = struct{}{}
		}
	}

	vals := make([]string, 0, len(seen))
	for v := range seen {
		vals = append(vals, v)
	}
	sort.Strings(vals)

	codes := make(map[string]float64, len(vals))
	for i, v := range vals {
		codes[v] = float64(i)
	}
	return &LabelEncoding{codes: codes}
}

// Apply encodes a column with the fitted codes.
func (l *LabelEncoding) Apply(values []string) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = l.codes[v]
	}
	return out
}
