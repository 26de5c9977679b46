package boost

import (
	"math"
	"math/rand"
)

type node struct {
	feature int
	bin     uint8
	left    int
	right   int
	value   float64
	leaf    bool
}

type tree struct {
	nodes []node
}

// predict walks one row through the tree over feature-major bin columns.
// A row goes left when its bin is <= the split bin, which routes missing
// values (bin 0) left on every split.
func (t *tree) predict(bins [][]uint8, row int) float64 {
	id := 0
	for !t.nodes[id].leaf {
		nd := t.nodes[id]
		if bins[nd.feature][row] <= nd.bin {
			id = nd.left
		} else {
			id = nd.right
		}
	}
	return t.nodes[id].value
}

func (t *tree) addLeaf(value float64) int {
	t.nodes = append(t.nodes, node{leaf: true, value: value, left: -1, right: -1})
	return len(t.nodes) - 1
}

func (t *tree) addSplit(feature int, bin uint8) int {
	t.nodes = append(t.nodes, node{feature: feature, bin: bin, left: -1, right: -1})
	return len(t.nodes) - 1
}

// treeContext carries everything one tree build needs: binned columns,
// per-row gradients and hessians (already bagging-weighted), the sampled
// rows and features, and the seeded RNG for split noise.
type treeContext struct {
	bins     [][]uint8
	nbins    []int
	grad     []float64
	hess     []float64
	rows     []int
	features []int
	p        Params
	rng      *rand.Rand
}

type histogram struct {
	g []float64
	h []float64
	n []int
}

func (c *treeContext) buildHist(feature int, rows []int) histogram {
	nb := c.nbins[feature]
	hist := histogram{
		g: make([]float64, nb),
		h: make([]float64, nb),
		n: make([]int, nb),
	}
	col := c.bins[feature]
	for _, r := range rows {
		b := col[r]
		hist.g[b] += c.grad[r]
		hist.h[b] += c.hess[r]
		hist.n[b]++
	}
	return hist
}

func thresholdL1(g, alpha float64) float64 {
	if g > alpha {
		return g - alpha
	}
	if g < -alpha {
		return g + alpha
	}
	return 0
}

// score is the structure score of a candidate leaf holding gradient sum g
// and hessian sum h.
func (c *treeContext) score(g, h float64) float64 {
	t := thresholdL1(g, c.p.RegAlpha)
	return t * t / (h + c.p.RegLambda + 1e-12)
}

// leafValue is the shrunken optimal output for a leaf.
func (c *treeContext) leafValue(g, h float64) float64 {
	return -thresholdL1(g, c.p.RegAlpha) / (h + c.p.RegLambda + 1e-12) * c.p.LearningRate
}

type splitCandidate struct {
	feature int
	bin     uint8
	gain    float64
}

// bestSplit scans every sampled feature's histogram for the highest-gain
// split of the given rows. ok is false when no split clears the minimum
// child size with positive gain.
func (c *treeContext) bestSplit(rows []int) (splitCandidate, bool) {
	var totalG, totalH float64
	for _, r := range rows {
		totalG += c.grad[r]
		totalH += c.hess[r]
	}
	parent := c.score(totalG, totalH)

	best := splitCandidate{gain: 1e-12}
	found := false

	for _, f := range c.features {
		hist := c.buildHist(f, rows)

		var gl, hl float64
		nl := 0
		for b := 0; b < len(hist.g)-1; b++ {
			gl += hist.g[b]
			hl += hist.h[b]
			nl += hist.n[b]

			if nl < c.p.MinChildSamples {
				continue
			}
			nr := len(rows) - nl
			if nr < c.p.MinChildSamples {
				break
			}

			gain := c.score(gl, hl) + c.score(totalG-gl, totalH-hl) - parent
			if c.p.RandomStrength > 0 {
				gain += c.rng.NormFloat64() * c.p.RandomStrength
			}
			if gain > best.gain {
				best = splitCandidate{feature: f, bin: uint8(b), gain: gain}
				found = true
			}
		}
	}
	return best, found
}

func (c *treeContext) partition(rows []int, feature int, bin uint8) (left, right []int) {
	col := c.bins[feature]
	for _, r := range rows {
		if col[r] <= bin {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}

func (c *treeContext) sums(rows []int) (g, h float64) {
	for _, r := range rows {
		g += c.grad[r]
		h += c.hess[r]
	}
	return g, h
}

// buildLeafWise grows best-first: the open leaf with the highest gain splits
// next, until NumLeaves leaves exist or no leaf can split.
func buildLeafWise(c *treeContext) *tree {
	t := &tree{}

	type openLeaf struct {
		nodeID   int
		rows     []int
		cand     splitCandidate
		canSplit bool
	}

	g, h := c.sums(c.rows)
	rootID := t.addLeaf(c.leafValue(g, h))

	cand, ok := c.bestSplit(c.rows)
	open := []openLeaf{{nodeID: rootID, rows: c.rows, cand: cand, canSplit: ok}}
	leaves := 1

	for leaves < c.p.NumLeaves {
		bestIdx := -1
		for i, l := range open {
			if !l.canSplit {
				continue
			}
			if bestIdx == -1 || l.cand.gain > open[bestIdx].cand.gain {
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			break
		}

		l := open[bestIdx]
		open = append(open[:bestIdx], open[bestIdx+1:]...)

		leftRows, rightRows := c.partition(l.rows, l.cand.feature, l.cand.bin)

		t.nodes[l.nodeID].leaf = false
		t.nodes[l.nodeID].feature = l.cand.feature
		t.nodes[l.nodeID].bin = l.cand.bin

		gl, hl := c.sums(leftRows)
		gr, hr := c.sums(rightRows)
		leftID := t.addLeaf(c.leafValue(gl, hl))
		rightID := t.addLeaf(c.leafValue(gr, hr))
		t.nodes[l.nodeID].left = leftID
		t.nodes[l.nodeID].right = rightID

		lc, lok := c.bestSplit(leftRows)
		rc, rok := c.bestSplit(rightRows)
		open = append(open,
			openLeaf{nodeID: leftID, rows: leftRows, cand: lc, canSplit: lok},
			openLeaf{nodeID: rightID, rows: rightRows, cand: rc, canSplit: rok},
		)
		leaves++
	}
	return t
}

// buildLevelWise grows every branch to MaxDepth unless a node runs out of
// gain or samples first.
func buildLevelWise(c *treeContext) *tree {
	t := &tree{}

	var grow func(rows []int, depth int) int
	grow = func(rows []int, depth int) int {
		g, h := c.sums(rows)
		if depth >= c.p.MaxDepth {
			return t.addLeaf(c.leafValue(g, h))
		}
		cand, ok := c.bestSplit(rows)
		if !ok {
			return t.addLeaf(c.leafValue(g, h))
		}

		id := t.addSplit(cand.feature, cand.bin)
		leftRows, rightRows := c.partition(rows, cand.feature, cand.bin)
		left := grow(leftRows, depth+1)
		right := grow(rightRows, depth+1)
		t.nodes[id].left = left
		t.nodes[id].right = right
		return id
	}

	grow(c.rows, 0)
	return t
}

// buildOblivious grows a symmetric tree: one (feature, bin) condition is
// chosen per level by total gain across all current partitions and applied
// to every one of them.
func buildOblivious(c *treeContext) *tree {
	parts := [][]int{c.rows}

	type levelSplit struct {
		feature int
		bin     uint8
	}
	var levels []levelSplit

	for depth := 0; depth < c.p.MaxDepth; depth++ {
		bestGain := 1e-12
		var best levelSplit
		found := false

		parents := make([]float64, len(parts))
		partG := make([]float64, len(parts))
		partH := make([]float64, len(parts))
		for i, rows := range parts {
			g, h := c.sums(rows)
			partG[i], partH[i] = g, h
			parents[i] = c.score(g, h)
		}

		for _, f := range c.features {
			hists := make([]histogram, len(parts))
			for i, rows := range parts {
				hists[i] = c.buildHist(f, rows)
			}

			nb := c.nbins[f]
			gl := make([]float64, len(parts))
			hl := make([]float64, len(parts))
			nlTotal := 0
			nTotal := 0
			for _, rows := range parts {
				nTotal += len(rows)
			}

			for b := 0; b < nb-1; b++ {
				gain := 0.0
				for i := range parts {
					gl[i] += hists[i].g[b]
					hl[i] += hists[i].h[b]
					nlTotal += hists[i].n[b]

					gain += c.score(gl[i], hl[i]) +
						c.score(partG[i]-gl[i], partH[i]-hl[i]) - parents[i]
				}
				if nlTotal < c.p.MinChildSamples || nTotal-nlTotal < c.p.MinChildSamples {
					continue
				}
				if c.p.RandomStrength > 0 {
					gain += c.rng.NormFloat64() * c.p.RandomStrength
				}
				if gain > bestGain {
					bestGain = gain
					best = levelSplit{feature: f, bin: uint8(b)}
					found = true
				}
			}
		}

		if !found {
			break
		}
		levels = append(levels, best)

		next := make([][]int, 0, len(parts)*2)
		for _, rows := range parts {
			left, right := c.partition(rows, best.feature, best.bin)
			next = append(next, left, right)
		}
		parts = next
	}

	// Materialize the symmetric structure as a plain node tree.
	t := &tree{}
	var build func(rows []int, depth int) int
	build = func(rows []int, depth int) int {
		if depth >= len(levels) {
			g, h := c.sums(rows)
			return t.addLeaf(c.leafValue(g, h))
		}
		ls := levels[depth]
		id := t.addSplit(ls.feature, ls.bin)
		left, right := c.partition(rows, ls.feature, ls.bin)
		t.nodes[id].left = build(left, depth+1)
		t.nodes[id].right = build(right, depth+1)
		return id
	}
	build(c.rows, 0)
	if len(t.nodes) == 0 {
		g, h := c.sums(c.rows)
		t.addLeaf(c.leafValue(g, h))
	}
	return t
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
