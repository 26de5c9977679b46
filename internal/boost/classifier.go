package boost

import (
	"math"
	"math/rand"
	"sort"

	"triguard/pkg/errors"
)

// Classifier is a binary gradient boosted tree model. Fit is deterministic
// for a given seed; PredictProba reuses the bin edges fitted on training
// data so unseen values land in the nearest training bin.
type Classifier struct {
	style  Style
	params Params

	binner *binner
	trees  []*tree
	base   float64
	nFeat  int
}

func NewClassifier(style Style, p Params) *Classifier {
	return &Classifier{style: style, params: p.withDefaults()}
}

// Fit trains on x/y. When evalX is non-empty it is used for early stopping:
// training stops after EarlyStoppingRounds iterations without a log-loss
// improvement and the model is truncated to its best iteration.
func (c *Classifier) Fit(x [][]float64, y []int, evalX [][]float64, evalY []int) error {
	if len(x) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "empty training matrix")
	}
	if len(x) != len(y) {
		return errors.Wrapf(errors.ErrInvalidInput,
			"matrix rows %d != labels %d", len(x), len(y))
	}
	c.nFeat = len(x[0])
	for _, row := range x {
		if len(row) != c.nFeat {
			return errors.Wrap(errors.ErrInvalidInput, "ragged training matrix")
		}
	}

	c.binner = fitBinner(x, c.nFeat)
	bins := c.binner.transform(x)
	nbins := make([]int, c.nFeat)
	for f := 0; f < c.nFeat; f++ {
		nbins[f] = c.binner.binCount(f)
	}

	var evalBins [][]uint8
	useEval := len(evalX) > 0 && c.params.EarlyStoppingRounds > 0
	if useEval {
		evalBins = c.binner.transform(evalX)
	}

	n := len(x)
	pos := 0
	for _, v := range y {
		if v == 1 {
			pos++
		}
	}
	prior := clampProb(float64(pos) / float64(n))
	c.base = math.Log(prior / (1 - prior))

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = c.base
	}
	evalScores := make([]float64, len(evalX))
	for i := range evalScores {
		evalScores[i] = c.base
	}

	rng := rand.New(rand.NewSource(c.params.Seed))
	grad := make([]float64, n)
	hess := make([]float64, n)

	bestLoss := math.Inf(1)
	bestIter := 0
	sinceBest := 0

	for iter := 0; iter < c.params.NumEstimators; iter++ {
		for i := range scores {
			p := sigmoid(scores[i])
			grad[i] = p - float64(y[i])
			hess[i] = math.Max(p*(1-p), 1e-16)
		}

		rows := c.sampleRows(rng, n)
		if c.params.BaggingTemperature > 0 {
			for _, r := range rows {
				w := math.Pow(-math.Log(rng.Float64()+1e-12), c.params.BaggingTemperature)
				grad[r] *= w
				hess[r] *= w
			}
		}
		feats := c.sampleFeatures(rng)

		ctx := &treeContext{
			bins:     bins,
			nbins:    nbins,
			grad:     grad,
			hess:     hess,
			rows:     rows,
			features: feats,
			p:        c.params,
			rng:      rng,
		}

		var t *tree
		switch c.style {
		case LevelWise:
			t = buildLevelWise(ctx)
		case Oblivious:
			t = buildOblivious(ctx)
		default:
			t = buildLeafWise(ctx)
		}
		c.trees = append(c.trees, t)

		for i := range scores {
			scores[i] += t.predict(bins, i)
		}

		if !useEval {
			continue
		}
		for i := range evalScores {
			evalScores[i] += t.predict(evalBins, i)
		}
		loss := logLoss(evalY, evalScores)
		if loss < bestLoss-1e-9 {
			bestLoss = loss
			bestIter = iter + 1
			sinceBest = 0
		} else {
			sinceBest++
			if sinceBest >= c.params.EarlyStoppingRounds {
				break
			}
		}
	}

	if useEval && bestIter > 0 {
		c.trees = c.trees[:bestIter]
	}
	return nil
}

// PredictProba returns the positive-class probability for each row.
func (c *Classifier) PredictProba(x [][]float64) ([]float64, error) {
	if c.binner == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "classifier is not fitted")
	}
	for _, row := range x {
		if len(row) != c.nFeat {
			return nil, errors.Wrapf(errors.ErrInvalidInput,
				"expected %d features, got %d", c.nFeat, len(row))
		}
	}

	bins := c.binner.transform(x)
	out := make([]float64, len(x))
	for i := range x {
		score := c.base
		for _, t := range c.trees {
			score += t.predict(bins, i)
		}
		out[i] = sigmoid(score)
	}
	return out, nil
}

// NumTrees reports the trained (possibly early-stopped) tree count.
func (c *Classifier) NumTrees() int {
	return len(c.trees)
}

func (c *Classifier) sampleRows(rng *rand.Rand, n int) []int {
	if c.params.Subsample >= 1 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	k := int(c.params.Subsample * float64(n))
	if k < 1 {
		k = 1
	}
	rows := rng.Perm(n)[:k]
	sort.Ints(rows)
	return rows
}

func (c *Classifier) sampleFeatures(rng *rand.Rand) []int {
	if c.params.ColsampleByTree >= 1 {
		feats := make([]int, c.nFeat)
		for i := range feats {
			feats[i] = i
		}
		return feats
	}
	k := int(c.params.ColsampleByTree * float64(c.nFeat))
	if k < 1 {
		k = 1
	}
	feats := rng.Perm(c.nFeat)[:k]
	sort.Ints(feats)
	return feats
}

func clampProb(p float64) float64 {
	return math.Min(math.Max(p, 1e-6), 1-1e-6)
}

func logLoss(y []int, scores []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	sum := 0.0
	for i, s := range scores {
		p := clampProb(sigmoid(s))
		if y[i] == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(y))
}
