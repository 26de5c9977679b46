// Package boost implements histogram-based gradient boosted trees with a
// logistic objective. Three growth styles are supported so the ensemble can
// train structurally diverse members: leaf-wise (best-first), level-wise
// (depth-first to a fixed depth), and oblivious (one shared split per level).
package boost

// Style selects how trees are grown.
type Style int

const (
	LeafWise Style = iota
	LevelWise
	Oblivious
)

func (s Style) String() string {
	switch s {
	case LeafWise:
		return "leaf_wise"
	case LevelWise:
		return "level_wise"
	case Oblivious:
		return "oblivious"
	}
	return "unknown"
}

// Params are the training knobs. Zero values fall back to defaults; not
// every field applies to every style (NumLeaves only bounds leaf-wise
// growth, BaggingTemperature only weights oblivious trees, and so on).
type Params struct {
	NumEstimators   int
	LearningRate    float64
	NumLeaves       int
	MaxDepth        int
	MinChildSamples int

	Subsample       float64 // row fraction per tree
	ColsampleByTree float64 // feature fraction per tree

	RegAlpha  float64 // L1 on leaf outputs
	RegLambda float64 // L2 on leaf outputs

	BaggingTemperature float64 // Bayesian bootstrap weight temperature
	RandomStrength     float64 // split score noise scale

	EarlyStoppingRounds int
	Seed                int64
}

func (p Params) withDefaults() Params {
	if p.NumEstimators <= 0 {
		p.NumEstimators = 100
	}
	if p.LearningRate <= 0 {
		p.LearningRate = 0.1
	}
	if p.NumLeaves <= 1 {
		p.NumLeaves = 31
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = 6
	}
	if p.MinChildSamples <= 0 {
		p.MinChildSamples = 20
	}
	if p.Subsample <= 0 || p.Subsample > 1 {
		p.Subsample = 1
	}
	if p.ColsampleByTree <= 0 || p.ColsampleByTree > 1 {
		p.ColsampleByTree = 1
	}
	return p
}
