package ensemble

import "triguard/internal/boost"

// Member is one ensemble family: a tree growth style plus its parameters.
type Member struct {
	Name   string
	Style  boost.Style
	Params boost.Params
}

// LeafWiseDefaults carries tuned settings from an earlier optimization run.
func LeafWiseDefaults() boost.Params {
	return boost.Params{
		NumEstimators:       2000,
		LearningRate:        0.0227,
		NumLeaves:           148,
		MaxDepth:            3,
		MinChildSamples:     32,
		Subsample:           0.7545,
		ColsampleByTree:     0.5992,
		RegAlpha:            4.786,
		RegLambda:           3.818,
		EarlyStoppingRounds: 150,
	}
}

// LevelWiseDefaults reuses the leaf-wise learning rate, depth, sampling and
// regularization so the two families differ only in growth strategy.
func LevelWiseDefaults() boost.Params {
	p := LeafWiseDefaults()
	p.NumLeaves = 0 // depth bounds level-wise growth
	return p
}

// ObliviousDefaults are the fixed symmetric-tree parameters used when
// hyperparameter search is disabled.
func ObliviousDefaults() boost.Params {
	return boost.Params{
		NumEstimators:       2000,
		LearningRate:        0.03,
		MaxDepth:            6,
		MinChildSamples:     20,
		RegLambda:           3.0,
		BaggingTemperature:  0.5,
		RandomStrength:      0.5,
		EarlyStoppingRounds: 150,
	}
}

// DefaultMembers builds the three families. The oblivious parameters are
// injected so a hyperparameter search can override them.
func DefaultMembers(oblivious boost.Params) []Member {
	return []Member{
		{Name: boost.LeafWise.String(), Style: boost.LeafWise, Params: LeafWiseDefaults()},
		{Name: boost.LevelWise.String(), Style: boost.LevelWise, Params: LevelWiseDefaults()},
		{Name: boost.Oblivious.String(), Style: boost.Oblivious, Params: oblivious},
	}
}
