// Package hpo searches the oblivious-tree parameter space. The strategy is
// explore-then-perturb: the first half of the trials sample the space
// uniformly, the rest perturb the best candidate so far with shrinking
// noise. Deterministic for a given seed.
package hpo

import (
	"math"
	"math/rand"

	"triguard/internal/boost"
	"triguard/internal/ensemble"
	"triguard/internal/features"
	"triguard/pkg/logger"
)

// Search space bounds.
const (
	lrMin, lrMax           = 0.01, 0.05 // log-uniform
	depthMin, depthMax     = 3, 8
	l2Min, l2Max           = 1.0, 10.0
	bagMin, bagMax         = 0.0, 1.0
	strengthMin            = 0.0
	strengthMax            = 1.0
	minLeafMin, minLeafMax = 10, 50
)

// Config controls the search.
type Config struct {
	Trials int
	Seed   int64
	CV     ensemble.Config
}

// Trial records one evaluated candidate.
type Trial struct {
	Params boost.Params
	Score  float64
}

// Searcher optimizes the oblivious family's parameters against
// cross-validated best-threshold F1.
type Searcher struct {
	cfg Config
	log *logger.Logger
}

func NewSearcher(cfg Config) *Searcher {
	if cfg.Trials <= 0 {
		cfg.Trials = 20
	}
	return &Searcher{cfg: cfg, log: logger.Get().With("component", "hpo")}
}

// Optimize runs the trials and returns the best parameters with the full
// trial history.
func (s *Searcher) Optimize(train *features.FeatureSet) (boost.Params, []Trial, error) {
	rng := rand.New(rand.NewSource(s.cfg.Seed))

	explore := s.cfg.Trials / 2
	if explore < 1 {
		explore = 1
	}

	best := Trial{Score: math.Inf(-1)}
	trials := make([]Trial, 0, s.cfg.Trials)

	for i := 0; i < s.cfg.Trials; i++ {
		var cand boost.Params
		if i < explore || math.IsInf(best.Score, -1) {
			cand = s.sample(rng)
		} else {
			// Noise shrinks as the budget runs out.
			scale := 0.3 * (1 - float64(i)/float64(s.cfg.Trials))
			cand = s.perturb(rng, best.Params, scale)
		}

		score, err := ensemble.EvaluateParams(s.cfg.CV, train, boost.Oblivious, cand)
		if err != nil {
			return boost.Params{}, nil, err
		}

		trial := Trial{Params: cand, Score: score}
		trials = append(trials, trial)
		if score > best.Score {
			best = trial
			s.log.Infof("Trial %d/%d: new best F1=%.5f (lr=%.4f depth=%d l2=%.2f)",
				i+1, s.cfg.Trials, score, cand.LearningRate, cand.MaxDepth, cand.RegLambda)
		} else {
			s.log.Debugf("Trial %d/%d: F1=%.5f", i+1, s.cfg.Trials, score)
		}
	}

	s.log.Infof("Search finished: best F1=%.5f over %d trials", best.Score, len(trials))
	return best.Params, trials, nil
}

func (s *Searcher) sample(rng *rand.Rand) boost.Params {
	lr := math.Exp(math.Log(lrMin) + rng.Float64()*(math.Log(lrMax)-math.Log(lrMin)))
	return s.candidate(
		lr,
		depthMin+rng.Intn(depthMax-depthMin+1),
		l2Min+rng.Float64()*(l2Max-l2Min),
		bagMin+rng.Float64()*(bagMax-bagMin),
		strengthMin+rng.Float64()*(strengthMax-strengthMin),
		minLeafMin+rng.Intn(minLeafMax-minLeafMin+1),
	)
}

func (s *Searcher) perturb(rng *rand.Rand, base boost.Params, scale float64) boost.Params {
	logLR := math.Log(base.LearningRate) + rng.NormFloat64()*scale*(math.Log(lrMax)-math.Log(lrMin))
	lr := clampF(math.Exp(logLR), lrMin, lrMax)

	depth := clampI(base.MaxDepth+jitterI(rng, scale, depthMax-depthMin), depthMin, depthMax)
	l2 := clampF(base.RegLambda+rng.NormFloat64()*scale*(l2Max-l2Min), l2Min, l2Max)
	bag := clampF(base.BaggingTemperature+rng.NormFloat64()*scale, bagMin, bagMax)
	strength := clampF(base.RandomStrength+rng.NormFloat64()*scale, strengthMin, strengthMax)
	minLeaf := clampI(base.MinChildSamples+jitterI(rng, scale, minLeafMax-minLeafMin),
		minLeafMin, minLeafMax)

	return s.candidate(lr, depth, l2, bag, strength, minLeaf)
}

func (s *Searcher) candidate(lr float64, depth int, l2, bag, strength float64, minLeaf int) boost.Params {
	return boost.Params{
		NumEstimators:       1000,
		LearningRate:        lr,
		MaxDepth:            depth,
		MinChildSamples:     minLeaf,
		RegLambda:           l2,
		BaggingTemperature:  bag,
		RandomStrength:      strength,
		EarlyStoppingRounds: 100,
	}
}

func jitterI(rng *rand.Rand, scale float64, span int) int {
	return int(math.Round(rng.NormFloat64() * scale * float64(span)))
}

func clampF(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
