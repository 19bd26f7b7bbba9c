package tuning

import (
	"github.com/liqcal/calibration-core/internal/trial"
	"github.com/liqcal/calibration-core/pkg/params"
)

// simultaneousStrategy updates all six parameters in one gradient step
// per trial.
type simultaneousStrategy struct {
	seed   params.Vector
	bounds params.Bounds
	scales map[params.Name]float64
}

func newSimultaneous(cfg StrategyConfig) *simultaneousStrategy {
	return &simultaneousStrategy{
		seed:   cfg.Seed,
		bounds: cfg.Bounds,
		scales: resolveStepScales(cfg.StepScales),
	}
}

func (s *simultaneousStrategy) Name() string { return StrategySimultaneous }

func (s *simultaneousStrategy) Description() string {
	return "optimizes all 6 parameters simultaneously using gradient descent"
}

func (s *simultaneousStrategy) Generate(trialIdx int, hist *trial.History, learningRate float64) (params.Vector, error) {
	if err := requireHistory(hist); err != nil {
		return params.Vector{}, err
	}

	basis := basisPair(hist)
	if len(basis) < 2 {
		// Not enough successful trials for a gradient pair; nudge every
		// parameter off the latest basis so the next call has one.
		cur := s.seed
		if len(basis) == 1 {
			cur = basis[0].Params
		}
		for _, n := range params.Names() {
			cur.Add(n, s.scales[n]*exploreFraction)
		}
		return s.bounds.Clamp(cur), nil
	}

	prev, cur := basis[0], basis[1]
	next := cur.Params
	for _, n := range params.Names() {
		g := gradient(n, prev, cur)
		next.Add(n, learningRate*s.scales[n]*g)
	}
	return s.bounds.Clamp(next), nil
}
