package tuning

import (
	"math"

	"github.com/liqcal/calibration-core/internal/trial"
	"github.com/liqcal/calibration-core/pkg/params"
)

// defaultSwitchInterval is how many trials the coordinate strategy spends
// on one parameter before advancing to the next.
const defaultSwitchInterval = 3

// coordinateCycle is the fixed order parameters are visited in.
var coordinateCycle = []params.Name{
	params.AspirationRate,
	params.DispenseRate,
	params.BlowoutRate,
	params.AspirationDelay,
	params.DispenseDelay,
	params.AspirationWithdrawalRate,
}

// coordinateStrategy optimizes one parameter at a time, advancing through
// the cycle every switchInterval trials. Isolating each parameter keeps
// its marginal effect readable on noisy objectives.
type coordinateStrategy struct {
	seed           params.Vector
	bounds         params.Bounds
	scales         map[params.Name]float64
	switchInterval int
}

func newCoordinate(cfg StrategyConfig) *coordinateStrategy {
	interval := cfg.SwitchInterval
	if interval <= 0 {
		interval = defaultSwitchInterval
	}
	return &coordinateStrategy{
		seed:           cfg.Seed,
		bounds:         cfg.Bounds,
		scales:         resolveStepScales(cfg.StepScales),
		switchInterval: interval,
	}
}

func (s *coordinateStrategy) Name() string { return StrategyCoordinate }

func (s *coordinateStrategy) Description() string {
	return "optimizes one parameter at a time in cycling order"
}

// activeParam returns the parameter under optimization at a trial index.
// Trials 1..interval work the first parameter, the next window the
// second, wrapping around the cycle.
func (s *coordinateStrategy) activeParam(trialIdx int) params.Name {
	window := (trialIdx - 1) / s.switchInterval
	return coordinateCycle[window%len(coordinateCycle)]
}

func (s *coordinateStrategy) Generate(trialIdx int, hist *trial.History, learningRate float64) (params.Vector, error) {
	if err := requireHistory(hist); err != nil {
		return params.Vector{}, err
	}

	active := s.activeParam(trialIdx)
	basis := basisPair(hist)

	if len(basis) == 0 {
		next := s.seed
		next.Add(active, s.scales[active]*exploreFraction)
		return s.bounds.Clamp(next), nil
	}

	next := basis[len(basis)-1].Params
	if len(basis) < 2 {
		next.Add(active, s.scales[active]*exploreFraction)
		return s.bounds.Clamp(next), nil
	}

	prev, cur := basis[0], basis[1]
	if math.Abs(cur.Params.Value(active)-prev.Params.Value(active)) <= gradientEpsilon {
		// The basis pair does not vary the active parameter, which is the
		// case at the start of every switch window. Nudge it so the next
		// call has a usable gradient.
		next.Add(active, s.scales[active]*exploreFraction)
		return s.bounds.Clamp(next), nil
	}

	g := gradient(active, prev, cur)
	next.Add(active, learningRate*s.scales[active]*g)
	return s.bounds.Clamp(next), nil
}
