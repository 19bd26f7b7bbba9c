package tuning

import (
	"github.com/liqcal/calibration-core/internal/trial"
	"github.com/liqcal/calibration-core/pkg/params"
)

// Phase labels recorded on hybrid-strategy trials.
const (
	PhaseFlowRates  = "flow_rates"
	PhaseDelays     = "delays"
	PhaseWithdrawal = "withdrawal"
	PhaseFineTune   = "fine_tune"
)

const (
	defaultBudget         = 96
	defaultFineTuneFactor = 0.4
)

// phaseDef is one resolved phase of a hybrid run: a trial-index range and
// the parameter subset optimized inside it.
type phaseDef struct {
	name     string
	active   []params.Name
	lo, hi   int
	fineTune bool
}

// hybridStrategy runs four ordered phases over the budget: flow rates,
// then delays, then withdrawal, then a fine-tune pass over all six with
// reduced step scales. Each phase starts from the best vector the
// previous phase found.
type hybridStrategy struct {
	seed   params.Vector
	bounds params.Bounds
	scales map[params.Name]float64
	factor float64
	phases []phaseDef

	phaseIdx    int
	phaseVector params.Vector
}

func newHybrid(cfg StrategyConfig) *hybridStrategy {
	budget := cfg.Budget
	if budget <= 0 {
		budget = defaultBudget
	}
	factor := cfg.FineTuneFactor
	if factor <= 0 {
		factor = defaultFineTuneFactor
	}
	fr := cfg.PhaseFractions
	if fr.FlowRates <= 0 && fr.Delays <= 0 && fr.Withdrawal <= 0 {
		fr = DefaultPhaseFractions()
	}

	return &hybridStrategy{
		seed:        cfg.Seed,
		bounds:      cfg.Bounds,
		scales:      resolveStepScales(cfg.StepScales),
		factor:      factor,
		phases:      allocatePhases(budget, fr),
		phaseIdx:    0,
		phaseVector: cfg.Seed,
	}
}

// allocatePhases sizes the four phases proportionally to the budget. Every
// sized phase gets at least one trial; fine-tune takes the remainder and
// absorbs any trials past the nominal budget.
func allocatePhases(budget int, fr PhaseFractions) []phaseDef {
	sized := func(frac float64) int {
		n := int(float64(budget) * frac)
		if n < 1 {
			n = 1
		}
		return n
	}
	flow := sized(fr.FlowRates)
	delays := sized(fr.Delays)
	withdrawal := sized(fr.Withdrawal)
	fine := budget - flow - delays - withdrawal
	if fine < 1 {
		fine = 1
	}

	phases := make([]phaseDef, 0, 4)
	lo := 0
	add := func(name string, active []params.Name, n int, fineTune bool) {
		phases = append(phases, phaseDef{
			name:     name,
			active:   active,
			lo:       lo,
			hi:       lo + n - 1,
			fineTune: fineTune,
		})
		lo += n
	}
	add(PhaseFlowRates, []params.Name{params.AspirationRate, params.DispenseRate, params.BlowoutRate}, flow, false)
	add(PhaseDelays, []params.Name{params.AspirationDelay, params.DispenseDelay}, delays, false)
	add(PhaseWithdrawal, []params.Name{params.AspirationWithdrawalRate}, withdrawal, false)
	add(PhaseFineTune, params.Names(), fine, true)
	return phases
}

func (s *hybridStrategy) Name() string { return StrategyHybrid }

func (s *hybridStrategy) Description() string {
	return "hierarchical optimization: flow rates, delays, withdrawal, then fine-tuning"
}

// Phase returns the phase label for a trial index. Indexes past the last
// phase boundary stay in fine-tune.
func (s *hybridStrategy) Phase(trialIdx int) string {
	return s.phases[s.phaseIndexFor(trialIdx)].name
}

func (s *hybridStrategy) phaseIndexFor(trialIdx int) int {
	for i, p := range s.phases {
		if trialIdx <= p.hi {
			return i
		}
	}
	return len(s.phases) - 1
}

// stepScale returns the per-parameter step, reduced in the fine-tune
// phase for finer convergence.
func (s *hybridStrategy) stepScale(p phaseDef, n params.Name) float64 {
	scale := s.scales[n]
	if p.fineTune {
		scale *= s.factor
	}
	return scale
}

func (s *hybridStrategy) Generate(trialIdx int, hist *trial.History, learningRate float64) (params.Vector, error) {
	if err := requireHistory(hist); err != nil {
		return params.Vector{}, err
	}

	idx := s.phaseIndexFor(trialIdx)
	if idx != s.phaseIdx {
		s.transitionTo(idx, hist)
	}
	phase := s.phases[idx]

	switch {
	case trialIdx == phase.lo:
		// First trial of the phase repeats the phase-start vector.
		return s.bounds.Clamp(s.phaseVector), nil

	case trialIdx == phase.lo+1:
		return s.explore(phase), nil

	default:
		basis := hist.LastSuccessfulInRange(phase.lo, trialIdx-1, 2)
		if len(basis) < 2 {
			return s.explore(phase), nil
		}
		prev, cur := basis[0], basis[1]
		next := cur.Params
		for _, n := range phase.active {
			g := gradient(n, prev, cur)
			next.Add(n, learningRate*s.stepScale(phase, n)*g)
		}
		return s.bounds.Clamp(next), nil
	}
}

// transitionTo starts a new phase from the best vector of the completed
// one, falling back to the overall best and then the current phase-start
// vector. Parameters outside the new phase's subset ride along unchanged.
func (s *hybridStrategy) transitionTo(idx int, hist *trial.History) {
	done := s.phases[s.phaseIdx]
	if best, ok := hist.BestInRange(done.lo, done.hi); ok {
		s.phaseVector = best.Params
	} else if best, ok := hist.Best(); ok {
		s.phaseVector = best.Params
	}
	s.phaseIdx = idx
}

// explore nudges the phase's active parameters off the phase-start vector
// so the next call has a gradient pair.
func (s *hybridStrategy) explore(phase phaseDef) params.Vector {
	next := s.phaseVector
	for _, n := range phase.active {
		next.Add(n, s.stepScale(phase, n)*exploreFraction)
	}
	return s.bounds.Clamp(next)
}
