// Package tuning implements the sequential parameter auto-tuning engine:
// the optimization strategies, the learning-rate controller, and the
// trial-at-a-time session loop that drives an external evaluator.
package tuning

import (
	"fmt"
	"strings"

	"github.com/liqcal/calibration-core/internal/trial"
	"github.com/liqcal/calibration-core/pkg/params"
)

// gradientEpsilon is the smallest parameter delta considered usable for a
// finite-difference gradient estimate.
const gradientEpsilon = 1e-6

// exploreFraction scales the per-parameter step when a strategy has no
// gradient pair yet and must nudge a parameter to create one.
const exploreFraction = 0.1

// Strategy produces the parameter vector to try at a given trial index.
// Trial 0 never reaches a strategy; the session uses the seed verbatim.
// Implementations may carry state between calls but must not mutate the
// history.
type Strategy interface {
	// Generate returns the next vector to try. trialIdx is >= 1 and the
	// history holds at least one prior record. The returned vector is
	// always inside the strategy's bounds.
	Generate(trialIdx int, hist *trial.History, learningRate float64) (params.Vector, error)

	// Name returns the strategy's registration name.
	Name() string

	// Description returns a one-line human-readable description.
	Description() string
}

// PhaseAware is implemented by strategies that partition the run into
// named phases. The session uses it to label trial records.
type PhaseAware interface {
	Phase(trialIdx int) string
}

// StrategyName values accepted by NewStrategy.
const (
	StrategySimultaneous = "simultaneous"
	StrategyCoordinate   = "coordinate"
	StrategyHybrid       = "hybrid"
)

// UnknownStrategyError indicates a strategy name with no registered
// implementation. This is a configuration error with no fallback.
type UnknownStrategyError struct {
	StrategyName string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown optimization strategy: %q (available: %s)",
		e.StrategyName, strings.Join(AvailableStrategies(), ", "))
}

// StrategyConfig carries the shared construction inputs for all strategy
// variants. Zero values select the documented defaults.
type StrategyConfig struct {
	// Seed is the reference vector optimization starts from.
	Seed params.Vector

	// Bounds constrains every generated vector. Violations are clamped.
	Bounds params.Bounds

	// StepScales overrides the per-parameter step constants. Missing
	// entries fall back to DefaultStepScales.
	StepScales map[params.Name]float64

	// SwitchInterval is the coordinate strategy's trials-per-parameter
	// window. Default 3.
	SwitchInterval int

	// Budget is the total trial count, used by the hybrid strategy to
	// size its phases. Default 96.
	Budget int

	// PhaseFractions sizes the hybrid strategy's first three phases as
	// fractions of the budget; the fine-tune phase takes the remainder.
	PhaseFractions PhaseFractions

	// FineTuneFactor multiplies step scales during the hybrid strategy's
	// fine-tune phase. Default 0.4.
	FineTuneFactor float64
}

// PhaseFractions sizes the hybrid strategy's phases.
type PhaseFractions struct {
	FlowRates  float64
	Delays     float64
	Withdrawal float64
}

// DefaultPhaseFractions returns the standard 25% / 25% / 12.5% split,
// leaving 37.5% of the budget for fine-tuning.
func DefaultPhaseFractions() PhaseFractions {
	return PhaseFractions{FlowRates: 0.25, Delays: 0.25, Withdrawal: 0.125}
}

// DefaultStepScales returns the per-parameter step constants. Rate-type
// parameters move in larger steps than delay-type parameters.
func DefaultStepScales() map[params.Name]float64 {
	return map[params.Name]float64{
		params.AspirationRate:           10.0,
		params.AspirationDelay:          0.05,
		params.AspirationWithdrawalRate: 0.5,
		params.DispenseRate:             10.0,
		params.DispenseDelay:            0.05,
		params.BlowoutRate:              5.0,
	}
}

// AvailableStrategies returns the registered strategy names.
func AvailableStrategies() []string {
	return []string{StrategySimultaneous, StrategyCoordinate, StrategyHybrid}
}

// NewStrategy constructs a strategy by name. Unknown names return an
// *UnknownStrategyError; invalid bounds are a configuration error.
func NewStrategy(name string, cfg StrategyConfig) (Strategy, error) {
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(name) {
	case StrategySimultaneous:
		return newSimultaneous(cfg), nil
	case StrategyCoordinate:
		return newCoordinate(cfg), nil
	case StrategyHybrid:
		return newHybrid(cfg), nil
	default:
		return nil, &UnknownStrategyError{StrategyName: name}
	}
}

// resolveStepScales merges config overrides over the defaults.
func resolveStepScales(overrides map[params.Name]float64) map[params.Name]float64 {
	scales := DefaultStepScales()
	for n, s := range overrides {
		scales[n] = s
	}
	return scales
}

// gradient estimates the finite-difference gradient for one parameter
// from two consecutive basis records. The sign is flipped so a positive
// gradient points toward lower scores.
func gradient(n params.Name, prev, cur trial.Record) float64 {
	dp := cur.Params.Value(n) - prev.Params.Value(n)
	if dp > -gradientEpsilon && dp < gradientEpsilon {
		return 0
	}
	return -(cur.Score - prev.Score) / dp
}

// basisPair returns the gradient basis for a generate call: up to the two
// most recent successful records, oldest first. Failed trials are never
// part of the basis, which gives fail-soft continuation for free.
func basisPair(hist *trial.History) []trial.Record {
	return hist.LastSuccessful(2)
}

func requireHistory(hist *trial.History) error {
	if hist == nil || hist.Len() == 0 {
		return fmt.Errorf("generate requires a non-empty history")
	}
	return nil
}
