// Package simeval provides a simulated dispense evaluator for running
// tuning sessions without hardware. It scores a parameter vector with a
// fixed response model plus per-trial seeded noise and plate-position
// effects, so a given seed always reproduces the same run.
package simeval

import (
	"context"
	"fmt"
	"math"

	"github.com/liqcal/calibration-core/pkg/params"
	"github.com/liqcal/calibration-core/pkg/utils"
)

// Response model constants. Lower aspiration and dispense rates reduce
// bubbling, blowout is best near its optimum, and long delays cost a
// little throughput-weighted score.
const (
	rateOptimum     = 50.0
	rateSpan        = 450.0
	rateWeight      = 2.0
	blowoutOptimum  = 50.0
	blowoutWeight   = 1.5
	delayWeight     = 0.5
	noiseAmplitude  = 0.5
	edgeCoefficient = 0.1
)

// Config configures one simulated evaluator.
type Config struct {
	// Seed fixes the per-trial noise. Zero seeds from the clock.
	Seed int64 `yaml:"seed"`

	// FailureRate is the probability that a trial fails its liquid
	// height check instead of producing a score. Zero disables failures.
	FailureRate float64 `yaml:"failure_rate"`

	// PlateRows and PlateCols shape the virtual well plate trials walk
	// across. Defaults model a 96-well plate (8 x 12).
	PlateRows int `yaml:"plate_rows"`
	PlateCols int `yaml:"plate_cols"`
}

// DefaultConfig returns the standard 96-well noiseless-failure setup.
func DefaultConfig() Config {
	return Config{PlateRows: 8, PlateCols: 12}
}

// HeightCheckError is the failure signal for a trial whose simulated
// liquid height check did not pass.
type HeightCheckError struct {
	Well string
}

func (e *HeightCheckError) Error() string {
	return fmt.Sprintf("liquid height check failed in well %s", e.Well)
}

// Evaluator scores parameter vectors one trial at a time, advancing
// across the plate on each call. Not safe for concurrent use; tuning
// runs are strictly sequential.
type Evaluator struct {
	cfg  Config
	seed int64
	next int
}

// New creates an evaluator. Zero plate dimensions take the defaults.
func New(cfg Config) *Evaluator {
	if cfg.PlateRows <= 0 {
		cfg.PlateRows = 8
	}
	if cfg.PlateCols <= 0 {
		cfg.PlateCols = 12
	}
	return &Evaluator{cfg: cfg, seed: cfg.Seed}
}

// WellName returns the plate position for a trial index, wrapping past
// the last well ("A1" through "H12" on the default plate).
func (e *Evaluator) WellName(trialIdx int) string {
	row, col := e.wellPosition(trialIdx)
	return fmt.Sprintf("%c%d", 'A'+row, col+1)
}

func (e *Evaluator) wellPosition(trialIdx int) (row, col int) {
	wells := e.cfg.PlateRows * e.cfg.PlateCols
	idx := trialIdx % wells
	return idx % e.cfg.PlateRows, idx / e.cfg.PlateRows
}

// Evaluate scores one dispense. The score is the simulated bubbling
// metric, lower is better, floored at zero.
func (e *Evaluator) Evaluate(ctx context.Context, p params.Vector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	trialIdx := e.next
	e.next++
	rng := utils.NewRandSource(e.seed + int64(trialIdx) + 1)

	if e.cfg.FailureRate > 0 && rng.Float64() < e.cfg.FailureRate {
		return 0, &HeightCheckError{Well: e.WellName(trialIdx)}
	}

	score := rateContribution(p.AspirationRate) + rateContribution(p.DispenseRate)

	blowoutFactor := 1.0 - math.Abs(p.BlowoutRate-blowoutOptimum)/blowoutOptimum
	score += (1.0 - math.Max(0, blowoutFactor)) * blowoutWeight

	delayFactor := math.Min(1.0, (p.AspirationDelay+p.DispenseDelay)/2.0)
	score += delayFactor * delayWeight

	noise := rng.UniformFloat64(-noiseAmplitude, noiseAmplitude)
	score += noise + e.edgePenalty(trialIdx)

	return math.Max(0, score), nil
}

// rateContribution penalizes fast flow: the factor decays linearly above
// the optimum rate and is floored so extreme rates stay distinguishable.
func rateContribution(rate float64) float64 {
	factor := math.Max(0.1, 1.0-(rate-rateOptimum)/rateSpan)
	return (1.0 - factor) * rateWeight
}

// edgePenalty models worse readings toward the plate edges, by Manhattan
// distance from the plate center.
func (e *Evaluator) edgePenalty(trialIdx int) float64 {
	row, col := e.wellPosition(trialIdx)
	centerRow := float64(e.cfg.PlateRows-1) / 2
	centerCol := float64(e.cfg.PlateCols-1) / 2
	dist := math.Abs(float64(row)-centerRow) + math.Abs(float64(col)-centerCol)
	return dist * edgeCoefficient
}
