package config

import (
	"github.com/liqcal/calibration-core/internal/simeval"
	"github.com/liqcal/calibration-core/internal/tuning"
	"github.com/liqcal/calibration-core/pkg/liquids"
	"github.com/liqcal/calibration-core/pkg/params"
)

// Config represents the main calibration configuration
type Config struct {
	LogLevel    string         `yaml:"log_level"`
	Calibration Calibration    `yaml:"calibration"`
	Evaluator   simeval.Config `yaml:"evaluator,omitempty"`
	Archive     *Archive       `yaml:"archive,omitempty"`
}

// Calibration describes one tuning run: the pipette/liquid pair being
// calibrated, the strategy, and the per-run tunables
type Calibration struct {
	Pipette  string `yaml:"pipette"`
	Liquid   string `yaml:"liquid"`
	Strategy string `yaml:"strategy"`
	Budget   int    `yaml:"budget"`

	// SwitchInterval applies to the coordinate strategy; zero keeps the
	// default of 3 trials per parameter.
	SwitchInterval int `yaml:"switch_interval,omitempty"`

	// FineTuneFactor applies to the hybrid strategy; zero keeps the
	// default of 0.4.
	FineTuneFactor float64 `yaml:"fine_tune_factor,omitempty"`

	// StepScales overrides per-parameter step constants by name.
	StepScales map[string]float64 `yaml:"step_scales,omitempty"`

	// Seed overrides the registry starting point when set.
	Seed *params.Vector `yaml:"seed,omitempty"`

	// Bounds overrides individual parameter ranges by name; parameters
	// not listed keep the pipette/liquid defaults.
	Bounds map[string]params.Range `yaml:"bounds,omitempty"`

	LearningRate tuning.RateControllerConfig `yaml:"learning_rate,omitempty"`
	Convergence  tuning.ConvergenceConfig    `yaml:"convergence,omitempty"`
}

// Archive configures the optional run store
type Archive struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns a runnable configuration: P1000 water, the
// simultaneous strategy, and a full 96-trial budget.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Calibration: Calibration{
			Pipette:      string(liquids.P1000),
			Liquid:       string(liquids.Water),
			Strategy:     tuning.StrategySimultaneous,
			Budget:       96,
			LearningRate: tuning.DefaultRateControllerConfig(),
			Convergence:  tuning.DefaultConvergenceConfig(),
		},
		Evaluator: simeval.DefaultConfig(),
	}
}

// ParsedPipette returns the typed pipette
func (c *Calibration) ParsedPipette() (liquids.Pipette, error) {
	return liquids.ParsePipette(c.Pipette)
}

// ParsedLiquid returns the typed liquid
func (c *Calibration) ParsedLiquid() (liquids.Liquid, error) {
	return liquids.ParseLiquid(c.Liquid)
}

// StepScaleOverrides converts the named step scales to typed keys
func (c *Calibration) StepScaleOverrides() (map[params.Name]float64, error) {
	if len(c.StepScales) == 0 {
		return nil, nil
	}
	out := make(map[params.Name]float64, len(c.StepScales))
	for name, scale := range c.StepScales {
		n, err := params.ParseName(name)
		if err != nil {
			return nil, err
		}
		out[n] = scale
	}
	return out, nil
}

// ApplyBounds layers the configured range overrides onto base
func (c *Calibration) ApplyBounds(base params.Bounds) (params.Bounds, error) {
	for name, r := range c.Bounds {
		n, err := params.ParseName(name)
		if err != nil {
			return base, err
		}
		base.SetRange(n, r)
	}
	return base, nil
}
