package tuning

import "fmt"

// Default learning-rate controller constants.
const (
	DefaultInitialRate = 0.1
	DefaultDecayFactor = 0.95
	DefaultMinRate     = 0.01
	DefaultPatience    = 5
)

// RateControllerConfig configures one controller. Zero values select the
// defaults above.
type RateControllerConfig struct {
	InitialRate float64 `yaml:"initial"`
	DecayFactor float64 `yaml:"decay"`
	MinRate     float64 `yaml:"min"`
	Patience    int     `yaml:"patience"`
}

// DefaultRateControllerConfig returns the standard controller constants.
func DefaultRateControllerConfig() RateControllerConfig {
	return RateControllerConfig{
		InitialRate: DefaultInitialRate,
		DecayFactor: DefaultDecayFactor,
		MinRate:     DefaultMinRate,
		Patience:    DefaultPatience,
	}
}

// RateController tracks the scalar learning rate for one run and decays
// it when the score stagnates. The rate never increases once decayed.
// One controller per run; never shared.
type RateController struct {
	rate        float64
	decayFactor float64
	minRate     float64
	patience    int

	stagnation int
	best       float64
	hasBest    bool
}

// NewRateController validates the config and builds a controller. Zero
// fields take defaults; out-of-range fields are configuration errors.
func NewRateController(cfg RateControllerConfig) (*RateController, error) {
	if cfg.InitialRate == 0 {
		cfg.InitialRate = DefaultInitialRate
	}
	if cfg.DecayFactor == 0 {
		cfg.DecayFactor = DefaultDecayFactor
	}
	if cfg.MinRate == 0 {
		cfg.MinRate = DefaultMinRate
	}
	if cfg.Patience == 0 {
		cfg.Patience = DefaultPatience
	}

	if cfg.InitialRate <= 0 {
		return nil, fmt.Errorf("learning rate must be > 0, got %g", cfg.InitialRate)
	}
	if cfg.DecayFactor <= 0 || cfg.DecayFactor >= 1 {
		return nil, fmt.Errorf("decay factor must be in (0, 1), got %g", cfg.DecayFactor)
	}
	if cfg.MinRate < 0 || cfg.MinRate > cfg.InitialRate {
		return nil, fmt.Errorf("min rate must be in [0, %g], got %g", cfg.InitialRate, cfg.MinRate)
	}
	if cfg.Patience < 1 {
		return nil, fmt.Errorf("patience must be >= 1, got %d", cfg.Patience)
	}

	return &RateController{
		rate:        cfg.InitialRate,
		decayFactor: cfg.DecayFactor,
		minRate:     cfg.MinRate,
		patience:    cfg.Patience,
	}, nil
}

// Rate returns the current learning rate.
func (c *RateController) Rate() float64 {
	return c.rate
}

// Stagnation returns the consecutive non-improving trial count since the
// last improvement or decay.
func (c *RateController) Stagnation() int {
	return c.stagnation
}

// Observe records one trial outcome. A new best score resets the
// stagnation count; anything else, failures included, increments it.
// Reaching patience decays the rate toward the floor and reports true.
func (c *RateController) Observe(score float64, failed bool) bool {
	if !failed && (!c.hasBest || score < c.best) {
		c.best = score
		c.hasBest = true
		c.stagnation = 0
		return false
	}

	c.stagnation++
	if c.stagnation < c.patience {
		return false
	}
	c.stagnation = 0
	decayed := c.rate * c.decayFactor
	if decayed < c.minRate {
		decayed = c.minRate
	}
	c.rate = decayed
	return true
}
