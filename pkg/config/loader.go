package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/liqcal/calibration-core/internal/tuning"
	"github.com/liqcal/calibration-core/pkg/params"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if err := validateCalibration(&cfg.Calibration); err != nil {
		return fmt.Errorf("calibration validation failed: %w", err)
	}

	if err := validateEvaluator(cfg); err != nil {
		return fmt.Errorf("evaluator validation failed: %w", err)
	}

	if cfg.Archive != nil && cfg.Archive.Enabled && cfg.Archive.Path == "" {
		return fmt.Errorf("archive path cannot be empty when the archive is enabled")
	}

	return nil
}

// validateCalibration validates the tuning-run section
func validateCalibration(c *Calibration) error {
	if _, err := c.ParsedPipette(); err != nil {
		return err
	}
	if _, err := c.ParsedLiquid(); err != nil {
		return err
	}

	known := false
	for _, name := range tuning.AvailableStrategies() {
		if strings.EqualFold(name, c.Strategy) {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown strategy: %s (must be one of %s)",
			c.Strategy, strings.Join(tuning.AvailableStrategies(), ", "))
	}

	if c.Budget <= 0 {
		return fmt.Errorf("budget must be positive, got %d", c.Budget)
	}
	if c.SwitchInterval < 0 {
		return fmt.Errorf("switch_interval cannot be negative, got %d", c.SwitchInterval)
	}
	if c.FineTuneFactor < 0 || c.FineTuneFactor > 1 {
		return fmt.Errorf("fine_tune_factor must be between 0 and 1, got %f", c.FineTuneFactor)
	}

	for name, scale := range c.StepScales {
		if _, err := params.ParseName(name); err != nil {
			return fmt.Errorf("step_scales: %w", err)
		}
		if scale <= 0 {
			return fmt.Errorf("step_scales: %s must be positive, got %f", name, scale)
		}
	}

	for name, r := range c.Bounds {
		if _, err := params.ParseName(name); err != nil {
			return fmt.Errorf("bounds: %w", err)
		}
		if r.Min >= r.Max {
			return fmt.Errorf("bounds: %s min must be below max, got [%f, %f]", name, r.Min, r.Max)
		}
	}

	if err := validateLearningRate(&c.LearningRate); err != nil {
		return err
	}

	if c.Convergence.Window < 0 {
		return fmt.Errorf("convergence window cannot be negative, got %d", c.Convergence.Window)
	}
	if c.Convergence.Threshold < 0 {
		return fmt.Errorf("convergence threshold cannot be negative, got %f", c.Convergence.Threshold)
	}

	return nil
}

// validateLearningRate validates the decay controller section. The zero
// value is allowed and selects defaults.
func validateLearningRate(lr *tuning.RateControllerConfig) error {
	zero := tuning.RateControllerConfig{}
	if *lr == zero {
		return nil
	}
	if lr.InitialRate <= 0 {
		return fmt.Errorf("learning_rate initial must be positive, got %f", lr.InitialRate)
	}
	if lr.DecayFactor <= 0 || lr.DecayFactor >= 1 {
		return fmt.Errorf("learning_rate decay must be between 0 and 1, got %f", lr.DecayFactor)
	}
	if lr.MinRate < 0 || lr.MinRate > lr.InitialRate {
		return fmt.Errorf("learning_rate min must be between 0 and initial, got %f", lr.MinRate)
	}
	if lr.Patience < 1 {
		return fmt.Errorf("learning_rate patience must be at least 1, got %d", lr.Patience)
	}
	return nil
}

// validateEvaluator validates the simulated evaluator section
func validateEvaluator(cfg *Config) error {
	e := &cfg.Evaluator
	if e.FailureRate < 0 || e.FailureRate > 1 {
		return fmt.Errorf("failure_rate must be between 0 and 1, got %f", e.FailureRate)
	}
	if e.PlateRows < 0 {
		return fmt.Errorf("plate_rows cannot be negative, got %d", e.PlateRows)
	}
	if e.PlateCols < 0 {
		return fmt.Errorf("plate_cols cannot be negative, got %d", e.PlateCols)
	}
	return nil
}
