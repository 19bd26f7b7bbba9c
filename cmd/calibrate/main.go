package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/liqcal/calibration-core/internal/archive"
	"github.com/liqcal/calibration-core/internal/registry"
	"github.com/liqcal/calibration-core/internal/simeval"
	"github.com/liqcal/calibration-core/internal/tuning"
	"github.com/liqcal/calibration-core/pkg/config"
	"github.com/liqcal/calibration-core/pkg/logger"
	"github.com/liqcal/calibration-core/pkg/params"
)

func main() {
	var configPath string
	var pipette string
	var liquid string
	var strategy string
	var budget int
	var logLevel string

	flag.StringVar(&configPath, "config", "", "path to config file (defaults apply when omitted)")
	flag.StringVar(&pipette, "pipette", "", "pipette override (P20, P50, P300, P1000)")
	flag.StringVar(&liquid, "liquid", "", "liquid override (e.g. \"Glycerol 99%\")")
	flag.StringVar(&strategy, "strategy", "", "strategy override (simultaneous, coordinate, hybrid)")
	flag.IntVar(&budget, "budget", 0, "trial budget override")
	flag.StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	applyOverrides(cfg, pipette, liquid, strategy, budget, logLevel)

	logger.SetDefault(logger.NewText(cfg.LogLevel, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("calibration interrupted")
			os.Exit(130)
		}
		logger.Error("calibration failed", "error", err)
		os.Exit(1)
	}
}

func applyOverrides(cfg *config.Config, pipette, liquid, strategy string, budget int, logLevel string) {
	if pipette != "" {
		cfg.Calibration.Pipette = pipette
	}
	if liquid != "" {
		cfg.Calibration.Liquid = liquid
	}
	if strategy != "" {
		cfg.Calibration.Strategy = strategy
	}
	if budget > 0 {
		cfg.Calibration.Budget = budget
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	cal := &cfg.Calibration

	pip, err := cal.ParsedPipette()
	if err != nil {
		return err
	}
	liq, err := cal.ParsedLiquid()
	if err != nil {
		return err
	}

	// Starting vector: explicit override first, then the liquid-class
	// registry, then the hardware fallback inside Seed.
	reg := registry.NewWithDefaults()
	seed, known := reg.Seed(pip, liq)
	if cal.Seed != nil {
		seed = *cal.Seed
	} else if !known {
		logger.Warn("no registry entry, starting from fallback parameters",
			"pipette", pip, "liquid", liq)
	}

	bounds, err := cal.ApplyBounds(params.BoundsFor(pip, liq))
	if err != nil {
		return err
	}
	scales, err := cal.StepScaleOverrides()
	if err != nil {
		return err
	}

	session, err := tuning.NewSession(tuning.SessionConfig{
		Strategy:       cal.Strategy,
		Budget:         cal.Budget,
		Seed:           seed,
		Bounds:         bounds,
		StepScales:     scales,
		SwitchInterval: cal.SwitchInterval,
		FineTuneFactor: cal.FineTuneFactor,
		Controller:     cal.LearningRate,
		Convergence:    cal.Convergence,
	}, simeval.New(cfg.Evaluator))
	if err != nil {
		return err
	}

	logger.Info("starting calibration",
		"pipette", pip, "liquid", liq,
		"strategy", cal.Strategy, "budget", cal.Budget)

	res, err := session.Run(ctx)
	if err != nil {
		return err
	}

	report := tuning.Summarize(res)
	fmt.Print(report.String())

	if cfg.Archive != nil && cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer store.Close()

		runID, err := store.SaveRun(res, string(pip), string(liq), cal.Budget)
		if err != nil {
			return fmt.Errorf("failed to archive run: %w", err)
		}
		logger.Info("run archived", "run_id", runID, "path", cfg.Archive.Path)
	}

	return nil
}
