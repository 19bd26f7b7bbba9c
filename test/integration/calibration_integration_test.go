//go:build integration
// +build integration

package integration_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/liqcal/calibration-core/internal/archive"
	"github.com/liqcal/calibration-core/internal/registry"
	"github.com/liqcal/calibration-core/internal/simeval"
	"github.com/liqcal/calibration-core/internal/tuning"
	"github.com/liqcal/calibration-core/pkg/config"
	"github.com/liqcal/calibration-core/pkg/params"
)

// runFromConfig wires the full pipeline the way the calibrate binary
// does: registry seed, per-pair bounds, simulated evaluator, session.
func runFromConfig(t *testing.T, cfg *config.Config) *tuning.Result {
	t.Helper()

	cal := &cfg.Calibration
	pip, err := cal.ParsedPipette()
	if err != nil {
		t.Fatalf("ParsedPipette failed: %v", err)
	}
	liq, err := cal.ParsedLiquid()
	if err != nil {
		t.Fatalf("ParsedLiquid failed: %v", err)
	}

	seed, _ := registry.NewWithDefaults().Seed(pip, liq)
	if cal.Seed != nil {
		seed = *cal.Seed
	}
	bounds, err := cal.ApplyBounds(params.BoundsFor(pip, liq))
	if err != nil {
		t.Fatalf("ApplyBounds failed: %v", err)
	}
	scales, err := cal.StepScaleOverrides()
	if err != nil {
		t.Fatalf("StepScaleOverrides failed: %v", err)
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
		t.Fatalf("NewSession failed: %v", err)
	}

	res, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return res
}

func TestIntegration_ConfigLoadSmoke(t *testing.T) {
	cfgPath := filepath.Join("..", "..", "config", "config.yaml")

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig(%s) failed: %v", cfgPath, err)
	}
	if cfg == nil {
		t.Fatalf("LoadConfig(%s) returned nil config", cfgPath)
	}
	if cfg.Calibration.Budget <= 0 {
		t.Fatalf("expected a positive budget in the bundled config")
	}
	if cfg.Archive == nil || cfg.Archive.Path == "" {
		t.Fatalf("expected the bundled config to configure the archive")
	}
}

func TestIntegration_BundledConfigEndToEnd(t *testing.T) {
	cfgPath := filepath.Join("..", "..", "config", "config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	res := runFromConfig(t, cfg)

	if res.Trials != cfg.Calibration.Budget {
		t.Errorf("expected %d trials, got %d", cfg.Calibration.Budget, res.Trials)
	}
	if !res.BestFound {
		t.Fatal("expected at least one successful trial")
	}

	bounds, _ := cfg.Calibration.ApplyBounds(params.BoundsFor("P1000", "Glycerol 99%"))
	for _, rec := range res.History.Records() {
		if !bounds.Contains(rec.Params) {
			t.Fatalf("trial %d outside bounds: %s", rec.Index, rec.Params)
		}
	}

	report := tuning.Summarize(res)
	if report.String() == "" {
		t.Error("expected a non-empty report")
	}
}

func TestIntegration_AllStrategiesImprove(t *testing.T) {
	for _, strategy := range tuning.AvailableStrategies() {
		t.Run(strategy, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Calibration.Strategy = strategy
			cfg.Calibration.Budget = 48
			cfg.Evaluator.Seed = 7

			res := runFromConfig(t, cfg)
			if !res.BestFound {
				t.Fatal("expected a best trial")
			}

			// Lower is better; the seed trial is part of the history,
			// so the best can never be worse than the seed.
			seedScore := res.History.Records()[0].Score
			if res.Best.Score > seedScore {
				t.Errorf("best score %f worse than seed score %f", res.Best.Score, seedScore)
			}
		})
	}
}

func TestIntegration_ArchiveRoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Calibration.Budget = 16
	cfg.Evaluator.Seed = 11
	res := runFromConfig(t, cfg)

	store, err := archive.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("archive.Open failed: %v", err)
	}
	defer store.Close()

	runID, err := store.SaveRun(res, cfg.Calibration.Pipette, cfg.Calibration.Liquid, cfg.Calibration.Budget)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	sum, recs, err := store.LoadRun(runID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}
	if sum.Trials != res.Trials {
		t.Errorf("expected %d trials in archive, got %d", res.Trials, sum.Trials)
	}
	if len(recs) != res.Trials {
		t.Errorf("expected %d records in archive, got %d", res.Trials, len(recs))
	}
	if !sum.BestParams.Equal(res.Best.Params) {
		t.Error("archived best params do not match the run")
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 archived run, got %d", len(runs))
	}
}
