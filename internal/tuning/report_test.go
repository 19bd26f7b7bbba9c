package tuning

import (
	"context"
	"strings"
	"testing"

	"github.com/liqcal/calibration-core/internal/trial"
	"github.com/liqcal/calibration-core/pkg/params"
)

func TestSummarize(t *testing.T) {
	seed := testSeed()
	best := seed
	best.AspirationRate = 120

	hist := trial.NewHistory()
	mustAppend(t, hist, trial.Succeeded(0, seed, 4.0, "", 0.1))
	mustAppend(t, hist, trial.FailedRecord(1, seed, "height check failed", "", 0.1))
	mustAppend(t, hist, trial.Succeeded(2, best, 1.0, "", 0.1))

	res := &Result{
		RunID:     "run-1",
		Strategy:  StrategySimultaneous,
		Seed:      seed,
		Best:      hist.Records()[2],
		BestFound: true,
		History:   hist,
		Trials:    3,
		Successes: 2,
		Failures:  1,
		FinalRate: 0.1,
	}

	rep := Summarize(res)
	if !rep.HasSeedScore || !approxEqual(rep.SeedScore, 4.0) {
		t.Errorf("seed score = %g (has: %t), want 4.0", rep.SeedScore, rep.HasSeedScore)
	}
	if !approxEqual(rep.BestScore, 1.0) || rep.BestTrial != 2 {
		t.Errorf("best = %g at %d, want 1.0 at 2", rep.BestScore, rep.BestTrial)
	}
	if !approxEqual(rep.ImprovementPct, 75.0) {
		t.Errorf("improvement = %g%%, want 75%%", rep.ImprovementPct)
	}

	var aspDelta *ParamDelta
	for i := range rep.Deltas {
		if rep.Deltas[i].Name == params.AspirationRate {
			aspDelta = &rep.Deltas[i]
		}
	}
	if aspDelta == nil || !approxEqual(aspDelta.Delta, -30) {
		t.Errorf("aspiration_rate delta = %+v, want -30", aspDelta)
	}
}

func TestSummarizeNoSuccesses(t *testing.T) {
	hist := trial.NewHistory()
	mustAppend(t, hist, trial.FailedRecord(0, testSeed(), "clog", "", 0.1))

	rep := Summarize(&Result{History: hist, Trials: 1, Failures: 1})
	if rep.BestFound {
		t.Error("BestFound = true with no successes")
	}
	if !strings.Contains(rep.String(), "no successful trials") {
		t.Errorf("report output missing failure notice: %q", rep.String())
	}
}

func TestReportStringFromRun(t *testing.T) {
	s, err := NewSession(testSessionConfig(StrategyHybrid, 16), constantEvaluator(2.0))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out := Summarize(res).String()
	for _, want := range []string{res.RunID, "best score", "aspiration_rate", "final learning rate"} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q:\n%s", want, out)
		}
	}
}
