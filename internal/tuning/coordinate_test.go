package tuning

import (
	"testing"

	"github.com/liqcal/calibration-core/internal/trial"
	"github.com/liqcal/calibration-core/pkg/params"
)

func TestCoordinateActiveParamCycle(t *testing.T) {
	s := newCoordinate(testStrategyConfig())

	tests := []struct {
		trialIdx int
		want     params.Name
	}{
		{1, params.AspirationRate},
		{2, params.AspirationRate},
		{3, params.AspirationRate},
		{4, params.DispenseRate},
		{6, params.DispenseRate},
		{7, params.BlowoutRate},
		{10, params.AspirationDelay},
		{13, params.DispenseDelay},
		{16, params.AspirationWithdrawalRate},
		{19, params.AspirationRate}, // cycle wraps
	}
	for _, tt := range tests {
		if got := s.activeParam(tt.trialIdx); got != tt.want {
			t.Errorf("activeParam(%d) = %s, want %s", tt.trialIdx, got, tt.want)
		}
	}
}

func TestCoordinateIsolation(t *testing.T) {
	s := newCoordinate(testStrategyConfig())
	hist := trial.NewHistory()
	mustAppend(t, hist, trial.Succeeded(0, testSeed(), 3.0, "", 0.1))

	prev := testSeed()
	for i := 1; i <= 6; i++ {
		v, err := s.Generate(i, hist, 0.1)
		if err != nil {
			t.Fatalf("Generate(%d) failed: %v", i, err)
		}

		// Exactly one parameter moves per trial.
		changed := 0
		for _, n := range params.Names() {
			if v.Value(n) != prev.Value(n) {
				changed++
			}
		}
		if changed != 1 {
			t.Errorf("trial %d: %d parameters changed, want exactly 1 (prev %s, got %s)", i, changed, prev, v)
		}

		mustAppend(t, hist, trial.Succeeded(i, v, 3.0-0.05*float64(i), "", 0.1))
		prev = v
	}

	// Trials 1-3 work aspiration_rate, 4-6 dispense_rate; blowout_rate
	// is untouched throughout.
	for _, r := range hist.Records() {
		if r.Params.BlowoutRate != testSeed().BlowoutRate {
			t.Errorf("trial %d: blowout_rate = %g, want %g", r.Index, r.Params.BlowoutRate, testSeed().BlowoutRate)
		}
	}
	recs := hist.Records()
	if recs[3].Params.AspirationRate == testSeed().AspirationRate {
		t.Error("aspiration_rate never moved during its window")
	}
	if recs[6].Params.DispenseRate == testSeed().DispenseRate {
		t.Error("dispense_rate never moved during its window")
	}
	if recs[6].Params.AspirationRate != recs[3].Params.AspirationRate {
		t.Error("aspiration_rate moved outside its window")
	}
}

func TestCoordinateWindowStartNudges(t *testing.T) {
	s := newCoordinate(testStrategyConfig())
	hist := trial.NewHistory()

	// Two records that do not vary dispense_rate: the first trial of the
	// dispense window has no gradient to use and must nudge instead.
	a := testSeed()
	a.AspirationRate = 151
	b := a
	b.AspirationRate = 152
	mustAppend(t, hist, trial.Succeeded(2, a, 2.8, "", 0.1))
	mustAppend(t, hist, trial.Succeeded(3, b, 2.7, "", 0.1))

	v, err := s.Generate(4, hist, 0.1)
	if err != nil {
		t.Fatalf("Generate(4) failed: %v", err)
	}
	want := b.DispenseRate + DefaultStepScales()[params.DispenseRate]*0.1
	if !approxEqual(v.DispenseRate, want) {
		t.Errorf("dispense_rate = %g, want nudged %g", v.DispenseRate, want)
	}
	if !approxEqual(v.AspirationRate, b.AspirationRate) {
		t.Errorf("aspiration_rate = %g, want carried %g", v.AspirationRate, b.AspirationRate)
	}
}

func TestCoordinateCustomSwitchInterval(t *testing.T) {
	cfg := testStrategyConfig()
	cfg.SwitchInterval = 2
	s := newCoordinate(cfg)

	if got := s.activeParam(2); got != params.AspirationRate {
		t.Errorf("activeParam(2) = %s, want aspiration_rate", got)
	}
	if got := s.activeParam(3); got != params.DispenseRate {
		t.Errorf("activeParam(3) = %s, want dispense_rate", got)
	}
}
