package simeval

import (
	"context"
	"errors"
	"testing"

	"github.com/liqcal/calibration-core/pkg/params"
)

func gentleVector() params.Vector {
	return params.Vector{
		AspirationRate:           50,
		AspirationDelay:          0.5,
		AspirationWithdrawalRate: 5,
		DispenseRate:             50,
		DispenseDelay:            0.5,
		BlowoutRate:              50,
	}
}

func harshVector() params.Vector {
	return params.Vector{
		AspirationRate:           450,
		AspirationDelay:          2,
		AspirationWithdrawalRate: 5,
		DispenseRate:             450,
		DispenseDelay:            2,
		BlowoutRate:              5,
	}
}

func TestEvaluateDeterministicForSeed(t *testing.T) {
	a := New(Config{Seed: 42})
	b := New(Config{Seed: 42})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		sa, err := a.Evaluate(ctx, gentleVector())
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		sb, err := b.Evaluate(ctx, gentleVector())
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if sa != sb {
			t.Fatalf("trial %d: same seed gave %g and %g", i, sa, sb)
		}
	}
}

func TestEvaluatePrefersGentleParameters(t *testing.T) {
	ctx := context.Background()

	// Average over many trials so noise and plate position wash out.
	sum := func(v params.Vector) float64 {
		e := New(Config{Seed: 7})
		total := 0.0
		for i := 0; i < 96; i++ {
			s, err := e.Evaluate(ctx, v)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			total += s
		}
		return total
	}

	if gentle, harsh := sum(gentleVector()), sum(harshVector()); gentle >= harsh {
		t.Errorf("gentle parameters scored %g, harsh %g; want gentle lower", gentle, harsh)
	}
}

func TestEvaluateScoreFloor(t *testing.T) {
	e := New(Config{Seed: 3})
	ctx := context.Background()
	for i := 0; i < 96; i++ {
		s, err := e.Evaluate(ctx, gentleVector())
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if s < 0 {
			t.Fatalf("trial %d: score %g below floor", i, s)
		}
	}
}

func TestEvaluateFailureModel(t *testing.T) {
	e := New(Config{Seed: 11, FailureRate: 1.0})
	_, err := e.Evaluate(context.Background(), gentleVector())
	if err == nil {
		t.Fatal("expected failure with failure rate 1.0")
	}
	var heightErr *HeightCheckError
	if !errors.As(err, &heightErr) {
		t.Fatalf("error type = %T, want *HeightCheckError", err)
	}
	if heightErr.Well == "" {
		t.Error("failure does not name the well")
	}
}

func TestEvaluateNoFailuresAtZeroRate(t *testing.T) {
	e := New(Config{Seed: 11})
	ctx := context.Background()
	for i := 0; i < 96; i++ {
		if _, err := e.Evaluate(ctx, gentleVector()); err != nil {
			t.Fatalf("trial %d failed with failure rate 0: %v", i, err)
		}
	}
}

func TestEvaluateContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(DefaultConfig()).Evaluate(ctx, gentleVector()); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestWellName(t *testing.T) {
	e := New(DefaultConfig())
	tests := []struct {
		trialIdx int
		want     string
	}{
		{0, "A1"},
		{1, "B1"},
		{7, "H1"},
		{8, "A2"},
		{95, "H12"},
		{96, "A1"}, // wraps past the plate
	}
	for _, tt := range tests {
		if got := e.WellName(tt.trialIdx); got != tt.want {
			t.Errorf("WellName(%d) = %q, want %q", tt.trialIdx, got, tt.want)
		}
	}
}
