package tuning

import "testing"

func TestNewRateControllerDefaults(t *testing.T) {
	c, err := NewRateController(RateControllerConfig{})
	if err != nil {
		t.Fatalf("NewRateController failed: %v", err)
	}
	if !approxEqual(c.Rate(), DefaultInitialRate) {
		t.Errorf("initial rate = %g, want %g", c.Rate(), DefaultInitialRate)
	}
	if c.Stagnation() != 0 {
		t.Errorf("initial stagnation = %d, want 0", c.Stagnation())
	}
}

func TestNewRateControllerInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  RateControllerConfig
	}{
		{"negative rate", RateControllerConfig{InitialRate: -0.1}},
		{"decay of one", RateControllerConfig{DecayFactor: 1.0}},
		{"decay above one", RateControllerConfig{DecayFactor: 1.5}},
		{"min above initial", RateControllerConfig{InitialRate: 0.05, MinRate: 0.2}},
		{"negative patience", RateControllerConfig{Patience: -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRateController(tt.cfg); err == nil {
				t.Errorf("expected error for %+v", tt.cfg)
			}
		})
	}
}

func TestRateControllerDecayAtPatience(t *testing.T) {
	c, err := NewRateController(RateControllerConfig{Patience: 2})
	if err != nil {
		t.Fatalf("NewRateController failed: %v", err)
	}

	if decayed := c.Observe(3.0, false); decayed {
		t.Error("first score decayed the rate")
	}

	// Three consecutive non-improving scores with patience 2: exactly
	// one decay event.
	decays := 0
	for i := 0; i < 3; i++ {
		if c.Observe(3.5, false) {
			decays++
		}
	}
	if decays != 1 {
		t.Errorf("decay events = %d, want 1", decays)
	}
	if !approxEqual(c.Rate(), 0.1*0.95) {
		t.Errorf("rate = %g, want %g", c.Rate(), 0.1*0.95)
	}
}

func TestRateControllerImprovementResetsStagnation(t *testing.T) {
	c, err := NewRateController(RateControllerConfig{Patience: 3})
	if err != nil {
		t.Fatalf("NewRateController failed: %v", err)
	}

	c.Observe(3.0, false)
	c.Observe(3.5, false)
	c.Observe(3.5, false)
	if c.Stagnation() != 2 {
		t.Fatalf("stagnation = %d, want 2", c.Stagnation())
	}
	c.Observe(2.5, false) // new best
	if c.Stagnation() != 0 {
		t.Errorf("stagnation after improvement = %d, want 0", c.Stagnation())
	}
	if !approxEqual(c.Rate(), DefaultInitialRate) {
		t.Errorf("rate = %g, want undecayed %g", c.Rate(), DefaultInitialRate)
	}
}

func TestRateControllerFailureCountsAsStagnation(t *testing.T) {
	c, err := NewRateController(RateControllerConfig{Patience: 2})
	if err != nil {
		t.Fatalf("NewRateController failed: %v", err)
	}
	c.Observe(3.0, false)
	c.Observe(0, true)
	if decayed := c.Observe(0, true); !decayed {
		t.Error("two failures at patience 2 did not decay the rate")
	}
}

func TestRateControllerFloorsAtMinRate(t *testing.T) {
	c, err := NewRateController(RateControllerConfig{
		InitialRate: 0.02,
		DecayFactor: 0.5,
		MinRate:     0.01,
		Patience:    1,
	})
	if err != nil {
		t.Fatalf("NewRateController failed: %v", err)
	}
	c.Observe(1.0, false)
	for i := 0; i < 5; i++ {
		c.Observe(2.0, false)
	}
	if !approxEqual(c.Rate(), 0.01) {
		t.Errorf("rate = %g, want floored at 0.01", c.Rate())
	}
}

func TestRateControllerMonotonicNonIncrease(t *testing.T) {
	c, err := NewRateController(RateControllerConfig{Patience: 2})
	if err != nil {
		t.Fatalf("NewRateController failed: %v", err)
	}

	scores := []float64{3.0, 2.5, 2.8, 2.9, 3.0, 2.0, 2.6, 2.6, 2.6, 2.6}
	last := c.Rate()
	for _, s := range scores {
		c.Observe(s, false)
		if c.Rate() > last {
			t.Fatalf("rate increased from %g to %g", last, c.Rate())
		}
		last = c.Rate()
	}
}
