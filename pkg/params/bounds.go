package params

import (
	"fmt"

	"github.com/liqcal/calibration-core/pkg/liquids"
)

// Range is a closed interval for one parameter
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Clamp pulls x into the range
func (r Range) Clamp(x float64) float64 {
	if x < r.Min {
		return r.Min
	}
	if x > r.Max {
		return r.Max
	}
	return x
}

// Bounds holds the valid range for each of the six parameters
type Bounds struct {
	AspirationRate           Range
	AspirationDelay          Range
	AspirationWithdrawalRate Range
	DispenseRate             Range
	DispenseDelay            Range
	BlowoutRate              Range
}

// Range returns the bounds for the named parameter
func (b Bounds) Range(n Name) Range {
	switch n {
	case AspirationRate:
		return b.AspirationRate
	case AspirationDelay:
		return b.AspirationDelay
	case AspirationWithdrawalRate:
		return b.AspirationWithdrawalRate
	case DispenseRate:
		return b.DispenseRate
	case DispenseDelay:
		return b.DispenseDelay
	case BlowoutRate:
		return b.BlowoutRate
	}
	return Range{}
}

// SetRange replaces the bounds for the named parameter
func (b *Bounds) SetRange(n Name, r Range) {
	switch n {
	case AspirationRate:
		b.AspirationRate = r
	case AspirationDelay:
		b.AspirationDelay = r
	case AspirationWithdrawalRate:
		b.AspirationWithdrawalRate = r
	case DispenseRate:
		b.DispenseRate = r
	case DispenseDelay:
		b.DispenseDelay = r
	case BlowoutRate:
		b.BlowoutRate = r
	}
}

// Validate checks that every range has min <= max
func (b Bounds) Validate() error {
	for _, n := range Names() {
		r := b.Range(n)
		if r.Min > r.Max {
			return fmt.Errorf("invalid bounds for %s: min %g > max %g", n, r.Min, r.Max)
		}
	}
	return nil
}

// Clamp returns a copy of v with every parameter pulled into bounds.
// Violations are always resolved by clamping, never by error.
func (b Bounds) Clamp(v Vector) Vector {
	out := v
	for _, n := range Names() {
		out.SetValue(n, b.Range(n).Clamp(v.Value(n)))
	}
	return out
}

// ClampValue clamps a single named value
func (b Bounds) ClampValue(n Name, x float64) float64 {
	return b.Range(n).Clamp(x)
}

// Contains reports whether every parameter of v is inside bounds
func (b Bounds) Contains(v Vector) bool {
	for _, n := range Names() {
		r := b.Range(n)
		x := v.Value(n)
		if x < r.Min || x > r.Max {
			return false
		}
	}
	return true
}

// DefaultBounds returns the generic fallback bounds used when no
// pipette-specific table applies
func DefaultBounds() Bounds {
	return Bounds{
		AspirationRate:           Range{10.0, 300.0},
		AspirationDelay:          Range{0.0, 2.0},
		AspirationWithdrawalRate: Range{1.0, 20.0},
		DispenseRate:             Range{10.0, 300.0},
		DispenseDelay:            Range{0.0, 2.0},
		BlowoutRate:              Range{5.0, 150.0},
	}
}

// BoundsFor returns bounds tailored to a pipette's working range, with
// delay bounds adjusted for the liquid: volatile liquids get short delays,
// viscous liquids get extended ones.
func BoundsFor(pipette liquids.Pipette, liquid liquids.Liquid) Bounds {
	var b Bounds
	switch pipette {
	case liquids.P20:
		b = Bounds{
			AspirationRate:           Range{1.0, 20.0},
			DispenseRate:             Range{1.0, 20.0},
			BlowoutRate:              Range{0.5, 10.0},
			AspirationWithdrawalRate: Range{0.5, 5.0},
		}
	case liquids.P50:
		b = Bounds{
			AspirationRate:           Range{2.0, 50.0},
			DispenseRate:             Range{2.0, 50.0},
			BlowoutRate:              Range{1.0, 20.0},
			AspirationWithdrawalRate: Range{1.0, 10.0},
		}
	case liquids.P300:
		b = Bounds{
			AspirationRate:           Range{5.0, 150.0},
			DispenseRate:             Range{5.0, 150.0},
			BlowoutRate:              Range{2.0, 50.0},
			AspirationWithdrawalRate: Range{1.0, 15.0},
		}
	default: // P1000 and anything unrecognized
		b = Bounds{
			AspirationRate:           Range{10.0, 300.0},
			DispenseRate:             Range{10.0, 300.0},
			BlowoutRate:              Range{5.0, 150.0},
			AspirationWithdrawalRate: Range{2.0, 25.0},
		}
	}

	switch {
	case liquids.Volatile(liquid):
		b.AspirationDelay = Range{0.0, 1.0}
		b.DispenseDelay = Range{0.0, 1.0}
	case liquids.Viscous(liquid):
		b.AspirationDelay = Range{0.0, 3.0}
		b.DispenseDelay = Range{0.0, 3.0}
	default:
		b.AspirationDelay = Range{0.0, 2.0}
		b.DispenseDelay = Range{0.0, 2.0}
	}
	return b
}
