package registry

import (
	"github.com/liqcal/calibration-core/pkg/liquids"
	"github.com/liqcal/calibration-core/pkg/params"
)

// DefaultEntries returns the reference liquid-class dataset the registry
// is seeded with at startup. Values come from bench calibration data for
// each pipette/liquid combination.
func DefaultEntries() []Entry {
	return []Entry{
		// P20
		{liquids.P20, liquids.Glycerol10, params.Vector{
			AspirationRate: 6.804, AspirationDelay: 2.0, AspirationWithdrawalRate: 5.0,
			DispenseRate: 6.804, DispenseDelay: 2.0, BlowoutRate: 0.5,
		}},
		{liquids.P20, liquids.Glycerol90, params.Vector{
			AspirationRate: 5.292, AspirationDelay: 7.0, AspirationWithdrawalRate: 2.0,
			DispenseRate: 5.292, DispenseDelay: 7.0, BlowoutRate: 0.5,
		}},
		{liquids.P20, liquids.Glycerol99, params.Vector{
			AspirationRate: 3.78, AspirationDelay: 10.0, AspirationWithdrawalRate: 2.0,
			DispenseRate: 3.78, DispenseDelay: 10.0, BlowoutRate: 0.5,
		}},
		{liquids.P20, liquids.PEG8000, params.Vector{
			AspirationRate: 6.048, AspirationDelay: 7.0, AspirationWithdrawalRate: 5.0,
			DispenseRate: 6.048, DispenseDelay: 7.0, BlowoutRate: 0.5,
		}},
		{liquids.P20, liquids.Sanitizer62, params.Vector{
			AspirationRate: 1.0, AspirationDelay: 2.0, AspirationWithdrawalRate: 20.0,
			DispenseRate: 3.78, DispenseDelay: 2.0, BlowoutRate: 0.5, TouchTip: true,
		}},
		{liquids.P20, liquids.Tween20, params.Vector{
			AspirationRate: 5.292, AspirationDelay: 7.0, AspirationWithdrawalRate: 2.0,
			DispenseRate: 3.024, DispenseDelay: 7.0, BlowoutRate: 0.5, TouchTip: true,
		}},
		{liquids.P20, liquids.EngineOil, params.Vector{
			AspirationRate: 6.048, AspirationDelay: 7.0, AspirationWithdrawalRate: 1.0,
			DispenseRate: 6.048, DispenseDelay: 7.0, BlowoutRate: 0.5, TouchTip: true,
		}},

		// P300
		{liquids.P300, liquids.Glycerol10, params.Vector{
			AspirationRate: 83.25, AspirationDelay: 2.0, AspirationWithdrawalRate: 5.0,
			DispenseRate: 83.25, DispenseDelay: 2.0, BlowoutRate: 10.0,
		}},
		{liquids.P300, liquids.Glycerol90, params.Vector{
			AspirationRate: 64.75, AspirationDelay: 8.0, AspirationWithdrawalRate: 1.0,
			DispenseRate: 64.75, DispenseDelay: 8.0, BlowoutRate: 4.0,
		}},
		{liquids.P300, liquids.Glycerol99, params.Vector{
			AspirationRate: 55.5, AspirationDelay: 10.0, AspirationWithdrawalRate: 1.0,
			DispenseRate: 55.5, DispenseDelay: 10.0, BlowoutRate: 4.0,
		}},
		{liquids.P300, liquids.PEG8000, params.Vector{
			AspirationRate: 74.0, AspirationDelay: 6.0, AspirationWithdrawalRate: 4.0,
			DispenseRate: 74.0, DispenseDelay: 74.0, BlowoutRate: 4.0,
		}},
		{liquids.P300, liquids.Sanitizer62, params.Vector{
			AspirationRate: 92.5, AspirationDelay: 2.0, AspirationWithdrawalRate: 20.0,
			DispenseRate: 92.5, DispenseDelay: 2.0, BlowoutRate: 4.0, TouchTip: true,
		}},
		{liquids.P300, liquids.Tween20, params.Vector{
			AspirationRate: 13.9, AspirationDelay: 10.0, AspirationWithdrawalRate: 1.0,
			DispenseRate: 13.9, DispenseDelay: 11.0, BlowoutRate: 7.0, TouchTip: true,
		}},
		{liquids.P300, liquids.EngineOil, params.Vector{
			AspirationRate: 74.0, AspirationDelay: 3.0, AspirationWithdrawalRate: 2.0,
			DispenseRate: 46.25, DispenseDelay: 7.0, BlowoutRate: 10.0, TouchTip: true,
		}},

		// P1000
		{liquids.P1000, liquids.Glycerol10, params.Vector{
			AspirationRate: 247.05, AspirationDelay: 2.0, AspirationWithdrawalRate: 30.0,
			DispenseRate: 247.05, DispenseDelay: 2.0, BlowoutRate: 75.0,
		}},
		{liquids.P1000, liquids.Glycerol50, params.Vector{
			AspirationRate: 247.05, AspirationDelay: 3.0, AspirationWithdrawalRate: 30.0,
			DispenseRate: 247.05, DispenseDelay: 3.0, BlowoutRate: 75.0,
		}},
		{liquids.P1000, liquids.Glycerol90, params.Vector{
			AspirationRate: 164.7, AspirationDelay: 10.0, AspirationWithdrawalRate: 3.0,
			DispenseRate: 109.8, DispenseDelay: 10.0, BlowoutRate: 15.0,
		}},
		{liquids.P1000, liquids.Glycerol99, params.Vector{
			AspirationRate: 41.175, AspirationDelay: 20.0, AspirationWithdrawalRate: 4.0,
			DispenseRate: 19.215, DispenseDelay: 20.0, BlowoutRate: 5.0,
		}},
	}
}

// FallbackEntry builds default parameters for a pipette/liquid pair
// missing from the registry. The base values are scaled down for smaller
// pipettes and reduced further for volatile liquids.
func FallbackEntry(pipette liquids.Pipette, liquid liquids.Liquid) Entry {
	p := params.Vector{
		AspirationRate:           150.0,
		AspirationDelay:          1.0,
		AspirationWithdrawalRate: 5.0,
		DispenseRate:             150.0,
		DispenseDelay:            1.0,
		BlowoutRate:              100.0,
		TouchTip:                 true,
	}

	switch pipette {
	case liquids.P1000:
		// Base values as-is.
	case liquids.P300:
		p.AspirationRate = 50.0
		p.DispenseRate = 50.0
		p.BlowoutRate = 10.0
	case liquids.P50:
		p.AspirationRate = 10.0
		p.DispenseRate = 10.0
		p.BlowoutRate = 5.0
	default: // P20
		p.AspirationRate = 5.0
		p.DispenseRate = 5.0
		p.BlowoutRate = 1.0
	}

	switch liquid {
	case liquids.DMSO:
		p.AspirationRate *= 0.7
		p.DispenseRate *= 0.7
		p.BlowoutRate *= 0.5
	case liquids.Ethanol:
		p.AspirationRate *= 0.5
		p.DispenseRate *= 0.5
		p.BlowoutRate *= 0.3
	}

	return Entry{Pipette: pipette, Liquid: liquid, Params: p}
}

// Seed returns the tuning seed vector for a pipette/liquid pair: the
// registry entry when present, the fallback defaults otherwise.
func (r *Registry) Seed(pipette liquids.Pipette, liquid liquids.Liquid) (params.Vector, bool) {
	if v, ok := r.Get(pipette, liquid); ok {
		return v, true
	}
	return FallbackEntry(pipette, liquid).Params, false
}
