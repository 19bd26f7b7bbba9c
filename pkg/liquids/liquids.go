// Package liquids defines the pipette and liquid identities that key
// calibration data. Both sets are closed: unknown names are parse errors,
// not new identities.
package liquids

import "fmt"

// Pipette identifies a supported pipette model
type Pipette string

const (
	P20   Pipette = "P20"
	P50   Pipette = "P50"
	P300  Pipette = "P300"
	P1000 Pipette = "P1000"
)

// Liquid identifies a supported liquid, using its display name
type Liquid string

const (
	Glycerol10  Liquid = "Glycerol 10%"
	Glycerol50  Liquid = "Glycerol 50%"
	Glycerol90  Liquid = "Glycerol 90%"
	Glycerol99  Liquid = "Glycerol 99%"
	PEG8000     Liquid = "PEG 8000 50% w/v"
	Sanitizer62 Liquid = "Sanitizer 62% Alcohol"
	Tween20     Liquid = "Tween 20 100%"
	EngineOil   Liquid = "Engine oil 100%"
	Water       Liquid = "Water"
	DMSO        Liquid = "DMSO"
	Ethanol     Liquid = "Ethanol"
)

// Pipettes returns all supported pipettes in ascending volume order
func Pipettes() []Pipette {
	return []Pipette{P20, P50, P300, P1000}
}

// Liquids returns all supported liquids
func Liquids() []Liquid {
	return []Liquid{
		Glycerol10, Glycerol50, Glycerol90, Glycerol99,
		PEG8000, Sanitizer62, Tween20, EngineOil,
		Water, DMSO, Ethanol,
	}
}

// ParsePipette converts a string to a Pipette
func ParsePipette(s string) (Pipette, error) {
	for _, p := range Pipettes() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown pipette: %q", s)
}

// ParseLiquid converts a display name to a Liquid
func ParseLiquid(s string) (Liquid, error) {
	for _, l := range Liquids() {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown liquid: %q", s)
}

// Volatile reports whether the liquid evaporates quickly enough that
// long post-aspiration delays hurt accuracy
func Volatile(l Liquid) bool {
	return l == DMSO || l == Ethanol
}

// Viscous reports whether the liquid benefits from extended settle delays
func Viscous(l Liquid) bool {
	return l == Glycerol99 || l == PEG8000 || l == EngineOil
}
