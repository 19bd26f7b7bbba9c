// Package params defines the tunable dispense parameter vector and its
// bounds. The six numeric parameters form a closed set; touch_tip rides
// along but is never optimized.
package params

import "fmt"

// Name identifies one of the six tunable parameters
type Name string

const (
	AspirationRate           Name = "aspiration_rate"
	AspirationDelay          Name = "aspiration_delay"
	AspirationWithdrawalRate Name = "aspiration_withdrawal_rate"
	DispenseRate             Name = "dispense_rate"
	DispenseDelay            Name = "dispense_delay"
	BlowoutRate              Name = "blowout_rate"
)

// Names returns the six parameter names in canonical order
func Names() []Name {
	return []Name{
		AspirationRate,
		AspirationDelay,
		AspirationWithdrawalRate,
		DispenseRate,
		DispenseDelay,
		BlowoutRate,
	}
}

// ParseName converts a string to a parameter Name
func ParseName(s string) (Name, error) {
	for _, n := range Names() {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown parameter: %q", s)
}

// Vector is one complete dispense configuration. Rates are in µL/s
// (withdrawal in mm/s), delays in seconds.
type Vector struct {
	AspirationRate           float64 `json:"aspiration_rate" yaml:"aspiration_rate"`
	AspirationDelay          float64 `json:"aspiration_delay" yaml:"aspiration_delay"`
	AspirationWithdrawalRate float64 `json:"aspiration_withdrawal_rate" yaml:"aspiration_withdrawal_rate"`
	DispenseRate             float64 `json:"dispense_rate" yaml:"dispense_rate"`
	DispenseDelay            float64 `json:"dispense_delay" yaml:"dispense_delay"`
	BlowoutRate              float64 `json:"blowout_rate" yaml:"blowout_rate"`
	TouchTip                 bool    `json:"touch_tip" yaml:"touch_tip"`
}

// Value returns the named parameter's value
func (v Vector) Value(n Name) float64 {
	switch n {
	case AspirationRate:
		return v.AspirationRate
	case AspirationDelay:
		return v.AspirationDelay
	case AspirationWithdrawalRate:
		return v.AspirationWithdrawalRate
	case DispenseRate:
		return v.DispenseRate
	case DispenseDelay:
		return v.DispenseDelay
	case BlowoutRate:
		return v.BlowoutRate
	}
	return 0
}

// SetValue sets the named parameter's value
func (v *Vector) SetValue(n Name, x float64) {
	switch n {
	case AspirationRate:
		v.AspirationRate = x
	case AspirationDelay:
		v.AspirationDelay = x
	case AspirationWithdrawalRate:
		v.AspirationWithdrawalRate = x
	case DispenseRate:
		v.DispenseRate = x
	case DispenseDelay:
		v.DispenseDelay = x
	case BlowoutRate:
		v.BlowoutRate = x
	}
}

// Add adds delta to the named parameter
func (v *Vector) Add(n Name, delta float64) {
	v.SetValue(n, v.Value(n)+delta)
}

// Equal reports whether two vectors are exactly equal, touch_tip included
func (v Vector) Equal(o Vector) bool {
	return v == o
}

// String formats the vector in the serialization column order
func (v Vector) String() string {
	return fmt.Sprintf("asp=%g/%gs wdr=%g disp=%g/%gs blow=%g touch=%t",
		v.AspirationRate, v.AspirationDelay, v.AspirationWithdrawalRate,
		v.DispenseRate, v.DispenseDelay, v.BlowoutRate, v.TouchTip)
}
