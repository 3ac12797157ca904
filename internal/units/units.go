// Package units provides shared constants and conversion for RR interval time units
package units

import "strings"

// Unit constants
const (
	Milliseconds = "ms"
	Seconds      = "s"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Milliseconds, Seconds}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ToMilliseconds converts a single interval from the given unit to milliseconds.
// Analysis always runs on milliseconds.
func ToMilliseconds(value float64, unit string) float64 {
	switch unit {
	case Seconds:
		return value * 1000
	case Milliseconds:
		return value // no conversion needed
	default:
		return value // default to ms if unknown unit
	}
}

// SeriesToMilliseconds returns a converted copy of intervals. The input slice
// is never modified.
func SeriesToMilliseconds(intervals []float64, unit string) []float64 {
	out := make([]float64, len(intervals))
	for i, v := range intervals {
		out[i] = ToMilliseconds(v, unit)
	}
	return out
}
