package rr

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSeries is wrapped by every ValidationError.
var ErrInvalidSeries = errors.New("invalid RR series")

// Canonical plausibility policy.
const (
	DefaultMinIntervals = 100
	DefaultMinMs        = 300.0
	DefaultMaxMs        = 2000.0
)

// Limits are the thresholds applied by ValidateWithLimits.
type Limits struct {
	MinIntervals int
	MinMs        float64
	MaxMs        float64
}

// DefaultLimits returns the canonical thresholds.
func DefaultLimits() Limits {
	return Limits{
		MinIntervals: DefaultMinIntervals,
		MinMs:        DefaultMinMs,
		MaxMs:        DefaultMaxMs,
	}
}

// ValidationResult reports whether a series may be analysed.
type ValidationResult struct {
	Valid   bool
	Message string
}

// Err returns nil for a valid result, otherwise a *ValidationError.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Reason: r.Message}
}

// ValidationError carries the human-readable rejection reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrInvalidSeries }

// Validate checks s against DefaultLimits.
func Validate(s []float64) ValidationResult {
	return ValidateWithLimits(s, DefaultLimits())
}

// ValidateWithLimits applies the plausibility rules in order; the first
// failing rule determines the message.
func ValidateWithLimits(s []float64, lim Limits) ValidationResult {
	if len(s) == 0 {
		return invalid("RR series is empty")
	}
	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid(fmt.Sprintf("RR series contains a non-numeric value at index %d", i))
		}
	}

	if len(s) < lim.MinIntervals {
		return invalid(fmt.Sprintf("at least %d RR intervals are required, got %d", lim.MinIntervals, len(s)))
	}

	for i, v := range s {
		if v <= 0 {
			return invalid(fmt.Sprintf("all RR intervals must be positive (index %d is %g)", i, v))
		}
	}

	for i, v := range s {
		if v < lim.MinMs || v > lim.MaxMs {
			return invalid(fmt.Sprintf("RR intervals must be within %g-%g ms (index %d is %g)", lim.MinMs, lim.MaxMs, i, v))
		}
	}

	return ValidationResult{Valid: true, Message: "validation passed"}
}

func invalid(msg string) ValidationResult {
	return ValidationResult{Valid: false, Message: msg}
}
