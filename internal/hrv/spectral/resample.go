// Package spectral holds the signal-processing steps behind the frequency
// domain analysis: resampling an event-timed series onto a uniform grid,
// trend removal, and Welch power spectral density estimation.
package spectral

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

var (
	// ErrTooFewPoints is returned when an input is too short for the method.
	ErrTooFewPoints = errors.New("too few points")
	// ErrInvalidRate is returned for a non-positive sampling rate.
	ErrInvalidRate = errors.New("sampling rate must be positive")
)

// MinSplinePoints is the fewest knots a cubic interpolation accepts.
const MinSplinePoints = 4

// Resample fits a not-a-knot cubic spline through (t, y) and evaluates it at
// t[0] + k/fs for every grid time strictly before t[len(t)-1]. The spline is
// never evaluated outside [t[0], t[len(t)-1]]. t must be strictly increasing.
func Resample(t, y []float64, fs float64) (grid, values []float64, err error) {
	if fs <= 0 || math.IsNaN(fs) || math.IsInf(fs, 0) {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRate, fs)
	}
	if len(t) != len(y) {
		return nil, nil, fmt.Errorf("resample: length mismatch %d != %d", len(t), len(y))
	}
	if len(t) < MinSplinePoints {
		return nil, nil, fmt.Errorf("%w: cubic interpolation needs %d points, got %d", ErrTooFewPoints, MinSplinePoints, len(t))
	}

	var spline interp.NotAKnotCubic
	if err := spline.Fit(t, y); err != nil {
		return nil, nil, fmt.Errorf("resample: %w", err)
	}

	t0, tEnd := t[0], t[len(t)-1]
	step := 1 / fs
	n := int(math.Ceil((tEnd - t0) / step))
	grid = make([]float64, 0, n)
	values = make([]float64, 0, n)
	for k := 0; k < n; k++ {
		tk := t0 + float64(k)*step
		if tk >= tEnd {
			break
		}
		grid = append(grid, tk)
		values = append(values, spline.Predict(tk))
	}
	return grid, values, nil
}
