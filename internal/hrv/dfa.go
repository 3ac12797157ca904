package hrv

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DFA defaults. The 16-beat breakpoint separates the short-term (alpha1)
// and long-term (alpha2) scaling regions.
const (
	DefaultDFAScaleMin   = 4
	DefaultDFAScaleMax   = 64
	DefaultDFABreakpoint = 16
	DefaultDFAScaleCount = 20

	// minDFAScale is the smallest window with a non-trivial linear fit residual.
	minDFAScale = 3
)

// DFAOptions configures ComputeDFA.
type DFAOptions struct {
	ScaleMin   int // smallest window, in beats
	ScaleMax   int // largest window, in beats
	Breakpoint int // windows <= Breakpoint feed alpha1, larger ones alpha2
	ScaleCount int // log-spaced candidates between ScaleMin and ScaleMax
}

// DefaultDFAOptions returns the canonical DFA configuration.
func DefaultDFAOptions() DFAOptions {
	return DFAOptions{
		ScaleMin:   DefaultDFAScaleMin,
		ScaleMax:   DefaultDFAScaleMax,
		Breakpoint: DefaultDFABreakpoint,
		ScaleCount: DefaultDFAScaleCount,
	}
}

// DFAMetrics are the short- and long-term scaling exponents.
type DFAMetrics struct {
	Alpha1 Optional
	Alpha2 Optional
}

// Fields returns the DFA key set in output order.
func (m DFAMetrics) Fields() []Field {
	return []Field{
		optionalField(KeyAlpha1, m.Alpha1, dfaDecimals),
		optionalField(KeyAlpha2, m.Alpha2, dfaDecimals),
	}
}

// FluctuationCurve is F(n) against n on log10 axes, exposed for plotting.
type FluctuationCurve struct {
	Scales          []int
	LogScales       []float64
	LogFluctuations []float64
}

// Len returns the number of points on the curve.
func (c FluctuationCurve) Len() int { return len(c.Scales) }

// ComputeDFA runs first-order detrended fluctuation analysis on rr.
//
// The mean-centred series is integrated into a profile, which is cut into
// non-overlapping windows for each scale (a trailing remainder shorter than
// the window is discarded). Each window is detrended with a least-squares
// line and F(n) is the mean RMS residual over the windows. alpha1 and
// alpha2 are the log-log slopes of F(n) on each side of opts.Breakpoint; a
// side with fewer than two scales leaves its exponent unavailable.
func ComputeDFA(rr []float64, opts DFAOptions) (m DFAMetrics, curve FluctuationCurve, err error) {
	defer recoverNumeric(DomainDFA, &err)

	if opts.ScaleMin >= opts.ScaleMax {
		return DFAMetrics{}, FluctuationCurve{}, domainError(DomainDFA,
			fmt.Errorf("%w: got %d >= %d", ErrInvalidScaleRange, opts.ScaleMin, opts.ScaleMax))
	}
	if len(rr) < 2*minDFAScale {
		return DFAMetrics{}, FluctuationCurve{}, domainError(DomainDFA,
			fmt.Errorf("%w: need at least %d intervals, got %d", ErrInsufficientData, 2*minDFAScale, len(rr)))
	}

	profile := Profile(rr)
	for _, n := range Scales(opts) {
		f, ok := fluctuation(profile, n)
		if !ok {
			continue
		}
		curve.Scales = append(curve.Scales, n)
		curve.LogScales = append(curve.LogScales, math.Log10(float64(n)))
		curve.LogFluctuations = append(curve.LogFluctuations, math.Log10(f))
	}

	var shortX, shortY, longX, longY []float64
	for i, n := range curve.Scales {
		if n <= opts.Breakpoint {
			shortX = append(shortX, curve.LogScales[i])
			shortY = append(shortY, curve.LogFluctuations[i])
		} else {
			longX = append(longX, curve.LogScales[i])
			longY = append(longY, curve.LogFluctuations[i])
		}
	}

	return DFAMetrics{Alpha1: slope(shortX, shortY), Alpha2: slope(longX, longY)}, curve, nil
}

// Profile returns the cumulative sum of the mean-centred series.
func Profile(rr []float64) []float64 {
	mean := stat.Mean(rr, nil)
	y := make([]float64, len(rr))
	var acc float64
	for i, v := range rr {
		acc += v - mean
		y[i] = acc
	}
	return y
}

// Scales returns the integer window sizes, log-spaced between opts.ScaleMin
// and opts.ScaleMax, in ascending order.
//
// Each log-spaced value is truncated toward zero and repeats are kept, so the
// short scales carry proportionally more weight in the slope fits. ScaleMax
// is exclusive: the top of the span lands on ScaleMax-1. With the defaults
// this yields 4 4 5 6 7 8 9 11 12 14 17 19 23 26 30 35 41 47 55 63.
func Scales(opts DFAOptions) []int {
	count := opts.ScaleCount
	if count < 2 {
		count = DefaultDFAScaleCount
	}
	if opts.ScaleMin <= 0 || opts.ScaleMax <= opts.ScaleMin {
		return nil
	}

	lo := float64(opts.ScaleMin)
	ratio := float64(opts.ScaleMax) / lo
	out := make([]int, count)
	for i := range out {
		// Pow(ratio, 0) and Pow(ratio, 1) are exact, so both ends are stable.
		n := int(lo * math.Pow(ratio, float64(i)/float64(count-1)))
		if n >= opts.ScaleMax {
			n = opts.ScaleMax - 1
		}
		out[i] = n
	}
	return out
}

// fluctuation returns F(n) for the profile, or false when the scale has no
// full window or a zero fluctuation (log undefined).
func fluctuation(profile []float64, n int) (float64, bool) {
	if n < minDFAScale {
		return 0, false
	}
	windows := len(profile) / n
	if windows == 0 {
		return 0, false
	}

	x := make([]float64, n)
	floats.Span(x, 0, float64(n-1))

	var total float64
	for w := 0; w < windows; w++ {
		seg := profile[w*n : (w+1)*n]
		alpha, beta := stat.LinearRegression(x, seg, nil, false)
		var ss float64
		for i, v := range seg {
			r := v - (alpha + beta*x[i])
			ss += r * r
		}
		total += math.Sqrt(ss / float64(n))
	}

	f := total / float64(windows)
	if f <= 0 || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func slope(x, y []float64) Optional {
	if len(x) < 2 {
		return None()
	}
	_, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return None()
	}
	return Some(beta)
}
