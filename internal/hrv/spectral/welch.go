package spectral

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// MinSegmentLength is the shortest Welch segment accepted.
const MinSegmentLength = 4

// Spectrum is a one-sided power spectral density. Frequencies are in Hz and
// Density in signal units squared per Hz; both slices have equal length.
type Spectrum struct {
	Frequencies []float64
	Density     []float64
}

// Len returns the number of frequency bins.
func (s Spectrum) Len() int { return len(s.Frequencies) }

// PeriodicHann returns the periodic (DFT-even) Hann window of length n.
func PeriodicHann(n int) []float64 {
	w := make([]float64, n+1)
	for i := range w {
		w[i] = 1
	}
	return window.Hann(w)[:n]
}

// Welch estimates the power spectral density of x sampled at fs Hz with
// Welch's averaged periodogram: Hann-windowed segments of nperseg samples
// overlapping by half, mean removed per segment, density scaling, one-sided
// output. nperseg larger than len(x) is clamped to len(x).
func Welch(x []float64, fs float64, nperseg int) (Spectrum, error) {
	if fs <= 0 {
		return Spectrum{}, fmt.Errorf("%w: %v", ErrInvalidRate, fs)
	}
	if nperseg > len(x) {
		nperseg = len(x)
	}
	if nperseg < MinSegmentLength {
		return Spectrum{}, fmt.Errorf("%w: welch segment of %d samples (signal %d)", ErrTooFewPoints, nperseg, len(x))
	}

	noverlap := nperseg / 2
	step := nperseg - noverlap
	nseg := (len(x)-nperseg)/step + 1

	win := PeriodicHann(nperseg)
	scale := 1 / (fs * floats.Dot(win, win))

	fft := fourier.NewFFT(nperseg)
	nfreq := nperseg/2 + 1
	coeffs := make([]complex128, nfreq)
	seg := make([]float64, nperseg)
	density := make([]float64, nfreq)

	for s := 0; s < nseg; s++ {
		copy(seg, x[s*step:s*step+nperseg])
		Demean(seg)
		floats.Mul(seg, win)
		coeffs = fft.Coefficients(coeffs, seg)
		for k, c := range coeffs {
			a := cmplx.Abs(c)
			density[k] += a * a * scale
		}
	}

	floats.Scale(1/float64(nseg), density)

	// Fold negative frequencies into the one-sided estimate. DC and, for an
	// even segment length, the Nyquist bin have no mirror.
	last := nfreq
	if nperseg%2 == 0 {
		last = nfreq - 1
	}
	for k := 1; k < last; k++ {
		density[k] *= 2
	}

	freqs := make([]float64, nfreq)
	for k := range freqs {
		freqs[k] = float64(k) * fs / float64(nperseg)
	}

	return Spectrum{Frequencies: freqs, Density: density}, nil
}
