package hrv

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/integrate"

	"github.com/banshee-data/hrv.report/internal/hrv/spectral"
	"github.com/banshee-data/hrv.report/internal/rr"
)

// DefaultSamplingRate is the resampling rate for the tachogram, in Hz.
const DefaultSamplingRate = 4.0

// FrequencyOptions configures ComputeFrequencyDomain.
type FrequencyOptions struct {
	SamplingRate float64 // Hz
	Bands        Bands
	// SegmentLength is the Welch segment length in samples. Zero selects
	// half the resampled signal; a value longer than the signal also falls
	// back to half.
	SegmentLength int
}

// DefaultFrequencyOptions returns the canonical spectral configuration.
func DefaultFrequencyOptions() FrequencyOptions {
	return FrequencyOptions{
		SamplingRate: DefaultSamplingRate,
		Bands:        DefaultBands(),
	}
}

// Spectrum is the PSD of the resampled tachogram, exposed for plotting.
type Spectrum = spectral.Spectrum

// FrequencyDomainMetrics are band powers and their derived ratios.
type FrequencyDomainMetrics struct {
	VLF   float64 // ms²
	LF    float64 // ms²
	HF    float64 // ms²
	Total float64 // VLF + LF + HF
	LFnu  float64 // LF / (LF + HF) × 100
	HFnu  float64 // HF / (LF + HF) × 100
	LFHF  float64 // LF / HF

	Computed bool
}

// Fields returns the frequency-domain key set in output order.
func (m FrequencyDomainMetrics) Fields() []Field {
	return []Field{
		field(KeyVLFPower, m.VLF, defaultDecimals, m.Computed),
		field(KeyLFPower, m.LF, defaultDecimals, m.Computed),
		field(KeyHFPower, m.HF, defaultDecimals, m.Computed),
		field(KeyTotalPower, m.Total, defaultDecimals, m.Computed),
		field(KeyLFnu, m.LFnu, defaultDecimals, m.Computed),
		field(KeyHFnu, m.HFnu, defaultDecimals, m.Computed),
		field(KeyLFHF, m.LFHF, defaultDecimals, m.Computed),
	}
}

// ComputeFrequencyDomain resamples the tachogram at opts.SamplingRate,
// removes its linear trend, estimates the Welch PSD and integrates it over
// the configured bands. On failure it returns zero metrics, an empty
// spectrum and an *AnalysisError.
func ComputeFrequencyDomain(intervals []float64, opts FrequencyOptions) (m FrequencyDomainMetrics, spec Spectrum, err error) {
	defer func() {
		if err != nil {
			m, spec = FrequencyDomainMetrics{}, Spectrum{}
		}
	}()
	defer recoverNumeric(DomainFrequency, &err)

	if opts.SamplingRate <= 0 {
		return m, spec, domainError(DomainFrequency, fmt.Errorf("%w: %v", ErrInvalidSamplingRate, opts.SamplingRate))
	}

	times := rr.Series(intervals).BeatTimes()
	_, resampled, err := spectral.Resample(times, intervals, opts.SamplingRate)
	if err != nil {
		return m, spec, domainError(DomainFrequency, classify(err))
	}

	detrended := spectral.Detrend(resampled)

	spec, err = spectral.Welch(detrended, opts.SamplingRate, segmentLength(len(detrended), opts.SegmentLength))
	if err != nil {
		return m, spec, domainError(DomainFrequency, classify(err))
	}

	m = BandPowers(spec, opts.Bands)
	return m, spec, nil
}

// BandPowers integrates spec over each band and derives the normalised
// units and LF/HF ratio. Ratios with a zero denominator are reported as 0.
func BandPowers(spec Spectrum, bands Bands) FrequencyDomainMetrics {
	vlf := bandPower(spec, bands.VLF)
	lf := bandPower(spec, bands.LF)
	hf := bandPower(spec, bands.HF)

	m := FrequencyDomainMetrics{
		VLF:      vlf,
		LF:       lf,
		HF:       hf,
		Total:    vlf + lf + hf,
		Computed: true,
	}
	if lf+hf > 0 {
		m.LFnu = lf / (lf + hf) * 100
		m.HFnu = hf / (lf + hf) * 100
	}
	if hf > 0 {
		m.LFHF = lf / hf
	}
	return m
}

// bandPower is the trapezoidal integral over frequency of the PSD points
// inside b. Fewer than two points integrate to zero.
func bandPower(spec Spectrum, b Band) float64 {
	var fs, ps []float64
	for i, f := range spec.Frequencies {
		if b.Contains(f) {
			fs = append(fs, f)
			ps = append(ps, spec.Density[i])
		}
	}
	if len(fs) < 2 {
		return 0
	}
	return integrate.Trapezoidal(fs, ps)
}

func segmentLength(n, fixed int) int {
	if fixed > 0 && fixed <= n {
		return fixed
	}
	return n / 2
}

func classify(err error) error {
	if errors.Is(err, spectral.ErrTooFewPoints) {
		return fmt.Errorf("%w: %w", ErrInsufficientData, err)
	}
	if errors.Is(err, spectral.ErrInvalidRate) {
		return fmt.Errorf("%w: %w", ErrInvalidSamplingRate, err)
	}
	return err
}
