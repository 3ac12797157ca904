package hrv

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StressBinWidth is the Baevsky histogram bin width in milliseconds.
const StressBinWidth = 7.8125

// nn50Threshold is the successive-difference threshold for pNN50, in ms.
const nn50Threshold = 50.0

// TimeDomainMetrics are statistical descriptors of interval variability.
// Values are kept at full precision; Fields rounds them for presentation.
type TimeDomainMetrics struct {
	MeanRR      float64 // ms
	MeanHR      float64 // beats per minute
	SDNN        float64 // population standard deviation, ms
	RMSSD       float64 // ms
	PNN50       float64 // percent of successive differences > 50 ms
	StressIndex Optional

	// Computed is false when the analysis failed.
	Computed bool
}

// Fields returns the time-domain key set in output order.
func (m TimeDomainMetrics) Fields() []Field {
	return []Field{
		field(KeyMeanRR, m.MeanRR, defaultDecimals, m.Computed),
		field(KeyMeanHR, m.MeanHR, defaultDecimals, m.Computed),
		field(KeySDNN, m.SDNN, defaultDecimals, m.Computed),
		field(KeyRMSSD, m.RMSSD, defaultDecimals, m.Computed),
		field(KeyPNN50, m.PNN50, defaultDecimals, m.Computed),
		optionalField(KeyStressIndex, m.StressIndex, defaultDecimals),
	}
}

// ComputeTimeDomain derives the time-domain metrics of a validated series.
// The series is not modified.
func ComputeTimeDomain(rr []float64) (m TimeDomainMetrics, err error) {
	defer recoverNumeric(DomainTime, &err)

	if len(rr) < 2 {
		return TimeDomainMetrics{}, domainError(DomainTime,
			fmt.Errorf("%w: need at least 2 intervals, got %d", ErrInsufficientData, len(rr)))
	}

	mean, sd := stat.PopMeanStdDev(rr, nil)

	var sumSq float64
	var nn50 int
	for i := 0; i+1 < len(rr); i++ {
		d := rr[i+1] - rr[i]
		sumSq += d * d
		if math.Abs(d) > nn50Threshold {
			nn50++
		}
	}
	nDiff := float64(len(rr) - 1)

	return TimeDomainMetrics{
		MeanRR:      mean,
		MeanHR:      60000 / mean,
		SDNN:        sd,
		RMSSD:       math.Sqrt(sumSq / nDiff),
		PNN50:       float64(nn50) / nDiff * 100,
		StressIndex: StressIndex(rr),
		Computed:    true,
	}, nil
}

// StressIndex computes Baevsky's stress index
//
//	SI = AMo / (2 · Mo · MxDMn) · 10⁶
//
// from a histogram with StressBinWidth bins anchored at the minimum
// interval. Mo is the midpoint of the first most populated bin, AMo that
// bin's share of all intervals in percent and MxDMn the interval range.
// The index is undefined when the range is zero or the histogram has a
// single bin.
func StressIndex(rr []float64) Optional {
	if len(rr) == 0 {
		return None()
	}
	lo, hi := floats.Min(rr), floats.Max(rr)
	mxdmn := hi - lo

	nEdges := int(math.Ceil((hi + StressBinWidth - lo) / StressBinWidth))
	if mxdmn <= 0 || nEdges < 3 {
		return None()
	}

	edges := make([]float64, nEdges)
	for k := range edges {
		edges[k] = lo + float64(k)*StressBinWidth
	}

	// The last bin is closed on the right; stat.Histogram treats it as
	// half-open, so nudge the upper divider past the maximum.
	dividers := append([]float64(nil), edges...)
	if last := len(dividers) - 1; dividers[last] <= hi {
		dividers[last] = math.Nextafter(hi, math.Inf(1))
	}

	sorted := append([]float64(nil), rr...)
	sort.Float64s(sorted)
	counts := stat.Histogram(nil, dividers, sorted, nil)

	mode := floats.MaxIdx(counts)
	modeRR := (edges[mode] + edges[mode+1]) / 2
	amo := counts[mode] / float64(len(rr)) * 100

	return Some(amo / (2 * modeRR * mxdmn) * 1e6)
}
