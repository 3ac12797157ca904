// Package hrv computes heart rate variability metrics from a validated RR
// series: time-domain descriptors, Welch band powers and DFA scaling
// exponents.
//
// Each analyzer returns its metrics together with an error. A non-nil error
// is always an *AnalysisError; the accompanying metrics are then the zero
// value (or partially available, for DFA) and still expose the full key set
// through Fields.
package hrv

import (
	"math"
	"strconv"
)

// Presentation precision for rounded fields.
const (
	defaultDecimals = 2
	dfaDecimals     = 3
)

// Field keys, fixed for a given configuration.
const (
	KeyMeanRR      = "mean_rr_ms"
	KeyMeanHR      = "mean_hr_bpm"
	KeySDNN        = "sdnn_ms"
	KeyRMSSD       = "rmssd_ms"
	KeyPNN50       = "pnn50_pct"
	KeyStressIndex = "stress_index"

	KeyVLFPower   = "vlf_power_ms2"
	KeyLFPower    = "lf_power_ms2"
	KeyHFPower    = "hf_power_ms2"
	KeyTotalPower = "total_power_ms2"
	KeyLFnu       = "lf_nu"
	KeyHFnu       = "hf_nu"
	KeyLFHF       = "lf_hf_ratio"

	KeyAlpha1 = "dfa_alpha1"
	KeyAlpha2 = "dfa_alpha2"
)

// TimeDomainKeys, FrequencyDomainKeys and DFAKeys list the keys in output order.
var (
	TimeDomainKeys      = []string{KeyMeanRR, KeyMeanHR, KeySDNN, KeyRMSSD, KeyPNN50, KeyStressIndex}
	FrequencyDomainKeys = []string{KeyVLFPower, KeyLFPower, KeyHFPower, KeyTotalPower, KeyLFnu, KeyHFnu, KeyLFHF}
	DFAKeys             = []string{KeyAlpha1, KeyAlpha2}
)

// AllKeys returns every metric key in output order.
func AllKeys() []string {
	keys := make([]string, 0, len(TimeDomainKeys)+len(FrequencyDomainKeys)+len(DFAKeys))
	keys = append(keys, TimeDomainKeys...)
	keys = append(keys, FrequencyDomainKeys...)
	return append(keys, DFAKeys...)
}

// NotAvailable is the text form of a missing value.
const NotAvailable = "N/A"

// Optional is a float that may be undefined, e.g. a DFA exponent with too
// few scales on one side of the breakpoint.
type Optional struct {
	Value float64
	Valid bool
}

// Some returns a defined Optional.
func Some(v float64) Optional { return Optional{Value: v, Valid: true} }

// None returns an undefined Optional.
func None() Optional { return Optional{} }

// Field is one named metric as presented to reports and tables.
type Field struct {
	Key       string
	Value     float64
	Available bool
}

// String formats the value, or NotAvailable.
func (f Field) String() string {
	if !f.Available {
		return NotAvailable
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

func field(key string, v float64, decimals int, ok bool) Field {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return Field{Key: key}
	}
	return Field{Key: key, Value: round(v, decimals), Available: true}
}

func optionalField(key string, o Optional, decimals int) Field {
	return field(key, o.Value, decimals, o.Valid)
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
