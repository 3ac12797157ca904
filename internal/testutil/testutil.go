// Package testutil provides shared RR fixtures and test helpers.
//
// The fixtures are deterministic so metric values are reproducible between
// runs and packages.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Modulation describes one sinusoidal component of a synthetic tachogram.
type Modulation struct {
	FreqHz    float64
	AmpMillis float64
}

// Default modulations place power in the VLF, LF and HF bands.
var (
	VLFModulation = Modulation{FreqHz: 0.02, AmpMillis: 15}
	LFModulation  = Modulation{FreqHz: 0.1, AmpMillis: 40}
	HFModulation  = Modulation{FreqHz: 0.25, AmpMillis: 25}
)

// SyntheticRR builds n intervals around baseMillis, modulated by the given
// components evaluated at each beat's onset time.
func SyntheticRR(n int, baseMillis float64, mods ...Modulation) []float64 {
	out := make([]float64, n)
	t := 0.0
	for i := range out {
		v := baseMillis
		for _, m := range mods {
			v += m.AmpMillis * math.Sin(2*math.Pi*m.FreqHz*t)
		}
		out[i] = v
		t += v / 1000
	}
	return out
}

// RestingRR returns a 5-minute-ish resting recording with power in all three
// spectral bands.
func RestingRR(n int) []float64 {
	return SyntheticRR(n, 850, VLFModulation, LFModulation, HFModulation)
}

// RepeatPattern tiles pattern until the result holds n values.
func RepeatPattern(pattern []float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}
	return out
}

// RRText renders values one per line, the format accepted by rr.Parse.
func RRText(values []float64) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteRRFile writes values to dir/name and returns the full path.
func WriteRRFile(t *testing.T, dir, name string, values []float64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(RRText(values)), 0644); err != nil {
		t.Fatalf("failed to write RR fixture %s: %v", path, err)
	}
	return path
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta fails the test if got and want differ by more than delta.
func AssertInDelta(t *testing.T, name string, got, want, delta float64) {
	t.Helper()
	if math.Abs(got-want) > delta {
		t.Errorf("%s = %v, want %v (±%v)", name, got, want, delta)
	}
}
