package hrv

import "fmt"

// Band is a half-open frequency interval [Low, High) in Hz.
type Band struct {
	Low  float64
	High float64
}

// Contains reports whether f lies in [Low, High).
func (b Band) Contains(f float64) bool {
	return f >= b.Low && f < b.High
}

func (b Band) String() string {
	return fmt.Sprintf("%g-%g Hz", b.Low, b.High)
}

// Bands are the three spectral bands integrated by the frequency analyzer.
type Bands struct {
	VLF Band
	LF  Band
	HF  Band
}

// DefaultBands returns the standard short-term HRV bands.
func DefaultBands() Bands {
	return Bands{
		VLF: Band{Low: 0.003, High: 0.04},
		LF:  Band{Low: 0.04, High: 0.15},
		HF:  Band{Low: 0.15, High: 0.4},
	}
}

// Validate reports bands that are empty, overlapping, or out of order.
// The analyzer does not call it; results for invalid bands are computed but
// are not meaningful.
func (b Bands) Validate() error {
	named := []struct {
		name string
		band Band
	}{{"vlf", b.VLF}, {"lf", b.LF}, {"hf", b.HF}}

	for _, n := range named {
		if n.band.Low < 0 || n.band.High <= n.band.Low {
			return fmt.Errorf("%s band %v is empty or negative", n.name, n.band)
		}
	}
	if b.LF.Low < b.VLF.High {
		return fmt.Errorf("lf band %v overlaps or precedes vlf band %v", b.LF, b.VLF)
	}
	if b.HF.Low < b.LF.High {
		return fmt.Errorf("hf band %v overlaps or precedes lf band %v", b.HF, b.LF)
	}
	return nil
}
