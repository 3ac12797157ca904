// Package rr holds the RR interval series type together with its loader and
// plausibility checks. Everything downstream of this package assumes a
// validated series in milliseconds.
package rr

import "gonum.org/v1/gonum/floats"

// Series is an ordered sequence of RR intervals in milliseconds.
// Analyzers treat it as read-only.
type Series []float64

// TotalMillis returns the sum of all intervals.
func (s Series) TotalMillis() float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Sum(s)
}

// DurationMinutes returns the recording length in minutes.
func (s Series) DurationMinutes() float64 {
	return s.TotalMillis() / 60000
}

// BeatTimes returns the cumulative time in seconds at the end of each
// interval, i.e. the irregular sample grid of the tachogram.
func (s Series) BeatTimes() []float64 {
	if len(s) == 0 {
		return nil
	}
	t := floats.CumSum(make([]float64, len(s)), s)
	floats.Scale(1.0/1000, t)
	return t
}

// Window returns the intervals whose beat time (seconds) falls within
// [startSec, endSec]. A window covering the whole recording returns a copy
// of s. An inverted or empty window returns an empty series.
func (s Series) Window(startSec, endSec float64) Series {
	if endSec < startSec {
		return Series{}
	}
	times := s.BeatTimes()
	out := make(Series, 0, len(s))
	for i, t := range times {
		if t >= startSec && t <= endSec {
			out = append(out, s[i])
		}
	}
	return out
}
