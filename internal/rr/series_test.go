package rr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeries_DurationMinutes(t *testing.T) {
	t.Parallel()

	s := Series{1000, 1000, 1000, 1000, 1000, 1000}
	assert.InDelta(t, 0.1, s.DurationMinutes(), 1e-12)
	assert.InDelta(t, 6000.0, s.TotalMillis(), 1e-12)
	assert.Equal(t, 0.0, Series{}.DurationMinutes())
}

func TestSeries_BeatTimes(t *testing.T) {
	t.Parallel()

	s := Series{800, 1000, 1200}
	assert.InDeltaSlice(t, []float64{0.8, 1.8, 3.0}, s.BeatTimes(), 1e-12)
	assert.Equal(t, Series{800, 1000, 1200}, s, "BeatTimes must not modify the series")
	assert.Nil(t, Series{}.BeatTimes())
}

func TestSeries_Window(t *testing.T) {
	t.Parallel()

	s := Series{1000, 1000, 1000, 1000, 1000} // beats at 1,2,3,4,5 s

	testCases := []struct {
		name       string
		start, end float64
		want       Series
	}{
		{"whole_recording", 0, 5, Series{1000, 1000, 1000, 1000, 1000}},
		{"inner_inclusive", 2, 4, Series{1000, 1000, 1000}},
		{"before_start", -10, 0.5, Series{}},
		{"inverted", 4, 2, Series{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.Window(tc.start, tc.end))
		})
	}
}
