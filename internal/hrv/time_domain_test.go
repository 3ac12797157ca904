package hrv

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/hrv.report/internal/testutil"
)

func TestComputeTimeDomain_SmallDifferencePattern(t *testing.T) {
	t.Parallel()

	rr := testutil.RepeatPattern([]float64{800, 810, 790, 805}, 100)
	m, err := ComputeTimeDomain(rr)
	require.NoError(t, err)
	require.True(t, m.Computed)

	assert.InDelta(t, 801.25, m.MeanRR, 1e-9)
	assert.Equal(t, 60000/m.MeanRR, m.MeanHR)
	assert.Equal(t, 0.0, m.PNN50)

	// 24 full cycles of (10, -20, 15, -5) plus (10, -20, 15)
	wantRMSSD := math.Sqrt((24*750.0 + 100 + 400 + 225) / 99)
	assert.InDelta(t, wantRMSSD, m.RMSSD, 1e-9)

	// population SD of one cycle repeated exactly
	var ss float64
	for _, v := range []float64{800, 810, 790, 805} {
		ss += (v - 801.25) * (v - 801.25)
	}
	assert.InDelta(t, math.Sqrt(ss/4), m.SDNN, 1e-9)
}

func TestComputeTimeDomain_PNN50(t *testing.T) {
	t.Parallel()

	// differences alternate +100, -100, 0 -> two of every three exceed 50 ms
	rr := testutil.RepeatPattern([]float64{800, 900, 800}, 99)
	m, err := ComputeTimeDomain(rr)
	require.NoError(t, err)

	nn50 := 0
	for i := 0; i+1 < len(rr); i++ {
		if math.Abs(rr[i+1]-rr[i]) > 50 {
			nn50++
		}
	}
	assert.InDelta(t, float64(nn50)/float64(len(rr)-1)*100, m.PNN50, 1e-12)
	assert.Greater(t, m.PNN50, 60.0)
}

func TestComputeTimeDomain_NonNegativeAndRMSSDZero(t *testing.T) {
	t.Parallel()

	constant := testutil.RepeatPattern([]float64{850}, 150)
	m, err := ComputeTimeDomain(constant)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.RMSSD)
	assert.Equal(t, 0.0, m.SDNN)
	assert.False(t, m.StressIndex.Valid, "stress index is undefined for a zero range")

	m, err = ComputeTimeDomain(testutil.RestingRR(300))
	require.NoError(t, err)
	assert.Greater(t, m.RMSSD, 0.0)
	assert.Greater(t, m.SDNN, 0.0)
	assert.True(t, m.StressIndex.Valid)
}

func TestComputeTimeDomain_InsufficientData(t *testing.T) {
	t.Parallel()

	for _, rr := range [][]float64{nil, {800}} {
		m, err := ComputeTimeDomain(rr)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientData))

		var aerr *AnalysisError
		require.True(t, errors.As(err, &aerr))
		assert.Equal(t, DomainTime, aerr.Domain)

		assert.False(t, m.Computed)
		for _, f := range m.Fields() {
			assert.False(t, f.Available, f.Key)
		}
	}
}

func TestStressIndex(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		rr        []float64
		wantValid bool
		want      float64
	}{
		{
			// bins anchored at 800; 900 lands in bin 12; the tie resolves to
			// the first bin, midpoint 803.90625
			name:      "two_clusters_tie",
			rr:        append(testutil.RepeatPattern([]float64{800}, 50), testutil.RepeatPattern([]float64{900}, 50)...),
			wantValid: true,
			want:      50 / (2 * 803.90625 * 100) * 1e6,
		},
		{
			name:      "mode_in_upper_cluster",
			rr:        append(testutil.RepeatPattern([]float64{800}, 30), testutil.RepeatPattern([]float64{900}, 70)...),
			wantValid: true,
			// 900 sits in [893.75, 901.5625), midpoint 897.65625
			want: 70 / (2 * 897.65625 * 100) * 1e6,
		},
		{
			name:      "max_on_last_edge",
			rr:        append(testutil.RepeatPattern([]float64{800}, 10), testutil.RepeatPattern([]float64{815.625}, 20)...),
			wantValid: true,
			// edges 800, 807.8125, 815.625: the last bin is closed, so
			// 815.625 falls in [807.8125, 815.625]
			want: (20.0 / 30 * 100) / (2 * 811.71875 * 15.625) * 1e6,
		},
		{"constant", testutil.RepeatPattern([]float64{800}, 100), false, 0},
		{"single_bin", testutil.RepeatPattern([]float64{800, 805}, 100), false, 0},
		{"empty", nil, false, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := StressIndex(tc.rr)
			require.Equal(t, tc.wantValid, got.Valid)
			if tc.wantValid {
				assert.InDelta(t, tc.want, got.Value, 1e-9)
			}
		})
	}
}

func TestComputeTimeDomain_DoesNotMutate(t *testing.T) {
	t.Parallel()

	rr := testutil.RestingRR(200)
	before := append([]float64(nil), rr...)
	_, err := ComputeTimeDomain(rr)
	require.NoError(t, err)
	assert.Equal(t, before, rr)
}
