package hrv

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Key
	}
	return out
}

func TestFields_KeySetsStableOnFailure(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		fields []Field
		want   []string
	}{
		{"time_zero", TimeDomainMetrics{}.Fields(), TimeDomainKeys},
		{"frequency_zero", FrequencyDomainMetrics{}.Fields(), FrequencyDomainKeys},
		{"dfa_zero", DFAMetrics{}.Fields(), DFAKeys},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tc.want, keysOf(tc.fields)); diff != "" {
				t.Errorf("keys mismatch (-want +got):\n%s", diff)
			}
			for _, f := range tc.fields {
				assert.False(t, f.Available, f.Key)
				assert.Equal(t, NotAvailable, f.String())
			}
		})
	}
}

func TestAllKeys(t *testing.T) {
	t.Parallel()

	keys := AllKeys()
	require.Len(t, keys, len(TimeDomainKeys)+len(FrequencyDomainKeys)+len(DFAKeys))
	assert.Equal(t, KeyMeanRR, keys[0])
	assert.Equal(t, KeyAlpha2, keys[len(keys)-1])

	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
}

func TestField_Rounding(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		f    Field
		want string
	}{
		{"two_decimals", field(KeySDNN, 42.34567, defaultDecimals, true), "42.35"},
		{"dfa_three_decimals", optionalField(KeyAlpha1, Some(1.23456), dfaDecimals), "1.235"},
		{"integer", field(KeyMeanRR, 800, defaultDecimals, true), "800"},
		{"nan", field(KeyLFHF, math.NaN(), defaultDecimals, true), NotAvailable},
		{"inf", field(KeyLFHF, math.Inf(1), defaultDecimals, true), NotAvailable},
		{"none", optionalField(KeyAlpha2, None(), dfaDecimals), NotAvailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.f.String())
		})
	}
}

func TestRecoverNumeric(t *testing.T) {
	t.Parallel()

	run := func() (err error) {
		defer recoverNumeric(DomainDFA, &err)
		panic("index out of range")
	}

	err := run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNumeric))

	var aerr *AnalysisError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, DomainDFA, aerr.Domain)
	assert.Contains(t, err.Error(), "dfa domain")
}
