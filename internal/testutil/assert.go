package testutil

import (
	"math"

	"github.com/stretchr/testify/require"
)

type helper interface {
	Helper()
}

// RequireSliceNearlyEqual stops the test unless got and want have the same
// length and every pair is within eps.
func RequireSliceNearlyEqual(t require.TestingT, got, want []float64, eps float64) {
	if h, ok := t.(helper); ok {
		h.Helper()
	}
	require.Len(t, got, len(want))
	require.InDeltaSlice(t, want, got, eps)
}

// RequireFinite stops the test at the first NaN or Inf.
func RequireFinite(t require.TestingT, data []float64) {
	if h, ok := t.(helper); ok {
		h.Helper()
	}
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			require.Failf(t, "non-finite sample", "index %d: %v", i, v)
		}
	}
}

// MaxAbsDiffInt16 returns the largest absolute sample difference between
// two PCM slices, or -1 when their lengths differ.
func MaxAbsDiffInt16(a, b []int16) int {
	if len(a) != len(b) {
		return -1
	}
	worst := 0
	for i := range a {
		d := int(a[i]) - int(b[i])
		worst = max(worst, d, -d)
	}
	return worst
}
