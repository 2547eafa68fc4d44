package core

import "math"

const defaultEpsilon = 1e-12

// SilenceDB is the level at and below which a gain in dB is treated as
// fully muted.
const SilenceDB = -144.0

// ParamEpsilon is the tolerance used when deciding whether a parameter
// setter received a new value.
const ParamEpsilon = 1e-12

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// Differs reports whether a and b are further apart than the absolute
// tolerance tol. Unlike NearlyEqual the comparison is not relative.
func Differs(a, b, tol float64) bool {
	return a > b+tol || b > a+tol
}

// FlushDenormals converts tiny denormal-like values to exact zero.
// This can reduce denormal-related CPU slowdowns in hot DSP loops.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// DBToAmp converts dB to linear amplitude like DBToLinear but returns
// exactly 0 at or below SilenceDB.
func DBToAmp(db float64) float64 {
	if db <= SilenceDB {
		return 0
	}

	return math.Exp(db * (math.Ln10 / 20))
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}
