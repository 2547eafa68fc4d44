package vecmath

import (
	"math"

	algovec "github.com/cwbudde/algo-vecmath"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/floats"
)

// AddBlockInPlace performs dst[i] += src[i].
func AddBlockInPlace(dst, src []float64) {
	algovec.AddBlockInPlace(dst, src)
}

// AddScaledInPlace performs dst[i] += src[i] * scale.
func AddScaledInPlace(dst, src []float64, scale float64) {
	switch scale {
	case 0:
		return
	case 1:
		algovec.AddBlockInPlace(dst, src)
	default:
		floats.AddScaled(dst, scale, src)
	}
}

// ScaleBlock performs dst[i] = src[i] * scale. dst and src may alias.
func ScaleBlock(dst, src []float64, scale float64) {
	f64.Scale(dst, src, scale)
}

// MulBlockInPlace performs dst[i] *= gains[i].
func MulBlockInPlace(dst, gains []float64) {
	algovec.MulBlockInPlace(dst, gains)
}

// Power writes re[i]^2 + im[i]^2 to dst.
func Power(dst, re, im []float64) {
	algovec.Power(dst, re, im)
}

// Sum returns the sum of x.
func Sum(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return f64.Sum(x)
}

// MaxAbs returns the largest magnitude in x, or 0 for an empty slice.
func MaxAbs(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Max(floats.Max(x), -floats.Min(x))
}

// RMS returns the root mean square of x, or 0 for an empty slice.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}
