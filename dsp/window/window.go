// Package window generates the tapering windows used by spectral analysis.
package window

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-mixer/internal/vecmath"
)

var (
	errEmptyCoeffs      = errors.New("window: coefficients must not be empty")
	errZeroCoherentGain = errors.New("window: coherent gain is zero")
	errMismatchedLength = errors.New("window: samples and coefficients must have the same length")
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeFlatTop
)

// Metadata holds spectral properties of a window type.
type Metadata struct {
	Name         string
	ENBW         float64 // bins
	CoherentGain float64
}

// cosine terms of the sum-of-cosines windows
var cosineTerms = map[Type][]float64{
	TypeRectangular: {1},
	TypeHann:        {0.5, -0.5},
	TypeHamming:     {0.54, -0.46},
	TypeBlackman:    {0.42, -0.5, 0.08},
	TypeFlatTop:     {0.21557895, -0.41663158, 0.277263158, -0.083578947, 0.006947368},
}

var metadataByType = map[Type]Metadata{
	TypeRectangular: {Name: "rectangular", ENBW: 1, CoherentGain: 1},
	TypeHann:        {Name: "hann", ENBW: 1.5, CoherentGain: 0.5},
	TypeHamming:     {Name: "hamming", ENBW: 1.3628, CoherentGain: 0.54},
	TypeBlackman:    {Name: "blackman", ENBW: 1.7268, CoherentGain: 0.42},
	TypeFlatTop:     {Name: "flattop", ENBW: 3.7702, CoherentGain: 0.21557895},
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic selects the periodic form used for FFT framing instead of
// the symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length. Unknown types
// yield a rectangular window.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	terms, ok := cosineTerms[t]
	if !ok {
		terms = cosineTerms[TypeRectangular]
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = cosineFromCoeffs(samplePosition(i, length, cfg.periodic), terms)
	}
	return out
}

// Info returns static metadata for a window type.
func Info(t Type) Metadata {
	return metadataByType[t]
}

func (t Type) String() string {
	if m, ok := metadataByType[t]; ok {
		return m.Name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// EquivalentNoiseBandwidth returns the ENBW in bins for a window.
func EquivalentNoiseBandwidth(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}

	sum := vecmath.Sum(coeffs)
	if sum == 0 {
		return 0, errZeroCoherentGain
	}
	rms := vecmath.RMS(coeffs)
	n := float64(len(coeffs))

	return n * n * rms * rms / (sum * sum), nil
}

// ApplyInPlace multiplies samples with coefficients in place.
func ApplyInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
