package testutil

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// MagnitudeSpectrum returns |X[k]| for k in [0, len(x)/2] using a real FFT.
func MagnitudeSpectrum(x []float64) []float64 {
	fft := fourier.NewFFT(len(x))
	coeff := fft.Coefficients(nil, x)
	out := make([]float64, len(coeff))
	for i, c := range coeff {
		out[i] = cmplx.Abs(c)
	}
	return out
}

// BinFrequency returns the centre frequency of bin k for an n-point FFT.
func BinFrequency(k, n int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(n)
}
