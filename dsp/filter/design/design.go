package design

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-mixer/dsp/filter/biquad"
)

// minQ keeps alpha and beta finite for q <= 0.
const minQ = 1e-12

// RBJ designs a biquad of type t at freq (Hz). gainDB is only used by the
// shelf and peaking types. freq is clamped to [0, sampleRate/2].
func RBJ(t Type, freq, q, gainDB, sampleRate float64) (biquad.Coefficients, error) {
	if !t.Valid() {
		return biquad.Coefficients{}, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return biquad.Coefficients{}, fmt.Errorf("design: invalid sample rate %v", sampleRate)
	}

	w0 := normalizedW0(freq, sampleRate)
	q = math.Max(q, minQ)
	a := math.Pow(10, gainDB/40)
	sw, cw := math.Sincos(w0)
	alpha := sw / (2 * q)
	bs := math.Sqrt(a) / q * sw

	var b0, b1, b2, a0, a1, a2 float64
	switch t {
	case LowPass:
		b0 = (1 - cw) / 2
		b1 = 1 - cw
		b2 = (1 - cw) / 2
		a0, a1, a2 = 1+alpha, -2*cw, 1-alpha
	case HighPass:
		b0 = (1 + cw) / 2
		b1 = -(1 + cw)
		b2 = (1 + cw) / 2
		a0, a1, a2 = 1+alpha, -2*cw, 1-alpha
	case BandPass:
		// constant 0 dB peak gain
		b0, b1, b2 = alpha, 0, -alpha
		a0, a1, a2 = 1+alpha, -2*cw, 1-alpha
	case Notch:
		b0, b1, b2 = 1, -2*cw, 1
		a0, a1, a2 = 1+alpha, -2*cw, 1-alpha
	case Peaking:
		b0, b1, b2 = 1+alpha*a, -2*cw, 1-alpha*a
		a0, a1, a2 = 1+alpha/a, -2*cw, 1-alpha/a
	case AllPass:
		b0, b1, b2 = 1-alpha, -2*cw, 1+alpha
		a0, a1, a2 = 1+alpha, -2*cw, 1-alpha
	case LowShelf:
		b0 = a * ((a + 1) - (a-1)*cw + bs)
		b1 = 2 * a * ((a - 1) - (a+1)*cw)
		b2 = a * ((a + 1) - (a-1)*cw - bs)
		a0 = (a + 1) + (a-1)*cw + bs
		a1 = -2 * ((a - 1) + (a+1)*cw)
		a2 = (a + 1) + (a-1)*cw - bs
	case HighShelf:
		b0 = a * ((a + 1) + (a-1)*cw + bs)
		b1 = -2 * a * ((a - 1) + (a+1)*cw)
		b2 = a * ((a + 1) + (a-1)*cw - bs)
		a0 = (a + 1) - (a-1)*cw + bs
		a1 = 2 * ((a - 1) - (a+1)*cw)
		a2 = (a + 1) - (a-1)*cw - bs
	}

	return normalizeBiquad(b0, b1, b2, a0, a1, a2), nil
}

// Lowpass designs a lowpass biquad at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) (biquad.Coefficients, error) {
	return RBJ(LowPass, freq, q, 0, sampleRate)
}

// Highpass designs a highpass biquad at freq (Hz) with quality factor q.
func Highpass(freq, q, sampleRate float64) (biquad.Coefficients, error) {
	return RBJ(HighPass, freq, q, 0, sampleRate)
}

// Peak designs a peaking-EQ biquad with gain in dB.
func Peak(freq, gainDB, q, sampleRate float64) (biquad.Coefficients, error) {
	return RBJ(Peaking, freq, q, gainDB, sampleRate)
}

// LowShelfCoefficients designs a low-shelf biquad with gain in dB.
func LowShelfCoefficients(freq, gainDB, q, sampleRate float64) (biquad.Coefficients, error) {
	return RBJ(LowShelf, freq, q, gainDB, sampleRate)
}

// HighShelfCoefficients designs a high-shelf biquad with gain in dB.
func HighShelfCoefficients(freq, gainDB, q, sampleRate float64) (biquad.Coefficients, error) {
	return RBJ(HighShelf, freq, q, gainDB, sampleRate)
}

func normalizedW0(freq, sampleRate float64) float64 {
	if math.IsNaN(freq) {
		freq = 0
	}
	freq = math.Max(0, math.Min(freq, sampleRate/2))
	return 2 * math.Pi * freq / sampleRate
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
