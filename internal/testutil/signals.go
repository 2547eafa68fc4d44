// Package testutil holds the deterministic signals and tolerance checks
// shared by the package tests.
package testutil

import (
	"math"
	"math/rand/v2"
)

func generate(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

// DeterministicSine returns length samples of amplitude·sin(2π·f·i/sr).
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	w := 2 * math.Pi * freqHz / sampleRate
	return generate(length, func(i int) float64 { return amplitude * math.Sin(w*float64(i)) })
}

// DeterministicNoise returns uniform white noise in [−amplitude, amplitude)
// that depends only on seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
	return generate(length, func(int) float64 { return amplitude * (2*rng.Float64() - 1) })
}

// Impulse returns a unit impulse at pos. An out-of-range pos gives silence.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC returns length samples of value.
func DC(value float64, length int) []float64 {
	return generate(length, func(int) float64 { return value })
}

// Ones returns n samples of 1.
func Ones(n int) []float64 { return DC(1, n) }

// Planes returns chs zeroed planes of n samples.
func Planes(chs, n int) [][]float64 {
	out := make([][]float64, chs)
	for ch := range out {
		out[ch] = make([]float64, n)
	}
	return out
}

// SinePCM returns an interleaved 16-bit sine with the same signal on
// every channel.
func SinePCM(freqHz, sampleRate, amplitude float64, frames, channels int) []int16 {
	out := make([]int16, frames*channels)
	for i, v := range DeterministicSine(freqHz, sampleRate, amplitude, frames) {
		s := int16(math.Round(math.Max(math.MinInt16, math.Min(math.MaxInt16, v*32768))))
		for ch := range channels {
			out[i*channels+ch] = s
		}
	}
	return out
}

// Deinterleave splits interleaved PCM into float planes scaled by 1/32768.
func Deinterleave(pcm []int16, channels int) [][]float64 {
	out := Planes(channels, len(pcm)/channels)
	for i, v := range pcm[:len(out[0])*channels] {
		out[i%channels][i/channels] = float64(v) / 32768
	}
	return out
}
