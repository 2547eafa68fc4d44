// Package level measures the level of audio signals block by block.
package level

import (
	"math"

	"github.com/cwbudde/algo-mixer/dsp/core"
	"github.com/cwbudde/algo-mixer/internal/vecmath"
)

// Stats holds level statistics of a signal.
type Stats struct {
	Length      int
	DC          float64 // mean
	RMS         float64
	Peak        float64 // max |x|
	CrestFactor float64 // peak / RMS, 0 for silence
	Energy      float64 // sum of squares
}

// RMSdB returns the RMS level in dB relative to full scale.
func (s Stats) RMSdB() float64 { return core.LinearToDB(s.RMS) }

// PeakDB returns the peak level in dB relative to full scale.
func (s Stats) PeakDB() float64 { return core.LinearToDB(s.Peak) }

// CrestFactorDB returns the crest factor in dB, 0 for silence.
func (s Stats) CrestFactorDB() float64 {
	if s.CrestFactor == 0 {
		return 0
	}
	return core.LinearToDB(s.CrestFactor)
}

// Calculate returns the statistics of one signal.
func Calculate(signal []float64) Stats {
	var a Accumulator
	a.Update(signal)
	return a.Result()
}

// Accumulator collects level statistics incrementally across blocks.
type Accumulator struct {
	n      int
	sum    float64
	energy float64
	peak   float64
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Update adds a block of samples.
func (a *Accumulator) Update(samples []float64) {
	if len(samples) == 0 {
		return
	}
	rms := vecmath.RMS(samples)
	a.n += len(samples)
	a.sum += vecmath.Sum(samples)
	a.energy += rms * rms * float64(len(samples))
	a.peak = math.Max(a.peak, vecmath.MaxAbs(samples))
}

// Result returns the statistics of everything added so far.
func (a *Accumulator) Result() Stats {
	if a.n == 0 {
		return Stats{}
	}
	nf := float64(a.n)
	s := Stats{
		Length: a.n,
		DC:     a.sum / nf,
		RMS:    math.Sqrt(a.energy / nf),
		Peak:   a.peak,
		Energy: a.energy,
	}
	if s.RMS > 0 {
		s.CrestFactor = s.Peak / s.RMS
	}
	return s
}

// Reset clears all accumulated data.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}
