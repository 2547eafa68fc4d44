// Package eq provides a multichannel single-band RBJ equalizer with lazy
// coefficient updates.
package eq

import (
	"strconv"

	"github.com/cwbudde/algo-mixer/dsp/core"
	"github.com/cwbudde/algo-mixer/dsp/filter/biquad"
	"github.com/cwbudde/algo-mixer/dsp/filter/design"
)

const (
	defaultSampleRate = 48000.0
	defaultFrequency  = 1000.0
	defaultQ          = 1.0
	defaultChannels   = 2
)

// Equalizer runs one biquad per channel with shared coefficients.
// Setters only record the new value; Update recomputes coefficients.
//
// Equalizer is not safe for concurrent use.
type Equalizer struct {
	typ        design.Type
	sampleRate float64
	frequency  float64
	q          float64
	gain       float64
	channels   int

	coeffs   biquad.Coefficients
	sections []biquad.Section
	dirty    bool
}

// New returns a 1 kHz lowpass with q 1 for 48 kHz stereo.
func New() *Equalizer {
	return &Equalizer{
		typ:        design.LowPass,
		sampleRate: defaultSampleRate,
		frequency:  defaultFrequency,
		q:          defaultQ,
		channels:   defaultChannels,
		dirty:      true,
	}
}

// SetFormat changes the stream format.
func (e *Equalizer) SetFormat(sampleRate float64, channels int) {
	if !core.Differs(e.sampleRate, sampleRate, core.ParamEpsilon) && e.channels == channels {
		return
	}
	e.sampleRate = sampleRate
	e.channels = channels
	e.dirty = true
}

// SetType selects the filter response.
func (e *Equalizer) SetType(t design.Type) {
	if e.typ == t {
		return
	}
	e.typ = t
	e.dirty = true
}

// SetFrequency sets the corner or centre frequency in Hz.
func (e *Equalizer) SetFrequency(hz float64) {
	if !core.Differs(e.frequency, hz, core.ParamEpsilon) {
		return
	}
	e.frequency = hz
	e.dirty = true
}

// SetQ sets the quality factor.
func (e *Equalizer) SetQ(q float64) {
	if !core.Differs(e.q, q, core.ParamEpsilon) {
		return
	}
	e.q = q
	e.dirty = true
}

// SetGain sets the shelf or peak gain in dB.
func (e *Equalizer) SetGain(db float64) {
	if !core.Differs(e.gain, db, core.ParamEpsilon) {
		return
	}
	e.gain = db
	e.dirty = true
}

// Type returns the response type.
func (e *Equalizer) Type() design.Type { return e.typ }

// Frequency returns the corner or centre frequency in Hz.
func (e *Equalizer) Frequency() float64 { return e.frequency }

// Q returns the quality factor.
func (e *Equalizer) Q() float64 { return e.q }

// Gain returns the shelf or peak gain in dB.
func (e *Equalizer) Gain() float64 { return e.gain }

// Coefficients returns the last committed coefficients.
func (e *Equalizer) Coefficients() biquad.Coefficients { return e.coeffs }

// ResponseDB returns the gain of the committed coefficients at hz in dB.
// Before the first Update it is -Inf.
func (e *Equalizer) ResponseDB(hz float64) float64 {
	return e.coeffs.MagnitudeDB(hz, e.sampleRate)
}

// FrequencyString formats the frequency as whole Hz.
func (e *Equalizer) FrequencyString() string {
	return strconv.FormatInt(int64(e.frequency), 10)
}

// GainString formats the gain in dB with two decimals.
func (e *Equalizer) GainString() string {
	return strconv.FormatFloat(e.gain, 'f', 2, 64)
}

// Update commits pending changes and reports whether coefficients were
// recomputed. A channel count change also clears the filter history.
func (e *Equalizer) Update() (bool, error) {
	if !e.dirty {
		return false, nil
	}
	if len(e.sections) != e.channels {
		e.sections = make([]biquad.Section, max(e.channels, 0))
	}
	c, err := design.RBJ(e.typ, e.frequency, e.q, e.gain, e.sampleRate)
	if err != nil {
		return false, err
	}
	e.coeffs = c
	for i := range e.sections {
		e.sections[i].Coefficients = c
	}
	e.dirty = false
	return true, nil
}

// Lookahead returns the latency attributed to the filter in seconds.
func (e *Equalizer) Lookahead() float64 {
	if e.sampleRate == 0 {
		return 0
	}
	return 2 / e.sampleRate
}

// Process filters n frames of in into out. in and out may alias.
func (e *Equalizer) Process(in, out [][]float64, n int) {
	for ch := range e.sections {
		e.sections[ch].ProcessBlockTo(out[ch][:n], in[ch][:n])
	}
}

// Clear zeroes the filter history of every channel.
func (e *Equalizer) Clear() {
	for i := range e.sections {
		e.sections[i].Reset()
	}
}
