package delay

import (
	"strconv"

	"github.com/cwbudde/algo-mixer/dsp/core"
	"github.com/cwbudde/algo-mixer/dsp/ring"
)

// Lag delays a planar multichannel stream by a whole number of frames.
// The delay is pre-filled with silence so output is continuous.
type Lag struct {
	buf        *ring.Float
	duration   float64
	sampleRate float64
	channels   int
	samples    int
	dirty      bool
}

// NewLag returns a zero-length lag for 48 kHz stereo.
func NewLag() *Lag {
	return &Lag{
		buf:        ring.NewFloat(0),
		sampleRate: 48000,
		channels:   2,
		dirty:      true,
	}
}

// SetFormat changes the stream format. Takes effect on the next Update.
func (l *Lag) SetFormat(sampleRate float64, channels int) {
	if !core.Differs(l.sampleRate, sampleRate, core.ParamEpsilon) && l.channels == channels {
		return
	}
	l.sampleRate = sampleRate
	l.channels = channels
	l.dirty = true
}

// SetDuration sets the delay in seconds. Takes effect on the next Update.
func (l *Lag) SetDuration(seconds float64) {
	if !core.Differs(l.duration, seconds, core.ParamEpsilon) {
		return
	}
	l.duration = seconds
	l.dirty = true
}

// Duration returns the delay in seconds.
func (l *Lag) Duration() float64 { return l.duration }

// Samples returns the committed delay in frames.
func (l *Lag) Samples() int { return l.samples }

// DurationString formats the delay as whole milliseconds.
func (l *Lag) DurationString() string {
	return strconv.FormatInt(int64(1000*l.duration), 10)
}

// Update commits pending parameter changes and reports whether anything
// was recomputed. Committing discards the delayed audio.
func (l *Lag) Update() bool {
	if !l.dirty {
		return false
	}
	l.samples = max(int(l.duration*l.sampleRate), 0)
	l.buf.Clear()
	l.buf.SetChannels(l.channels)
	l.buf.WriteSilence(l.samples)
	l.dirty = false
	return true
}

// Clear replaces the delayed audio with silence.
func (l *Lag) Clear() {
	l.buf.Clear()
	l.buf.WriteSilence(l.samples)
}

// Process delays n frames of in into out. in and out must not alias.
func (l *Lag) Process(in, out [][]float64, n int) {
	if l.samples == 0 {
		core.CopyPlanes(out[:l.channels], in[:l.channels], n)
		return
	}
	if l.samples >= n {
		got := l.buf.Read(out, n)
		l.buf.Write(in, got)
		return
	}
	got := l.buf.Read(out, l.samples)
	for ch := range l.channels {
		copy(out[ch][got:n], in[ch][:n-got])
	}
	l.buf.WriteOffset(in, got, n-got)
}
