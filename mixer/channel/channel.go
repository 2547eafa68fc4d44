package channel

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cwbudde/algo-mixer/dsp/buffer"
	"github.com/cwbudde/algo-mixer/dsp/core"
	"github.com/cwbudde/algo-mixer/dsp/delay"
	"github.com/cwbudde/algo-mixer/dsp/effects/dynamics"
	"github.com/cwbudde/algo-mixer/dsp/effects/eq"
	"github.com/cwbudde/algo-mixer/dsp/filter/design"
	"github.com/cwbudde/algo-mixer/dsp/ring"
)

const pcmToFloat = 1.0 / 32768

// shelfQ is the slope of both shelving filters.
var shelfQ = 1 / math.Sqrt2

// strip is the effect chain of one identity.
type strip struct {
	id     int
	usedAt uint64

	input     *ring.Int16
	lag       *delay.Lag
	lowShelf  *eq.Equalizer
	highShelf *eq.Equalizer
	dyn       *dynamics.Processor

	preGain   float64
	auxSendID int
	auxSend   float64
	postGain  float64
	pan       float64
	changed   bool
}

func newStrip(id int, sampleRate float64, channels int) (*strip, error) {
	s := &strip{
		id:        id,
		input:     ring.NewInt16(channels),
		lag:       delay.NewLag(),
		lowShelf:  eq.New(),
		highShelf: eq.New(),
		dyn:       dynamics.New(),
	}
	s.lowShelf.SetType(design.LowShelf)
	s.lowShelf.SetQ(shelfQ)
	s.highShelf.SetType(design.HighShelf)
	s.highShelf.SetQ(shelfQ)
	s.dyn.SetOutput(0)

	d := DefaultParams()
	s.preGain = d.PreGain
	s.auxSendID = d.AuxSendID
	s.auxSend = d.AuxSend
	s.postGain = d.PostGain
	s.pan = d.Pan

	if err := s.setFormat(sampleRate, channels); err != nil {
		return nil, err
	}
	s.apply(d)
	if _, err := s.commit(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *strip) setFormat(sampleRate float64, channels int) error {
	if err := s.input.SetChannels(channels); err != nil {
		return fmt.Errorf("channel %d: %w", s.id, err)
	}
	s.lag.SetFormat(sampleRate, channels)
	s.lowShelf.SetFormat(sampleRate, channels)
	s.highShelf.SetFormat(sampleRate, channels)
	s.dyn.SetFormat(sampleRate, channels)
	return nil
}

func (s *strip) setScalar(dst *float64, v float64) {
	if core.Differs(*dst, v, core.ParamEpsilon) {
		*dst = v
		s.changed = true
	}
}

// apply stages p. Nothing takes effect before commit.
func (s *strip) apply(p Params) {
	s.setScalar(&s.preGain, p.PreGain)
	s.lag.SetDuration(p.Lag)
	s.lowShelf.SetFrequency(p.LowShelfFrequency)
	s.lowShelf.SetGain(p.LowShelfGain)
	s.highShelf.SetFrequency(p.HighShelfFrequency)
	s.highShelf.SetGain(p.HighShelfGain)
	s.dyn.SetThreshold(p.DynamicsThreshold)
	s.dyn.SetRatio(p.DynamicsRatio)
	s.dyn.SetAttack(p.DynamicsAttack)
	s.dyn.SetRelease(p.DynamicsRelease)
	if s.auxSendID != p.AuxSendID {
		s.auxSendID = p.AuxSendID
		s.changed = true
	}
	s.setScalar(&s.auxSend, p.AuxSend)
	s.setScalar(&s.postGain, p.PostGain)
	s.setScalar(&s.pan, p.Pan)
}

// commit recomputes every lazy unit and reports whether anything audible
// changed since the last commit.
func (s *strip) commit() (bool, error) {
	lagUpdated := s.lag.Update()
	lowUpdated, err := s.lowShelf.Update()
	if err != nil {
		return false, fmt.Errorf("channel %d: low shelf: %w", s.id, err)
	}
	highUpdated, err := s.highShelf.Update()
	if err != nil {
		return false, fmt.Errorf("channel %d: high shelf: %w", s.id, err)
	}
	dynUpdated := s.dyn.Update()

	updated := s.changed || lagUpdated || lowUpdated || highUpdated || dynUpdated
	s.changed = false
	return updated, nil
}

// reset clears every buffer and envelope.
func (s *strip) reset() {
	s.usedAt = 0
	s.input.Clear()
	s.lag.Clear()
	s.lowShelf.Clear()
	s.highShelf.Clear()
	s.dyn.Clear()
}

// lookahead sums the latency of every stage: lag, both shelves and the
// dynamics attack+release.
func (s *strip) lookahead() float64 {
	r := max(0, s.lag.Duration())
	r += s.lowShelf.Lookahead() + s.highShelf.Lookahead()
	return r + s.dyn.AttackDuration() + s.dyn.ReleaseDuration()
}

// eqResponse sums the active shelves at each frequency in dB. Bypassed
// shelves contribute 0 dB.
func (s *strip) eqResponse(freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	for _, shelf := range []*eq.Equalizer{s.lowShelf, s.highShelf} {
		if !core.Differs(shelf.Gain(), 0, core.ParamEpsilon) {
			continue
		}
		for i, hz := range freqs {
			out[i] += shelf.ResponseDB(hz)
		}
	}
	return out
}

// process renders n frames through the chain. pp.Cur holds the result.
func (s *strip) process(pp *buffer.PingPong, n int, send func(src [][]float64)) {
	channels := s.input.Channels()

	cur := pp.Cur()
	read := s.input.ReadAsFloat(cur, n, pcmToFloat*core.DBToAmp(s.preGain))
	if read < n {
		for ch := range channels {
			clear(cur[ch][read:n])
		}
	}

	if s.lag.Duration() > 0 {
		s.lag.Process(pp.Cur(), pp.Other(), n)
		pp.Swap()
	}
	if core.Differs(s.lowShelf.Gain(), 0, core.ParamEpsilon) {
		s.lowShelf.Process(pp.Cur(), pp.Other(), n)
		pp.Swap()
	}
	if core.Differs(s.highShelf.Gain(), 0, core.ParamEpsilon) {
		s.highShelf.Process(pp.Cur(), pp.Other(), n)
		pp.Swap()
	}
	if core.Differs(s.dyn.Ratio(), dynamics.RatioDisabled, core.ParamEpsilon) {
		s.dyn.Process(pp.Cur(), pp.Other(), n)
		pp.Swap()
	}

	if s.auxSendID > NoSend && s.auxSend > core.SilenceDB+core.ParamEpsilon {
		send(pp.Cur())
	}

	in, out := pp.Cur(), pp.Other()
	if channels == 2 {
		ll, rl, lr, rr, l, r := panGains(s.pan, core.DBToAmp(s.postGain))
		i0, i1 := in[0][:n], in[1][:n]
		o0, o1 := out[0][:n], out[1][:n]
		for i := range n {
			a, b := i0[i], i1[i]
			o0[i] = (a*ll + b*rl) * l
			o1[i] = (a*lr + b*rr) * r
		}
	} else {
		g := core.DBToAmp(s.postGain)
		for ch := range channels {
			o := out[ch][:n]
			for i, v := range in[ch][:n] {
				o[i] = v * g
			}
		}
	}
	pp.Swap()
}

func formatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (s *strip) strings() ParamStrings {
	return ParamStrings{
		PreGain:            formatFixed(s.preGain),
		Lag:                s.lag.DurationString(),
		LowShelfFrequency:  s.lowShelf.FrequencyString(),
		LowShelfGain:       s.lowShelf.GainString(),
		HighShelfFrequency: s.highShelf.FrequencyString(),
		HighShelfGain:      s.highShelf.GainString(),
		DynamicsThreshold:  s.dyn.ThresholdString(),
		DynamicsRatio:      s.dyn.RatioString(),
		DynamicsAttack:     s.dyn.AttackString(),
		DynamicsRelease:    s.dyn.ReleaseString(),
		AuxSend:            formatFixed(s.auxSend),
		PostGain:           formatFixed(s.postGain),
		Pan:                formatFixed(s.pan),
	}
}
