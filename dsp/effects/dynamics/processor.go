package dynamics

import (
	"math"

	"github.com/cwbudde/algo-mixer/dsp/core"
)

// Control defaults.
const (
	DefaultThreshold  = 0.60
	DefaultRatio      = 0.40
	DefaultOutput     = 0.10
	DefaultAttack     = 0.18
	DefaultRelease    = 0.55
	DefaultLimiter    = 1.00
	DefaultGateThresh = 0.00
	DefaultGateAttack = 0.10
	DefaultGateDecay  = 0.50
	DefaultMix        = 1.00

	// RatioDisabled maps to an internal ratio of exactly 1:1 with no
	// limiting, so callers can skip processing entirely.
	RatioDisabled = 0.2
)

const (
	limiterOffAbove = 0.98
	gateOffBelow    = 0.02
	envelopeFloor   = 1e-10
	limiterOffLevel = 1000.0
)

// Params holds the normalized controls.
type Params struct {
	Threshold  float64
	Ratio      float64
	Output     float64
	Attack     float64
	Release    float64
	Limiter    float64
	GateThresh float64
	GateAttack float64
	GateDecay  float64
	Mix        float64
}

// DefaultParams returns the control defaults.
func DefaultParams() Params {
	return Params{
		Threshold:  DefaultThreshold,
		Ratio:      DefaultRatio,
		Output:     DefaultOutput,
		Attack:     DefaultAttack,
		Release:    DefaultRelease,
		Limiter:    DefaultLimiter,
		GateThresh: DefaultGateThresh,
		GateAttack: DefaultGateAttack,
		GateDecay:  DefaultGateDecay,
		Mix:        DefaultMix,
	}
}

// Processor is a multichannel compressor/limiter/gate with a shared
// detector. It is not safe for concurrent use.
type Processor struct {
	p Params

	sampleRate float64
	channels   int
	dirty      bool

	// derived
	thr, rat, att, rel, trim float64
	lthr, xthr, xrat, dry    float64
	gatt, irel               float64
	full                     bool

	// envelopes
	env, env2, genv float64
}

// New returns a processor with default controls for 48 kHz stereo.
func New() *Processor {
	return &Processor{
		p:          DefaultParams(),
		sampleRate: 48000,
		channels:   2,
		dirty:      true,
	}
}

// SetFormat changes the stream format.
func (d *Processor) SetFormat(sampleRate float64, channels int) {
	if !core.Differs(d.sampleRate, sampleRate, core.ParamEpsilon) && d.channels == channels {
		return
	}
	d.sampleRate = sampleRate
	d.channels = channels
	d.dirty = true
}

func (d *Processor) set(dst *float64, v float64) {
	if !core.Differs(*dst, v, core.ParamEpsilon) {
		return
	}
	*dst = v
	d.dirty = true
}

// SetThreshold sets the compression threshold control (0..1, −40..0 dB).
func (d *Processor) SetThreshold(v float64) { d.set(&d.p.Threshold, v) }

// SetRatio sets the ratio control; RatioDisabled gives 1:1, 0.6 and above limit.
func (d *Processor) SetRatio(v float64) { d.set(&d.p.Ratio, v) }

// SetOutput sets the output trim control (0..1, 0..40 dB).
func (d *Processor) SetOutput(v float64) { d.set(&d.p.Output, v) }

// SetAttack sets the attack control (0..1).
func (d *Processor) SetAttack(v float64) { d.set(&d.p.Attack, v) }

// SetRelease sets the release control (0..1).
func (d *Processor) SetRelease(v float64) { d.set(&d.p.Release, v) }

// SetLimiter sets the limiter ceiling control; above 0.98 the limiter is off.
func (d *Processor) SetLimiter(v float64) { d.set(&d.p.Limiter, v) }

// SetGateThresh sets the gate threshold control; below 0.02 the gate is off.
func (d *Processor) SetGateThresh(v float64) { d.set(&d.p.GateThresh, v) }

// SetGateAttack sets the gate attack control (0..1).
func (d *Processor) SetGateAttack(v float64) { d.set(&d.p.GateAttack, v) }

// SetGateDecay sets the gate decay control (0..1).
func (d *Processor) SetGateDecay(v float64) { d.set(&d.p.GateDecay, v) }

// SetMix sets the wet share of the output (0..1).
func (d *Processor) SetMix(v float64) { d.set(&d.p.Mix, v) }

// SetParams applies every control at once.
func (d *Processor) SetParams(p Params) {
	d.SetThreshold(p.Threshold)
	d.SetRatio(p.Ratio)
	d.SetOutput(p.Output)
	d.SetAttack(p.Attack)
	d.SetRelease(p.Release)
	d.SetLimiter(p.Limiter)
	d.SetGateThresh(p.GateThresh)
	d.SetGateAttack(p.GateAttack)
	d.SetGateDecay(p.GateDecay)
	d.SetMix(p.Mix)
}

// Params returns the current controls.
func (d *Processor) Params() Params { return d.p }

// Ratio returns the ratio control.
func (d *Processor) Ratio() float64 { return d.p.Ratio }

// Update recomputes the derived coefficients if any control or the format
// changed, and reports whether it did.
func (d *Processor) Update() bool {
	if !d.dirty {
		return false
	}
	d.recompute()
	d.dirty = false
	return true
}

func (d *Processor) recompute() {
	p := &d.p
	d.full = false
	d.thr = math.Pow(10, 2*p.Threshold-2)
	d.rat = 2.5*p.Ratio - 0.5
	if d.rat > 1 {
		d.rat = 1 + 16*(d.rat-1)*(d.rat-1)
		d.full = true
	}
	if d.rat < 0 {
		d.rat = 0.6 * d.rat
		d.full = true
	}
	d.trim = math.Pow(10, 2*p.Output)
	d.att = math.Pow(10, -0.002-2*p.Attack)
	d.rel = math.Pow(10, -2-3*p.Release)

	if p.Limiter > limiterOffAbove {
		d.lthr = 0
	} else {
		d.lthr = 0.99 * math.Pow(10, math.Floor(30*p.Limiter-20)/20)
		d.full = true
	}

	if p.GateThresh < gateOffBelow {
		d.xthr = 0
	} else {
		d.xthr = math.Pow(10, 3*p.GateThresh-3)
		d.full = true
	}
	d.xrat = 1 - math.Pow(10, -2-3.3*p.GateDecay)
	d.irel = math.Pow(10, -2/d.sampleRate)
	d.gatt = math.Pow(10, -0.002-3*p.GateAttack)

	if d.rat < 0 && d.thr < 0.1 {
		d.rat *= d.thr * 15
	}

	d.dry = 1 - p.Mix
	d.trim *= p.Mix
}

// Clear zeroes all envelopes.
func (d *Processor) Clear() {
	d.env, d.env2, d.genv = 0, 0, 0
}

// AttackDuration returns the attack time in seconds, truncated to whole
// microseconds.
func (d *Processor) AttackDuration() float64 {
	return math.Floor(-301030.1/(d.sampleRate*math.Log10(1-d.att))) / 1e6
}

// ReleaseDuration returns the release time in seconds, truncated to whole
// milliseconds.
func (d *Processor) ReleaseDuration() float64 {
	return math.Floor(-301.0301/(d.sampleRate*math.Log10(1-d.rel))) / 1e3
}

// Process applies the gain curve to n frames of in, writing out. in and
// out may alias. The detector takes the peak across channels.
func (d *Processor) Process(in, out [][]float64, n int) {
	switch d.channels {
	case 1:
		d.processMono(in[0][:n], out[0][:n])
	case 2:
		d.processStereo(in[0][:n], in[1][:n], out[0][:n], out[1][:n])
	default:
		d.processGeneric(in, out, n)
	}
}

// loop holds the per-block constants shared by the inner loops.
type loop struct {
	ra, xra, re, at, ga float64
	tr, th, lth, xth, y float64
}

func (d *Processor) loopConsts() loop {
	lth := d.lthr
	if d.full && d.lthr == 0 {
		lth = limiterOffLevel
	}
	return loop{
		ra: d.rat, xra: d.xrat, re: 1 - d.rel, at: d.att, ga: d.gatt,
		tr: d.trim, th: d.thr, lth: lth, xth: d.xthr, y: d.dry,
	}
}

// gain advances the envelopes for peak level i and returns the VCA gain.
func (c *loop) gain(i float64, e, e2, ge *float64) float64 {
	if i > *e {
		*e += c.at * (i - *e)
	} else {
		*e *= c.re
	}
	if i > *e {
		*e2 = i
	} else {
		*e2 *= c.re
	}

	g := c.tr
	if *e > c.th {
		g = c.tr / (1 + c.ra*((*e/c.th)-1))
	}
	if g < 0 {
		g = 0
	}
	if g**e2 > c.lth {
		g = c.lth / *e2
	}

	if *e > c.xth {
		*ge = *ge + c.ga - c.ga**ge
	} else {
		*ge *= c.xra
	}
	return g**ge + c.y
}

// compGain advances the fast envelope only and returns the VCA gain.
func (c *loop) compGain(i float64, e *float64) float64 {
	if i > *e {
		*e += c.at * (i - *e)
	} else {
		*e *= c.re
	}
	g := c.tr
	if *e > c.th {
		g = c.tr / (1 + c.ra*((*e/c.th)-1))
	}
	return g + c.y
}

func (d *Processor) store(e, e2, ge float64) {
	d.env = flush(e)
	d.env2 = flush(e2)
	d.genv = flush(ge)
}

func flush(v float64) float64 {
	if v < envelopeFloor {
		return 0
	}
	return v
}

func (d *Processor) processMono(in, out []float64) {
	c := d.loopConsts()
	e, e2, ge := d.env, d.env2, d.genv
	if d.full {
		for i, a := range in {
			out[i] = a * c.gain(math.Abs(a), &e, &e2, &ge)
		}
	} else {
		for i, a := range in {
			out[i] = a * c.compGain(math.Abs(a), &e)
		}
	}
	d.store(e, e2, ge)
}

func (d *Processor) processStereo(in1, in2, out1, out2 []float64) {
	c := d.loopConsts()
	e, e2, ge := d.env, d.env2, d.genv
	if d.full {
		for i, a := range in1 {
			b := in2[i]
			g := c.gain(math.Max(math.Abs(a), math.Abs(b)), &e, &e2, &ge)
			out1[i] = a * g
			out2[i] = b * g
		}
	} else {
		for i, a := range in1 {
			b := in2[i]
			g := c.compGain(math.Max(math.Abs(a), math.Abs(b)), &e)
			out1[i] = a * g
			out2[i] = b * g
		}
	}
	d.store(e, e2, ge)
}

func (d *Processor) processGeneric(in, out [][]float64, n int) {
	c := d.loopConsts()
	chs := d.channels
	e, e2, ge := d.env, d.env2, d.genv
	for pos := range n {
		peak := 0.0
		for ch := range chs {
			peak = math.Max(peak, math.Abs(in[ch][pos]))
		}
		var g float64
		if d.full {
			g = c.gain(peak, &e, &e2, &ge)
		} else {
			g = c.compGain(peak, &e)
		}
		for ch := range chs {
			out[ch][pos] = in[ch][pos] * g
		}
	}
	d.store(e, e2, ge)
}
