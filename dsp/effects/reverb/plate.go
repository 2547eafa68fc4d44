package reverb

import (
	"math"

	"github.com/cwbudde/algo-mixer/dsp/core"
	"github.com/cwbudde/algo-mixer/dsp/delay"
)

const (
	numLines = 12
	numTaps  = 14
)

// Line lengths in seconds: four input diffusers, then the left tank
// (modulated allpass, long delay, allpass, long delay) and the right tank
// in the same order.
var lineSeconds = [numLines]float64{
	0.004771345,
	0.003595309,
	0.012734787,
	0.009307483,
	0.022579886,
	0.149625349,
	0.060481839,
	0.1249958,
	0.030509727,
	0.141695508,
	0.089244313,
	0.106280031,
}

// Output tap offsets in seconds. The first seven form the left output,
// the rest the right output.
var tapSeconds = [numTaps]float64{
	0.008937872,
	0.099929438,
	0.064278754,
	0.067067639,
	0.066866033,
	0.006283391,
	0.035818689,
	0.011861161,
	0.121870905,
	0.041262054,
	0.08981553,
	0.070931756,
	0.011256342,
	0.004065724,
}

// MaxExcursion is the upper bound of the modulation depth in samples.
const MaxExcursion = 32

// Params are the plate controls. All values except Excursion are
// normalized to [0,1]; Excursion is a depth in samples in [0,32].
// PreDelay spans 0 to 250 ms.
type Params struct {
	PreDelay  float64
	BandWidth float64
	Diffuse   float64
	Decay     float64
	Damping   float64
	Excursion float64
	Wet       float64
	Dry       float64
}

// DefaultParams returns the controls of a fresh Plate.
func DefaultParams() Params {
	return Params{
		PreDelay:  0,
		BandWidth: 0.9999,
		Diffuse:   1,
		Decay:     0.5,
		Damping:   0.005,
		Excursion: 16,
		Wet:       0.3,
		Dry:       0.6,
	}
}

// Plate is a stereo plate reverb. It is not safe for concurrent use.
//
// Update must be called at least once before Process.
type Plate struct {
	p Params

	sampleRate  float64
	channels    int
	rateChanged bool
	dirty       bool

	lines [numLines]*delay.Line
	taps  [numTaps]int

	pre      []float64
	preWrite int

	lp1, lp2, lp3 float64
	curTime       float64
}

// New returns a plate with default controls for 48 kHz stereo.
func New() *Plate {
	return &Plate{
		p:           DefaultParams(),
		sampleRate:  48000,
		channels:    2,
		rateChanged: true,
		dirty:       true,
	}
}

// SetFormat changes the stream format. A sample rate change rebuilds and
// clears the tank on the next Update.
func (r *Plate) SetFormat(sampleRate float64, channels int) {
	same := !core.Differs(r.sampleRate, sampleRate, core.ParamEpsilon)
	if same && r.channels == channels {
		return
	}
	r.sampleRate = sampleRate
	r.channels = channels
	r.rateChanged = r.rateChanged || !same
	r.dirty = true
}

func (r *Plate) set(dst *float64, v float64) {
	if !core.Differs(*dst, v, core.ParamEpsilon) {
		return
	}
	*dst = v
	r.dirty = true
}

// SetPreDelay sets the pre-delay control (0..1 of the quarter-second ring).
func (r *Plate) SetPreDelay(v float64) { r.set(&r.p.PreDelay, v) }

// SetBandWidth sets the input band-width control (0..1).
func (r *Plate) SetBandWidth(v float64) { r.set(&r.p.BandWidth, v) }

// SetDiffuse sets the diffusion control (0..1).
func (r *Plate) SetDiffuse(v float64) { r.set(&r.p.Diffuse, v) }

// SetDecay sets the tank decay control (0..1).
func (r *Plate) SetDecay(v float64) { r.set(&r.p.Decay, v) }

// SetDamping sets the tank damping control (0..1).
func (r *Plate) SetDamping(v float64) { r.set(&r.p.Damping, v) }

// SetExcursion sets the tank modulation depth in samples (0..32).
func (r *Plate) SetExcursion(v float64) { r.set(&r.p.Excursion, v) }

// SetWet sets the wet output scale (0..1).
func (r *Plate) SetWet(v float64) { r.set(&r.p.Wet, v) }

// SetDry sets the dry output scale (0..1).
func (r *Plate) SetDry(v float64) { r.set(&r.p.Dry, v) }

// SetParams applies every control at once.
func (r *Plate) SetParams(p Params) {
	r.SetPreDelay(p.PreDelay)
	r.SetBandWidth(p.BandWidth)
	r.SetDiffuse(p.Diffuse)
	r.SetDecay(p.Decay)
	r.SetDamping(p.Damping)
	r.SetExcursion(p.Excursion)
	r.SetWet(p.Wet)
	r.SetDry(p.Dry)
}

// Params returns the controls. After Update they are clamped to range.
func (r *Plate) Params() Params { return r.p }

// Update commits pending changes and reports whether anything changed.
func (r *Plate) Update() bool {
	if !r.dirty {
		return false
	}
	if r.rateChanged {
		r.rebuild()
		r.Clear()
	}
	p := &r.p
	p.PreDelay = core.Clamp(p.PreDelay, 0, 1)
	p.BandWidth = core.Clamp(p.BandWidth, 0, 1)
	p.Diffuse = core.Clamp(p.Diffuse, 0, 1)
	p.Decay = core.Clamp(p.Decay, 0, 1)
	p.Damping = core.Clamp(p.Damping, 0, 1)
	p.Excursion = core.Clamp(p.Excursion, 0, MaxExcursion)
	p.Wet = core.Clamp(p.Wet, 0, 1)
	p.Dry = core.Clamp(p.Dry, 0, 1)
	r.rateChanged = false
	r.dirty = false
	return true
}

// preDelayMax is the longest pre-delay in samples and also the largest
// sub-block Process handles at once.
func (r *Plate) preDelayMax() int {
	return max(int(r.sampleRate)/4, 1)
}

func (r *Plate) rebuild() {
	for i, sec := range lineSeconds {
		// lengths are always > 0 so New cannot fail
		r.lines[i], _ = delay.New(max(int(math.Round(sec*r.sampleRate)), 1))
	}
	for i, sec := range tapSeconds {
		r.taps[i] = int(math.Round(sec * r.sampleRate))
	}
	r.pre = make([]float64, 2*r.preDelayMax())
	r.preWrite = 0
}

// Clear silences the tank and resets the modulator phase.
func (r *Plate) Clear() {
	r.lp1, r.lp2, r.lp3 = 0, 0, 0
	r.curTime = 0
	for _, l := range r.lines {
		if l != nil {
			l.Reset()
		}
	}
	clear(r.pre)
	r.preWrite = 0
}

// writePre folds n frames of the input pair to mono into the pre-delay
// ring at the write cursor.
func (r *Plate) writePre(i0, i1 []float64, n int) {
	size := len(r.pre)
	pos := r.preWrite
	for i := range n {
		r.pre[pos] = (i0[i] + i1[i]) * 0.5
		pos++
		if pos == size {
			pos = 0
		}
	}
}

// Process renders n frames. With one channel the input feeds both tank
// inputs and the output is the mean of both wet sides. Channels beyond
// the second pass through scaled by the dry level. in and out may alias.
func (r *Plate) Process(in, out [][]float64, n int) {
	if r.channels <= 0 || n <= 0 {
		return
	}
	i0 := in[0]
	i1 := i0
	if r.channels >= 2 {
		i1 = in[1]
	}

	p := r.p
	pd := int(p.PreDelay * r.sampleRate * 0.25)
	bw := p.BandWidth
	fi := p.Diffuse * 0.75
	si := p.Diffuse * 0.625
	dc := p.Decay
	ft := p.Diffuse * 0.76
	st := core.Clamp(dc+0.15, 0.25, 0.5)
	dp := p.Damping
	ex := p.Excursion
	we := p.Wet * 0.6
	dr := p.Dry
	step := 1 / r.sampleRate

	d := &r.lines
	taps := &r.taps
	preLen := len(r.pre)
	blockSize := r.preDelayMax()

	lp1, lp2, lp3 := r.lp1, r.lp2, r.lp3
	curTime := r.curTime
	preRead := (r.preWrite + preLen - pd%preLen) % preLen

	for off := 0; off < n; {
		block := min(n-off, blockSize)
		r.writePre(i0[off:], i1[off:], block)
		for i := range block {
			lp1 = r.pre[preRead]*bw + (1-bw)*lp1

			// input diffusers
			d[0].Write(lp1 - fi*d[0].Read())
			d[1].Write(fi*(d[0].Written()-d[1].Read()) + d[0].Read())
			d[2].Write(fi*d[1].Written() + d[1].Read() - si*d[2].Read())
			d[3].Write(si*(d[2].Written()-d[3].Read()) + d[2].Read())
			split := si*d[3].Written() + d[3].Read()

			exc := ex * (1 + math.Cos((curTime+step*float64(i))*math.Pi*2))

			// left tank
			d[4].Write(split + dc*d[11].Read() + ft*d[4].ReadFractional(exc))
			d[5].Write(d[4].ReadFractional(exc) - ft*d[4].Written())
			lp2 = (1-dp)*d[5].Read() + dp*lp2
			d[6].Write(dc*lp2 - st*d[6].Read())
			d[7].Write(d[6].Read() + st*d[6].Written())

			// right tank
			d[8].Write(split + dc*d[7].Read() + ft*d[8].ReadFractional(exc))
			d[9].Write(d[8].ReadFractional(exc) - ft*d[8].Written())
			lp3 = (1-dp)*d[9].Read() + dp*lp3
			d[10].Write(dc*lp3 - st*d[10].Read())
			d[11].Write(d[10].Read() + st*d[10].Written())

			lo := d[9].ReadAt(taps[0]) + d[9].ReadAt(taps[1]) -
				d[10].ReadAt(taps[2]) + d[11].ReadAt(taps[3]) -
				d[5].ReadAt(taps[4]) - d[6].ReadAt(taps[5]) - d[7].ReadAt(taps[6])
			ro := d[5].ReadAt(taps[7]) + d[5].ReadAt(taps[8]) -
				d[6].ReadAt(taps[9]) + d[7].ReadAt(taps[10]) -
				d[9].ReadAt(taps[11]) - d[10].ReadAt(taps[12]) - d[11].ReadAt(taps[13])

			j := off + i
			if r.channels == 1 {
				out[0][j] = i0[j]*dr + 0.5*(lo+ro)*we
			} else {
				a, b := i0[j], i1[j]
				out[0][j] = a*dr + lo*we
				out[1][j] = b*dr + ro*we
			}

			for _, l := range d {
				l.Advance()
			}
			preRead++
			if preRead == preLen {
				preRead = 0
			}
		}
		// the modulator has a period of one second
		curTime += float64(block) * step
		curTime -= math.Floor(curTime)
		r.preWrite = (r.preWrite + block) % preLen
		off += block
	}

	for ch := 2; ch < r.channels; ch++ {
		for i := range n {
			out[ch][i] = in[ch][i] * dr
		}
	}

	r.lp1, r.lp2, r.lp3 = lp1, lp2, lp3
	r.curTime = curTime
}
