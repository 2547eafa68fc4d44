package dither

import (
	"fmt"
	"math"
)

// SilenceThreshold is -144 dBFS as a linear amplitude.
const SilenceThreshold = 6.3095734e-8

// PCM16Scale maps [-1, 1) onto the signed 16-bit range.
const PCM16Scale = 32768

// Dither holds one noise history per channel and a shared seed.
type Dither struct {
	prev []float64
	seed uint32
	init uint32
}

// Option configures a [Dither].
type Option func(*Dither) error

// WithSeed sets the initial generator state (default 0).
func WithSeed(seed uint32) Option {
	return func(d *Dither) error {
		d.seed = seed
		d.init = seed
		return nil
	}
}

// New returns dither state for channels channels.
func New(channels int, opts ...Option) (*Dither, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("dither: channels must be > 0: %d", channels)
	}
	d := &Dither{prev: make([]float64, channels)}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Channels returns the number of channel histories.
func (d *Dither) Channels() int { return len(d.prev) }

// Reset clears every channel history and rewinds the generator to its
// initial seed.
func (d *Dither) Reset() {
	clear(d.prev)
	d.seed = d.init
}

// Process scales x and adds high-passed triangular noise of one LSB peak
// when x is above the silence threshold. The generator advances on every
// call.
func (d *Dither) Process(x float64, ch int, scale float64) float64 {
	seed := d.seed
	d.seed = SplitMix32Next(seed)
	if math.Abs(x) <= SilenceThreshold {
		return x * scale
	}
	v := float64(SplitMix32(seed))/math.MaxUint32 - 0.5
	x = x*scale + (v - d.prev[ch])
	d.prev[ch] = v
	return x
}

// PCM16 converts x to a dithered, rounded and hard-clipped 16-bit sample.
func (d *Dither) PCM16(x float64, ch int) int16 {
	v := math.Round(d.Process(x, ch, PCM16Scale))
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}

// Interleave converts n frames of planar float samples into interleaved
// 16-bit PCM in dst.
func (d *Dither) Interleave(dst []int16, src [][]float64, n int) {
	chs := len(d.prev)
	for i := range n {
		for ch := range chs {
			dst[i*chs+ch] = d.PCM16(src[ch][i], ch)
		}
	}
}
