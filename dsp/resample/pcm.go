package resample

import (
	"fmt"
	"math"

	resampler "github.com/tphakala/go-audio-resampler"
	"golang.org/x/sync/errgroup"
)

// OutputLen returns how many outputs n inputs produce from a reset stream.
func (r *Resampler) OutputLen(n int) int {
	if n <= 0 {
		return 0
	}
	return (n*r.up + r.down - 1) / r.down
}

// Channel converts a complete signal into OutputLen(len(x)) samples. The
// polyphase filter delay is removed, so output sample m lines up with
// input time m·down/up. The stream state is reset first.
func (r *Resampler) Channel(x []float64) ([]float64, error) {
	r.Reset()
	n := r.OutputLen(len(x))
	if n == 0 {
		return nil, nil
	}
	if r.quality == QualityVeryHigh {
		return r.engine(x, n)
	}
	y := r.Process(x)
	y = append(y, r.Process(make([]float64, r.span))...)
	r.Reset()

	skip := min(int(math.Round(r.delay)), len(y))
	return fit(y[skip:], n), nil
}

// engine runs x through go-audio-resampler at its very-high preset.
func (r *Resampler) engine(x []float64, n int) ([]float64, error) {
	y, err := resampler.ResampleMono(x, r.inRate, r.outRate, resampler.QualityVeryHigh)
	if err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}
	return fit(y, n), nil
}

// fit truncates or zero-pads y to n samples.
func fit(y []float64, n int) []float64 {
	if len(y) >= n {
		return y[:n]
	}
	return append(y, make([]float64, n-len(y))...)
}

// PCM converts interleaved 16-bit audio from inRate to outRate. Each
// channel runs on its own goroutine with its own resampler.
func PCM(pcm []int16, channels int, inRate, outRate float64, q Quality) ([]int16, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("resample: invalid channel count %d", channels)
	}
	proto, err := NewForRates(inRate, outRate, q)
	if err != nil {
		return nil, err
	}
	up, down := proto.Ratio()
	if up == down {
		return append([]int16(nil), pcm...), nil
	}

	frames := len(pcm) / channels
	n := proto.OutputLen(frames)
	out := make([]int16, n*channels)

	var g errgroup.Group
	for ch := range channels {
		g.Go(func() error {
			r := proto
			if ch > 0 {
				var err error
				if r, err = NewForRates(inRate, outRate, q); err != nil {
					return err
				}
			}
			x := make([]float64, frames)
			for i := range x {
				x[i] = float64(pcm[i*channels+ch]) / 32768
			}
			y, err := r.Channel(x)
			if err != nil {
				return err
			}
			for i, v := range y {
				out[i*channels+ch] = toInt16(v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func toInt16(v float64) int16 {
	s := math.Round(v * 32768)
	switch {
	case s > math.MaxInt16:
		return math.MaxInt16
	case s < math.MinInt16:
		return math.MinInt16
	}
	return int16(s)
}
