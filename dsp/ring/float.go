package ring

import "github.com/cwbudde/algo-mixer/dsp/buffer"

// Float is a planar float64 ring buffer.
type Float struct {
	cursor
	data *buffer.Array2D
	chs  int
}

// NewFloat returns an empty ring with the given channel count.
func NewFloat(channels int) *Float {
	r := &Float{data: &buffer.Array2D{}}
	r.SetChannels(channels)
	return r
}

// Channels returns the channel count.
func (r *Float) Channels() int { return r.chs }

// Cap returns the capacity in frames.
func (r *Float) Cap() int { return r.size }

// Remain returns the number of resident frames.
func (r *Float) Remain() int { return r.remain }

// SetChannels changes the channel count. A change drops all resident
// frames; the capacity is kept.
func (r *Float) SetChannels(channels int) {
	channels = max(channels, 0)
	if channels == r.chs {
		return
	}
	r.chs = channels
	r.data.Release()
	if r.size > 0 && channels > 0 {
		r.data = buffer.New(channels, r.size)
	}
	r.reset()
}

// SetCapacity resizes the ring to size frames, keeping resident frames in
// order. Shrinking below Remain fails with ErrInsufficientCapacity.
func (r *Float) SetCapacity(size int) error {
	if err := checkCapacity(size, r.remain); err != nil {
		return err
	}
	r.resize(size)
	return nil
}

// resize reallocates to size frames; size must hold Remain.
func (r *Float) resize(size int) {
	if r.chs == 0 {
		r.size = size
		return
	}
	next := buffer.New(r.chs, size)
	if r.remain > 0 {
		r.copyOut(next.Planes(), r.remain)
	}
	r.data = next
	r.size = size
	r.writeCur = r.remain
	if r.writeCur == size {
		r.writeCur = 0
	}
}

// Clear drops all resident frames without touching storage.
func (r *Float) Clear() {
	r.reset()
}

func (r *Float) ensure(samples int) {
	if need := r.remain + samples; need > r.size || !r.data.Allocated() {
		r.resize(max(need, r.size))
	}
}

// Write appends samples frames from src, growing the ring when needed.
func (r *Float) Write(src [][]float64, samples int) {
	r.WriteOffset(src, samples, 0)
}

// WriteOffset appends samples frames from src starting at frame offset.
func (r *Float) WriteOffset(src [][]float64, samples, offset int) {
	if r.chs == 0 || samples <= 0 {
		return
	}
	r.ensure(samples)
	first, second := r.spans(r.writeCur, samples)
	for ch, dst := range r.data.Planes() {
		s := src[ch][offset : offset+samples]
		copy(dst[r.writeCur:r.writeCur+first], s[:first])
		copy(dst[:second], s[first:])
	}
	r.advance(samples)
}

// WriteSilence appends samples frames of zeros.
func (r *Float) WriteSilence(samples int) {
	if r.chs == 0 || samples <= 0 {
		return
	}
	r.ensure(samples)
	first, second := r.spans(r.writeCur, samples)
	for _, dst := range r.data.Planes() {
		clear(dst[r.writeCur : r.writeCur+first])
		clear(dst[:second])
	}
	r.advance(samples)
}

// Read moves up to samples frames into dst and returns how many were read.
func (r *Float) Read(dst [][]float64, samples int) int {
	if r.chs == 0 || samples <= 0 || r.remain == 0 {
		return 0
	}
	n := min(samples, r.remain)
	r.copyOut(dst, n)
	r.remain -= n
	return n
}

// Discard drops up to samples frames and returns how many were dropped.
func (r *Float) Discard(samples int) int {
	return r.consume(samples)
}

func (r *Float) copyOut(dst [][]float64, n int) {
	rc := r.readCur()
	first, second := r.spans(rc, n)
	for ch, src := range r.data.Planes() {
		d := dst[ch]
		copy(d[:first], src[rc:rc+first])
		copy(d[first:first+second], src[:second])
	}
}
