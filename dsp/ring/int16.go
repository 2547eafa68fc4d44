package ring

import "fmt"

// Int16 is an interleaved 16-bit PCM ring buffer. Sizes and counts are in
// frames; one frame holds one sample per channel.
type Int16 struct {
	cursor
	data []int16
	chs  int
}

// NewInt16 returns an empty ring with the given channel count.
func NewInt16(channels int) *Int16 {
	return &Int16{chs: max(channels, 0)}
}

// Channels returns the channel count.
func (r *Int16) Channels() int { return r.chs }

// Cap returns the capacity in frames.
func (r *Int16) Cap() int { return r.size }

// Remain returns the number of resident frames.
func (r *Int16) Remain() int { return r.remain }

// SetChannels changes the channel count. A change drops all resident
// frames; the capacity is kept.
func (r *Int16) SetChannels(channels int) error {
	if channels <= 0 {
		return fmt.Errorf("ring: channels must be > 0: %d", channels)
	}
	if channels == r.chs {
		return nil
	}
	r.chs = channels
	if r.size > 0 {
		r.data = make([]int16, r.size*channels)
	}
	r.reset()
	return nil
}

// SetCapacity resizes the ring to size frames, keeping resident frames in
// order. Shrinking below Remain fails with ErrInsufficientCapacity.
func (r *Int16) SetCapacity(size int) error {
	if err := checkCapacity(size, r.remain); err != nil {
		return err
	}
	if r.chs == 0 {
		r.size = size
		return nil
	}
	next := make([]int16, size*r.chs)
	if r.remain > 0 {
		r.copyOut(next, r.remain)
	}
	r.data = next
	r.size = size
	r.writeCur = r.remain
	if r.writeCur == size {
		r.writeCur = 0
	}
	return nil
}

// Clear drops all resident frames without touching storage.
func (r *Int16) Clear() {
	r.reset()
}

func (r *Int16) ensure(samples int) error {
	if need := r.remain + samples; need > r.size || r.data == nil {
		return r.SetCapacity(max(need, r.size))
	}
	return nil
}

// Write appends samples frames from the interleaved src, growing the ring
// when needed.
func (r *Int16) Write(src []int16, samples int) error {
	return r.WriteOffset(src, samples, 0)
}

// WriteOffset appends samples frames from src starting at frame offset.
func (r *Int16) WriteOffset(src []int16, samples, offset int) error {
	if r.chs == 0 {
		return ErrNoChannels
	}
	if samples <= 0 {
		return nil
	}
	if err := r.ensure(samples); err != nil {
		return err
	}
	c := r.chs
	first, second := r.spans(r.writeCur, samples)
	s := src[offset*c : (offset+samples)*c]
	copy(r.data[r.writeCur*c:(r.writeCur+first)*c], s[:first*c])
	copy(r.data[:second*c], s[first*c:])
	r.advance(samples)
	return nil
}

// WriteSilence appends samples frames of zeros.
func (r *Int16) WriteSilence(samples int) error {
	if r.chs == 0 {
		return ErrNoChannels
	}
	if samples <= 0 {
		return nil
	}
	if err := r.ensure(samples); err != nil {
		return err
	}
	c := r.chs
	first, second := r.spans(r.writeCur, samples)
	clear(r.data[r.writeCur*c : (r.writeCur+first)*c])
	clear(r.data[:second*c])
	r.advance(samples)
	return nil
}

// WriteNoGrow appends samples frames without growing. When the ring is
// too small the oldest frames are overwritten; when samples exceeds the
// capacity only the newest Cap frames of src are kept.
func (r *Int16) WriteNoGrow(src []int16, samples int) error {
	if r.chs == 0 {
		return ErrNoChannels
	}
	if r.size == 0 {
		return fmt.Errorf("%w: 0", ErrInvalidCapacity)
	}
	if samples <= 0 {
		return nil
	}
	n := samples
	switch {
	case samples >= r.size:
		r.reset()
		n = r.size
	case r.remain+samples > r.size:
		r.remain = r.size - samples
	}
	return r.WriteOffset(src, n, samples-n)
}

// Read moves up to samples frames into the interleaved dst and returns how
// many frames were read.
func (r *Int16) Read(dst []int16, samples int) int {
	if r.chs == 0 || samples <= 0 || r.remain == 0 {
		return 0
	}
	n := min(samples, r.remain)
	r.copyOut(dst, n)
	r.remain -= n
	return n
}

// ReadAsFloat moves up to samples frames into the planar dst, multiplying
// every sample by mul, and returns how many frames were read.
func (r *Int16) ReadAsFloat(dst [][]float64, samples int, mul float64) int {
	if r.chs == 0 || samples <= 0 || r.remain == 0 {
		return 0
	}
	n := min(samples, r.remain)
	c := r.chs
	rc := r.readCur()
	first, second := r.spans(rc, n)
	for ch := range c {
		d := dst[ch]
		for i := range first {
			d[i] = float64(r.data[(rc+i)*c+ch]) * mul
		}
		for i := range second {
			d[first+i] = float64(r.data[i*c+ch]) * mul
		}
	}
	r.remain -= n
	return n
}

// Discard drops up to samples frames and returns how many were dropped.
func (r *Int16) Discard(samples int) int {
	return r.consume(samples)
}

func (r *Int16) copyOut(dst []int16, n int) {
	c := r.chs
	rc := r.readCur()
	first, second := r.spans(rc, n)
	copy(dst[:first*c], r.data[rc*c:(rc+first)*c])
	copy(dst[first*c:(first+second)*c], r.data[:second*c])
}
