package delay

import (
	"fmt"

	"github.com/cwbudde/algo-mixer/dsp/interp"
)

// Line is a circular delay line with separate read and write cursors.
// After Clear the write cursor trails the read cursor by one slot, so a
// sample written now is read back Len()-1 advances later.
type Line struct {
	buffer   []float64
	readPos  int
	writePos int
}

// New returns a delay line of fixed size.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}
	d := &Line{buffer: make([]float64, size)}
	d.Reset()
	return d, nil
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write stores sample at the write cursor.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
}

// Read returns the sample at the read cursor.
func (d *Line) Read() float64 {
	return d.buffer[d.readPos]
}

// Written returns the sample at the write cursor, which is the value most
// recently passed to Write since the last Advance.
func (d *Line) Written() float64 {
	return d.buffer[d.writePos]
}

// ReadAt returns the sample offset slots ahead of the read cursor.
func (d *Line) ReadAt(offset int) float64 {
	return d.buffer[(d.readPos+offset)%len(d.buffer)]
}

// ReadFractional reads offset slots ahead of the read cursor with linear
// interpolation. Negative offsets are clamped to 0.
func (d *Line) ReadFractional(offset float64) float64 {
	if offset < 0 {
		offset = 0
	}
	p := int(offset)
	size := len(d.buffer)
	i0 := (d.readPos + p) % size
	i1 := i0 + 1
	if i1 == size {
		i1 = 0
	}
	return interp.Linear2(offset-float64(p), d.buffer[i0], d.buffer[i1])
}

// Advance moves both cursors one slot forward.
func (d *Line) Advance() {
	d.readPos++
	if d.readPos == len(d.buffer) {
		d.readPos = 0
	}
	d.writePos++
	if d.writePos == len(d.buffer) {
		d.writePos = 0
	}
}

// Reset clears line state.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = len(d.buffer) - 1
	d.readPos = 0
}
