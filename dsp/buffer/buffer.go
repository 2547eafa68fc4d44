package buffer

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocated is returned when Allocate is called on an Array2D that
	// already owns storage.
	ErrAllocated = errors.New("buffer: already allocated")
	// ErrShape is returned for negative channel counts or lengths.
	ErrShape = errors.New("buffer: invalid shape")
)

// planeAlign rounds every plane stride up to a multiple of this many samples.
const planeAlign = 4

// Array2D is a planar multi-channel float64 buffer with a fixed shape.
// All planes share one zero-initialized backing slice.
type Array2D struct {
	backing []float64
	planes  [][]float64
	length  int
}

// New returns a zero-filled Array2D with the given shape.
// Negative values are treated as 0.
func New(channels, length int) *Array2D {
	a := &Array2D{}
	// a fresh Array2D with a non-negative shape cannot fail
	_ = a.Allocate(max(channels, 0), max(length, 0))
	return a
}

// Allocate gives an empty Array2D its storage. Calling it on an Array2D
// that is already allocated returns ErrAllocated; call Release first.
func (a *Array2D) Allocate(channels, length int) error {
	if a.planes != nil {
		return ErrAllocated
	}
	if channels < 0 || length < 0 {
		return fmt.Errorf("%w: %d channels x %d samples", ErrShape, channels, length)
	}
	stride := (length + planeAlign - 1) &^ (planeAlign - 1)
	a.backing = make([]float64, channels*stride)
	a.planes = make([][]float64, channels)
	for ch := range a.planes {
		a.planes[ch] = a.backing[ch*stride : ch*stride+length : ch*stride+stride]
	}
	a.length = length
	return nil
}

// Release drops the storage. The Array2D can be allocated again afterwards.
func (a *Array2D) Release() {
	a.backing = nil
	a.planes = nil
	a.length = 0
}

// Allocated reports whether the Array2D owns storage.
func (a *Array2D) Allocated() bool {
	return a.planes != nil
}

// Channels returns the number of planes.
func (a *Array2D) Channels() int {
	return len(a.planes)
}

// Len returns the number of samples per plane.
func (a *Array2D) Len() int {
	return a.length
}

// Channel returns plane ch.
func (a *Array2D) Channel(ch int) []float64 {
	return a.planes[ch]
}

// Planes returns all planes. The outer slice is owned by the Array2D.
func (a *Array2D) Planes() [][]float64 {
	return a.planes
}

// Zero sets all samples to 0.
func (a *Array2D) Zero() {
	clear(a.backing)
}

// ZeroRange sets samples in [start, end) of every plane to 0.
// Indices are clamped to valid bounds.
func (a *Array2D) ZeroRange(start, end int) {
	start = max(start, 0)
	end = min(end, a.length)
	if start >= end {
		return
	}
	for _, p := range a.planes {
		clear(p[start:end])
	}
}

// Copy returns a deep copy of the buffer.
func (a *Array2D) Copy() *Array2D {
	c := New(a.Channels(), a.length)
	copy(c.backing, a.backing)
	return c
}
