package buffer

import "sync"

// Pool provides sync.Pool-based Array2D reuse so that short-lived owners
// such as aux buses do not reallocate on every create/destroy cycle.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a Pool ready for use.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return &Array2D{}
			},
		},
	}
}

// Get returns a zeroed Array2D with the requested shape.
// Callers must return it via Put when done.
func (p *Pool) Get(channels, length int) *Array2D {
	a := p.pool.Get().(*Array2D)
	if a.Channels() != channels || a.Len() != length {
		a.Release()
		if err := a.Allocate(max(channels, 0), max(length, 0)); err != nil {
			return New(channels, length)
		}
		return a
	}
	a.Zero()
	return a
}

// Put returns an Array2D to the pool for reuse.
// The caller must not use the buffer after calling Put.
func (p *Pool) Put(a *Array2D) {
	if a == nil {
		return
	}
	p.pool.Put(a)
}
