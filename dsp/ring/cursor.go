package ring

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientCapacity is returned when a capacity change would drop
	// resident frames.
	ErrInsufficientCapacity = errors.New("ring: capacity smaller than resident frames")
	// ErrInvalidCapacity is returned for a non-positive capacity.
	ErrInvalidCapacity = errors.New("ring: capacity must be > 0")
	// ErrNoChannels is returned when writing PCM into a ring without channels.
	ErrNoChannels = errors.New("ring: channel count not set")
)

// cursor tracks occupancy of a ring of size frames.
type cursor struct {
	size     int
	remain   int
	writeCur int
}

func (c *cursor) readCur() int {
	r := c.writeCur + c.size - c.remain
	if r >= c.size {
		r -= c.size
	}
	return r
}

func (c *cursor) reset() {
	c.remain = 0
	c.writeCur = 0
}

// spans splits n frames starting at pos into the part before the end of
// the ring and the wrapped part.
func (c *cursor) spans(pos, n int) (first, second int) {
	tail := c.size - pos
	if tail >= n {
		return n, 0
	}
	return tail, n - tail
}

// advance moves the write cursor by n frames and accounts them as resident.
func (c *cursor) advance(n int) {
	c.writeCur += n
	if c.writeCur >= c.size {
		c.writeCur -= c.size
	}
	c.remain += n
}

// consume drops up to n frames from the read side and returns how many.
func (c *cursor) consume(n int) int {
	n = min(max(n, 0), c.remain)
	c.remain -= n
	return n
}

func checkCapacity(size, remain int) error {
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, size)
	}
	if remain > size {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientCapacity, size, remain)
	}
	return nil
}
