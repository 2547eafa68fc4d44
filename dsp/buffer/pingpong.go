package buffer

// PingPong is a two-slot scratch arena. A processing stage reads Cur,
// writes Other and then calls Swap so the next stage reads its output.
type PingPong struct {
	cur, other [][]float64
}

// NewPingPong returns an arena over two equally shaped buffers.
func NewPingPong(a, b [][]float64) PingPong {
	return PingPong{cur: a, other: b}
}

// Cur returns the slot holding the latest stage output.
func (p *PingPong) Cur() [][]float64 { return p.cur }

// Other returns the free slot.
func (p *PingPong) Other() [][]float64 { return p.other }

// Swap exchanges the slots.
func (p *PingPong) Swap() {
	p.cur, p.other = p.other, p.cur
}
