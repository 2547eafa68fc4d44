package biquad

// Coefficients holds the transfer function coefficients for a single
// second-order section (biquad). a0 is normalized to 1 and not stored.
//
//	y[n] = B0*x[n] + B1*x[n-1] + B2*x[n-2] - A1*y[n-1] - A2*y[n-2]
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// denormalGuard is added to and removed from every output to keep the
// recursion out of the subnormal range.
const denormalGuard = 1e-24

// Section is a single biquad filter with coefficients and internal state.
// It implements Direct Form I processing.
type Section struct {
	Coefficients

	x1, x2 float64
	y1, y2 float64
}

// NewSection returns a Section initialized with the given coefficients
// and zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters one input sample and returns the output.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.B1*s.x1 + s.B2*s.x2 - s.A1*s.y1 - s.A2*s.y2 + denormalGuard
	y -= denormalGuard
	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y

	return y
}

// ProcessBlock filters a block of samples in-place. Zero-alloc.
func (s *Section) ProcessBlock(buf []float64) {
	s.ProcessBlockTo(buf, buf)
}

// ProcessBlockTo filters src into dst. dst must be at least as long as
// src and may alias it. Zero-alloc.
func (s *Section) ProcessBlockTo(dst, src []float64) {
	if len(src) == 0 {
		return
	}
	_ = dst[len(src)-1] // bounds check hint
	b0, b1, b2 := s.B0, s.B1, s.B2
	a1, a2 := s.A1, s.A2
	x1, x2, y1, y2 := s.x1, s.x2, s.y1, s.y2
	for i, x := range src {
		y := b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2 + denormalGuard
		y -= denormalGuard
		x2, x1 = x1, x
		y2, y1 = y1, y
		dst[i] = y
	}
	s.x1, s.x2, s.y1, s.y2 = x1, x2, y1, y2
}

// Reset clears the filter history to zero.
func (s *Section) Reset() {
	s.x1, s.x2 = 0, 0
	s.y1, s.y2 = 0, 0
}

// State returns the current history [x1, x2, y1, y2].
func (s *Section) State() [4]float64 {
	return [4]float64{s.x1, s.x2, s.y1, s.y2}
}

// SetState restores a previously saved history.
func (s *Section) SetState(state [4]float64) {
	s.x1, s.x2, s.y1, s.y2 = state[0], state[1], state[2], state[3]
}
