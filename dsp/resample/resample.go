package resample

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidRatio indicates a non-positive up/down ratio.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidRate indicates a non-positive or non-finite sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
	// ErrUnknownQuality is returned by ParseQuality.
	ErrUnknownQuality = errors.New("resample: unknown quality")
)

// maxDenominator bounds the ratio approximation of NewForRates.
const maxDenominator = 4096

// Quality selects the anti-aliasing filter.
type Quality int

const (
	QualityFast Quality = iota
	QualityBalanced
	QualityBest
	// QualityVeryHigh hands whole-signal conversion (Channel, PCM) to the
	// multi-stage go-audio-resampler engine. Streaming uses the Best filter.
	QualityVeryHigh
)

var qualityNames = [...]string{
	QualityFast:     "fast",
	QualityBalanced: "balanced",
	QualityBest:     "best",
	QualityVeryHigh: "very-high",
}

func (q Quality) String() string {
	if q < 0 || int(q) >= len(qualityNames) {
		return fmt.Sprintf("Quality(%d)", int(q))
	}
	return qualityNames[q]
}

// ParseQuality resolves a name as returned by String.
func ParseQuality(s string) (Quality, error) {
	for i, name := range qualityNames {
		if name == s {
			return Quality(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownQuality, s)
}

// Profile holds the filter parameters of a quality mode.
type Profile struct {
	TapsPerPhase      int
	CutoffScale       float64 // fraction of the anti-aliasing cutoff
	KaiserBeta        float64
	NominalStopbandDB float64
}

// QualityProfile returns the filter parameters used by q.
func QualityProfile(q Quality) Profile {
	switch q {
	case QualityFast:
		return Profile{TapsPerPhase: 16, CutoffScale: 0.88, KaiserBeta: 5.0, NominalStopbandDB: 55}
	case QualityBest, QualityVeryHigh:
		return Profile{TapsPerPhase: 64, CutoffScale: 0.96, KaiserBeta: 9.0, NominalStopbandDB: 90}
	default:
		return Profile{TapsPerPhase: 32, CutoffScale: 0.92, KaiserBeta: 7.5, NominalStopbandDB: 75}
	}
}

// Resampler converts one channel by up/down. It keeps the input history
// between Process calls, so a stream may be fed in blocks of any size.
type Resampler struct {
	up, down int
	quality  Quality
	inRate   float64
	outRate  float64
	phases   [][]float64
	span     int     // longest phase
	delay    float64 // in output samples

	phase    int
	next     int // absolute index of the newest input the next output reads
	consumed int
	history  []float64
	work     []float64
}

// NewRational returns a resampler for the ratio up/down, reduced to lowest
// terms.
func NewRational(up, down int, q Quality) (*Resampler, error) {
	if up <= 0 || down <= 0 {
		return nil, fmt.Errorf("%w: %d/%d", ErrInvalidRatio, up, down)
	}
	g := gcd(up, down)
	up, down = up/g, down/g

	taps := design(up, down, QualityProfile(q))
	phases := make([][]float64, up)
	span := 0
	for p := range up {
		for i := p; i < len(taps); i += up {
			phases[p] = append(phases[p], taps[i])
		}
		span = max(span, len(phases[p]))
	}

	return &Resampler{
		up:      up,
		down:    down,
		quality: q,
		inRate:  float64(down),
		outRate: float64(up),
		phases:  phases,
		span:    span,
		delay:   float64(len(taps)-1) / 2 / float64(down),
	}, nil
}

// NewForRates returns a resampler from inRate to outRate, approximating
// the ratio by a fraction with a denominator of at most 4096.
func NewForRates(inRate, outRate float64, q Quality) (*Resampler, error) {
	if !(inRate > 0) || !(outRate > 0) || math.IsInf(inRate, 0) || math.IsInf(outRate, 0) {
		return nil, fmt.Errorf("%w: %v -> %v", ErrInvalidRate, inRate, outRate)
	}
	up, down := approximateRatio(outRate/inRate, maxDenominator)
	r, err := NewRational(up, down, q)
	if err != nil {
		return nil, err
	}
	r.inRate, r.outRate = inRate, outRate
	return r, nil
}

// Ratio returns the reduced conversion factors.
func (r *Resampler) Ratio() (up, down int) { return r.up, r.down }

// Delay returns the filter's group delay in output samples.
func (r *Resampler) Delay() float64 { return r.delay }

// Span returns the number of input samples each output depends on.
func (r *Resampler) Span() int { return r.span }

// Reset clears the stream state.
func (r *Resampler) Reset() {
	r.phase, r.next, r.consumed = 0, 0, 0
	r.history = r.history[:0]
}

// Process converts a block and returns the outputs it completes.
func (r *Resampler) Process(input []float64) []float64 {
	if len(input) == 0 {
		return nil
	}

	need := len(r.history) + len(input)
	if cap(r.work) < need {
		r.work = make([]float64, need)
	}
	work := r.work[:need]
	copy(work, r.history)
	copy(work[len(r.history):], input)

	base := r.consumed - len(r.history)
	last := r.consumed + len(input) - 1

	out := make([]float64, 0, (len(input)*r.up)/r.down+1)
	for r.next <= last {
		var y float64
		for k, c := range r.phases[r.phase] {
			idx := r.next - k
			if idx < base {
				break
			}
			y += c * work[idx-base]
		}
		out = append(out, y)

		r.phase += r.down
		r.next += r.phase / r.up
		r.phase %= r.up
	}
	r.consumed += len(input)

	keep := min(max(0, r.span-1), len(work))
	r.history = append(r.history[:0], work[len(work)-keep:]...)
	return out
}

// design returns the prototype low-pass at the upsampled rate. The odd
// length keeps the group delay on a whole upsampled sample; the taps sum
// to up for unity passband gain.
func design(up, down int, p Profile) []float64 {
	n := p.TapsPerPhase*up + 1
	fc := 0.5 / float64(max(up, down)) * p.CutoffScale
	center := float64(n-1) / 2

	taps := make([]float64, n)
	sum := 0.0
	for i := range taps {
		t := float64(i) - center
		taps[i] = 2 * fc * sinc(2*fc*t) * kaiser(i, n, p.KaiserBeta)
		sum += taps[i]
	}
	scale := float64(up) / sum
	for i := range taps {
		taps[i] *= scale
	}
	return taps
}

// approximateRatio returns the continued-fraction convergent of v with
// the largest denominator not above maxDen.
func approximateRatio(v float64, maxDen int) (num, den int) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}

	p0, q0 := 1.0, 0.0
	p1, q1 := math.Floor(v), 1.0
	x := v
	for {
		frac := x - math.Floor(x)
		if frac == 0 {
			break
		}
		x = 1 / frac
		a := math.Floor(x)
		p2, q2 := a*p1+p0, a*q1+q0
		if q2 > float64(maxDen) {
			break
		}
		p0, q0, p1, q1 = p1, q1, p2, q2
	}

	num, den = int(math.Round(p1)), int(math.Round(q1))
	if num <= 0 || den <= 0 {
		return 1, 1
	}
	g := gcd(num, den)
	return num / g, den / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}
	pix := math.Pi * x
	return math.Sin(pix) / pix
}

func kaiser(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}
	t := 2*float64(i)/float64(n-1) - 1
	return besselI0(beta*math.Sqrt(math.Max(0, 1-t*t))) / besselI0(beta)
}

// besselI0 evaluates the zeroth-order modified Bessel function by its
// power series.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	x2 := x * x / 4
	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)
		sum += term
		if term < 1e-16*sum {
			break
		}
	}
	return sum
}
