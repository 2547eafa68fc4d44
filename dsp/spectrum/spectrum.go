package spectrum

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwbudde/algo-mixer/dsp/window"
	"github.com/cwbudde/algo-mixer/internal/vecmath"
)

var (
	// ErrSize is returned for analysis sizes below two.
	ErrSize = errors.New("spectrum: size must be >= 2")
	// ErrFrameLength is returned when a frame does not match the size.
	ErrFrameLength = errors.New("spectrum: frame length does not match size")
)

// Averager accumulates the mean power spectrum of equally sized frames.
// It is not safe for concurrent use.
type Averager struct {
	size   int
	fft    *fourier.FFT
	window []float64

	seq   []float64
	coeff []complex128
	re    []float64
	im    []float64
	power []float64
	sum   []float64
	count int
}

// NewAverager returns an averager for frames of size samples tapered
// with the periodic form of w.
func NewAverager(size int, w window.Type) (*Averager, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: %d", ErrSize, size)
	}
	bins := size/2 + 1
	return &Averager{
		size:   size,
		fft:    fourier.NewFFT(size),
		window: window.Generate(w, size, window.WithPeriodic()),
		seq:    make([]float64, size),
		coeff:  make([]complex128, bins),
		re:     make([]float64, bins),
		im:     make([]float64, bins),
		power:  make([]float64, bins),
		sum:    make([]float64, bins),
	}, nil
}

// Size returns the frame length.
func (a *Averager) Size() int { return a.size }

// Count returns the number of frames added since the last reset.
func (a *Averager) Count() int { return a.count }

// Add windows frame, transforms it and adds |X[k]|² to the running sum.
// frame is not modified.
func (a *Averager) Add(frame []float64) error {
	if len(frame) != a.size {
		return fmt.Errorf("%w: %d != %d", ErrFrameLength, len(frame), a.size)
	}
	copy(a.seq, frame)
	if err := window.ApplyInPlace(a.seq, a.window); err != nil {
		return err
	}
	a.fft.Coefficients(a.coeff, a.seq)
	for k, c := range a.coeff {
		a.re[k], a.im[k] = real(c), imag(c)
	}
	vecmath.Power(a.power, a.re, a.im)
	vecmath.AddBlockInPlace(a.sum, a.power)
	a.count++
	return nil
}

// Power returns the mean power per bin, size/2+1 values, or nil before the
// first frame.
func (a *Averager) Power() []float64 {
	if a.count == 0 {
		return nil
	}
	out := make([]float64, len(a.sum))
	vecmath.ScaleBlock(out, a.sum, 1/float64(a.count))
	return out
}

// Reset discards every accumulated frame.
func (a *Averager) Reset() {
	clear(a.sum)
	a.count = 0
}

// BinFrequency returns the centre frequency of bin k for a size-point FFT.
func BinFrequency(k, size int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(size)
}

// Peak is a local maximum of a power spectrum.
type Peak struct {
	Bin       int
	Frequency float64
	PowerDB   float64
}

// Peaks returns up to n strict local maxima of power, strongest first.
// The DC and Nyquist bins are never reported.
func Peaks(power []float64, size int, sampleRate float64, n int) []Peak {
	var peaks []Peak
	for k := 1; k+1 < len(power); k++ {
		if power[k] == 0 || power[k] <= power[k-1] || power[k] < power[k+1] {
			continue
		}
		peaks = append(peaks, Peak{
			Bin:       k,
			Frequency: BinFrequency(k, size, sampleRate),
			PowerDB:   10 * math.Log10(power[k]),
		})
	}
	slices.SortFunc(peaks, func(a, b Peak) int {
		return cmp.Compare(b.PowerDB, a.PowerDB)
	})
	return peaks[:min(n, len(peaks))]
}
