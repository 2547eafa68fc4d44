package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-mixer/dsp/window"
	"github.com/cwbudde/algo-mixer/internal/testutil"
)

func TestAveragerFindsTones(t *testing.T) {
	const (
		size = 1024
		sr   = 8192.0
	)
	a, err := NewAverager(size, window.TypeHann)
	if err != nil {
		t.Fatal(err)
	}

	loud := testutil.DeterministicSine(1000, sr, 0.5, 4*size)
	quiet := testutil.DeterministicSine(3000, sr, 0.05, 4*size)
	for f := range 4 {
		frame := make([]float64, size)
		for i := range frame {
			frame[i] = loud[f*size+i] + quiet[f*size+i]
		}
		if err := a.Add(frame); err != nil {
			t.Fatal(err)
		}
	}
	if a.Count() != 4 {
		t.Fatalf("Count() = %d, want 4", a.Count())
	}

	power := a.Power()
	if len(power) != size/2+1 {
		t.Fatalf("len(Power()) = %d", len(power))
	}
	peaks := Peaks(power, size, sr, 2)
	if len(peaks) != 2 {
		t.Fatalf("got %d peaks", len(peaks))
	}
	if peaks[0].Frequency != 1000 || peaks[1].Frequency != 3000 {
		t.Fatalf("peaks at %v and %v Hz", peaks[0].Frequency, peaks[1].Frequency)
	}
	if d := peaks[0].PowerDB - peaks[1].PowerDB; math.Abs(d-20) > 0.01 {
		t.Fatalf("level difference = %v dB, want 20", d)
	}
}

func TestAveragerMeanOfFrames(t *testing.T) {
	a, err := NewAverager(8, window.TypeRectangular)
	if err != nil {
		t.Fatal(err)
	}
	if a.Power() != nil {
		t.Fatal("Power() before any frame should be nil")
	}
	_ = a.Add(testutil.DC(1, 8))
	_ = a.Add(testutil.DC(3, 8))

	// DC bins are 8 and 24, so the mean power is (64+576)/2
	if got := a.Power()[0]; math.Abs(got-320) > 1e-9 {
		t.Fatalf("DC power = %v, want 320", got)
	}

	a.Reset()
	if a.Count() != 0 || a.Power() != nil {
		t.Fatal("Reset should discard frames")
	}
}

func TestAveragerRejects(t *testing.T) {
	if _, err := NewAverager(1, window.TypeHann); !errors.Is(err, ErrSize) {
		t.Fatalf("err = %v, want ErrSize", err)
	}
	a, _ := NewAverager(16, window.TypeHann)
	if err := a.Add(make([]float64, 15)); !errors.Is(err, ErrFrameLength) {
		t.Fatalf("err = %v, want ErrFrameLength", err)
	}
}

func TestPeaksSkipsFlatAndEdges(t *testing.T) {
	power := []float64{9, 1, 1, 4, 2, 0, 0, 8}
	peaks := Peaks(power, 14, 14, 5)
	if len(peaks) != 1 || peaks[0].Bin != 3 {
		t.Fatalf("peaks = %+v", peaks)
	}
	if peaks[0].Frequency != 3 {
		t.Fatalf("frequency = %v", peaks[0].Frequency)
	}
}
