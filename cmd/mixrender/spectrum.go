package main

import (
	"fmt"
	"io"

	"github.com/cwbudde/algo-mixer/dsp/spectrum"
	"github.com/cwbudde/algo-mixer/dsp/window"
)

const spectrumSize = 4096

// averageSpectrum returns the mean Hann-windowed power spectrum of the
// channel mean of pcm over non-overlapping frames of size samples, or nil
// when pcm is shorter than one frame.
func averageSpectrum(pcm []int16, channels, size int) ([]float64, error) {
	a, err := spectrum.NewAverager(size, window.TypeHann)
	if err != nil {
		return nil, err
	}
	frames := len(pcm) / channels
	seq := make([]float64, size)
	for start := 0; start+size <= frames; start += size {
		for i := range seq {
			v := 0
			for ch := range channels {
				v += int(pcm[(start+i)*channels+ch])
			}
			seq[i] = float64(v) / (32768 * float64(channels))
		}
		if err := a.Add(seq); err != nil {
			return nil, err
		}
	}
	return a.Power(), nil
}

func writeSpectrum(w io.Writer, pcm []int16, channels int, sampleRate float64) error {
	power, err := averageSpectrum(pcm, channels, spectrumSize)
	if err != nil {
		return err
	}
	if power == nil {
		_, err := fmt.Fprintln(w, "spectrum: output shorter than one analysis frame")
		return err
	}
	for _, p := range spectrum.Peaks(power, spectrumSize, sampleRate, 5) {
		if _, err := fmt.Fprintf(w, "peak %9.1f Hz %7.1f dB\n", p.Frequency, p.PowerDB); err != nil {
			return err
		}
	}
	return nil
}
