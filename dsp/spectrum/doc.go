// Package spectrum averages windowed power spectra over successive frames
// and picks their strongest peaks.
//
// The FFT comes from gonum's dsp/fourier; the package adds framing,
// windowing and accumulation on top of it.
package spectrum
