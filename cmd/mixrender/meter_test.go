package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-mixer/dsp/spectrum"
	"github.com/cwbudde/algo-mixer/internal/testutil"
	"github.com/cwbudde/algo-mixer/mixer"
)

func TestMeterReport(t *testing.T) {
	m := newMeter()
	half := [][]float64{testutil.DC(0.5, 8), testutil.DC(-0.5, 8)}
	m.OnSignal(mixer.KindAux, 3, [][]float64{testutil.DC(0.25, 8), testutil.DC(0.25, 8)}, 2, 8)
	m.OnSignal(mixer.KindChannel, 7, half, 2, 8)
	m.OnSignal(mixer.KindChannel, 1, half, 2, 4)
	m.OnSignal(mixer.KindChannel, 1, half, 2, 4)

	assert.Equal(t, 16, m.levels[meterKey{mixer.KindChannel, 1}].Result().Length)

	var b bytes.Buffer
	require.NoError(t, m.Report(&b))
	assert.Equal(t,
		"channel    1  peak   -6.02 dBFS  rms   -6.02 dBFS  dc +0.0000\n"+
			"channel    7  peak   -6.02 dBFS  rms   -6.02 dBFS  dc +0.0000\n"+
			"aux        3  peak  -12.04 dBFS  rms  -12.04 dBFS  dc +0.2500\n",
		b.String())
}

func TestAverageSpectrum(t *testing.T) {
	const sr = 8192.0
	a := testutil.SinePCM(1000, sr, 0.5, 2*spectrumSize, 2)
	b := testutil.SinePCM(3000, sr, 0.05, 2*spectrumSize, 2)
	mix := make([]int16, len(a))
	for i := range mix {
		mix[i] = a[i] + b[i]
	}

	power, err := averageSpectrum(mix, 2, spectrumSize)
	require.NoError(t, err)
	require.Len(t, power, spectrumSize/2+1)
	peaks := spectrum.Peaks(power, spectrumSize, sr, 2)
	require.Len(t, peaks, 2)
	assert.Equal(t, 1000.0, peaks[0].Frequency)
	assert.Equal(t, 3000.0, peaks[1].Frequency)
	assert.InDelta(t, 20, peaks[0].PowerDB-peaks[1].PowerDB, 0.5)

	power, err = averageSpectrum(mix[:100], 2, spectrumSize)
	require.NoError(t, err)
	assert.Nil(t, power)

	var b2 bytes.Buffer
	require.NoError(t, writeSpectrum(&b2, mix[:100], 2, sr))
	assert.Contains(t, b2.String(), "shorter than one analysis frame")
}
