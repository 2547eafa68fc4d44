package channel

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-mixer/dsp/core"
	"github.com/cwbudde/algo-mixer/dsp/filter/design"
	"github.com/cwbudde/algo-mixer/internal/testutil"
	"github.com/cwbudde/algo-mixer/internal/vecmath"
)

type scratch struct {
	mix, ch, tmp [][]float64
}

func newScratch(channels, n int) *scratch {
	return &scratch{
		mix: testutil.Planes(channels, n),
		ch:  testutil.Planes(channels, n),
		tmp: testutil.Planes(channels, n),
	}
}

func (s *scratch) run(t *testing.T, r *Registry, generation uint64, n int) [][]float64 {
	t.Helper()
	for _, p := range s.mix {
		clear(p)
	}
	require.NoError(t, r.Mix(generation, n, s.mix, s.ch, s.tmp))
	return s.mix
}

func constPCM(v int16, frames, channels int) []int16 {
	pcm := make([]int16, frames*channels)
	for i := range pcm {
		pcm[i] = v
	}
	return pcm
}

func TestRegistryKeepsIdentityOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []int{5, 1, 3, 0} {
		_, err := r.Update(id, 1, DefaultParams(), nil, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{0, 1, 3, 5}, r.IDs())
	assert.Equal(t, 4, r.Len())
}

func TestRegistryRejectsInvalidInput(t *testing.T) {
	r := NewRegistry()

	_, err := r.Update(-1, 1, DefaultParams(), nil, 0)
	require.ErrorIs(t, err, ErrInvalidID)

	_, err = r.Update(0, 1, DefaultParams(), make([]int16, 3), 2)
	require.ErrorIs(t, err, ErrShortInput)
	assert.Zero(t, r.Len())
}

func TestRegistryIgnoresDuplicateUpdate(t *testing.T) {
	r := NewRegistry()
	pcm := constPCM(100, 4, 2)

	_, err := r.Update(0, 1, DefaultParams(), pcm, 4)
	require.NoError(t, err)
	_, err = r.Update(0, 1, DefaultParams(), pcm, 4)
	require.NoError(t, err)

	remain, ok := r.Remain(0)
	require.True(t, ok)
	assert.Equal(t, 4, remain)
}

func TestRegistryReportsAudibleChanges(t *testing.T) {
	r := NewRegistry()

	updated, err := r.Update(0, 1, DefaultParams(), nil, 0)
	require.NoError(t, err)
	assert.False(t, updated, "defaults match a fresh channel")

	p := DefaultParams()
	p.Pan = 0.5
	updated, err = r.Update(0, 2, p, nil, 0)
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = r.Update(0, 3, p, nil, 0)
	require.NoError(t, err)
	assert.False(t, updated)

	p.LowShelfGain = 3
	updated, err = r.Update(0, 4, p, nil, 0)
	require.NoError(t, err)
	assert.True(t, updated)

	p.LowShelfGain += 1e-13
	updated, err = r.Update(0, 5, p, nil, 0)
	require.NoError(t, err)
	assert.False(t, updated, "changes below the epsilon are ignored")
}

func TestRegistryGapHandling(t *testing.T) {
	const (
		sr    = 1024.0
		block = 128
	)
	p := NeutralParams()
	p.Lag = 0.25 // two blocks

	ones := constPCM(16384, block, 1)
	zeros := constPCM(0, block, 1)

	prime := func(t *testing.T) (*Registry, *scratch) {
		t.Helper()
		r := NewRegistry()
		_, err := r.SetFormat(sr, 1)
		require.NoError(t, err)
		s := newScratch(1, block)

		_, err = r.Update(7, 1, p, ones, block)
		require.NoError(t, err)
		out := s.run(t, r, 1, block)
		assert.Equal(t, 0.0, vecmath.MaxAbs(out[0]))

		_, err = r.Update(7, 2, p, zeros, block)
		require.NoError(t, err)
		out = s.run(t, r, 2, block)
		assert.Equal(t, 0.0, vecmath.MaxAbs(out[0]))
		return r, s
	}

	t.Run("one missed generation keeps effect state", func(t *testing.T) {
		r, s := prime(t)
		_, err := r.Update(7, 4, p, zeros, block)
		require.NoError(t, err)
		out := s.run(t, r, 4, block)
		for i, v := range out[0] {
			require.Equalf(t, 0.5, v, "sample %d", i)
		}
	})

	t.Run("longer gaps reset the chain", func(t *testing.T) {
		r, s := prime(t)
		_, err := r.Update(7, 5, p, zeros, block)
		require.NoError(t, err)
		out := s.run(t, r, 5, block)
		assert.Equal(t, 0.0, vecmath.MaxAbs(out[0]))
	})

	t.Run("one missed generation drops buffered input", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.SetFormat(sr, 1)
		require.NoError(t, err)
		_, err = r.Update(7, 1, p, ones, block)
		require.NoError(t, err)
		_, err = r.Update(7, 3, p, zeros, 16)
		require.NoError(t, err)
		remain, _ := r.Remain(7)
		assert.Equal(t, 16, remain)
	})

	t.Run("continuous use keeps buffered input", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.SetFormat(sr, 1)
		require.NoError(t, err)
		_, err = r.Update(7, 1, p, ones, block)
		require.NoError(t, err)
		_, err = r.Update(7, 2, p, zeros, 16)
		require.NoError(t, err)
		remain, _ := r.Remain(7)
		assert.Equal(t, block+16, remain)
	})
}

func TestRegistryDrainsBufferedInput(t *testing.T) {
	r := NewRegistry()
	_, err := r.SetFormat(48000, 1)
	require.NoError(t, err)
	var calls []int
	r.notifier = NotifierFunc(func(id int, _ [][]float64, _, _ int) { calls = append(calls, id) })

	pcm := make([]int16, 256)
	for i := range pcm {
		pcm[i] = int16(i)
	}
	_, err = r.Update(2, 1, NeutralParams(), pcm, 256)
	require.NoError(t, err)

	s := newScratch(1, 128)
	out := s.run(t, r, 1, 128)
	assert.InDelta(t, 127.0/32768, out[0][127], 1e-15)

	out = s.run(t, r, 2, 128)
	assert.InDelta(t, 128.0/32768, out[0][0], 1e-15)
	assert.InDelta(t, 255.0/32768, out[0][127], 1e-15)

	out = s.run(t, r, 3, 128)
	assert.Equal(t, 0.0, vecmath.MaxAbs(out[0]))
	assert.Equal(t, []int{2, 2}, calls, "an idle empty channel is not mixed")
}

func TestRegistryNeutralChainIsTransparent(t *testing.T) {
	const n = 512
	r := NewRegistry()
	pcm := testutil.SinePCM(440, 48000, 0.8, n, 2)
	_, err := r.Update(0, 1, NeutralParams(), pcm, n)
	require.NoError(t, err)

	out := newScratch(2, n).run(t, r, 1, n)
	want := testutil.Deinterleave(pcm, 2)
	for ch := range 2 {
		for i := range n {
			require.Equal(t, want[ch][i], out[ch][i])
		}
	}
}

func TestRegistryPanLaw(t *testing.T) {
	tests := []struct {
		name       string
		pan        float64
		wantL      float64
		wantR      float64
		postGainDB float64
	}{
		{"centre", 0, 0.5, 0.25, 0},
		{"hard left", -1, (0.5 + 0.25) * 0.5 * math.Sqrt2, 0, 0},
		{"hard right", 1, 0, (0.5 + 0.25) * 0.5 * math.Sqrt2, 0},
		{"centre -6 dB", 0, 0.5 * math.Pow(10, -6.0/20), 0.25 * math.Pow(10, -6.0/20), -6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			p := NeutralParams()
			p.Pan = tt.pan
			p.PostGain = tt.postGainDB
			pcm := make([]int16, 0, 8)
			for range 4 {
				pcm = append(pcm, 16384, 8192)
			}
			_, err := r.Update(0, 1, p, pcm, 4)
			require.NoError(t, err)
			out := newScratch(2, 4).run(t, r, 1, 4)
			assert.InDelta(t, tt.wantL, out[0][3], 1e-12)
			assert.InDelta(t, tt.wantR, out[1][3], 1e-12)
		})
	}
}

func TestRegistryMonoUsesPlainGain(t *testing.T) {
	r := NewRegistry()
	_, err := r.SetFormat(48000, 1)
	require.NoError(t, err)
	p := NeutralParams()
	p.Pan = -1
	p.PostGain = 6
	_, err = r.Update(0, 1, p, constPCM(8192, 4, 1), 4)
	require.NoError(t, err)
	out := newScratch(1, 4).run(t, r, 1, 4)
	assert.InDelta(t, 0.25*math.Pow(10, 6.0/20), out[0][0], 1e-12)
}

type sendCall struct {
	auxID      int
	generation uint64
	first      float64
	gainDB     float64
}

func TestRegistrySendsPrePanSignal(t *testing.T) {
	var calls []sendCall
	sendErr := errors.New("bus full")
	r := NewRegistry(WithSender(SenderFunc(func(auxID int, generation uint64, src [][]float64, _ int, gainDB float64) error {
		calls = append(calls, sendCall{auxID, generation, src[1][0], gainDB})
		if auxID == 9 {
			return sendErr
		}
		return nil
	})))

	p := NeutralParams()
	p.Pan = -1
	p.AuxSendID = 3
	p.AuxSend = -6
	_, err := r.Update(0, 1, p, constPCM(16384, 2, 2), 2)
	require.NoError(t, err)

	silent := NeutralParams()
	silent.AuxSendID = 4
	_, err = r.Update(1, 1, silent, constPCM(16384, 2, 2), 2)
	require.NoError(t, err)

	failing := NeutralParams()
	failing.AuxSendID = 9
	failing.AuxSend = 0
	_, err = r.Update(2, 1, failing, constPCM(16384, 2, 2), 2)
	require.NoError(t, err)

	s := newScratch(2, 2)
	err = r.Mix(1, 2, s.mix, s.ch, s.tmp)
	require.ErrorIs(t, err, sendErr)

	require.Len(t, calls, 2, "a send at the floor level is skipped")
	assert.Equal(t, sendCall{3, 1, 0.5, -6}, calls[0])
	assert.Equal(t, 9, calls[1].auxID)
	assert.Greater(t, s.mix[0][0], 0.0, "the mix continues after a failed send")
}

func TestRegistryCollect(t *testing.T) {
	r := NewRegistry()
	_, err := r.Update(0, 1, DefaultParams(), nil, 0)
	require.NoError(t, err)
	_, err = r.Update(1, 1, DefaultParams(), constPCM(1, 8, 2), 8)
	require.NoError(t, err)
	_, err = r.Update(2, 200, DefaultParams(), nil, 0)
	require.NoError(t, err)

	assert.Zero(t, r.Collect(255))
	assert.Equal(t, 1, r.Collect(257))
	assert.Equal(t, []int{1, 2}, r.IDs(), "buffered input keeps a channel alive")

	_, err = r.Update(2, 300, DefaultParams(), nil, 0)
	require.NoError(t, err)
	assert.Zero(t, r.Collect(555))
	assert.Equal(t, 1, r.Collect(1000))
	assert.Equal(t, []int{1}, r.IDs())
}

func TestRegistryParamStrings(t *testing.T) {
	r := NewRegistry()
	_, ok := r.ParamStrings(0)
	assert.False(t, ok)

	_, err := r.Update(0, 1, DefaultParams(), nil, 0)
	require.NoError(t, err)
	got, ok := r.ParamStrings(0)
	require.True(t, ok)
	assert.Equal(t, ParamStrings{
		PreGain:            "0.00",
		Lag:                "0",
		LowShelfFrequency:  "200",
		LowShelfGain:       "0.00",
		HighShelfFrequency: "3000",
		HighShelfGain:      "0.00",
		DynamicsThreshold:  "-24",
		DynamicsRatio:      "oo",
		DynamicsAttack:     "25",
		DynamicsRelease:    "64",
		AuxSend:            "-144.00",
		PostGain:           "0.00",
		Pan:                "0.00",
	}, got)
}

func TestRegistryLookahead(t *testing.T) {
	r := NewRegistry()
	assert.Zero(t, r.LongestLookahead())

	// Two shelves at 2 samples each plus the dynamics attack+release.
	const shelves = 4.0 / 48000
	const dynamics = 0.064025

	_, err := r.Update(0, 1, DefaultParams(), nil, 0)
	require.NoError(t, err)
	assert.InDelta(t, shelves+dynamics, r.LongestLookahead(), 1e-12)

	p := DefaultParams()
	p.Lag = 0.5
	_, err = r.Update(1, 1, p, nil, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5+shelves+dynamics, r.LongestLookahead(), 1e-12)

	la, ok := r.Lookahead(0)
	require.True(t, ok)
	assert.InDelta(t, shelves+dynamics, la, 1e-12)
}

func TestRegistryResetAndFormat(t *testing.T) {
	r := NewRegistry()
	_, err := r.Update(0, 1, DefaultParams(), constPCM(3, 16, 2), 16)
	require.NoError(t, err)

	updated, err := r.SetFormat(48000, 2)
	require.NoError(t, err)
	assert.False(t, updated)

	updated, err = r.SetFormat(44100, 1)
	require.NoError(t, err)
	assert.True(t, updated)
	remain, _ := r.Remain(0)
	assert.Zero(t, remain, "a channel count change drops buffered PCM")

	_, err = r.Update(0, 2, DefaultParams(), constPCM(3, 16, 1), 16)
	require.NoError(t, err)
	r.Reset()
	remain, _ = r.Remain(0)
	assert.Zero(t, remain)
	assert.Equal(t, []int{0}, r.IDs())
}

func TestRegistryInvalidFormatKeepsChannels(t *testing.T) {
	r := NewRegistry()
	_, err := r.SetFormat(48000, 2)
	require.NoError(t, err)
	_, err = r.Update(0, 1, DefaultParams(), constPCM(3, 16, 2), 16)
	require.NoError(t, err)
	before, _ := r.Lookahead(0)

	for _, f := range []struct {
		rate     float64
		channels int
	}{{0, 2}, {math.NaN(), 2}, {math.Inf(1), 2}, {44100, 0}} {
		_, err := r.SetFormat(f.rate, f.channels)
		require.ErrorIs(t, err, core.ErrInvalidFormat)
	}

	after, _ := r.Lookahead(0)
	assert.Equal(t, before, after)
	remain, _ := r.Remain(0)
	assert.Equal(t, 16, remain)

	// New channels still get the last valid format.
	_, err = r.Update(1, 2, DefaultParams(), constPCM(3, 16, 2), 16)
	require.NoError(t, err)
	la, ok := r.Lookahead(1)
	require.True(t, ok)
	assert.Equal(t, before, la)
}

func TestRegistryEQResponse(t *testing.T) {
	r := NewRegistry()
	freqs := []float64{10, 200, 1000, 3000, 24000}

	_, ok := r.EQResponse(0, freqs)
	assert.False(t, ok)

	_, err := r.Update(0, 1, DefaultParams(), nil, 0)
	require.NoError(t, err)
	flat, ok := r.EQResponse(0, freqs)
	require.True(t, ok)
	assert.Equal(t, make([]float64, len(freqs)), flat)

	p := DefaultParams()
	p.LowShelfGain = 6
	p.HighShelfGain = -4
	_, err = r.Update(0, 2, p, nil, 0)
	require.NoError(t, err)
	got, ok := r.EQResponse(0, freqs)
	require.True(t, ok)

	low, err := design.LowShelfCoefficients(p.LowShelfFrequency, 6, 1/math.Sqrt2, 48000)
	require.NoError(t, err)
	high, err := design.HighShelfCoefficients(p.HighShelfFrequency, -4, 1/math.Sqrt2, 48000)
	require.NoError(t, err)
	for i, hz := range freqs {
		assert.InDeltaf(t, low.MagnitudeDB(hz, 48000)+high.MagnitudeDB(hz, 48000), got[i], 1e-9, "%v Hz", hz)
	}
	assert.InDelta(t, 6, got[0], 0.1)
	assert.InDelta(t, -4, got[len(got)-1], 0.1)
}
