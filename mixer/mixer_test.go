package mixer

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-mixer/dsp/core"
	"github.com/cwbudde/algo-mixer/dsp/effects/reverb"
	"github.com/cwbudde/algo-mixer/internal/testutil"
	"github.com/cwbudde/algo-mixer/internal/vecmath"
	"github.com/cwbudde/algo-mixer/mixer/auxbus"
	"github.com/cwbudde/algo-mixer/mixer/channel"
)

var stereo48k = core.Format{SampleRate: 48000, Channels: 2, BlockSize: 1024}

func newFormatted(t *testing.T, f core.Format, opts ...Option) *Mixer {
	t.Helper()
	m := New(opts...)
	require.NoError(t, m.SetFormat(f))
	return m
}

type recorder struct {
	calls  []Kind
	ids    []int
	energy map[Kind]float64
}

func (r *recorder) OnSignal(kind Kind, id int, buf [][]float64, channels, samples int) {
	r.calls = append(r.calls, kind)
	r.ids = append(r.ids, id)
	if r.energy == nil {
		r.energy = map[Kind]float64{}
	}
	for ch := range channels {
		r.energy[kind] += vecmath.RMS(buf[ch][:samples])
	}
}

func TestRequiresFormat(t *testing.T) {
	m := New()
	require.ErrorIs(t, m.Mix(make([]int16, 4), 2), ErrNotFormatted)
	_, err := m.UpdateChannel(0, channel.DefaultParams(), nil, 0)
	require.ErrorIs(t, err, ErrNotFormatted)
	_, err = m.UpdateAux(0, auxbus.DefaultParams())
	require.ErrorIs(t, err, ErrNotFormatted)
	_, ok := m.Format()
	assert.False(t, ok)
}

func TestMixValidatesBlock(t *testing.T) {
	m := newFormatted(t, core.Format{SampleRate: 48000, Channels: 2, BlockSize: 16})
	require.ErrorIs(t, m.Mix(make([]int16, 64), 32), ErrBlockTooLarge)
	require.ErrorIs(t, m.Mix(make([]int16, 10), 8), ErrShortBuffer)
	require.NoError(t, m.Mix(nil, 0))
	assert.Equal(t, uint64(1), m.Frame())
}

func TestSilentMix(t *testing.T) {
	m := newFormatted(t, stereo48k)
	assert.Equal(t, uint64(1), m.Frame())

	_, err := m.UpdateChannel(0, channel.DefaultParams(), make([]int16, 2048), 1024)
	require.NoError(t, err)

	master := make([]int16, 2048)
	require.NoError(t, m.Mix(master, 1024))
	assert.Equal(t, make([]int16, 2048), master)
	assert.Equal(t, uint64(2), m.Frame())
	assert.Equal(t, uint64(1024), m.Position())
}

func TestSetFormat(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	m := newFormatted(t, stereo48k, WithLogger(log))

	entry := hook.Entries[0]
	assert.Equal(t, "mixer format changed", entry.Message)
	assert.Equal(t, 48000.0, entry.Data["sample_rate"])
	assert.Equal(t, 2, entry.Data["channels"])
	assert.Equal(t, 1024, entry.Data["block"])

	master := make([]int16, 2048)
	require.NoError(t, m.Mix(master, 1024))
	require.NoError(t, m.Mix(master, 1024))
	hook.Reset()

	require.NoError(t, m.SetFormat(stereo48k))
	assert.Equal(t, uint64(3), m.Frame(), "same format keeps state")
	assert.Empty(t, hook.Entries)

	err := m.SetFormat(core.Format{SampleRate: -1, Channels: 2, BlockSize: 1024})
	require.ErrorIs(t, err, core.ErrInvalidFormat)
	f, ok := m.Format()
	require.True(t, ok)
	assert.Equal(t, stereo48k, f)

	require.NoError(t, m.SetFormat(core.Format{SampleRate: 44100, Channels: 1, BlockSize: 512}))
	assert.Equal(t, uint64(1), m.Frame())
	assert.Zero(t, m.Position())
	assert.Equal(t, 44100.0, m.SampleRate())
	assert.Equal(t, 1, m.Channels())
	assert.Equal(t, 512, m.BlockSize())
}

func TestInvalidFormatKeepsState(t *testing.T) {
	const n = 256
	f := core.Format{SampleRate: 48000, Channels: 2, BlockSize: n}
	pcm := testutil.SinePCM(440, 48000, 0.5, n*4, 2)
	p := channel.DefaultParams()
	p.LowShelfGain = 3

	render := func(m *Mixer, b int) []int16 {
		_, err := m.UpdateChannel(0, p, pcm[b*2*n:(b+1)*2*n], n)
		require.NoError(t, err)
		master := make([]int16, 2*n)
		require.NoError(t, m.Mix(master, n))
		return master
	}

	ref := newFormatted(t, f)
	m := newFormatted(t, f)
	for b := range 4 {
		want := render(ref, b)
		if b == 2 {
			err := m.SetFormat(core.Format{SampleRate: math.NaN(), Channels: 1, BlockSize: n})
			require.ErrorIs(t, err, core.ErrInvalidFormat)
			require.ErrorIs(t, m.SetFormat(core.Format{SampleRate: 44100, Channels: 0, BlockSize: n}), core.ErrInvalidFormat)
		}
		assert.Equalf(t, want, render(m, b), "block %d", b)
	}
	assert.Equal(t, ref.Frame(), m.Frame())
	assert.Equal(t, ref.WarmUpDuration(), m.WarmUpDuration())
}

func TestNeutralChannelRoundTrip(t *testing.T) {
	const (
		n      = 1024
		blocks = 8
	)
	m := newFormatted(t, stereo48k)
	pcm := testutil.SinePCM(440, 48000, 0.5, n*blocks, 2)

	for b := range blocks {
		in := pcm[b*2*n : (b+1)*2*n]
		_, err := m.UpdateChannel(0, channel.NeutralParams(), in, n)
		require.NoError(t, err)
		master := make([]int16, 2*n)
		require.NoError(t, m.Mix(master, n))
		if b == 0 {
			// the master limiter's gate opens during the first samples
			continue
		}
		assert.LessOrEqualf(t, testutil.MaxAbsDiffInt16(master, in), 1, "block %d", b)
	}
}

func TestChannelEQResponseMatchesOutput(t *testing.T) {
	const (
		n      = 1024
		blocks = 16
		freq   = 16 * 48000.0 / 8192 // whole cycles in the measured half
	)
	m := newFormatted(t, core.Format{SampleRate: 48000, Channels: 1, BlockSize: n})
	p := channel.NeutralParams()
	p.LowShelfGain = 6
	p.HighShelfGain = -4
	pcm := testutil.SinePCM(freq, 48000, 0.25, n*blocks, 1)

	out := make([]int16, 0, n*blocks)
	for b := range blocks {
		_, err := m.UpdateChannel(0, p, pcm[b*n:(b+1)*n], n)
		require.NoError(t, err)
		master := make([]int16, n)
		require.NoError(t, m.Mix(master, n))
		out = append(out, master...)
	}

	resp, ok := m.ChannelEQResponse(0, []float64{freq})
	require.True(t, ok)
	assert.Greater(t, resp[0], 3.0)

	want := 0.25 / math.Sqrt2 * math.Pow(10, resp[0]/20)
	got := vecmath.RMS(testutil.Deinterleave(out[n*blocks/2:], 1)[0])
	assert.InDelta(t, want, got, want*2e-3)

	_, ok = m.ChannelEQResponse(9, []float64{freq})
	assert.False(t, ok)
}

func TestDuplicateUpdateIsIgnored(t *testing.T) {
	const n = 256
	m := newFormatted(t, core.Format{SampleRate: 48000, Channels: 2, BlockSize: n})
	in := make([]int16, 2*n)
	for i := range in {
		in[i] = 8192
	}

	for range 2 {
		_, err := m.UpdateChannel(0, channel.NeutralParams(), in, n)
		require.NoError(t, err)
	}
	updated, err := m.UpdateChannel(0, channel.NeutralParams(), in, n)
	require.NoError(t, err)
	assert.False(t, updated)

	master := make([]int16, 2*n)
	require.NoError(t, m.Mix(master, n))
	assert.InDelta(t, 8192, master[2*n-1], 1)

	// nothing left over for the next block
	master = make([]int16, 2*n)
	require.NoError(t, m.Mix(master, n))
	assert.Zero(t, vecmath.MaxAbs(testutil.Deinterleave(master, 2)[0]))
}

func TestChurchReverbTail(t *testing.T) {
	const n = 1024
	rec := &recorder{}
	m := newFormatted(t, stereo48k, WithObserver(rec))

	send := channel.NeutralParams()
	send.AuxSendID = 3
	send.AuxSend = 0

	tailPeak := 0
	for b := range 24 {
		_, err := m.UpdateAux(3, auxbus.PresetParams(reverb.PresetChurch, 0))
		require.NoError(t, err)

		in := make([]int16, 2*n)
		if b == 0 {
			in[0], in[1] = 32767, 32767
		}
		_, err = m.UpdateChannel(1, send, in, n)
		require.NoError(t, err)

		if b == 12 {
			rec.energy = nil
		}
		master := make([]int16, 2*n)
		require.NoError(t, m.Mix(master, n))
		if b >= 12 {
			for _, v := range master {
				tailPeak = max(tailPeak, int(math.Abs(float64(v))))
			}
		}
	}

	assert.Greater(t, rec.energy[KindAux], 0.0, "aux bus still rings")
	assert.Zero(t, rec.energy[KindChannel], "the dry impulse is long gone")
	assert.Greater(t, tailPeak, 0, "the tail reaches the master output")
	assert.Equal(t, []int{1}, m.ChannelIDs())
	assert.Equal(t, []int{3}, m.AuxIDs())
}

func TestObserverAndWarming(t *testing.T) {
	const n = 64
	rec := &recorder{}
	m := newFormatted(t, core.Format{SampleRate: 48000, Channels: 2, BlockSize: n}, WithObserver(rec))

	step := func() {
		_, err := m.UpdateAux(2, auxbus.DefaultParams())
		require.NoError(t, err)
		_, err = m.UpdateChannel(4, channel.DefaultParams(), make([]int16, 2*n), n)
		require.NoError(t, err)
		require.NoError(t, m.Mix(make([]int16, 2*n), n))
	}

	m.SetWarming(true)
	require.True(t, m.Warming())
	step()
	assert.Empty(t, rec.calls)
	assert.Zero(t, m.Position())
	assert.Equal(t, uint64(2), m.Frame())

	m.SetWarming(false)
	step()
	assert.Equal(t, []Kind{KindOther, KindChannel, KindAux}, rec.calls)
	assert.Equal(t, []int{0, 4, 2}, rec.ids)
	assert.Equal(t, uint64(n), m.Position())
}

func TestCollectIdleIdentities(t *testing.T) {
	const n = 16
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	m := newFormatted(t, core.Format{SampleRate: 48000, Channels: 1, BlockSize: n}, WithLogger(log))

	master := make([]int16, n)
	for frame := uint64(1); frame <= 511; frame++ {
		require.Equal(t, frame, m.Frame())
		if frame == 1 {
			_, err := m.UpdateChannel(5, channel.DefaultParams(), make([]int16, n), n)
			require.NoError(t, err)
			_, err = m.UpdateAux(9, auxbus.DefaultParams())
			require.NoError(t, err)
		}
		if frame%200 == 1 {
			_, err := m.UpdateChannel(6, channel.DefaultParams(), make([]int16, n), n)
			require.NoError(t, err)
			_, err = m.UpdateAux(7, auxbus.DefaultParams())
			require.NoError(t, err)
		}
		require.NoError(t, m.Mix(master, n))
		if frame == 255 {
			assert.Equal(t, []int{5, 6}, m.ChannelIDs())
			assert.Equal(t, []int{7, 9}, m.AuxIDs())
		}
	}
	assert.Equal(t, []int{6}, m.ChannelIDs())
	assert.Equal(t, []int{7}, m.AuxIDs())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "collected idle identities", entry.Message)
	assert.Equal(t, 1, entry.Data["removed_channels"])
	assert.Equal(t, 1, entry.Data["removed_buses"])
}

func TestWarmUpDuration(t *testing.T) {
	m := newFormatted(t, stereo48k)
	limiter := m.limiter.AttackDuration() + m.limiter.ReleaseDuration()
	assert.Greater(t, limiter, 0.0)
	assert.InDelta(t, limiter, m.WarmUpDuration(), 1e-12)

	p := channel.DefaultParams()
	p.Lag = 2
	_, err := m.UpdateChannel(0, p, nil, 0)
	require.NoError(t, err)
	la, ok := m.channels.Lookahead(0)
	require.True(t, ok)
	assert.Greater(t, la, 2+4.0/48000)
	assert.InDelta(t, la, m.WarmUpDuration(), 1e-12)
}

func TestChannelParamStrings(t *testing.T) {
	m := newFormatted(t, stereo48k)
	_, ok := m.ChannelParamStrings(1)
	assert.False(t, ok)

	p := channel.DefaultParams()
	p.PreGain = -3.5
	p.Lag = 0.125
	_, err := m.UpdateChannel(1, p, nil, 0)
	require.NoError(t, err)
	s, ok := m.ChannelParamStrings(1)
	require.True(t, ok)
	assert.Equal(t, "-3.50", s.PreGain)
	assert.Equal(t, "125", s.Lag)
}

func TestReset(t *testing.T) {
	m := newFormatted(t, stereo48k)
	require.NoError(t, m.Mix(make([]int16, 2048), 1024))
	m.Reset()
	assert.Equal(t, uint64(1), m.Frame())
	assert.Zero(t, m.Position())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "channel", KindChannel.String())
	assert.Equal(t, "aux", KindAux.String())
	assert.Equal(t, "other", KindOther.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestDeinterleave(t *testing.T) {
	for _, chs := range []int{1, 2, 3} {
		src := make([]int16, 4*chs)
		for i := range src {
			src[i] = int16(i * 1000)
		}
		dst := testutil.Planes(chs, 4)
		deinterleave(dst, src, chs, 4)
		assert.Equal(t, testutil.Deinterleave(src, chs), dst, "%d channels", chs)
	}
}
