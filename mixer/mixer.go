package mixer

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-mixer/dsp/buffer"
	"github.com/cwbudde/algo-mixer/dsp/core"
	"github.com/cwbudde/algo-mixer/dsp/dither"
	"github.com/cwbudde/algo-mixer/dsp/effects/dynamics"
	"github.com/cwbudde/algo-mixer/mixer/auxbus"
	"github.com/cwbudde/algo-mixer/mixer/channel"
)

var (
	// ErrNotFormatted is returned by calls that need a stream format before
	// SetFormat succeeded.
	ErrNotFormatted = errors.New("mixer: format not set")
	// ErrBlockTooLarge is returned when a block exceeds the format's block
	// size.
	ErrBlockTooLarge = errors.New("mixer: block larger than block size")
	// ErrShortBuffer is returned when a PCM buffer holds fewer samples than
	// the frame count claims.
	ErrShortBuffer = errors.New("mixer: buffer shorter than frame count")
)

// collectMask selects the generations on which idle channels and buses are
// collected.
const collectMask = 0xff

// Master limiter controls.
var limiterParams = dynamics.Params{
	Threshold:  1,
	Ratio:      0.6,
	Output:     0,
	Attack:     0,
	Release:    0.8,
	Limiter:    0.7,
	GateThresh: 0,
	GateAttack: dynamics.DefaultGateAttack,
	GateDecay:  dynamics.DefaultGateDecay,
	Mix:        1,
}

// Option configures a Mixer.
type Option func(*Mixer)

// WithLogger sets the logger for lifecycle and collection events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Mixer) {
		if l != nil {
			m.log = l
		}
	}
}

// WithObserver reports every contributing signal to o.
func WithObserver(o Observer) Option {
	return func(m *Mixer) { m.observer = o }
}

// Mixer sums channel strips and aux buses into a limited, dithered master.
type Mixer struct {
	log      logrus.FieldLogger
	observer Observer

	format    core.Format
	formatted bool

	channels *channel.Registry
	aux      *auxbus.Registry
	limiter  *dynamics.Processor
	dither   *dither.Dither

	mixbuf *buffer.Array2D
	chbuf  *buffer.Array2D
	subbuf *buffer.Array2D

	frame    uint64
	position uint64
	warming  bool
}

// New returns a mixer without a format. Call SetFormat before anything
// else.
func New(opts ...Option) *Mixer {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	m := &Mixer{
		log:     discard,
		limiter: dynamics.New(),
		frame:   1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.limiter.SetParams(limiterParams)
	m.channels = channel.NewRegistry(
		channel.WithSender(channel.SenderFunc(m.send)),
		channel.WithNotifier(channel.NotifierFunc(m.notifyChannel)),
	)
	m.aux = auxbus.NewRegistry(core.DefaultFormat())
	m.aux.SetNotifier(auxbus.NotifierFunc(m.notifyAux))
	return m
}

// SetObserver replaces the observer. A nil o disables notifications.
func (m *Mixer) SetObserver(o Observer) { m.observer = o }

func (m *Mixer) send(auxID int, generation uint64, src [][]float64, samples int, gainDB float64) error {
	return m.aux.Add(auxID, generation, src, samples, gainDB)
}

func (m *Mixer) notify(kind Kind, id int, buf [][]float64, channels, samples int) {
	if m.observer != nil && !m.warming {
		m.observer.OnSignal(kind, id, buf, channels, samples)
	}
}

func (m *Mixer) notifyChannel(id int, buf [][]float64, channels, samples int) {
	m.notify(KindChannel, id, buf, channels, samples)
}

func (m *Mixer) notifyAux(id int, buf [][]float64, channels, samples int) {
	m.notify(KindAux, id, buf, channels, samples)
}

// SetFormat sets the stream format. Setting the current format again is a
// no-op; any other format reallocates every buffer and resets all state.
// On error the previous format stays in effect.
func (m *Mixer) SetFormat(f core.Format) error {
	if m.formatted && m.format.Equal(f) {
		return nil
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("mixer: %w", err)
	}

	d, err := dither.New(f.Channels)
	if err != nil {
		return fmt.Errorf("mixer: %w", err)
	}
	mixbuf := buffer.New(f.Channels, f.BlockSize)
	chbuf := buffer.New(f.Channels, f.BlockSize)
	subbuf := buffer.New(f.Channels, f.BlockSize)

	// Nothing below fails for a valid f: both registries reject a bad
	// format before touching their members.
	if _, err := m.channels.SetFormat(f.SampleRate, f.Channels); err != nil {
		return fmt.Errorf("mixer: %w", err)
	}
	if _, err := m.aux.SetFormat(f); err != nil {
		return fmt.Errorf("mixer: %w", err)
	}
	m.limiter.SetFormat(f.SampleRate, f.Channels)
	m.limiter.Update()

	m.dither = d
	m.mixbuf, m.chbuf, m.subbuf = mixbuf, chbuf, subbuf
	m.format = f
	m.formatted = true
	m.log.WithFields(logrus.Fields{
		"sample_rate": f.SampleRate,
		"channels":    f.Channels,
		"block":       f.BlockSize,
	}).Debug("mixer format changed")

	m.Reset()
	return nil
}

// Reset clears every envelope, filter, reverb tail and buffered input and
// rewinds the frame counter and position. Channels and buses are kept.
func (m *Mixer) Reset() {
	m.limiter.Clear()
	m.channels.Reset()
	m.aux.Reset()
	m.frame = 1
	m.position = 0
	if m.dither != nil {
		m.dither.Reset()
	}
	m.log.Debug("mixer reset")
}

// UpdateChannel applies p to channel id for the current block and queues
// samples frames of the interleaved src. A second update of the same
// channel within one block is ignored. It reports whether anything audible
// changed.
func (m *Mixer) UpdateChannel(id int, p channel.Params, src []int16, samples int) (bool, error) {
	if !m.formatted {
		return false, ErrNotFormatted
	}
	updated, err := m.channels.Update(id, m.frame, p, src, samples)
	if err != nil {
		return updated, fmt.Errorf("mixer: %w", err)
	}
	return updated, nil
}

// UpdateAux applies p to aux bus id and schedules it for the current
// block. It reports whether the reverb changed.
func (m *Mixer) UpdateAux(id int, p auxbus.Params) (bool, error) {
	if !m.formatted {
		return false, ErrNotFormatted
	}
	updated, err := m.aux.Update(id, m.frame, p)
	if err != nil {
		return updated, fmt.Errorf("mixer: %w", err)
	}
	return updated, nil
}

// Mix renders one block in place. buf holds samples interleaved frames of
// the master input on entry and the mixed output on return.
func (m *Mixer) Mix(buf []int16, samples int) error {
	if !m.formatted {
		return ErrNotFormatted
	}
	if samples > m.format.BlockSize {
		return fmt.Errorf("%w: %d > %d", ErrBlockTooLarge, samples, m.format.BlockSize)
	}
	chs := m.format.Channels
	if len(buf) < samples*chs {
		return fmt.Errorf("%w: %d < %d", ErrShortBuffer, len(buf), samples*chs)
	}
	if samples <= 0 {
		return nil
	}

	frame := m.frame
	mix := m.mixbuf.Planes()
	sub := m.subbuf.Planes()

	deinterleave(mix, buf, chs, samples)
	m.notify(KindOther, 0, mix, chs, samples)

	if err := m.channels.Mix(frame, samples, mix, m.chbuf.Planes(), sub); err != nil {
		m.log.WithField("frame", frame).WithError(err).Warn("aux send failed")
	}
	m.aux.Mix(frame, samples, mix, sub)

	m.limiter.Process(mix, sub, samples)
	m.dither.Interleave(buf, sub, samples)

	if frame&collectMask == collectMask {
		m.collect(frame)
	}
	m.frame++
	if !m.warming {
		m.position += uint64(samples)
	}
	return nil
}

func (m *Mixer) collect(frame uint64) {
	removedChannels := m.channels.Collect(frame)
	removedBuses := m.aux.Collect(frame)
	if removedChannels == 0 && removedBuses == 0 {
		return
	}
	m.log.WithFields(logrus.Fields{
		"frame":            frame,
		"removed_channels": removedChannels,
		"removed_buses":    removedBuses,
	}).Debug("collected idle identities")
}

// Warming reports whether warm-up mode is on.
func (m *Mixer) Warming() bool { return m.warming }

// SetWarming switches warm-up mode. While warming, Mix neither notifies the
// observer nor advances Position.
func (m *Mixer) SetWarming(warming bool) { m.warming = warming }

// WarmUpDuration returns how many seconds of audio must be replayed after
// a seek for every envelope and delay to settle.
func (m *Mixer) WarmUpDuration() float64 {
	return max(m.limiter.AttackDuration()+m.limiter.ReleaseDuration(), m.channels.LongestLookahead())
}

// ChannelParamStrings renders the committed settings of channel id.
func (m *Mixer) ChannelParamStrings(id int) (channel.ParamStrings, bool) {
	return m.channels.ParamStrings(id)
}

// ChannelEQResponse returns the shelf response of channel id in dB at each
// frequency in Hz.
func (m *Mixer) ChannelEQResponse(id int, freqs []float64) ([]float64, bool) {
	return m.channels.EQResponse(id, freqs)
}

// Format returns the current format and whether one is set.
func (m *Mixer) Format() (core.Format, bool) { return m.format, m.formatted }

// SampleRate returns the sample rate of the current format.
func (m *Mixer) SampleRate() float64 { return m.format.SampleRate }

// Channels returns the channel count of the current format.
func (m *Mixer) Channels() int { return m.format.Channels }

// BlockSize returns the largest block Mix accepts.
func (m *Mixer) BlockSize() int { return m.format.BlockSize }

// Position returns the number of frames mixed outside warm-up since the
// last reset.
func (m *Mixer) Position() uint64 { return m.position }

// Frame returns the generation the next Mix call renders.
func (m *Mixer) Frame() uint64 { return m.frame }

// ChannelIDs returns the live channel identities in ascending order.
func (m *Mixer) ChannelIDs() []int { return m.channels.IDs() }

// AuxIDs returns the live aux bus identities in ascending order.
func (m *Mixer) AuxIDs() []int { return m.aux.IDs() }
