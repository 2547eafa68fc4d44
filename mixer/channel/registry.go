package channel

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-mixer/dsp/buffer"
	"github.com/cwbudde/algo-mixer/dsp/core"
	"github.com/cwbudde/algo-mixer/internal/vecmath"
)

var (
	// ErrInvalidID is returned for negative identities.
	ErrInvalidID = errors.New("channel: invalid id")
	// ErrShortInput is returned when an update carries fewer samples than
	// it claims.
	ErrShortInput = errors.New("channel: input shorter than sample count")
)

// CollectWindow is the number of generations a channel may stay unused
// before Collect removes it.
const CollectWindow = 256

// Sender receives the pre-pan signal of every channel with an active aux
// send.
type Sender interface {
	Send(auxID int, generation uint64, src [][]float64, samples int, gainDB float64) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(auxID int, generation uint64, src [][]float64, samples int, gainDB float64) error

// Send calls f.
func (f SenderFunc) Send(auxID int, generation uint64, src [][]float64, samples int, gainDB float64) error {
	return f(auxID, generation, src, samples, gainDB)
}

// Notifier observes the post-effect signal of every channel that is mixed.
type Notifier interface {
	Notify(id int, buf [][]float64, channels, samples int)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(id int, buf [][]float64, channels, samples int)

// Notify calls f.
func (f NotifierFunc) Notify(id int, buf [][]float64, channels, samples int) {
	f(id, buf, channels, samples)
}

// Option configures a Registry.
type Option func(*Registry)

// WithSender routes aux sends to s.
func WithSender(s Sender) Option {
	return func(r *Registry) { r.sender = s }
}

// WithNotifier reports mixed channels to n.
func WithNotifier(n Notifier) Option {
	return func(r *Registry) { r.notifier = n }
}

// Registry owns the channel strips, ordered by identity. It is not safe for
// concurrent use.
type Registry struct {
	sampleRate float64
	channels   int

	strips   []*strip
	sender   Sender
	notifier Notifier
}

// NewRegistry returns an empty registry for 48 kHz stereo.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{sampleRate: 48000, channels: 2}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Len returns the number of live channels.
func (r *Registry) Len() int { return len(r.strips) }

// IDs returns the live identities in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, len(r.strips))
	for i, s := range r.strips {
		ids[i] = s.id
	}
	return ids
}

func (r *Registry) search(id int) (int, bool) {
	return slices.BinarySearchFunc(r.strips, id, func(s *strip, id int) int {
		return s.id - id
	})
}

func (r *Registry) lookup(id int) *strip {
	if i, ok := r.search(id); ok {
		return r.strips[i]
	}
	return nil
}

// SetFormat propagates a new stream format to every channel and reports
// whether any of them changed audibly. An invalid format is rejected
// before any channel is touched.
func (r *Registry) SetFormat(sampleRate float64, channels int) (bool, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) || channels <= 0 {
		return false, fmt.Errorf("channel: %w: %v Hz, %d channels", core.ErrInvalidFormat, sampleRate, channels)
	}
	r.sampleRate = sampleRate
	r.channels = channels
	updated := false
	for _, s := range r.strips {
		if err := s.setFormat(sampleRate, channels); err != nil {
			return updated, err
		}
		u, err := s.commit()
		if err != nil {
			return updated, err
		}
		updated = updated || u
	}
	return updated, nil
}

// find returns the strip for id, marking it used in generation. A second
// call within the same generation returns nil. A gap of exactly one
// missed generation drops the buffered input; a longer gap resets the
// whole chain.
func (r *Registry) find(id int, generation uint64) (*strip, error) {
	if id < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	i, ok := r.search(id)
	if ok {
		s := r.strips[i]
		switch gap := generation - s.usedAt; {
		case s.usedAt == generation:
			return nil, nil
		case s.usedAt > generation || gap > 2:
			s.reset()
		case gap == 2:
			s.input.Clear()
		}
		s.usedAt = generation
		return s, nil
	}

	s, err := newStrip(id, r.sampleRate, r.channels)
	if err != nil {
		return nil, err
	}
	s.usedAt = generation
	r.strips = slices.Insert(r.strips, i, s)
	return s, nil
}

// Update applies p to channel id and appends samples frames of the
// interleaved src to its input. It reports whether anything audible
// changed. A repeated update for the same generation is ignored.
func (r *Registry) Update(id int, generation uint64, p Params, src []int16, samples int) (bool, error) {
	if samples > 0 && len(src) < samples*r.channels {
		return false, fmt.Errorf("%w: %d < %d", ErrShortInput, len(src), samples*r.channels)
	}
	s, err := r.find(id, generation)
	if err != nil || s == nil {
		return false, err
	}
	s.apply(p)
	updated, err := s.commit()
	if err != nil {
		return false, err
	}
	if err := s.input.Write(src, samples); err != nil {
		return updated, fmt.Errorf("channel %d: %w", id, err)
	}
	return updated, nil
}

// Mix renders samples frames of every channel used in generation, or still
// holding buffered input, and adds the result to mix. ch and tmp are
// scratch buffers shaped like mix. Send failures do not stop the mix; they
// are joined into the returned error.
func (r *Registry) Mix(generation uint64, samples int, mix, ch, tmp [][]float64) error {
	var errs []error
	for _, s := range r.strips {
		if s.usedAt != generation && s.input.Remain() == 0 {
			continue
		}
		pp := buffer.NewPingPong(ch, tmp)
		s.process(&pp, samples, func(src [][]float64) {
			if r.sender == nil {
				return
			}
			if err := r.sender.Send(s.auxSendID, generation, src, samples, s.auxSend); err != nil {
				errs = append(errs, fmt.Errorf("channel %d: send to %d: %w", s.id, s.auxSendID, err))
			}
		})
		out := pp.Cur()
		channels := s.input.Channels()
		if r.notifier != nil {
			r.notifier.Notify(s.id, out, channels, samples)
		}
		for c := range channels {
			vecmath.AddBlockInPlace(mix[c][:samples], out[c][:samples])
		}
	}
	return errors.Join(errs...)
}

// Collect removes channels that have been idle for CollectWindow
// generations and hold no buffered input. It returns how many it removed.
func (r *Registry) Collect(generation uint64) int {
	before := len(r.strips)
	r.strips = slices.DeleteFunc(r.strips, func(s *strip) bool {
		return generation-s.usedAt >= CollectWindow && s.usedAt <= generation && s.input.Remain() == 0
	})
	return before - len(r.strips)
}

// Reset clears the state of every channel without removing any.
func (r *Registry) Reset() {
	for _, s := range r.strips {
		s.reset()
	}
}

// LongestLookahead returns the largest channel lookahead in seconds.
func (r *Registry) LongestLookahead() float64 {
	v := 0.0
	for _, s := range r.strips {
		v = max(v, s.lookahead())
	}
	return v
}

// EQResponse returns the combined shelf response of channel id in dB at
// each frequency in Hz.
func (r *Registry) EQResponse(id int, freqs []float64) ([]float64, bool) {
	s := r.lookup(id)
	if s == nil {
		return nil, false
	}
	return s.eqResponse(freqs), true
}

// Lookahead returns the lookahead of channel id in seconds.
func (r *Registry) Lookahead(id int) (float64, bool) {
	s := r.lookup(id)
	if s == nil {
		return 0, false
	}
	return s.lookahead(), true
}

// Remain returns the number of buffered input frames of channel id.
func (r *Registry) Remain(id int) (int, bool) {
	s := r.lookup(id)
	if s == nil {
		return 0, false
	}
	return s.input.Remain(), true
}

// ParamStrings renders the committed settings of channel id.
func (r *Registry) ParamStrings(id int) (ParamStrings, bool) {
	s := r.lookup(id)
	if s == nil {
		return ParamStrings{}, false
	}
	return s.strings(), true
}
