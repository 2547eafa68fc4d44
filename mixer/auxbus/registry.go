package auxbus

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cwbudde/algo-mixer/dsp/buffer"
	"github.com/cwbudde/algo-mixer/dsp/core"
	"github.com/cwbudde/algo-mixer/dsp/effects/reverb"
	"github.com/cwbudde/algo-mixer/internal/vecmath"
)

var (
	// ErrInvalidID is returned for negative identities.
	ErrInvalidID = errors.New("auxbus: invalid id")
	// ErrBlockTooLarge is returned when a send exceeds the block size.
	ErrBlockTooLarge = errors.New("auxbus: block larger than buffer")
)

// CollectWindow is the number of generations a bus may stay unused before
// Collect removes it.
const CollectWindow = 256

// Notifier observes the wet output of every rendered bus.
type Notifier interface {
	Notify(id int, buf [][]float64, channels, samples int)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(id int, buf [][]float64, channels, samples int)

// Notify calls f.
func (f NotifierFunc) Notify(id int, buf [][]float64, channels, samples int) {
	f(id, buf, channels, samples)
}

type bus struct {
	id        int
	usedAt    uint64
	updatedAt uint64
	plate     *reverb.Plate
	buf       *buffer.Array2D
}

func (b *bus) reset() {
	b.buf.Zero()
	b.plate.Clear()
}

// apply stages p on the plate. Wet always comes from p.Reverb.
func (b *bus) apply(p Params) {
	rp := reverb.Params{
		PreDelay:  p.Reverb.PreDelay,
		BandWidth: p.Reverb.BandWidth,
		Diffuse:   p.Reverb.Diffuse,
		Decay:     p.Reverb.Decay,
		Damping:   p.Reverb.Damping,
		Excursion: p.Reverb.Excursion,
	}
	if p.Preset.Valid() {
		rp, _ = p.Preset.Params()
	}
	rp.Wet = core.DBToAmp(p.Reverb.Wet)
	rp.Dry = 0
	b.plate.SetParams(rp)
}

// Registry owns the aux buses, ordered by identity. It is not safe for
// concurrent use.
type Registry struct {
	sampleRate float64
	channels   int
	blockSize  int

	buses    []*bus
	pool     *buffer.Pool
	notifier Notifier
}

// NewRegistry returns an empty registry for f. Buses created later use the
// format of the last SetFormat call.
func NewRegistry(f core.Format) *Registry {
	return &Registry{
		sampleRate: f.SampleRate,
		channels:   f.Channels,
		blockSize:  f.BlockSize,
		pool:       buffer.NewPool(),
	}
}

// SetNotifier reports rendered buses to n. A nil n disables reporting.
func (r *Registry) SetNotifier(n Notifier) { r.notifier = n }

// Len returns the number of live buses.
func (r *Registry) Len() int { return len(r.buses) }

// IDs returns the live identities in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, len(r.buses))
	for i, b := range r.buses {
		ids[i] = b.id
	}
	return ids
}

func (r *Registry) search(id int) (int, bool) {
	return slices.BinarySearchFunc(r.buses, id, func(b *bus, id int) int {
		return b.id - id
	})
}

// Params returns the committed plate controls of bus id.
func (r *Registry) Params(id int) (reverb.Params, bool) {
	i, ok := r.search(id)
	if !ok {
		return reverb.Params{}, false
	}
	return r.buses[i].plate.Params(), true
}

// SetFormat reallocates every bus buffer for the new format and reports
// whether any plate changed.
func (r *Registry) SetFormat(f core.Format) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, fmt.Errorf("auxbus: %w", err)
	}
	r.sampleRate = f.SampleRate
	r.channels = f.Channels
	r.blockSize = f.BlockSize
	updated := false
	for _, b := range r.buses {
		r.pool.Put(b.buf)
		b.buf = r.pool.Get(r.channels, r.blockSize)
		b.plate.SetFormat(r.sampleRate, r.channels)
		updated = b.plate.Update() || updated
	}
	return updated, nil
}

// find returns the bus for id and marks it used in generation. The first
// use in a generation right after the previous one clears the
// accumulation buffer; a longer gap resets the plate too.
func (r *Registry) find(id int, generation uint64) (*bus, error) {
	if id < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	i, ok := r.search(id)
	if ok {
		b := r.buses[i]
		if b.usedAt != generation {
			if b.usedAt+1 == generation {
				b.buf.Zero()
			} else {
				b.reset()
			}
			b.usedAt = generation
		}
		return b, nil
	}

	b := &bus{
		id:     id,
		usedAt: generation,
		plate:  reverb.New(),
		buf:    r.pool.Get(r.channels, r.blockSize),
	}
	b.plate.SetDry(0)
	b.plate.SetFormat(r.sampleRate, r.channels)
	b.plate.Update()
	r.buses = slices.Insert(r.buses, i, b)
	return b, nil
}

// Update applies p to bus id and marks it for rendering in generation. It
// reports whether the plate changed.
func (r *Registry) Update(id int, generation uint64, p Params) (bool, error) {
	b, err := r.find(id, generation)
	if err != nil {
		return false, err
	}
	b.apply(p)
	updated := b.plate.Update()
	b.updatedAt = generation
	return updated, nil
}

// Add accumulates samples frames of src into bus id at gainDB, creating
// the bus when needed.
func (r *Registry) Add(id int, generation uint64, src [][]float64, samples int, gainDB float64) error {
	if samples > r.blockSize {
		return fmt.Errorf("%w: %d > %d", ErrBlockTooLarge, samples, r.blockSize)
	}
	b, err := r.find(id, generation)
	if err != nil {
		return err
	}
	g := core.DBToAmp(gainDB)
	for ch := range min(b.buf.Channels(), len(src)) {
		vecmath.AddScaledInPlace(b.buf.Channel(ch)[:samples], src[ch][:samples], g)
	}
	return nil
}

// Mix renders every bus updated in generation through its plate into sub
// and adds the result to mix.
func (r *Registry) Mix(generation uint64, samples int, mix, sub [][]float64) {
	for _, b := range r.buses {
		if b.updatedAt != generation {
			continue
		}
		b.plate.Process(b.buf.Planes(), sub, samples)
		if r.notifier != nil {
			r.notifier.Notify(b.id, sub, r.channels, samples)
		}
		for ch := range r.channels {
			vecmath.AddBlockInPlace(mix[ch][:samples], sub[ch][:samples])
		}
	}
}

// Collect removes buses that have been idle for CollectWindow generations
// and returns how many it removed.
func (r *Registry) Collect(generation uint64) int {
	before := len(r.buses)
	r.buses = slices.DeleteFunc(r.buses, func(b *bus) bool {
		if b.usedAt > generation || generation-b.usedAt < CollectWindow {
			return false
		}
		r.pool.Put(b.buf)
		b.buf = nil
		return true
	})
	return before - len(r.buses)
}

// Reset clears every bus without removing any.
func (r *Registry) Reset() {
	for _, b := range r.buses {
		b.usedAt = 0
		b.updatedAt = 0
		b.reset()
	}
}
