package main

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-mixer/mixer"
	"github.com/cwbudde/algo-mixer/mixer/auxbus"
	"github.com/cwbudde/algo-mixer/mixer/channel"
)

// track is a scene input ready to be fed to the mixer.
type track struct {
	id     int
	params channel.Params
	clip   *clip
	start  int // first frame on the timeline
}

type bus struct {
	id     int
	params auxbus.Params
}

// renderer feeds a scene into a mixer block by block.
type renderer struct {
	log      logrus.FieldLogger
	m        *mixer.Mixer
	tracks   []track
	buses    []bus
	channels int
	block    int
	length   int // timeline frames
	seg      []int16
	progress func(done, total int)
}

func newRenderer(log logrus.FieldLogger, m *mixer.Mixer, s *Scene, clips []*clip) (*renderer, error) {
	if err := m.SetFormat(s.Format()); err != nil {
		return nil, err
	}
	r := &renderer{
		log:      log,
		m:        m,
		channels: s.Channels,
		block:    s.BlockSize,
		seg:      make([]int16, s.BlockSize*s.Channels),
	}

	end := 0
	for i, in := range s.Inputs {
		t := track{
			id:     in.Channel,
			params: in.Params.Params(),
			clip:   clips[i],
			start:  int(math.Round(in.Start * s.SampleRate)),
		}
		r.tracks = append(r.tracks, t)
		end = max(end, t.start+t.clip.frames())
	}
	r.length = end + int(math.Round(s.Tail*s.SampleRate))

	for _, b := range s.Buses {
		p, err := b.Params()
		if err != nil {
			return nil, err
		}
		r.buses = append(r.buses, bus{id: b.ID, params: p})
	}
	return r, nil
}

// scratchMixer returns a mixer holding the scene's channels with no audio.
func scratchMixer(s *Scene) (*mixer.Mixer, error) {
	m := mixer.New()
	if err := m.SetFormat(s.Format()); err != nil {
		return nil, err
	}
	for _, in := range s.Inputs {
		if _, err := m.UpdateChannel(in.Channel, in.Params.Params(), nil, 0); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// warmUp returns the pre-roll in seconds the scene's channels need after
// a seek.
func warmUp(s *Scene) (float64, error) {
	m, err := scratchMixer(s)
	if err != nil {
		return 0, err
	}
	return m.WarmUpDuration(), nil
}

// segment writes the frames [pos, pos+n) of t into r.seg, zero padded,
// and reports whether the track has started.
func (r *renderer) segment(t *track, pos, n int) bool {
	seg := r.seg[:n*r.channels]
	clear(seg)
	if pos+n <= t.start {
		return false
	}
	from := max(pos, t.start)
	to := min(pos+n, t.start+t.clip.frames())
	if from < to {
		src := t.clip.pcm[(from-t.start)*r.channels : (to-t.start)*r.channels]
		copy(seg[(from-pos)*r.channels:], src)
	}
	return true
}

// step renders frames [pos, pos+n) into out.
func (r *renderer) step(pos, n int, out []int16) error {
	for _, b := range r.buses {
		if _, err := r.m.UpdateAux(b.id, b.params); err != nil {
			return err
		}
	}
	for i := range r.tracks {
		t := &r.tracks[i]
		if !r.segment(t, pos, n) {
			continue
		}
		if _, err := r.m.UpdateChannel(t.id, t.params, r.seg, n); err != nil {
			return fmt.Errorf("channel %d: %w", t.id, err)
		}
	}
	clear(out[:n*r.channels])
	return r.m.Mix(out, n)
}

// render mixes the timeline from start to its end. Audio between
// start-preRoll and start is mixed in warm-up mode and discarded.
func (r *renderer) render(ctx context.Context, start, preRoll int) ([]int16, error) {
	start = min(max(start, 0), r.length)
	from := max(0, start-preRoll)
	scratch := make([]int16, r.block*r.channels)

	if from < start {
		r.log.WithFields(logrus.Fields{"from": from, "to": start}).Debug("warming up")
		r.m.SetWarming(true)
		for pos := from; pos < start; pos += r.block {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := r.step(pos, min(r.block, start-pos), scratch); err != nil {
				return nil, err
			}
		}
		r.m.SetWarming(false)
	}

	out := make([]int16, (r.length-start)*r.channels)
	total := r.length - start
	for pos := start; pos < r.length; pos += r.block {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := min(r.block, r.length-pos)
		if err := r.step(pos, n, scratch); err != nil {
			return nil, err
		}
		copy(out[(pos-start)*r.channels:], scratch[:n*r.channels])
		if r.progress != nil {
			r.progress(pos+n-start, total)
		}
	}
	return out, nil
}
