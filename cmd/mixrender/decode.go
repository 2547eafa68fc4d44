package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cwbudde/algo-mixer/dsp/resample"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	errUnsupportedFile = errors.New("unsupported audio file")
	errSampleRate      = errors.New("invalid input sample rate")
)

// clip is decoded interleaved 16-bit audio.
type clip struct {
	sampleRate int
	channels   int
	pcm        []int16
}

func (c *clip) frames() int {
	if c.channels == 0 {
		return 0
	}
	return len(c.pcm) / c.channels
}

// decodeFile picks a decoder by file extension.
func decodeFile(path string) (*clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return decodeWAV(f)
	case ".mp3":
		return decodeMP3(f)
	case ".ogg", ".oga":
		return decodeVorbis(f)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedFile, path)
	}
}

func decodeWAV(r io.ReadSeeker) (*clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a PCM wav file", errUnsupportedFile)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}

	depth := int(dec.BitDepth)
	pcm := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		switch {
		case depth == 8:
			pcm[i] = int16((v - 128) << 8)
		case depth > 16:
			pcm[i] = int16(v >> (depth - 16))
		default:
			pcm[i] = int16(v)
		}
	}
	return &clip{
		sampleRate: buf.Format.SampleRate,
		channels:   buf.Format.NumChannels,
		pcm:        pcm,
	}, nil
}

// decodeMP3 always yields stereo; go-mp3 duplicates mono streams.
func decodeMP3(r io.Reader) (*clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}
	pcm := make([]int16, len(raw)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return &clip{sampleRate: dec.SampleRate(), channels: 2, pcm: pcm}, nil
}

func decodeVorbis(r io.Reader) (*clip, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode vorbis: %w", err)
	}
	pcm := make([]int16, len(data))
	for i, v := range data {
		pcm[i] = floatToPCM(float64(v))
	}
	return &clip{sampleRate: format.SampleRate, channels: format.Channels, pcm: pcm}, nil
}

func floatToPCM(v float64) int16 {
	return int16(math.Max(-32768, math.Min(32767, math.Round(v*32768))))
}

// conform maps c onto channels output channels. A mono target takes the
// mean of every source channel; otherwise each target channel copies the
// source channel of the same index, or the last one.
func (c *clip) conform(channels int) *clip {
	if c.channels == channels {
		return c
	}
	n := c.frames()
	out := make([]int16, n*channels)
	for i := range n {
		frame := c.pcm[i*c.channels : (i+1)*c.channels]
		if channels == 1 {
			sum := 0
			for _, v := range frame {
				sum += int(v)
			}
			out[i] = int16(sum / len(frame))
			continue
		}
		for ch := range channels {
			out[i*channels+ch] = frame[min(ch, c.channels-1)]
		}
	}
	return &clip{sampleRate: c.sampleRate, channels: channels, pcm: out}
}

// resample converts c to rate.
func (c *clip) resample(rate float64, q resample.Quality) (*clip, error) {
	if c.sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d Hz", errSampleRate, c.sampleRate)
	}
	if float64(c.sampleRate) == rate {
		return c, nil
	}
	pcm, err := resample.PCM(c.pcm, c.channels, float64(c.sampleRate), rate, q)
	if err != nil {
		return nil, err
	}
	return &clip{sampleRate: int(rate), channels: c.channels, pcm: pcm}, nil
}

// loadClips decodes every scene input concurrently and conforms the
// results to the scene format, resampling where the rates differ.
func loadClips(ctx context.Context, log logrus.FieldLogger, s *Scene, dir string) ([]*clip, error) {
	q, err := s.Quality()
	if err != nil {
		return nil, err
	}
	clips := make([]*clip, len(s.Inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, in := range s.Inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := in.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			c, err := decodeFile(path)
			if err != nil {
				return fmt.Errorf("input %q: %w", in.File, err)
			}
			rate := c.sampleRate
			c = c.conform(s.Channels)
			if c, err = c.resample(s.SampleRate, q); err != nil {
				return fmt.Errorf("input %q: %w", in.File, err)
			}
			c.fade(in.FadeIn, in.FadeOut)
			log.WithFields(logrus.Fields{
				"file":     in.File,
				"channel":  in.Channel,
				"frames":   c.frames(),
				"channels": c.channels,
				"rate":     rate,
			}).Debug("decoded input")
			clips[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return clips, nil
}
