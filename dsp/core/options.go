package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFormat is returned when a Format cannot describe a stream.
var ErrInvalidFormat = errors.New("core: invalid format")

// Format describes a planar float stream: sample rate, channel count and
// the largest block a caller will process at once.
type Format struct {
	SampleRate float64
	Channels   int
	BlockSize  int
}

// FormatOption mutates a Format.
type FormatOption func(*Format)

// DefaultFormat returns sensible defaults for offline and streaming use.
func DefaultFormat() Format {
	return Format{
		SampleRate: 48000,
		Channels:   2,
		BlockSize:  1024,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) FormatOption {
	return func(f *Format) {
		if sampleRate > 0 {
			f.SampleRate = sampleRate
		}
	}
}

// WithChannels sets the channel count.
func WithChannels(channels int) FormatOption {
	return func(f *Format) {
		if channels > 0 {
			f.Channels = channels
		}
	}
}

// WithBlockSize sets the processing block size.
func WithBlockSize(blockSize int) FormatOption {
	return func(f *Format) {
		if blockSize > 0 {
			f.BlockSize = blockSize
		}
	}
}

// ApplyFormatOptions applies zero or more options to the default format.
func ApplyFormatOptions(opts ...FormatOption) Format {
	f := DefaultFormat()
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// Validate reports whether f can be used to size buffers.
func (f Format) Validate() error {
	if f.SampleRate <= 0 || math.IsNaN(f.SampleRate) || math.IsInf(f.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidFormat, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: channels %d", ErrInvalidFormat, f.Channels)
	}
	if f.BlockSize <= 0 {
		return fmt.Errorf("%w: block size %d", ErrInvalidFormat, f.BlockSize)
	}
	return nil
}

// Equal reports whether f and o describe the same stream. Sample rates
// are compared with ParamEpsilon.
func (f Format) Equal(o Format) bool {
	return !Differs(f.SampleRate, o.SampleRate, ParamEpsilon) &&
		f.Channels == o.Channels &&
		f.BlockSize == o.BlockSize
}
