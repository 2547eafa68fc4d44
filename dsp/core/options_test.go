package core

import (
	"errors"
	"math"
	"testing"
)

func TestApplyFormatOptions(t *testing.T) {
	f := ApplyFormatOptions(WithSampleRate(96000), WithChannels(1), WithBlockSize(2048))
	if f.SampleRate != 96000 {
		t.Fatalf("sample rate = %v, want 96000", f.SampleRate)
	}
	if f.Channels != 1 {
		t.Fatalf("channels = %d, want 1", f.Channels)
	}
	if f.BlockSize != 2048 {
		t.Fatalf("block size = %d, want 2048", f.BlockSize)
	}
}

func TestInvalidOptionsIgnored(t *testing.T) {
	f := ApplyFormatOptions(WithSampleRate(0), WithChannels(0), WithBlockSize(-1))
	def := DefaultFormat()
	if f != def {
		t.Fatalf("format = %#v, want %#v", f, def)
	}
}

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name string
		f    Format
		ok   bool
	}{
		{name: "default", f: DefaultFormat(), ok: true},
		{name: "zero rate", f: Format{SampleRate: 0, Channels: 2, BlockSize: 16}},
		{name: "nan rate", f: Format{SampleRate: math.NaN(), Channels: 2, BlockSize: 16}},
		{name: "no channels", f: Format{SampleRate: 48000, BlockSize: 16}},
		{name: "no block", f: Format{SampleRate: 48000, Channels: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("Validate() = %v, want ErrInvalidFormat", err)
			}
		})
	}
}

func TestFormatEqual(t *testing.T) {
	a := DefaultFormat()
	b := a
	b.SampleRate += 1e-13
	if !a.Equal(b) {
		t.Fatal("expected formats within epsilon to be equal")
	}
	b.Channels = 1
	if a.Equal(b) {
		t.Fatal("expected formats with different channels to differ")
	}
}
