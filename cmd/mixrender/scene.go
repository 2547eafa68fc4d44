package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-mixer/dsp/core"
	"github.com/cwbudde/algo-mixer/dsp/effects/reverb"
	"github.com/cwbudde/algo-mixer/dsp/resample"
	"github.com/cwbudde/algo-mixer/mixer/auxbus"
	"github.com/cwbudde/algo-mixer/mixer/channel"
)

var errScene = errors.New("invalid scene")

// Scene describes one offline render.
type Scene struct {
	SampleRate float64 `yaml:"sample_rate"`
	Channels   int     `yaml:"channels"`
	BlockSize  int     `yaml:"block_size"`
	Output     string  `yaml:"output"`
	// Tail is rendered after the last input ends, in seconds.
	Tail float64 `yaml:"tail"`
	// ResampleQuality converts inputs recorded at another rate: fast,
	// balanced, best or very-high.
	ResampleQuality string  `yaml:"resample_quality"`
	Inputs          []Input `yaml:"inputs"`
	Buses           []Bus   `yaml:"buses"`
}

// Input places an audio file on a mixer channel.
type Input struct {
	File    string          `yaml:"file"`
	Channel int             `yaml:"channel"`
	Start   float64         `yaml:"start"`
	FadeIn  float64         `yaml:"fade_in"`
	FadeOut float64         `yaml:"fade_out"`
	Params  ChannelSettings `yaml:"params"`
}

// ChannelSettings mirrors channel.Params with scene file names.
type ChannelSettings struct {
	PreGain            float64 `yaml:"pre_gain"`
	Lag                float64 `yaml:"lag"`
	LowShelfFrequency  float64 `yaml:"low_shelf_freq"`
	LowShelfGain       float64 `yaml:"low_shelf_gain"`
	HighShelfFrequency float64 `yaml:"high_shelf_freq"`
	HighShelfGain      float64 `yaml:"high_shelf_gain"`
	Threshold          float64 `yaml:"threshold"`
	Ratio              float64 `yaml:"ratio"`
	Attack             float64 `yaml:"attack"`
	Release            float64 `yaml:"release"`
	SendBus            int     `yaml:"send_bus"`
	Send               float64 `yaml:"send"`
	PostGain           float64 `yaml:"post_gain"`
	Pan                float64 `yaml:"pan"`
}

// Bus configures a reverb aux bus. An empty Preset uses the explicit
// values.
type Bus struct {
	ID        int     `yaml:"id"`
	Preset    string  `yaml:"preset"`
	Wet       float64 `yaml:"wet"`
	PreDelay  float64 `yaml:"pre_delay"`
	BandWidth float64 `yaml:"bandwidth"`
	Diffuse   float64 `yaml:"diffuse"`
	Decay     float64 `yaml:"decay"`
	Damping   float64 `yaml:"damping"`
	Excursion float64 `yaml:"excursion"`
}

func defaultScene() Scene {
	f := core.DefaultFormat()
	return Scene{
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
		BlockSize:  f.BlockSize,
		Output:     "mix.wav",
		Tail:       1,

		ResampleQuality: resample.QualityBalanced.String(),
	}
}

func defaultChannelSettings() ChannelSettings {
	p := channel.DefaultParams()
	return ChannelSettings{
		PreGain:            p.PreGain,
		Lag:                p.Lag,
		LowShelfFrequency:  p.LowShelfFrequency,
		LowShelfGain:       p.LowShelfGain,
		HighShelfFrequency: p.HighShelfFrequency,
		HighShelfGain:      p.HighShelfGain,
		Threshold:          p.DynamicsThreshold,
		Ratio:              p.DynamicsRatio,
		Attack:             p.DynamicsAttack,
		Release:            p.DynamicsRelease,
		SendBus:            p.AuxSendID,
		Send:               p.AuxSend,
		PostGain:           p.PostGain,
		Pan:                p.Pan,
	}
}

func defaultBus() Bus {
	r := auxbus.DefaultParams().Reverb
	return Bus{
		Wet:       r.Wet,
		PreDelay:  r.PreDelay,
		BandWidth: r.BandWidth,
		Diffuse:   r.Diffuse,
		Decay:     r.Decay,
		Damping:   r.Damping,
		Excursion: r.Excursion,
	}
}

// UnmarshalYAML fills the fields the document leaves out with channel
// defaults.
func (in *Input) UnmarshalYAML(n *yaml.Node) error {
	type plain Input
	p := plain{Params: defaultChannelSettings()}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*in = Input(p)
	return nil
}

// UnmarshalYAML fills the fields the document leaves out with plate
// defaults.
func (b *Bus) UnmarshalYAML(n *yaml.Node) error {
	type plain Bus
	p := plain(defaultBus())
	if err := n.Decode(&p); err != nil {
		return err
	}
	*b = Bus(p)
	return nil
}

// LoadScene decodes and validates a scene document.
func LoadScene(r io.Reader) (*Scene, error) {
	s := defaultScene()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSceneFile reads a scene from path.
func LoadSceneFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadScene(f)
}

// Format returns the mixer format of the scene.
func (s *Scene) Format() core.Format {
	return core.Format{SampleRate: s.SampleRate, Channels: s.Channels, BlockSize: s.BlockSize}
}

// Quality returns the resampling quality for inputs at another rate.
func (s *Scene) Quality() (resample.Quality, error) {
	return resample.ParseQuality(s.ResampleQuality)
}

// Validate checks the format, identities and time values.
func (s *Scene) Validate() error {
	if err := s.Format().Validate(); err != nil {
		return fmt.Errorf("%w: %w", errScene, err)
	}
	if s.Tail < 0 {
		return fmt.Errorf("%w: negative tail %v", errScene, s.Tail)
	}
	if _, err := s.Quality(); err != nil {
		return fmt.Errorf("%w: %w", errScene, err)
	}

	seen := make(map[int]bool, len(s.Inputs))
	for i, in := range s.Inputs {
		switch {
		case in.File == "":
			return fmt.Errorf("%w: input %d has no file", errScene, i)
		case in.Channel < 0:
			return fmt.Errorf("%w: input %d: negative channel %d", errScene, i, in.Channel)
		case seen[in.Channel]:
			return fmt.Errorf("%w: channel %d used twice", errScene, in.Channel)
		case in.Start < 0 || in.FadeIn < 0 || in.FadeOut < 0:
			return fmt.Errorf("%w: input %d: negative time", errScene, i)
		}
		seen[in.Channel] = true
	}

	buses := make(map[int]bool, len(s.Buses))
	for _, b := range s.Buses {
		if b.ID < 0 {
			return fmt.Errorf("%w: negative bus id %d", errScene, b.ID)
		}
		if buses[b.ID] {
			return fmt.Errorf("%w: bus %d defined twice", errScene, b.ID)
		}
		if _, err := b.Params(); err != nil {
			return fmt.Errorf("%w: bus %d: %w", errScene, b.ID, err)
		}
		buses[b.ID] = true
	}
	for _, in := range s.Inputs {
		if id := in.Params.SendBus; id != channel.NoSend && !buses[id] {
			return fmt.Errorf("%w: channel %d sends to undefined bus %d", errScene, in.Channel, id)
		}
	}
	return nil
}

// Params converts the settings to channel parameters.
func (c ChannelSettings) Params() channel.Params {
	return channel.Params{
		PreGain:            c.PreGain,
		Lag:                c.Lag,
		LowShelfFrequency:  c.LowShelfFrequency,
		LowShelfGain:       c.LowShelfGain,
		HighShelfFrequency: c.HighShelfFrequency,
		HighShelfGain:      c.HighShelfGain,
		DynamicsThreshold:  c.Threshold,
		DynamicsRatio:      c.Ratio,
		DynamicsAttack:     c.Attack,
		DynamicsRelease:    c.Release,
		AuxSendID:          c.SendBus,
		AuxSend:            c.Send,
		PostGain:           c.PostGain,
		Pan:                c.Pan,
	}
}

// Params converts the bus to aux parameters.
func (b Bus) Params() (auxbus.Params, error) {
	if b.Preset != "" {
		preset, err := reverb.ParsePreset(b.Preset)
		if err != nil {
			return auxbus.Params{}, err
		}
		return auxbus.PresetParams(preset, b.Wet), nil
	}
	return auxbus.Params{
		Preset: auxbus.Explicit,
		Reverb: auxbus.ReverbParams{
			PreDelay:  b.PreDelay,
			BandWidth: b.BandWidth,
			Diffuse:   b.Diffuse,
			Decay:     b.Decay,
			Damping:   b.Damping,
			Excursion: b.Excursion,
			Wet:       b.Wet,
		},
	}, nil
}
