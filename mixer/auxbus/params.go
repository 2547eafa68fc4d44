package auxbus

import "github.com/cwbudde/algo-mixer/dsp/effects/reverb"

// Explicit selects the values of Params.Reverb instead of a preset.
const Explicit reverb.Preset = -1

// ReverbParams are the plate controls of a bus. Wet is a level in dB; the
// remaining fields use the plate's normalized ranges.
type ReverbParams struct {
	PreDelay  float64
	BandWidth float64
	Diffuse   float64
	Decay     float64
	Damping   float64
	Excursion float64
	Wet       float64 // dB
}

// Params are the absolute settings of one bus for one block.
type Params struct {
	// Preset replaces every reverb control except Wet when it names a
	// defined preset.
	Preset reverb.Preset
	Reverb ReverbParams
}

// DefaultParams returns explicit plate defaults at full wet level.
func DefaultParams() Params {
	d := reverb.DefaultParams()
	return Params{
		Preset: Explicit,
		Reverb: ReverbParams{
			PreDelay:  d.PreDelay,
			BandWidth: d.BandWidth,
			Diffuse:   d.Diffuse,
			Decay:     d.Decay,
			Damping:   d.Damping,
			Excursion: d.Excursion,
		},
	}
}

// PresetParams returns settings for preset at the given wet level.
func PresetParams(preset reverb.Preset, wetDB float64) Params {
	return Params{Preset: preset, Reverb: ReverbParams{Wet: wetDB}}
}
