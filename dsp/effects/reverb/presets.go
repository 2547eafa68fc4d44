package reverb

import (
	"fmt"
	"strings"
)

// Preset selects a canned set of plate controls.
type Preset int

const (
	PresetRoom Preset = iota
	PresetChurch
)

var presets = [...]struct {
	name string
	p    Params
}{
	PresetRoom: {"room", Params{
		BandWidth: 0.56,
		PreDelay:  0.1,
		Diffuse:   0.5,
		Decay:     0.32,
		Damping:   0.64,
		Excursion: 0,
	}},
	PresetChurch: {"church", Params{
		BandWidth: 0.98,
		PreDelay:  0.05,
		Diffuse:   0.9,
		Decay:     0.82,
		Damping:   0.29,
		Excursion: 0.8,
	}},
}

func (p Preset) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Preset(%d)", int(p))
	}
	return presets[p].name
}

// Valid reports whether p names a defined preset.
func (p Preset) Valid() bool {
	return p >= 0 && int(p) < len(presets)
}

// Params returns the preset controls. Wet and Dry are zero; callers set
// the levels they need.
func (p Preset) Params() (Params, error) {
	if !p.Valid() {
		return Params{}, fmt.Errorf("reverb: unknown preset %d", int(p))
	}
	return presets[p].p, nil
}

// ParsePreset resolves a preset by name.
func ParsePreset(name string) (Preset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, ps := range presets {
		if ps.name == name {
			return Preset(i), nil
		}
	}
	return 0, fmt.Errorf("reverb: unknown preset %q", name)
}
