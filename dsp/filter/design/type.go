package design

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned for a filter type outside the defined set.
var ErrUnknownType = errors.New("design: unknown filter type")

// Type selects an RBJ response.
type Type int

// Filter types. The numeric values are stable and used in scene files.
const (
	LowPass Type = iota
	HighPass
	BandPass
	Notch
	LowShelf
	HighShelf
	Peaking
	AllPass
)

var typeNames = [...]string{
	LowPass:   "lowpass",
	HighPass:  "highpass",
	BandPass:  "bandpass",
	Notch:     "notch",
	LowShelf:  "lowshelf",
	HighShelf: "highshelf",
	Peaking:   "peaking",
	AllPass:   "allpass",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Valid reports whether t is one of the defined types.
func (t Type) Valid() bool {
	return t >= 0 && int(t) < len(typeNames)
}

// ParseType resolves a type name as returned by String.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range typeNames {
		if name == s {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}
