package channel

import (
	"math"

	"github.com/cwbudde/algo-mixer/dsp/core"
	"github.com/cwbudde/algo-mixer/dsp/effects/dynamics"
)

// NoSend is the aux send target that disables the send.
const NoSend = -1

// Params are the absolute settings of one channel for one block.
type Params struct {
	PreGain float64 // dB, applied while converting from PCM
	Lag     float64 // seconds

	LowShelfFrequency  float64 // Hz
	LowShelfGain       float64 // dB
	HighShelfFrequency float64 // Hz
	HighShelfGain      float64 // dB

	// Normalized compressor controls. A ratio of dynamics.RatioDisabled
	// bypasses the compressor.
	DynamicsThreshold float64
	DynamicsRatio     float64
	DynamicsAttack    float64
	DynamicsRelease   float64

	AuxSendID int     // aux bus identity or NoSend
	AuxSend   float64 // dB

	PostGain float64 // dB
	Pan      float64 // -1 (left) to 1 (right)
}

// DefaultParams returns the settings a new channel starts with.
func DefaultParams() Params {
	return Params{
		LowShelfFrequency:  200,
		HighShelfFrequency: 3000,
		DynamicsThreshold:  0.4,
		DynamicsRatio:      0.6,
		DynamicsAttack:     0.18,
		DynamicsRelease:    0.55,
		AuxSendID:          NoSend,
		AuxSend:            core.SilenceDB,
	}
}

// NeutralParams returns settings under which every stage is bypassed.
func NeutralParams() Params {
	p := DefaultParams()
	p.DynamicsRatio = dynamics.RatioDisabled
	return p
}

// ParamStrings holds the display form of a channel's committed settings.
type ParamStrings struct {
	PreGain            string
	Lag                string
	LowShelfFrequency  string
	LowShelfGain       string
	HighShelfFrequency string
	HighShelfGain      string
	DynamicsThreshold  string
	DynamicsRatio      string
	DynamicsAttack     string
	DynamicsRelease    string
	AuxSend            string
	PostGain           string
	Pan                string
}

// panGains returns the matrix of the stereo pan law. Centre pan is unity
// on both sides; a hard pan folds both inputs into the active side.
func panGains(pan, gain float64) (ll, rl, lr, rr, l, r float64) {
	p := (pan + 1) * 0.5
	th := math.Pi / 2 * p
	l = math.Cos(th) / math.Cos(math.Pi/4) * gain
	r = math.Sin(th) / math.Sin(math.Pi/4) * gain
	ll, rr = 1.0, 1.0
	if p < 0.5 {
		ll = 0.5 + p
	}
	if p > 0.5 {
		rr = 1.5 - p
	}
	return ll, 1 - ll, 1 - rr, rr, l, r
}
