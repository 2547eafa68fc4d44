package dynamics

import (
	"math"
	"strconv"
)

func itoa(v float64) string {
	return strconv.FormatInt(int64(v), 10)
}

// ThresholdString formats the threshold in dB.
func (d *Processor) ThresholdString() string {
	return itoa(40*d.p.Threshold - 40)
}

// RatioString formats the ratio as n:1, "oo" for infinity. Negative values
// are expander-like settings above the limiting range.
func (d *Processor) RatioString() string {
	r := d.p.Ratio
	var f float64
	switch {
	case r > 0.58 && r < 0.62:
		return "oo"
	case r > 0.58:
		f = -d.rat
	case r < 0.2:
		f = 0.5 + 2.5*r
	default:
		f = 1 / (1 - d.rat)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// OutputString formats the output trim in dB.
func (d *Processor) OutputString() string {
	return itoa(40 * d.p.Output)
}

// AttackString formats the attack time in microseconds.
func (d *Processor) AttackString() string {
	return itoa(-301030.1 / (d.sampleRate * math.Log10(1-d.att)))
}

// ReleaseString formats the release time in milliseconds.
func (d *Processor) ReleaseString() string {
	return itoa(-301.0301 / (d.sampleRate * math.Log10(1-d.rel)))
}

// LimiterString formats the limiter ceiling in dB or "off".
func (d *Processor) LimiterString() string {
	if d.lthr == 0 {
		return "off"
	}
	return itoa(30*d.p.Limiter - 20)
}

// GateThresholdString formats the gate threshold in dB or "off".
func (d *Processor) GateThresholdString() string {
	if d.xthr == 0 {
		return "off"
	}
	return itoa(60*d.p.GateThresh - 60)
}

// GateAttackString formats the gate attack in microseconds.
func (d *Processor) GateAttackString() string {
	return itoa(-301030.1 / (d.sampleRate * math.Log10(1-d.gatt)))
}

// GateDecayString formats the gate decay in milliseconds.
func (d *Processor) GateDecayString() string {
	return itoa(-1806 / (d.sampleRate * math.Log10(d.xrat)))
}

// MixString formats the wet mix in percent.
func (d *Processor) MixString() string {
	return itoa(100 * d.p.Mix)
}
