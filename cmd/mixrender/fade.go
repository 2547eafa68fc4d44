package main

import (
	"math"

	"github.com/cwbudde/algo-mixer/internal/vecmath"
)

// fadeEnvelope returns per-frame gains rising linearly over the first
// fadeIn frames and falling over the last fadeOut frames.
func fadeEnvelope(frames, fadeIn, fadeOut int) []float64 {
	env := make([]float64, frames)
	for i := range env {
		g := 1.0
		if fadeIn > 0 && i < fadeIn {
			g = float64(i) / float64(fadeIn)
		}
		if k := frames - 1 - i; fadeOut > 0 && k < fadeOut {
			g = math.Min(g, float64(k)/float64(fadeOut))
		}
		env[i] = g
	}
	return env
}

// fade applies linear fades given in seconds.
func (c *clip) fade(fadeIn, fadeOut float64) {
	in := int(math.Round(fadeIn * float64(c.sampleRate)))
	out := int(math.Round(fadeOut * float64(c.sampleRate)))
	if in <= 0 && out <= 0 {
		return
	}
	n := c.frames()
	env := fadeEnvelope(n, in, out)
	plane := make([]float64, n)
	for ch := range c.channels {
		for i := range n {
			plane[i] = float64(c.pcm[i*c.channels+ch])
		}
		vecmath.MulBlockInPlace(plane, env)
		for i, v := range plane {
			c.pcm[i*c.channels+ch] = int16(math.Round(v))
		}
	}
}
