// Package interp provides interpolation primitives used by delay-based DSP blocks.
//
// [Linear2] is the 2-point linear interpolator used for modulated reads
// inside the plate reverb tank of [delay.Line].
package interp
