// Package reverb provides a plate reverb after the Dattorro figure-of-eight
// tank topology.
//
// [Plate] folds its input to mono through a pre-delay ring, runs four
// input diffusers, then feeds two cross-coupled decay tanks whose first
// allpass is modulated by a 1 Hz cosine. Fourteen output taps form the
// left and right wet signals. Line lengths and taps are fixed fractions
// of a second and are rebuilt only when the sample rate changes.
package reverb
