// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements Direct Form I processing for a single
// second-order section defined by [Coefficients]. Direct Form I keeps the
// last two inputs and outputs, so a coefficient change between blocks
// does not disturb the stored history.
//
// This package provides the processing runtime only. Coefficient design
// lives in dsp/filter/design.
package biquad
