// Package design provides digital IIR filter coefficient designers.
//
// The functions in this package produce biquad coefficients consumable by
// dsp/filter/biquad for runtime processing. All designers follow the RBJ
// audio EQ cookbook. [RBJ] selects the response by [Type]; the named
// helpers (Lowpass, Peak, LowShelf and so on) are shorthands for it.
package design
