// Package dither provides per-channel high-passed triangular dither for
// float to 16-bit conversion.
//
// Noise is drawn from a splitmix32 generator shared by all channels. Each
// channel subtracts its previous draw from the current one, which gives a
// triangular PDF with a first-order high-pass spectrum. Samples at or
// below -144 dBFS are scaled without noise so digital silence stays silent.
package dither
