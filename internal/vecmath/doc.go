// Package vecmath collects the block kernels used on mixing buffers.
//
// The kernels delegate to algo-vecmath, tphakala/simd and gonum floats,
// each of which picks its own SIMD path at run time. Length mismatches
// panic, as in the underlying libraries.
package vecmath
