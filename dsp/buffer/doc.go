// Package buffer provides planar multi-channel float64 storage for block
// processing. Array2D owns a fixed-shape zero-initialized buffer, Pool
// recycles Array2D values of a given shape, and PingPong swaps two scratch
// buffers between conditionally applied processing stages.
package buffer
