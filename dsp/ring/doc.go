// Package ring provides growable multi-channel ring buffers.
//
// Float stores planar float64 audio and backs time-shifting effects such as
// the lag line. Int16 stores interleaved 16-bit PCM frames and is used as a
// per-channel input queue that converts to float on read.
//
// Both types hold Remain valid frames that start at a read cursor derived
// from the write cursor, so reading never moves data. Writes grow the
// capacity on demand; growing linearizes the resident frames to the start
// of the new storage. Capacity never shrinks implicitly. Reads that ask for
// more than is resident return a short count instead of failing.
package ring
