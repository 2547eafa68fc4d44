// Package channel keeps the per-identity effect chains of a mixer.
//
// Every identity owns an input ring of interleaved PCM, a lag line, a low
// and a high shelving filter, a compressor and a send to an aux bus. The
// Registry creates chains lazily, resets them after gaps in use and
// removes them once they have been idle for a full collection window.
package channel
