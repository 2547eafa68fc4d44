// Package resample converts sample rates by rational factors with a
// polyphase windowed-sinc FIR.
//
// Quality modes:
//
//	mode            taps/phase   nominal stopband
//	QualityFast     16           ~55 dB
//	QualityBalanced 32           ~75 dB
//	QualityBest     64           ~90 dB
//	QualityVeryHigh go-audio-resampler multi-stage engine
//
// Resampler streams one channel; PCM converts a whole interleaved 16-bit
// buffer with the filter delay removed.
package resample
