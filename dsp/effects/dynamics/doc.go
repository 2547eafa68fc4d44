// Package dynamics provides a combined compressor, limiter and noise gate.
//
// [Processor] follows the classic mda Dynamics curve shaping. All ten
// controls are normalized to [0,1] and mapped to internal coefficients on
// [Processor.Update]. Depending on the derived coefficients the unit runs
// either a compressor-only loop or the full compressor/gate/limiter loop.
package dynamics
