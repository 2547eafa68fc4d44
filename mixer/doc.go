// Package mixer drives the per-identity channel strips and the aux reverb
// buses over blocks of interleaved 16-bit PCM.
//
// A host sets the stream format once, then for every block updates the
// aux buses and channels it wants heard and calls Mix on the master
// buffer. Mix adds the rendered channels and buses to the master signal,
// runs a soft limiter and writes dithered PCM back in place.
//
// Usage:
//
//	m := mixer.New(mixer.WithLogger(log))
//	if err := m.SetFormat(core.Format{SampleRate: 48000, Channels: 2, BlockSize: 1024}); err != nil {
//		return err
//	}
//	m.UpdateAux(0, auxbus.PresetParams(reverb.PresetRoom, -6))
//	m.UpdateChannel(1, params, pcm, frames)
//	err := m.Mix(master, frames)
//
// A Mixer is not safe for concurrent use.
package mixer
