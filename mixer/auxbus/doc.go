// Package auxbus keeps the shared reverb buses that channel sends feed.
//
// A bus accumulates sends for one block, runs them through a plate reverb
// and adds the wet result to the master mix. Only buses whose parameters
// were refreshed in the current generation are rendered.
package auxbus
