package mixer

import "fmt"

// Kind tells an Observer which part of the mixer produced a signal.
type Kind int

const (
	// KindChannel is the post-effect signal of a channel strip.
	KindChannel Kind = iota
	// KindAux is the wet output of an aux bus.
	KindAux
	// KindOther is the master input before anything is added to it.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindChannel:
		return "channel"
	case KindAux:
		return "aux"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Observer receives every signal that contributes to a mixed block. buf
// is only valid during the call. Observers are not called while the mixer
// is warming up.
type Observer interface {
	OnSignal(kind Kind, id int, buf [][]float64, channels, samples int)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(kind Kind, id int, buf [][]float64, channels, samples int)

// OnSignal calls f.
func (f ObserverFunc) OnSignal(kind Kind, id int, buf [][]float64, channels, samples int) {
	f(kind, id, buf, channels, samples)
}
