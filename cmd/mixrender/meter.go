package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/cwbudde/algo-mixer/mixer"
	"github.com/cwbudde/algo-mixer/stats/level"
)

type meterKey struct {
	kind mixer.Kind
	id   int
}

// meter collects peak, RMS and DC levels per signal source.
type meter struct {
	levels map[meterKey]*level.Accumulator
}

func newMeter() *meter {
	return &meter{levels: make(map[meterKey]*level.Accumulator)}
}

func (m *meter) OnSignal(kind mixer.Kind, id int, buf [][]float64, channels, samples int) {
	k := meterKey{kind, id}
	acc := m.levels[k]
	if acc == nil {
		acc = level.NewAccumulator()
		m.levels[k] = acc
	}
	for ch := range channels {
		acc.Update(buf[ch][:samples])
	}
}

// Report writes one line per source, ordered by kind and identity.
func (m *meter) Report(w io.Writer) error {
	keys := make([]meterKey, 0, len(m.levels))
	for k := range m.levels {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b meterKey) int {
		if c := cmp.Compare(a.kind, b.kind); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	for _, k := range keys {
		s := m.levels[k].Result()
		if _, err := fmt.Fprintf(w, "%-7s %4d  peak %7.2f dBFS  rms %7.2f dBFS  dc %+.4f\n",
			k.kind, k.id, s.PeakDB(), s.RMSdB(), s.DC); err != nil {
			return err
		}
	}
	return nil
}
