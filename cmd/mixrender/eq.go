package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// octaveBands are the report columns in Hz.
var octaveBands = []float64{31.5, 63, 125, 250, 500, 1000, 2000, 4000, 8000, 16000}

func bandLabel(hz float64) string {
	if hz >= 1000 {
		return strconv.FormatFloat(hz/1000, 'f', -1, 64) + "k"
	}
	return strconv.FormatFloat(hz, 'f', -1, 64)
}

// writeEQ prints the shelf response of every scene channel in dB at the
// octave bands below Nyquist.
func writeEQ(w io.Writer, s *Scene) error {
	m, err := scratchMixer(s)
	if err != nil {
		return err
	}
	var bands []float64
	for _, hz := range octaveBands {
		if hz < s.SampleRate/2 {
			bands = append(bands, hz)
		}
	}

	var b strings.Builder
	b.WriteString("eq (dB)     ")
	for _, hz := range bands {
		fmt.Fprintf(&b, " %6s", bandLabel(hz))
	}
	b.WriteByte('\n')

	ids := make([]int, 0, len(s.Inputs))
	for _, in := range s.Inputs {
		ids = append(ids, in.Channel)
	}
	slices.Sort(ids)
	for _, id := range ids {
		resp, ok := m.ChannelEQResponse(id, bands)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "channel %4d", id)
		for _, db := range resp {
			fmt.Fprintf(&b, " %+6.1f", db)
		}
		b.WriteByte('\n')
	}
	_, err = io.WriteString(w, b.String())
	return err
}
