package mixer

const pcmToFloat = 1.0 / 32768

// deinterleave converts n frames of interleaved PCM into planes scaled to
// [-1, 1).
func deinterleave(dst [][]float64, src []int16, channels, n int) {
	switch channels {
	case 1:
		d := dst[0][:n]
		for i, v := range src[:n] {
			d[i] = float64(v) * pcmToFloat
		}
	case 2:
		d0, d1 := dst[0][:n], dst[1][:n]
		for i := range n {
			d0[i] = float64(src[2*i]) * pcmToFloat
			d1[i] = float64(src[2*i+1]) * pcmToFloat
		}
	default:
		for i := range n {
			for ch := range channels {
				dst[ch][i] = float64(src[i*channels+ch]) * pcmToFloat
			}
		}
	}
}
