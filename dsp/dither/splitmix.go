package dither

const golden32 = 0x9e3779b9

// SplitMix32 returns the output for state x.
func SplitMix32(x uint32) uint32 {
	z := x + golden32
	z = (z ^ z>>16) * 0x85ebca6b
	z = (z ^ z>>13) * 0xc2b2ae35
	return z ^ z>>16
}

// SplitMix32Next returns the state following x.
func SplitMix32Next(x uint32) uint32 {
	return x + golden32
}
