package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	clear(buf)
}

// CopyInto copies src into dst and returns the number of copied elements.
func CopyInto(dst, src []float64) int {
	return copy(dst, src)
}

// ZeroPlanes zeroes the first n samples of every plane. Planes shorter
// than n are zeroed entirely.
func ZeroPlanes(planes [][]float64, n int) {
	for _, p := range planes {
		if n < len(p) {
			p = p[:n]
		}
		clear(p)
	}
}

// CopyPlanes copies the first n samples of every src plane into dst.
func CopyPlanes(dst, src [][]float64, n int) {
	for ch := range min(len(dst), len(src)) {
		copy(dst[ch][:n], src[ch][:n])
	}
}
