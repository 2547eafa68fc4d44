package interp

// Linear2 interpolates from x0 to x1 at fraction t in [0,1].
func Linear2(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}
