package fx

import "math"

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Finite reports whether f is neither NaN nor infinite.
func Finite(f float64) bool {
	return finite(f)
}
