package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Step returns 0 when x is below edge and 1 otherwise.
func Step[T constraints.Float](edge, x T) T {
	if x < edge {
		return 0
	}
	return 1
}

// SmoothStep performs Hermite interpolation between 0 and 1 when edge0 < x < edge1.
// A degenerate range (edge0 >= edge1) collapses to a hard Step at edge0, so callers
// never divide by zero.
func SmoothStep[T constraints.Float](edge0, edge1, x T) T {
	if edge1 <= edge0 {
		return Step(edge0, x)
	}
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// Lerp linearly interpolates between a and b. It returns a and b exactly at
// t = 0 and t = 1.
func Lerp[T constraints.Float](a, b, t T) T {
	return a*(1-t) + b*t
}
