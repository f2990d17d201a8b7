package rope

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const epsilon = 1e-9

// unit normalizes v, reporting false for a (near) zero vector.
func unit(v r3.Vec) (r3.Vec, bool) {
	l := r3.Norm(v)
	if l < epsilon {
		return r3.Vec{}, false
	}
	return r3.Scale(1/l, v), true
}

// wrapAngle maps a to (-pi, pi].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
