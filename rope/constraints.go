package rope

import "gonum.org/v1/gonum/spatial/r3"

// solveConstraints relaxes every adjacent pair back to the rest length,
// one pair at a time, for the configured number of passes. Pinned
// particles (root, gripped tip, packed coil) absorb no correction.
func (r *Rope) solveConstraints(in Input) {
	c := &r.chain
	last := c.last()
	rest := r.rest
	tipPinned := r.state != StateCaptured && r.params.Grabbable && in.Grip != nil

	weight := func(i int) float64 {
		switch {
		case i == 0 && r.params.PinRoot:
			return 0
		case i == last && tipPinned:
			return 0
		case i >= r.kinematicFrom:
			return 0
		}
		return 1
	}

	for it := 0; it < r.params.Iterations; it++ {
		if r.params.PinRoot {
			c.place(0, in.Anchor)
		}
		if tipPinned {
			c.pos[last] = *in.Grip
		}

		for j := 0; j < last; j++ {
			wa, wb := weight(j), weight(j+1)
			sum := wa + wb
			if sum == 0 {
				continue
			}
			d := r3.Sub(c.pos[j+1], c.pos[j])
			l := r3.Norm(d)
			if l < epsilon {
				continue
			}
			corr := r3.Scale((l-rest)/(l*sum), d)
			c.pos[j] = r3.Add(c.pos[j], r3.Scale(wa, corr))
			c.pos[j+1] = r3.Sub(c.pos[j+1], r3.Scale(wb, corr))
		}
	}
}

// SpacingError returns the summed absolute deviation of every live
// segment from the rest length.
func (r *Rope) SpacingError() float64 {
	c := &r.chain
	var sum float64
	for j := 0; j < c.last(); j++ {
		l := r3.Norm(r3.Sub(c.pos[j+1], c.pos[j]))
		if d := l - r.rest; d < 0 {
			sum -= d
		} else {
			sum += d
		}
	}
	return sum
}
