package rope

import "math"

// lengthToCount converts a chain length to a particle count in [2, capacity].
func (r *Rope) lengthToCount(length float64) int {
	n := int(math.Round(length/r.rest)) + 1
	if n < 2 {
		n = 2
	}
	if c := r.chain.capacity(); n > c {
		n = c
	}
	return n
}

// resizeTo grows or shrinks the live chain to match length. Growth stacks
// new particles on the tail at rest; shrinking leaves the slots inert.
func (r *Rope) resizeTo(length float64) {
	r.chain.resize(r.lengthToCount(length))
}

// VisibleLength returns the simulated chain length.
func (r *Rope) VisibleLength() float64 {
	return float64(r.chain.live-1) * r.rest
}

// WoundLength returns the length of rope coiled on the post.
func (r *Rope) WoundLength() float64 {
	if r.state != StateCaptured {
		return 0
	}
	return r.session.wrap * r.session.arcPerRadian
}

// RequestedLength returns the feeder's last accepted visible length.
func (r *Rope) RequestedLength() float64 {
	return r.requested
}

// SetVisibleLength asks for a new visible length, clamped to
// [MinLength, MaxLength]. Outside a winding session it applies at once;
// during one the winding owns the length.
func (r *Rope) SetVisibleLength(meters float64) {
	r.requested = clamp(meters, r.params.MinLength, r.params.MaxLength)
	if r.state != StateCaptured {
		r.resizeTo(r.requested)
		r.kinematicFrom = r.chain.live
	}
}
