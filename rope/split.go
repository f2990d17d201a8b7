package rope

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/mesh"
)

// ClosestParticleIndex returns the live particle nearest to p, or -1 when
// none lies within maxDistance.
func (r *Rope) ClosestParticleIndex(p r3.Vec, maxDistance float64) int {
	best := -1
	bestD2 := maxDistance * maxDistance
	for i, x := range r.chain.positions() {
		if d2 := r3.Norm2(r3.Sub(x, p)); d2 <= bestD2 {
			best = i
			bestD2 = d2
		}
	}
	return best
}

// Split cuts the rope at particle index, which must satisfy
// 0 < index < LiveCount-1. The receiver keeps particles [0, index] with the
// last one moved to cut; a new rope receives particles [index, LiveCount)
// with the source physics and material. The tail is a passive body: no
// pinned root and no grab handle. Returns false, with no state change, when the
// index is out of range or no tail template is configured.
func (r *Rope) Split(index int, cut r3.Vec) (*Rope, bool) {
	n := r.chain.live
	if index <= 0 || index >= n-1 || r.params.Tail == nil {
		return nil, false
	}

	if r.state == StateCaptured {
		r.release()
	}

	tp := r.params
	tp.PinRoot = false
	tp.Grabbable = false
	tp.Capacity = n - index
	tp.StartLength = float64(n-index-1) * r.rest
	tp.MinLength = math.Min(tp.MinLength, tp.StartLength)
	tp.MaxLength = tp.StartLength

	tail := &Rope{
		params: tp,
		rest:   r.rest,
		chain:  newChain(tp.Capacity),
		tube:   mesh.NewTube(tp.MeshSides, tp.MeshRadius),
		tick:   r.tick,
	}
	copy(tail.chain.pos, r.chain.pos[index:n])
	copy(tail.chain.prev, r.chain.prev[index:n])
	tail.chain.live = n - index
	tail.kinematicFrom = tail.chain.live
	tail.requested = tail.VisibleLength()

	if tail.chain.live >= 2 {
		// Give the new free end the velocity its neighbour has along the
		// segment, so the first tick sees no impulse.
		p0, p1 := tail.chain.pos[0], tail.chain.pos[1]
		if d, ok := unit(r3.Sub(p1, p0)); ok {
			v1 := r3.Sub(p1, tail.chain.prev[1])
			tail.chain.prev[0] = r3.Sub(p0, r3.Scale(r3.Dot(v1, d), d))
		}
	}

	r.chain.live = index + 1
	r.chain.place(index, cut)
	r.kinematicFrom = r.chain.live
	r.requested = r.VisibleLength()

	r.rebuildMesh()
	tail.rebuildMesh()
	r.emit(EventCut, index)
	return tail, true
}
