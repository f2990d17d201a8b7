// Package rope simulates a windable, cuttable rope: a Verlet particle chain
// with distance constraints, a winding state machine around a cylindrical
// post, a length budget and a split operator. The host drives it with one
// Tick per fixed step; every operation either takes effect or is a no-op.
package rope

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/mesh"
)

// State is the winding state of a rope.
type State uint8

const (
	StateFree     State = iota // Not interacting with the post
	StateHover                 // Reserved for friction-based capture; never entered
	StateCaptured              // Wrapping or unwrapping around the post
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateHover:
		return "hover"
	case StateCaptured:
		return "captured"
	}
	return "unknown"
}

// Tick phase names reported to a Profiler.
const (
	PhaseIntegrate   = "integrate"
	PhasePost        = "post"
	PhaseWinding     = "winding"
	PhaseConstraints = "constraints"
	PhaseMesh        = "mesh"
)

// Profiler receives phase boundaries during Tick.
type Profiler interface {
	StartPhase(phase string)
}

// Input is the read-only collaborator state for one tick.
type Input struct {
	Held   bool    // Grab subsystem reports the handle as held
	Grip   *r3.Vec // World grip point; nil leaves the tip unconstrained
	Anchor r3.Vec  // Feed root, used when PinRoot is set
	Post   *Post   // nil substitutes DefaultPost
}

// Rope is one simulated rope instance. It owns its particle and mesh
// buffers exclusively.
type Rope struct {
	params Params
	rest   float64
	chain  chain

	state         State
	session       session
	cooldown      float64
	kinematicFrom int // Particles at or beyond this index are placed, not solved

	requested float64 // Visible length asked for by the feeder

	gripTarget r3.Vec
	tube       *mesh.Tube
	mesh       mesh.Mesh

	tick     int64
	events   []Event
	profiler Profiler
}

// New creates a rope whose StartLength hangs from root along dir.
// A zero dir hangs the rope straight down.
func New(p Params, root, dir r3.Vec) *Rope {
	if p.ParticlesPerMeter <= 0 {
		p.ParticlesPerMeter = 1
	}
	if p.Iterations < 1 {
		p.Iterations = 1
	}
	if p.Damping <= 0 || p.Damping > 1 {
		p.Damping = 1
	}
	if p.MaxLength < p.MinLength {
		p.MaxLength = p.MinLength
	}
	rest := p.RestLength()
	if need := int(math.Ceil(math.Max(p.StartLength, p.MaxLength)/rest)) + 1; p.Capacity < need {
		p.Capacity = need
	}
	if p.Capacity < 2 {
		p.Capacity = 2
	}

	r := &Rope{
		params: p,
		rest:   rest,
		chain:  newChain(p.Capacity),
		tube:   mesh.NewTube(p.MeshSides, p.MeshRadius),
	}
	r.requested = p.StartLength

	d, ok := unit(dir)
	if !ok {
		d = r3.Vec{Y: -1}
	}
	r.chain.live = r.lengthToCount(p.StartLength)
	for i := 0; i < r.chain.live; i++ {
		r.chain.place(i, r3.Add(root, r3.Scale(float64(i)*rest, d)))
	}
	r.kinematicFrom = r.chain.live
	r.gripTarget = r.chain.pos[r.chain.last()]
	r.rebuildMesh()
	return r
}

// SetProfiler installs a phase profiler; nil disables profiling.
func (r *Rope) SetProfiler(p Profiler) {
	r.profiler = p
}

func (r *Rope) phase(name string) {
	if r.profiler != nil {
		r.profiler.StartPhase(name)
	}
}

// Tick advances the rope by one fixed step: integrate, resolve the post,
// update winding (and the length budget), relax constraints, rebuild mesh.
func (r *Rope) Tick(dt float64, in Input) {
	if dt <= 0 {
		return
	}
	r.tick++

	r.phase(PhaseIntegrate)
	var accel r3.Vec
	if r.params.UseGravity {
		accel = r.params.Gravity
	}
	r.chain.integrate(dt, accel, r.params.Damping)

	r.phase(PhasePost)
	post := resolvePost(in.Post)

	r.phase(PhaseWinding)
	r.updateWinding(dt, in, post)

	r.phase(PhaseConstraints)
	r.solveConstraints(in)

	r.phase(PhaseMesh)
	r.rebuildMesh()
}

func (r *Rope) rebuildMesh() {
	r.tube.Build(r.chain.positions(), &r.mesh)
}

// Params returns the creation parameters.
func (r *Rope) Params() Params { return r.params }

// State returns the current winding state.
func (r *Rope) State() State { return r.state }

// Committed reports whether captured motion has been accepted as winding.
func (r *Rope) Committed() bool { return r.state == StateCaptured && r.session.committed }

// WrapAngle returns the accumulated wrap angle in radians (always >= 0).
func (r *Rope) WrapAngle() float64 { return r.session.wrap }

// AxialProgress returns how far the coil tip has travelled along the post
// axis since capture.
func (r *Rope) AxialProgress() float64 {
	if r.state != StateCaptured {
		return 0
	}
	return r.session.tipAxial - r.session.baseAxial
}

// GripTarget returns where the grip should be shown: snapped onto the post
// while captured, otherwise the rope tip.
func (r *Rope) GripTarget() r3.Vec {
	if r.state == StateCaptured {
		return r.gripTarget
	}
	return r.chain.pos[r.chain.last()]
}

// LiveCount returns the number of simulated particles.
func (r *Rope) LiveCount() int { return r.chain.live }

// Capacity returns the hard particle capacity fixed at creation.
func (r *Rope) Capacity() int { return r.chain.capacity() }

// RestLength returns the particle spacing.
func (r *Rope) RestLength() float64 { return r.rest }

// Positions returns a copy of the live particle positions.
func (r *Rope) Positions() []r3.Vec {
	out := make([]r3.Vec, r.chain.live)
	copy(out, r.chain.positions())
	return out
}

// Position returns particle i, which must be below LiveCount.
func (r *Rope) Position(i int) r3.Vec { return r.chain.pos[i] }

// Mesh returns the tube mesh rebuilt on the last tick. It is overwritten
// by the next tick.
func (r *Rope) Mesh() *mesh.Mesh { return &r.mesh }

// Ticks returns the number of ticks simulated.
func (r *Rope) Ticks() int64 { return r.tick }
