package rope

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/config"
)

// TailTemplate names the instance kind spawned for the far side of a cut.
// Physics, material and post are always copied from the source rope.
type TailTemplate struct {
	Name string
}

// WindingParams tunes the post-relative winding state machine.
// Angles are in radians.
type WindingParams struct {
	GripRadius      float64
	UseGripRadius   bool
	CaptureBand     float64
	EndMargin       float64
	CommitAngle     float64
	Deadband        float64
	MaxStep         float64
	Direction       float64 // +1 or -1
	AxialAdvance    float64 // +1 or -1
	Pitch           float64
	DirectionLock   bool
	ReverseFlip     float64
	NearZero        float64
	ReleaseAngle    float64
	ExitTolerance   float64
	ReleaseCooldown float64 // seconds
	DeepenDetent    float64
}

// Params configures a rope instance. Everything here is fixed at creation.
type Params struct {
	ParticlesPerMeter float64
	StartLength       float64
	MinLength         float64
	MaxLength         float64
	Capacity          int // Raised to fit max(StartLength, MaxLength) if lower

	Damping    float64
	Iterations int
	Gravity    r3.Vec
	UseGravity bool

	PinRoot   bool
	Grabbable bool
	Material  string
	Tail      *TailTemplate // nil rejects every split

	MeshSides  int
	MeshRadius float64

	Winding WindingParams
}

// RestLength returns the fixed spacing between neighbouring particles.
func (p Params) RestLength() float64 {
	return 1 / p.ParticlesPerMeter
}

func deg(d float64) float64 {
	return d * math.Pi / 180
}

func vec(v config.Vec3) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// ParamsFromConfig builds engine parameters for a grabbable, feed-rooted rope.
func ParamsFromConfig(cfg *config.Config) Params {
	w := cfg.Winding

	var tail *TailTemplate
	if cfg.Rope.TailTemplate != "" {
		tail = &TailTemplate{Name: cfg.Rope.TailTemplate}
	}

	return Params{
		ParticlesPerMeter: cfg.Rope.ParticlesPerMeter,
		StartLength:       cfg.Rope.StartLength,
		MinLength:         cfg.Rope.MinLength,
		MaxLength:         cfg.Rope.MaxLength,
		Capacity:          cfg.Derived.Capacity,

		Damping:    cfg.Physics.Damping,
		Iterations: cfg.Physics.Iterations,
		Gravity:    vec(cfg.Physics.Gravity),
		UseGravity: cfg.Physics.UseGravity,

		PinRoot:   cfg.Rope.PinRoot,
		Grabbable: true,
		Material:  cfg.Rope.Material,
		Tail:      tail,

		MeshSides:  cfg.Mesh.Sides,
		MeshRadius: cfg.Mesh.Radius,

		Winding: WindingParams{
			GripRadius:      w.GripRadius,
			UseGripRadius:   w.UseGripRadius,
			CaptureBand:     w.CaptureBand,
			EndMargin:       w.EndMargin,
			CommitAngle:     deg(w.CommitDeg),
			Deadband:        deg(w.DeadbandDeg),
			MaxStep:         deg(w.MaxStepDeg),
			Direction:       float64(w.Direction),
			AxialAdvance:    float64(w.AxialAdvance),
			Pitch:           w.Pitch,
			DirectionLock:   w.DirectionLock,
			ReverseFlip:     deg(w.ReverseFlipDeg),
			NearZero:        deg(w.NearZeroDeg),
			ReleaseAngle:    deg(w.ReleaseDeg),
			ExitTolerance:   w.ExitTolerance,
			ReleaseCooldown: w.ReleaseCooldown,
			DeepenDetent:    deg(w.DeepenDetentDeg),
		},
	}
}

// PostFromConfig returns the configured winding post.
func PostFromConfig(cfg *config.Config) Post {
	return Post{
		Center:   vec(cfg.Post.Center),
		Axis:     vec(cfg.Post.Axis),
		HalfSpan: cfg.Post.HalfSpan,
		Radius:   cfg.Post.Radius,
	}
}
