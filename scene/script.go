package scene

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/config"
	"github.com/pthm-cable/coil/rope"
)

// Script is a canned grab interaction used by headless runs and tuning:
// approach the post, wind, hold, unwind until release, let go, and
// optionally cut the rope once it hangs free.
type Script struct {
	Post      rope.Post
	Radius    float64 // Grip distance from the post axis
	Axial     float64 // Grip offset along the axis from the post center
	Direction float64 // +1 or -1, the winding direction

	ApproachRadius float64
	ApproachSec    float64
	Turns          float64
	TurnSec        float64 // Seconds per full turn
	HoldSec        float64
	UnwindTurns    float64
	LetGoSec       float64
	CutAtSec       float64 // Script time of the cut, <= 0 disables it
}

// ScriptFrame is the grab state at one instant of a Script.
type ScriptFrame struct {
	Held bool
	Grip r3.Vec
}

// DefaultScript winds the configured post the given number of turns.
func DefaultScript(cfg *config.Config, turns float64) Script {
	post := rope.PostFromConfig(cfg)
	radius := post.Radius
	if cfg.Winding.UseGripRadius {
		radius += cfg.Winding.GripRadius
	}
	dir := 1.0
	if cfg.Winding.Direction < 0 {
		dir = -1
	}
	sc := Script{
		Post:           post,
		Radius:         radius,
		Direction:      dir,
		ApproachRadius: radius + 0.15,
		ApproachSec:    1.0,
		Turns:          turns,
		TurnSec:        1.5,
		HoldSec:        1.0,
		// The direction lock swallows the first reverse sweep.
		UnwindTurns: turns + (cfg.Winding.ReverseFlipDeg+cfg.Winding.CommitDeg)/360 + 0.05,
		LetGoSec:    2.0,
	}
	sc.CutAtSec = sc.Duration() - 1.0
	return sc
}

// Duration returns the script length in seconds.
func (sc Script) Duration() float64 {
	return sc.ApproachSec + (sc.Turns+sc.UnwindTurns)*sc.TurnSec + sc.HoldSec + sc.LetGoSec
}

// frame returns an orthonormal pair perpendicular to the post axis.
func (sc Script) frame() (axis, u, v r3.Vec) {
	axis = r3.Unit(sc.Post.Axis)
	ref := r3.Vec{X: 1}
	if math.Abs(r3.Dot(axis, ref)) > 0.9 {
		ref = r3.Vec{Z: 1}
	}
	u = r3.Unit(r3.Sub(ref, r3.Scale(r3.Dot(ref, axis), axis)))
	v = r3.Cross(axis, u)
	return axis, u, v
}

func (sc Script) point(azimuth, radius float64) r3.Vec {
	axis, u, v := sc.frame()
	dir := r3.Add(r3.Scale(math.Cos(azimuth), u), r3.Scale(math.Sin(azimuth), v))
	return r3.Add(r3.Add(sc.Post.Center, r3.Scale(sc.Axial, axis)), r3.Scale(radius, dir))
}

// At returns the grab state t seconds into the script.
func (sc Script) At(t float64) ScriptFrame {
	if t < sc.ApproachSec {
		f := t / sc.ApproachSec
		return ScriptFrame{Held: true, Grip: sc.point(0, sc.ApproachRadius+(sc.Radius-sc.ApproachRadius)*f)}
	}
	t -= sc.ApproachSec

	turn := 2 * math.Pi * sc.Direction
	windSec := sc.Turns * sc.TurnSec
	if t < windSec {
		return ScriptFrame{Held: true, Grip: sc.point(turn*t/sc.TurnSec, sc.Radius)}
	}
	t -= windSec
	peak := turn * sc.Turns

	if t < sc.HoldSec {
		return ScriptFrame{Held: true, Grip: sc.point(peak, sc.Radius)}
	}
	t -= sc.HoldSec

	unwindSec := sc.UnwindTurns * sc.TurnSec
	if t < unwindSec {
		return ScriptFrame{Held: true, Grip: sc.point(peak-turn*t/sc.TurnSec, sc.Radius)}
	}

	// Let go: the hand drifts back out and opens.
	return ScriptFrame{Held: false, Grip: sc.point(peak-turn*sc.UnwindTurns, sc.ApproachRadius)}
}

// ScriptRunner plays a Script against one rope a step at a time.
type ScriptRunner struct {
	s       *Scene
	e       ecs.Entity
	sc      Script
	steps   int
	cutDone bool
}

// NewScriptRunner prepares sc for the rope of e. Nothing moves until Step.
func (s *Scene) NewScriptRunner(e ecs.Entity, sc Script) *ScriptRunner {
	return &ScriptRunner{s: s, e: e, sc: sc, cutDone: sc.CutAtSec <= 0}
}

// Time returns the script time of the next step.
func (p *ScriptRunner) Time() float64 {
	return float64(p.steps) * p.s.dt
}

// Done reports whether the script has run to its end.
func (p *ScriptRunner) Done() bool {
	return p.Time() > p.sc.Duration()
}

// Steps returns the number of scene steps taken so far.
func (p *ScriptRunner) Steps() int {
	return p.steps
}

// Step applies the grab state for the current script time and advances
// the scene one tick. It returns false once the script is done.
func (p *ScriptRunner) Step() bool {
	if p.Done() {
		return false
	}
	t := p.Time()
	f := p.sc.At(t)
	if f.Held {
		p.s.SetGrip(p.e, true, f.Grip)
	} else {
		p.s.ReleaseGrip(p.e)
	}
	if !p.cutDone && t >= p.sc.CutAtSec {
		p.cutDone = true
		if r := p.s.Rope(p.e); r != nil {
			p.s.RequestCut(p.e, r.Position(r.LiveCount()/2))
		}
	}
	p.s.Step()
	p.steps++
	return true
}

// Play runs sc against the rope of e, one Step per fixed tick, until the
// script ends or maxTicks steps have run (0 = no limit). It returns the
// number of steps taken.
func (s *Scene) Play(e ecs.Entity, sc Script, maxTicks int) int {
	p := s.NewScriptRunner(e, sc)
	for maxTicks <= 0 || p.Steps() < maxTicks {
		if !p.Step() {
			break
		}
	}
	return p.Steps()
}
