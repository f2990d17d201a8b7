package rope

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/config"
)

// rig drives a rope around a vertical post at the origin. Azimuths are
// measured from +X towards -Z, matching the frame a capture at +X builds.
type rig struct {
	t      *testing.T
	r      *Rope
	post   Post
	anchor r3.Vec
}

func newRig(t *testing.T, mutate func(*Params)) *rig {
	t.Helper()
	p := testParams()
	if mutate != nil {
		mutate(&p)
	}
	anchor := r3.Vec{X: 0.3}
	return &rig{
		t:      t,
		r:      New(p, anchor, r3.Vec{}),
		post:   Post{Axis: r3.Vec{Y: 1}, HalfSpan: 0.2, Radius: 0.05},
		anchor: anchor,
	}
}

func (g *rig) gripAt(azimuthDeg, radius, axial float64) r3.Vec {
	return g.post.point(axial, deg(azimuthDeg), radius, r3.Vec{X: 1}, r3.Vec{Z: -1})
}

func (g *rig) hold(azimuthDeg, radius float64) {
	grip := g.gripAt(azimuthDeg, radius, 0)
	g.r.Tick(testDT, Input{Held: true, Grip: &grip, Anchor: g.anchor, Post: &g.post})
}

func (g *rig) letGo() {
	g.r.Tick(testDT, Input{Anchor: g.anchor, Post: &g.post})
}

// sweep holds the grip on the post surface at from+step, from+2*step, ...
// for n ticks.
func (g *rig) sweep(from, step float64, n int) {
	for k := 1; k <= n; k++ {
		g.hold(from+float64(k)*step, g.post.Radius)
	}
}

// commit captures at azimuth 0 and turns the grip through the 20 degree
// commit threshold, ending at azimuth 20.
func (g *rig) commit() {
	g.t.Helper()
	g.hold(0, g.post.Radius)
	if g.r.State() != StateCaptured {
		g.t.Fatalf("State = %v after capture tick, want captured", g.r.State())
	}
	g.sweep(0, 5, 4)
	if !g.r.Committed() {
		g.t.Fatalf("not committed after 20 degrees")
	}
	if g.r.WrapAngle() != 0 {
		g.t.Fatalf("WrapAngle = %v at commit, want 0", g.r.WrapAngle())
	}
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestWinding_OneTurnFollowsHelix(t *testing.T) {
	g := newRig(t, nil)
	g.commit()
	g.sweep(20, 5, 72)

	r := g.r
	if r.State() != StateCaptured {
		t.Fatalf("State = %v, want captured", r.State())
	}
	if !near(r.WrapAngle(), 2*math.Pi, 1e-9) {
		t.Errorf("WrapAngle = %v, want 2pi", r.WrapAngle())
	}
	if !near(r.AxialProgress(), 0.01, 1e-9) {
		t.Errorf("AxialProgress = %v, want one pitch (0.01)", r.AxialProgress())
	}

	arc := math.Sqrt(0.05*0.05 + math.Pow(0.01/(2*math.Pi), 2))
	if !near(r.WoundLength(), 2*math.Pi*arc, 1e-9) {
		t.Errorf("WoundLength = %v, want %v", r.WoundLength(), 2*math.Pi*arc)
	}

	for i := r.kinematicFrom; i < r.LiveCount(); i++ {
		axial, radial := g.post.decompose(r.Position(i))
		if !near(r3.Norm(radial), g.post.Radius, 1e-9) {
			t.Errorf("coil particle %d at radius %v, want %v", i, r3.Norm(radial), g.post.Radius)
		}
		if axial < -1e-9 || axial > 0.01+1e-9 {
			t.Errorf("coil particle %d at axial %v, want within one pitch", i, axial)
		}
	}
	if r.LiveCount()-r.kinematicFrom < 2 {
		t.Errorf("expected the coil to hold packed particles, got %d", r.LiveCount()-r.kinematicFrom)
	}

	tip := r.Position(r.LiveCount() - 1)
	if r3.Norm(r3.Sub(tip, r.GripTarget())) > 1e-12 {
		t.Errorf("tip %v differs from GripTarget %v", tip, r.GripTarget())
	}

	types := eventTypes(r.DrainEvents())
	if len(types) < 3 || types[0] != EventCapture || types[1] != EventCommit || types[2] != EventDeepen {
		t.Fatalf("events = %v, want capture, commit, deepen...", types)
	}
	deepens := 0
	for _, ty := range types {
		if ty == EventDeepen {
			deepens++
		}
	}
	if deepens < 11 {
		t.Errorf("deepen events = %d, want at least 11 for a full turn", deepens)
	}
}

func maxSegment(r *Rope) float64 {
	var m float64
	for i := 1; i < r.LiveCount(); i++ {
		m = math.Max(m, r3.Norm(r3.Sub(r.Position(i), r.Position(i-1))))
	}
	return m
}

func TestWinding_ConfiguredTurnsFitCapacity(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	p := ParamsFromConfig(cfg)
	p.UseGravity = false
	post := PostFromConfig(cfg)
	anchor := r3.Add(post.Center, r3.Vec{X: 0.3})

	g := &rig{t: t, r: New(p, anchor, r3.Vec{}), post: post, anchor: anchor}
	r := g.r
	r.SetVisibleLength(p.MaxLength)
	g.commit()
	lead := r.VisibleLength()

	check := func(stage string, k int) {
		t.Helper()
		if r.State() != StateCaptured {
			t.Fatalf("%s tick %d: State = %v, want captured", stage, k, r.State())
		}
		if r.LiveCount() < 2 || r.LiveCount() > r.Capacity() {
			t.Fatalf("%s tick %d: LiveCount = %d outside [2, %d]", stage, k, r.LiveCount(), r.Capacity())
		}
		if r.kinematicFrom < 1 {
			t.Fatalf("%s tick %d: coil packed onto the root", stage, k)
		}
	}

	turns := cfg.Rope.MaxWindTurns
	n := int(math.Round(turns * 72))
	az := 20.0
	for k := 1; k <= n; k++ {
		az += 5
		g.hold(az, post.Radius)
		check("wind", k)
	}
	if r.WrapAngle() < turns*2*math.Pi-1e-6 {
		t.Errorf("WrapAngle = %v turns, want %v", r.WrapAngle()/(2*math.Pi), turns)
	}

	// Winding past the budget stops at the capacity.
	for k := 1; k <= 72; k++ {
		az += 5
		g.hold(az, post.Radius)
		check("overwind", k)
	}
	if r.LiveCount() != r.Capacity() {
		t.Errorf("LiveCount = %d, want capacity %d", r.LiveCount(), r.Capacity())
	}
	room := float64(r.Capacity()-1)*r.RestLength() - lead
	if r.WoundLength() > room+1e-9 {
		t.Errorf("WoundLength = %v exceeds the %v left after the lead", r.WoundLength(), room)
	}

	for k := 1; k <= 90; k++ {
		g.hold(az, post.Radius)
		check("settle", k)
	}
	if seg := maxSegment(r); seg > 1.1*r.RestLength() {
		t.Errorf("max segment = %v, want about rest %v", seg, r.RestLength())
	}
}

func TestWinding_CaptureBand(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		axial  float64
		want   State
	}{
		{name: "on surface", radius: 0.05, want: StateCaptured},
		{name: "outer edge", radius: 0.07, want: StateCaptured},
		{name: "inner edge", radius: 0.03, want: StateCaptured},
		{name: "just outside", radius: 0.07 + 1e-6, want: StateFree},
		{name: "far away", radius: 0.5, want: StateFree},
		{name: "past post end", radius: 0.05, axial: 0.2 + 0.02 + 0.01, want: StateFree},
		{name: "near post end", radius: 0.05, axial: 0.21, want: StateCaptured},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := newRig(t, nil)
			grip := g.gripAt(0, tc.radius, tc.axial)
			g.r.Tick(testDT, Input{Held: true, Grip: &grip, Anchor: g.anchor, Post: &g.post})
			if g.r.State() != tc.want {
				t.Errorf("State = %v, want %v", g.r.State(), tc.want)
			}
		})
	}
}

func TestWinding_CaptureClampsBaseToPostSpan(t *testing.T) {
	g := newRig(t, nil)
	grip := g.gripAt(0, 0.05, 0.21)
	g.r.Tick(testDT, Input{Held: true, Grip: &grip, Anchor: g.anchor, Post: &g.post})

	axial, _ := g.post.decompose(g.r.GripTarget())
	if !near(axial, 0.19, 1e-9) {
		t.Errorf("captured axial = %v, want post half-span minus end margin", axial)
	}
}

func TestWinding_RequiresHeldGrabbableGrip(t *testing.T) {
	tests := []struct {
		name   string
		held   bool
		mutate func(*Params)
	}{
		{name: "not held", held: false},
		{name: "not grabbable", held: true, mutate: func(p *Params) { p.Grabbable = false }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := newRig(t, tc.mutate)
			grip := g.gripAt(0, 0.05, 0)
			g.r.Tick(testDT, Input{Held: tc.held, Grip: &grip, Anchor: g.anchor, Post: &g.post})
			if g.r.State() != StateFree {
				t.Errorf("State = %v, want free", g.r.State())
			}
		})
	}
}

func TestWinding_DeadbandKeepsPreviousAzimuth(t *testing.T) {
	g := newRig(t, nil)
	g.commit()

	// Each 0.3 degree step is below the deadband on its own; every second
	// one crosses it measured from the last accepted azimuth.
	g.sweep(20, 0.3, 10)

	if !near(g.r.WrapAngle(), deg(3), 1e-9) {
		t.Errorf("WrapAngle = %v deg, want 3", g.r.WrapAngle()*180/math.Pi)
	}
}

func TestWinding_MaxStepClampsJump(t *testing.T) {
	g := newRig(t, nil)
	g.commit()
	g.hold(60, g.post.Radius)

	if !near(g.r.WrapAngle(), deg(25), 1e-9) {
		t.Errorf("WrapAngle = %v deg, want 25", g.r.WrapAngle()*180/math.Pi)
	}
}

func TestWinding_DirectionLockIgnoresNoise(t *testing.T) {
	g := newRig(t, nil)
	g.commit()
	g.sweep(20, 5, 8) // wrap 40, hand at 60

	prev := g.r.WrapAngle()
	for i := 0; i < 10; i++ {
		az := 50.0
		if i%2 == 1 {
			az = 60
		}
		g.hold(az, g.post.Radius)

		w := g.r.WrapAngle()
		if w < prev-1e-12 {
			t.Fatalf("step %d: wrap fell from %v to %v", i, prev, w)
		}
		prev = w
	}
	if g.r.State() != StateCaptured {
		t.Fatalf("State = %v, want captured", g.r.State())
	}
	if g.r.session.lockSign != 1 {
		t.Errorf("lockSign = %v, want 1", g.r.session.lockSign)
	}
	// Five forward steps of 10 degrees on top of the initial 40.
	if !near(g.r.WrapAngle(), deg(90), 1e-9) {
		t.Errorf("WrapAngle = %v deg, want 90", g.r.WrapAngle()*180/math.Pi)
	}
}

func TestWinding_DirectionLockFlipsAfterSustainedReverse(t *testing.T) {
	g := newRig(t, nil)
	g.commit()
	g.sweep(20, 5, 8) // wrap 40, hand at 60
	before := g.r.WrapAngle()

	g.sweep(60, -10, 4) // 40 degrees of reverse: flips the lock, wrap untouched
	if !near(g.r.WrapAngle(), before, 1e-12) {
		t.Fatalf("WrapAngle changed while locked: %v -> %v", before, g.r.WrapAngle())
	}
	if g.r.session.lockSign != -1 {
		t.Fatalf("lockSign = %v, want -1 after sustained reverse", g.r.session.lockSign)
	}

	g.hold(10, g.post.Radius)
	if !near(g.r.WrapAngle(), before-deg(10), 1e-9) {
		t.Errorf("WrapAngle = %v deg, want %v", g.r.WrapAngle()*180/math.Pi, before*180/math.Pi-10)
	}
}

func TestWinding_UnwindReleasesNearZero(t *testing.T) {
	g := newRig(t, func(p *Params) { p.Winding.DirectionLock = false })
	g.commit()
	g.sweep(20, 5, 12) // wrap 60, hand at 80
	g.r.DrainEvents()

	prev := g.r.WrapAngle()
	released := false
	for k := 1; k <= 20; k++ {
		g.hold(80-5*float64(k), g.post.Radius)
		if g.r.State() != StateCaptured {
			released = true
			break
		}
		w := g.r.WrapAngle()
		if w < 0 {
			t.Fatalf("WrapAngle went negative: %v", w)
		}
		if w > prev+1e-12 {
			t.Fatalf("WrapAngle rose while unwinding: %v -> %v", prev, w)
		}
		prev = w
	}
	if !released {
		t.Fatal("expected release after unwinding past zero")
	}
	if g.r.WrapAngle() != 0 {
		t.Errorf("WrapAngle = %v after release, want 0", g.r.WrapAngle())
	}

	types := eventTypes(g.r.DrainEvents())
	if len(types) == 0 || types[len(types)-1] != EventRelease {
		t.Errorf("events = %v, want trailing release", types)
	}
}

func TestWinding_ExitToleranceReleases(t *testing.T) {
	g := newRig(t, nil)
	g.commit()

	g.hold(20, 0.2)

	if g.r.State() != StateFree {
		t.Errorf("State = %v, want free after leaving the post", g.r.State())
	}
}

func TestWinding_UngripBeforeCommitReleasesWithCooldown(t *testing.T) {
	g := newRig(t, nil)
	g.hold(0, g.post.Radius)
	if g.r.State() != StateCaptured {
		t.Fatalf("State = %v, want captured", g.r.State())
	}

	g.letGo()
	if g.r.State() != StateFree {
		t.Fatalf("State = %v after letting go, want free", g.r.State())
	}

	g.hold(0, g.post.Radius)
	if g.r.State() != StateFree {
		t.Fatalf("recaptured during cooldown")
	}

	for i := 0; i < 45; i++ {
		g.hold(0, g.post.Radius)
	}
	if g.r.State() != StateCaptured {
		t.Errorf("State = %v after cooldown, want captured", g.r.State())
	}
}

func TestWinding_UngripAfterCommitHoldsCoil(t *testing.T) {
	g := newRig(t, nil)
	g.commit()
	g.sweep(20, 5, 12) // wrap 60
	wrap := g.r.WrapAngle()

	for i := 0; i < 5; i++ {
		g.letGo()
	}
	if g.r.State() != StateCaptured {
		t.Fatalf("State = %v after letting go of a committed coil, want captured", g.r.State())
	}
	if !near(g.r.WrapAngle(), wrap, 1e-12) {
		t.Fatalf("WrapAngle changed while not held: %v -> %v", wrap, g.r.WrapAngle())
	}

	// Regrip on the far side: no jump, then winding resumes from there.
	g.hold(200, g.post.Radius)
	if !near(g.r.WrapAngle(), wrap, 1e-12) {
		t.Fatalf("WrapAngle jumped on regrip: %v -> %v", wrap, g.r.WrapAngle())
	}
	g.hold(205, g.post.Radius)
	if !near(g.r.WrapAngle(), wrap+deg(5), 1e-9) {
		t.Errorf("WrapAngle = %v, want %v", g.r.WrapAngle(), wrap+deg(5))
	}
}

func TestWinding_NegativeDirection(t *testing.T) {
	g := newRig(t, func(p *Params) {
		p.Winding.Direction = -1
		p.Winding.AxialAdvance = -1
	})
	g.hold(0, g.post.Radius)
	g.sweep(0, -5, 4)
	if !g.r.Committed() {
		t.Fatal("expected commit on reverse sweep")
	}
	g.sweep(-20, -5, 36)

	if !near(g.r.WrapAngle(), math.Pi, 1e-9) {
		t.Errorf("WrapAngle = %v, want pi", g.r.WrapAngle())
	}
	if !near(g.r.AxialProgress(), -0.005, 1e-9) {
		t.Errorf("AxialProgress = %v, want -0.005", g.r.AxialProgress())
	}
}

func TestWinding_ReleaseRestoresRequestedLength(t *testing.T) {
	g := newRig(t, nil)
	g.commit()
	g.sweep(20, 5, 72)
	grown := g.r.VisibleLength()
	if grown <= g.r.Params().StartLength {
		t.Fatalf("VisibleLength = %v, want growth beyond %v while wound", grown, g.r.Params().StartLength)
	}

	g.hold(20, 0.5) // wrap stays at 2pi, so exit tolerance does not apply
	if g.r.State() != StateCaptured {
		t.Fatalf("State = %v, want captured with a full turn wound", g.r.State())
	}

	g.r.release()
	if !near(g.r.RequestedLength(), g.r.VisibleLength(), 1e-12) {
		t.Errorf("RequestedLength = %v, want current visible length %v", g.r.RequestedLength(), g.r.VisibleLength())
	}
}
