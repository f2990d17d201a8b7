package rope

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const testDT = 1.0 / 90

func testParams() Params {
	return Params{
		ParticlesPerMeter: 100,
		StartLength:       0.3,
		MinLength:         0.05,
		MaxLength:         2.0,
		Damping:           0.98,
		Iterations:        20,
		PinRoot:           true,
		Grabbable:         true,
		Material:          "rope",
		Tail:              &TailTemplate{Name: "tail"},
		MeshSides:         6,
		MeshRadius:        0.004,
		Winding: WindingParams{
			CaptureBand:     0.02,
			EndMargin:       0.01,
			CommitAngle:     deg(20),
			Deadband:        deg(0.5),
			MaxStep:         deg(25),
			Direction:       1,
			AxialAdvance:    1,
			Pitch:           0.01,
			DirectionLock:   true,
			ReverseFlip:     deg(35),
			NearZero:        deg(2),
			ReleaseAngle:    deg(10),
			ExitTolerance:   0.05,
			ReleaseCooldown: 0.35,
			DeepenDetent:    deg(30),
		},
	}
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNew_LengthBudget(t *testing.T) {
	tests := []struct {
		name      string
		ppm       float64
		start     float64
		wantLive  int
		wantRest  float64
		wantAtEnd r3.Vec
	}{
		{name: "thirty centimetres", ppm: 100, start: 0.3, wantLive: 31, wantRest: 0.01, wantAtEnd: r3.Vec{Y: -0.3}},
		{name: "coarse", ppm: 10, start: 1.0, wantLive: 11, wantRest: 0.1, wantAtEnd: r3.Vec{Y: -1.0}},
		{name: "shorter than one segment", ppm: 10, start: 0.01, wantLive: 2, wantRest: 0.1, wantAtEnd: r3.Vec{Y: -0.1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := testParams()
			p.ParticlesPerMeter = tc.ppm
			p.StartLength = tc.start
			r := New(p, r3.Vec{}, r3.Vec{})

			if r.LiveCount() != tc.wantLive {
				t.Errorf("LiveCount = %d, want %d", r.LiveCount(), tc.wantLive)
			}
			if !near(r.RestLength(), tc.wantRest, 1e-12) {
				t.Errorf("RestLength = %v, want %v", r.RestLength(), tc.wantRest)
			}
			end := r.Position(r.LiveCount() - 1)
			if r3.Norm(r3.Sub(end, tc.wantAtEnd)) > 1e-9 {
				t.Errorf("tip = %v, want %v", end, tc.wantAtEnd)
			}
			if r.State() != StateFree {
				t.Errorf("State = %v, want free", r.State())
			}
			if r.Mesh().IsEmpty() {
				t.Error("expected mesh to be built at creation")
			}
		})
	}
}

func TestNew_CapacityFitsMaxLength(t *testing.T) {
	p := testParams()
	p.Capacity = 3
	r := New(p, r3.Vec{}, r3.Vec{})

	want := int(math.Ceil(p.MaxLength/r.RestLength())) + 1
	if r.Capacity() < want {
		t.Errorf("Capacity = %d, want at least %d", r.Capacity(), want)
	}
}

func TestSolveConstraints_SpacingErrorNonIncreasing(t *testing.T) {
	p := testParams()
	p.ParticlesPerMeter = 10
	p.StartLength = 1.0
	p.Iterations = 1
	p.Damping = 1
	p.UseGravity = false
	p.Grabbable = false
	r := New(p, r3.Vec{}, r3.Vec{})

	// Stretch every segment by half a rest length along the hang direction.
	for i := 0; i < r.LiveCount(); i++ {
		r.chain.place(i, r3.Vec{Y: -0.15 * float64(i)})
	}

	in := Input{Anchor: r3.Vec{}}
	initial := r.SpacingError()
	if initial <= 0 {
		t.Fatalf("expected stretched chain to have spacing error, got %v", initial)
	}
	prev := initial
	for pass := 0; pass < 256; pass++ {
		r.solveConstraints(in)
		cur := r.SpacingError()
		if cur > prev+1e-12 {
			t.Fatalf("pass %d: spacing error rose from %v to %v", pass, prev, cur)
		}
		prev = cur
	}
	if prev > initial/10 {
		t.Errorf("spacing error after 256 passes = %v, started at %v", prev, initial)
	}
}

func TestTick_GripPinsTipWhenFree(t *testing.T) {
	r := New(testParams(), r3.Vec{}, r3.Vec{})
	grip := r3.Vec{X: 0.1, Y: -0.2, Z: 0.05}

	r.Tick(testDT, Input{Held: true, Grip: &grip, Anchor: r3.Vec{}, Post: &Post{Center: r3.Vec{X: 5}, Axis: r3.Vec{Y: 1}, HalfSpan: 0.1, Radius: 0.05}})

	if got := r.Position(r.LiveCount() - 1); got != grip {
		t.Errorf("tip = %v, want grip %v", got, grip)
	}
	if got := r.GripTarget(); got != grip {
		t.Errorf("GripTarget = %v, want %v", got, grip)
	}
	if r.Position(0) != (r3.Vec{}) {
		t.Errorf("root = %v, want anchor", r.Position(0))
	}
}

func TestTick_ZeroStepIsNoop(t *testing.T) {
	r := New(testParams(), r3.Vec{}, r3.Vec{})
	before := r.Positions()

	r.Tick(0, Input{})
	r.Tick(-1, Input{})

	if r.Ticks() != 0 {
		t.Errorf("Ticks = %d, want 0", r.Ticks())
	}
	for i, p := range r.Positions() {
		if p != before[i] {
			t.Fatalf("particle %d moved from %v to %v", i, before[i], p)
		}
	}
}

func TestTick_GravityPullsFreeChain(t *testing.T) {
	p := testParams()
	p.UseGravity = true
	p.Gravity = r3.Vec{Y: -9.81}
	r := New(p, r3.Vec{}, r3.Vec{X: 1})

	for i := 0; i < 30; i++ {
		r.Tick(testDT, Input{Anchor: r3.Vec{}})
	}

	tip := r.Position(r.LiveCount() - 1)
	if tip.Y >= 0 {
		t.Errorf("tip.Y = %v, want below the anchor", tip.Y)
	}
	for i, x := range r.Positions() {
		if math.IsNaN(x.X) || math.IsNaN(x.Y) || math.IsNaN(x.Z) {
			t.Fatalf("particle %d is NaN", i)
		}
	}
}

func TestSetVisibleLength(t *testing.T) {
	tests := []struct {
		name   string
		length float64
		want   float64
	}{
		{name: "within range", length: 0.75, want: 0.75},
		{name: "uneven length", length: 0.4567, want: 0.4567},
		{name: "below minimum", length: 0.001, want: 0.05},
		{name: "above maximum", length: 9, want: 2.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(testParams(), r3.Vec{}, r3.Vec{})
			r.SetVisibleLength(tc.length)

			if !near(r.RequestedLength(), tc.want, 1e-12) {
				t.Errorf("RequestedLength = %v, want %v", r.RequestedLength(), tc.want)
			}
			if !near(r.VisibleLength(), tc.want, r.RestLength()/2+1e-9) {
				t.Errorf("VisibleLength = %v, want within half a segment of %v", r.VisibleLength(), tc.want)
			}
		})
	}
}

func TestSetVisibleLength_GrowsFromTail(t *testing.T) {
	r := New(testParams(), r3.Vec{}, r3.Vec{})
	tip := r.Position(r.LiveCount() - 1)
	n := r.LiveCount()

	r.SetVisibleLength(0.5)

	if r.LiveCount() <= n {
		t.Fatalf("LiveCount = %d, want more than %d", r.LiveCount(), n)
	}
	for i := n; i < r.LiveCount(); i++ {
		if r.Position(i) != tip {
			t.Errorf("new particle %d at %v, want stacked on old tip %v", i, r.Position(i), tip)
		}
	}
	for i := 0; i < n; i++ {
		if !near(r.Position(i).Y, -float64(i)*r.RestLength(), 1e-12) {
			t.Fatalf("existing particle %d moved", i)
		}
	}
}

func TestDrainEvents_Empties(t *testing.T) {
	r := New(testParams(), r3.Vec{}, r3.Vec{})
	if ev := r.DrainEvents(); ev != nil {
		t.Fatalf("expected no events, got %v", ev)
	}

	r.emit(EventCut, 3)
	ev := r.DrainEvents()
	if len(ev) != 1 || ev[0].Type != EventCut || ev[0].Index != 3 {
		t.Fatalf("DrainEvents = %+v, want one cut at 3", ev)
	}
	if ev := r.DrainEvents(); ev != nil {
		t.Errorf("second drain returned %v", ev)
	}
}

func TestWrapAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
	}
	for _, tc := range tests {
		if got := wrapAngle(tc.in); !near(got, tc.want, 1e-12) {
			t.Errorf("wrapAngle(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
