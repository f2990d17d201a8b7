package rope

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestSplit_ConservesParticles(t *testing.T) {
	r := New(testParams(), r3.Vec{}, r3.Vec{})
	n := r.LiveCount()
	idx := 10
	old := r.Positions()
	cut := r3.Vec{X: 0.01, Y: -0.1}

	tail, ok := r.Split(idx, cut)
	if !ok {
		t.Fatal("Split returned false for a valid index")
	}

	if r.LiveCount() != idx+1 {
		t.Errorf("head LiveCount = %d, want %d", r.LiveCount(), idx+1)
	}
	if tail.LiveCount() != n-idx {
		t.Errorf("tail LiveCount = %d, want %d", tail.LiveCount(), n-idx)
	}
	if got := r.LiveCount() + tail.LiveCount(); got != n+1 {
		t.Errorf("head+tail = %d, want %d", got, n+1)
	}
	if r.Position(idx) != cut {
		t.Errorf("head tip = %v, want cut point %v", r.Position(idx), cut)
	}
	for i := 0; i < tail.LiveCount(); i++ {
		if tail.Position(i) != old[idx+i] {
			t.Fatalf("tail particle %d = %v, want %v", i, tail.Position(i), old[idx+i])
		}
	}
	for i := 0; i < idx; i++ {
		if r.Position(i) != old[i] {
			t.Fatalf("head particle %d moved", i)
		}
	}
}

func TestSplit_TailCopiesSource(t *testing.T) {
	r := New(testParams(), r3.Vec{}, r3.Vec{})
	tail, ok := r.Split(5, r.Position(5))
	if !ok {
		t.Fatal("Split returned false")
	}

	p := tail.Params()
	if p.Material != r.Params().Material {
		t.Errorf("Material = %q, want source material %q", p.Material, r.Params().Material)
	}
	if p.PinRoot || p.Grabbable {
		t.Errorf("tail PinRoot=%v Grabbable=%v, want both false", p.PinRoot, p.Grabbable)
	}
	if p.ParticlesPerMeter != r.Params().ParticlesPerMeter || p.Damping != r.Params().Damping || p.Iterations != r.Params().Iterations {
		t.Error("tail did not copy the source physics")
	}
	if tail.State() != StateFree {
		t.Errorf("tail State = %v, want free", tail.State())
	}
	if tail.Mesh().IsEmpty() || r.Mesh().IsEmpty() {
		t.Error("expected both meshes rebuilt after split")
	}
	if !near(r.RequestedLength(), r.VisibleLength(), 1e-12) {
		t.Errorf("head RequestedLength = %v, want %v", r.RequestedLength(), r.VisibleLength())
	}

	// The tail is passive: a held grip in the capture band does nothing.
	post := Post{Center: tail.Position(0), Axis: r3.Vec{Y: 1}, HalfSpan: 1, Radius: 0}
	grip := tail.Position(0)
	tail.Tick(testDT, Input{Held: true, Grip: &grip, Post: &post})
	if tail.State() != StateFree {
		t.Errorf("tail captured a grip")
	}
}

func TestSplit_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		index  int
		noTail bool
	}{
		{name: "root", index: 0},
		{name: "negative", index: -1},
		{name: "last particle", index: 30},
		{name: "past end", index: 31},
		{name: "no tail template", index: 10, noTail: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := testParams()
			if tc.noTail {
				p.Tail = nil
			}
			r := New(p, r3.Vec{}, r3.Vec{})
			n := r.LiveCount()
			before := r.Positions()

			tail, ok := r.Split(tc.index, r3.Vec{X: 1})
			if ok || tail != nil {
				t.Fatalf("Split(%d) = %v, %v; want nil, false", tc.index, tail, ok)
			}
			if r.LiveCount() != n {
				t.Errorf("LiveCount = %d, want %d", r.LiveCount(), n)
			}
			for i, x := range r.Positions() {
				if x != before[i] {
					t.Fatalf("particle %d moved on rejected split", i)
				}
			}
			if ev := r.DrainEvents(); ev != nil {
				t.Errorf("events = %v, want none", ev)
			}
		})
	}
}

func TestSplit_ReleasesWinding(t *testing.T) {
	g := newRig(t, nil)
	g.commit()
	g.sweep(20, 5, 12)
	g.r.DrainEvents()

	tail, ok := g.r.Split(3, g.r.Position(3))
	if !ok {
		t.Fatal("Split returned false")
	}
	if g.r.State() != StateFree {
		t.Errorf("head State = %v, want free", g.r.State())
	}
	if tail.LiveCount() < 2 {
		t.Errorf("tail LiveCount = %d", tail.LiveCount())
	}

	types := eventTypes(g.r.DrainEvents())
	if len(types) != 2 || types[0] != EventRelease || types[1] != EventCut {
		t.Errorf("events = %v, want release then cut", types)
	}
}

func TestSplit_TailFreeEndHasNoImpulse(t *testing.T) {
	p := testParams()
	p.UseGravity = false
	r := New(p, r3.Vec{}, r3.Vec{})
	tail, ok := r.Split(10, r.Position(10))
	if !ok {
		t.Fatal("Split returned false")
	}
	before := tail.Positions()

	tail.Tick(testDT, Input{})

	for i, x := range tail.Positions() {
		if r3.Norm(r3.Sub(x, before[i])) > 1e-12 {
			t.Errorf("tail particle %d drifted from rest: %v -> %v", i, before[i], x)
		}
	}
}

func TestClosestParticleIndex(t *testing.T) {
	r := New(testParams(), r3.Vec{}, r3.Vec{})

	tests := []struct {
		name  string
		point r3.Vec
		max   float64
		want  int
	}{
		{name: "on particle", point: r3.Vec{Y: -0.1}, max: 0.05, want: 10},
		{name: "between, nearer upper", point: r3.Vec{X: 0.001, Y: -0.104}, max: 0.05, want: 10},
		{name: "out of reach", point: r3.Vec{X: 1}, max: 0.05, want: -1},
		{name: "root", point: r3.Vec{Y: 0.001}, max: 0.01, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.ClosestParticleIndex(tc.point, tc.max); got != tc.want {
				t.Errorf("ClosestParticleIndex = %d, want %d", got, tc.want)
			}
		})
	}
}
