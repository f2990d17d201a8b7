package scene

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/config"
)

func axisDistance(sc Script, p r3.Vec) float64 {
	axis, _, _ := sc.frame()
	rel := r3.Sub(p, sc.Post.Center)
	return r3.Norm(r3.Sub(rel, r3.Scale(r3.Dot(rel, axis), axis)))
}

func TestScript_Phases(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	sc := DefaultScript(cfg, 2)

	windStart := sc.ApproachSec
	holdStart := windStart + sc.Turns*sc.TurnSec
	unwindStart := holdStart + sc.HoldSec
	letGo := unwindStart + sc.UnwindTurns*sc.TurnSec

	tests := []struct {
		name       string
		t          float64
		wantHeld   bool
		wantRadius float64
	}{
		{"approach start", 0, true, sc.ApproachRadius},
		{"approach end", windStart - 1e-9, true, sc.Radius},
		{"winding", windStart + 0.3, true, sc.Radius},
		{"holding", holdStart + 0.1, true, sc.Radius},
		{"unwinding", unwindStart + 0.1, true, sc.Radius},
		{"let go", letGo + 0.1, false, sc.ApproachRadius},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := sc.At(tt.t)
			if f.Held != tt.wantHeld {
				t.Errorf("Held = %v, want %v", f.Held, tt.wantHeld)
			}
			if d := axisDistance(sc, f.Grip); math.Abs(d-tt.wantRadius) > 1e-6 {
				t.Errorf("radius = %v, want %v", d, tt.wantRadius)
			}
		})
	}

	// A full turn brings the hand back to where winding began.
	a, b := sc.At(windStart), sc.At(windStart+sc.TurnSec)
	if r3.Norm(r3.Sub(a.Grip, b.Grip)) > 1e-9 {
		t.Errorf("one turn moved the grip from %v to %v", a.Grip, b.Grip)
	}

	if sc.CutAtSec <= letGo || sc.CutAtSec >= sc.Duration() {
		t.Errorf("CutAtSec = %v, want within the let-go phase (%v, %v)", sc.CutAtSec, letGo, sc.Duration())
	}
}

func TestScript_Direction(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Winding.Direction = -1
	sc := DefaultScript(cfg, 1)
	if sc.Direction != -1 {
		t.Fatalf("Direction = %v, want -1", sc.Direction)
	}

	// Quarter turn clockwise about +Y from +X lands on +Z.
	_, u, v := sc.frame()
	f := sc.At(sc.ApproachSec + sc.TurnSec/4)
	rel := r3.Sub(f.Grip, sc.Post.Center)
	if r3.Dot(rel, v) > -sc.Radius+1e-6 || math.Abs(r3.Dot(rel, u)) > 1e-6 {
		t.Errorf("quarter turn grip offset = %v (u=%v v=%v)", rel, u, v)
	}
}

func TestScriptRunner_StepsUntilDone(t *testing.T) {
	s := newTestScene(t, Options{})
	e := s.AddRope(testRoot, r3.Vec{Y: -1})
	sc := DefaultScript(s.Config(), 0.25)
	sc.CutAtSec = 0

	p := s.NewScriptRunner(e, sc)
	for i := 0; i < 10; i++ {
		if !p.Step() {
			t.Fatalf("runner stopped after %d steps", i)
		}
	}
	if p.Steps() != 10 || s.Tick() != 10 {
		t.Fatalf("Steps = %d, Tick = %d, want 10", p.Steps(), s.Tick())
	}
	if math.Abs(p.Time()-10*s.DT()) > 1e-12 {
		t.Errorf("Time = %v, want %v", p.Time(), 10*s.DT())
	}
	if g := s.Grip(e); g == nil || !g.Held {
		t.Error("grip not held during approach")
	}

	for p.Step() {
	}
	if !p.Done() {
		t.Error("runner not done after Step returned false")
	}
	if p.Time() <= sc.Duration() {
		t.Errorf("Time = %v, want past %v", p.Time(), sc.Duration())
	}
	if p.Step() {
		t.Error("Step ran after the script ended")
	}
	if len(s.Ropes()) != 1 {
		t.Errorf("Ropes = %d, want 1 with the cut disabled", len(s.Ropes()))
	}
}
