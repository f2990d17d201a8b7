package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/coil/rope"
)

func TestSessionTracker_CaptureToRelease(t *testing.T) {
	st := NewSessionTracker(0.5)

	events := []rope.Event{
		{Type: rope.EventCapture, Tick: 10},
		{Type: rope.EventCommit, Tick: 12},
		{Type: rope.EventDeepen, Tick: 15, WrapAngle: math.Pi / 6},
		{Type: rope.EventDeepen, Tick: 18, WrapAngle: math.Pi / 3},
	}
	for _, e := range events {
		if done := st.Observe(1, e); done != nil {
			t.Fatalf("session closed early on %v", e.Type)
		}
	}
	if st.Count() != 1 || st.Get(1) == nil {
		t.Fatalf("expected one open session, got %d", st.Count())
	}

	// Release reports the wrap held before the session was cleared.
	done := st.Observe(1, rope.Event{Type: rope.EventRelease, Tick: 20, WrapAngle: math.Pi / 2, LiveCount: 30})
	if done == nil {
		t.Fatal("expected release to close the session")
	}
	if done.StartTick != 10 || done.CommitTick != 12 || done.EndTick != 20 {
		t.Errorf("ticks = %d/%d/%d, want 10/12/20", done.StartTick, done.CommitTick, done.EndTick)
	}
	if done.DurationSec != 5 {
		t.Errorf("DurationSec = %v, want 5", done.DurationSec)
	}
	if done.Deepens != 2 {
		t.Errorf("Deepens = %d, want 2", done.Deepens)
	}
	if math.Abs(done.PeakWrapDeg-90) > 1e-9 {
		t.Errorf("PeakWrapDeg = %v, want 90", done.PeakWrapDeg)
	}
	if done.EndLive != 30 {
		t.Errorf("EndLive = %d, want 30", done.EndLive)
	}
	if st.Count() != 0 {
		t.Errorf("Count = %d after release, want 0", st.Count())
	}
}

func TestSessionTracker_IgnoresEventsOutsideSession(t *testing.T) {
	st := NewSessionTracker(0.1)

	if done := st.Observe(7, rope.Event{Type: rope.EventRelease, Tick: 3}); done != nil {
		t.Error("release without capture produced a session")
	}
	if done := st.Observe(7, rope.Event{Type: rope.EventCut, Tick: 4}); done != nil {
		t.Error("cut produced a session")
	}
	if st.Count() != 0 {
		t.Errorf("Count = %d, want 0", st.Count())
	}
}

func TestSessionTracker_RemoveClosesOpenSession(t *testing.T) {
	st := NewSessionTracker(0.1)
	st.Observe(2, rope.Event{Type: rope.EventCapture, Tick: 0})

	done := st.Remove(2, 10, 5)
	if done == nil || done.CommitTick != -1 || done.EndTick != 10 {
		t.Fatalf("Remove = %+v, want uncommitted session ending at 10", done)
	}
	if st.Remove(2, 11, 5) != nil {
		t.Error("second Remove returned a session")
	}
}
