package telemetry

import (
	"math"

	"github.com/pthm-cable/coil/rope"
)

// SessionStats tracks one winding session from capture to release.
type SessionStats struct {
	RopeID      uint32  `csv:"rope"`
	StartTick   int64   `csv:"start_tick"`
	CommitTick  int64   `csv:"commit_tick"` // -1 if never committed
	EndTick     int64   `csv:"end_tick"`
	DurationSec float64 `csv:"duration_sec"`
	PeakWrapDeg float64 `csv:"peak_wrap_deg"`
	Deepens     int     `csv:"deepens"`
	EndLive     int     `csv:"end_live"`
}

// SessionTracker manages the open winding session of every rope.
type SessionTracker struct {
	dt    float64
	stats map[uint32]*SessionStats
}

// NewSessionTracker creates a new session tracker.
func NewSessionTracker(dt float64) *SessionTracker {
	return &SessionTracker{
		dt:    dt,
		stats: make(map[uint32]*SessionStats),
	}
}

// Observe folds a rope event into that rope's session. It returns the
// finished session when e closes one.
func (st *SessionTracker) Observe(ropeID uint32, e rope.Event) *SessionStats {
	switch e.Type {
	case rope.EventCapture:
		st.stats[ropeID] = &SessionStats{
			RopeID:     ropeID,
			StartTick:  e.Tick,
			CommitTick: -1,
		}
		return nil
	}

	s := st.stats[ropeID]
	if s == nil {
		return nil
	}
	s.PeakWrapDeg = math.Max(s.PeakWrapDeg, e.WrapAngle*180/math.Pi)

	switch e.Type {
	case rope.EventCommit:
		s.CommitTick = e.Tick
	case rope.EventDeepen:
		s.Deepens++
	case rope.EventRelease:
		return st.finish(ropeID, e.Tick, e.LiveCount)
	}
	return nil
}

// Get returns the open session of a rope, or nil if it is not captured.
func (st *SessionTracker) Get(ropeID uint32) *SessionStats {
	return st.stats[ropeID]
}

// Remove closes the open session of a rope that is leaving the scene and
// returns it, or nil if none was open.
func (st *SessionTracker) Remove(ropeID uint32, tick int64, live int) *SessionStats {
	if st.stats[ropeID] == nil {
		return nil
	}
	return st.finish(ropeID, tick, live)
}

func (st *SessionTracker) finish(ropeID uint32, tick int64, live int) *SessionStats {
	s := st.stats[ropeID]
	delete(st.stats, ropeID)
	s.EndTick = tick
	s.DurationSec = float64(tick-s.StartTick) * st.dt
	s.EndLive = live
	return s
}

// Count returns the number of open sessions.
func (st *SessionTracker) Count() int {
	return len(st.stats)
}
