package components

import (
	"math"

	"github.com/pthm-cable/coil/rope"
)

// Status is a read-only snapshot of a rope for display.
type Status struct {
	State     string  `inspect:"label"`
	Committed bool    `inspect:"bool"`
	Wrap      float64 `inspect:"angle"`
	WrapDeg   float64 `inspect:"label,fmt:%.1f deg"`
	Axial     float64 `inspect:"label,fmt:%.3f m"`
	Visible   float64 `inspect:"bar,max:2,fmt:%.2f m"`
	Wound     float64 `inspect:"label,fmt:%.2f m"`
	Live      int     `inspect:"label"`
	Capacity  int     `inspect:"label"`
	Fill      float32 `inspect:"bar,max:1"`
	SpacingE  float64 `inspect:"label,fmt:%.5f"`
}

// StatusOf captures the current state of r.
func StatusOf(r *rope.Rope) Status {
	s := Status{
		State:     r.State().String(),
		Committed: r.Committed(),
		Wrap:      r.WrapAngle(),
		WrapDeg:   r.WrapAngle() * 180 / math.Pi,
		Axial:     r.AxialProgress(),
		Visible:   r.VisibleLength(),
		Wound:     r.WoundLength(),
		Live:      r.LiveCount(),
		Capacity:  r.Capacity(),
		SpacingE:  r.SpacingError(),
	}
	if s.Capacity > 0 {
		s.Fill = float32(s.Live) / float32(s.Capacity)
	}
	return s
}
