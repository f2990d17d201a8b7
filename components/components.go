// Package components defines ECS components for the rope scene.
package components

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/rope"
)

// Body owns one simulated rope.
type Body struct {
	Rope   *rope.Rope `inspect:"skip"`
	ID     uint32     `inspect:"label"`
	Parent uint32     `inspect:"label"` // Rope this one was cut from, 0 for spawned ropes
}

// Grip is the grab subsystem's view of the rope tip.
type Grip struct {
	Held     bool   `inspect:"bool"`
	Attached bool   `inspect:"bool"` // false leaves the tip unconstrained
	Pos      r3.Vec `inspect:"skip"`
}

// Anchor is the feed root a pinned rope hangs from.
type Anchor struct {
	Pos r3.Vec `inspect:"skip"`
}

// Feeder drives the requested visible length toward Target.
type Feeder struct {
	Target    float64 `inspect:"bar,max:2,fmt:%.2f m"`
	Rate      float64 `inspect:"label,fmt:%.2f m/s"`
	Active    bool    `inspect:"bool"`
	Suspended bool    `inspect:"bool"` // Skips one tick after a cut
}

// Mount is the post a rope winds around. An invalid mount uses the
// engine default post.
type Mount struct {
	Post  rope.Post `inspect:"skip"`
	Valid bool      `inspect:"bool"`
}
