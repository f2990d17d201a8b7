package telemetry

import (
	"math"

	"github.com/pthm-cable/coil/rope"
)

// RopeSample is the per-tick state of one rope that the collector keeps.
type RopeSample struct {
	WrapAngle     float64
	SpacingError  float64
	LiveCount     int
	VisibleLength float64
	Captured      bool
}

// Collector accumulates events and samples within time windows and
// produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	dt                  float64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	captures int
	commits  int
	releases int
	deepens  int
	cuts     int

	// Per-tick samples for current window
	wraps      []float64
	spacingErr []float64

	// Latest end-of-tick snapshot
	ropes    int
	captured int
	live     int
	visible  float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int64(math.Round(windowDurationSec / dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordEvent counts a rope transition.
func (c *Collector) RecordEvent(t rope.EventType) {
	switch t {
	case rope.EventCapture:
		c.captures++
	case rope.EventCommit:
		c.commits++
	case rope.EventRelease:
		c.releases++
	case rope.EventDeepen:
		c.deepens++
	case rope.EventCut:
		c.cuts++
	}
}

// RecordTick stores the end-of-tick samples of every rope in the scene.
func (c *Collector) RecordTick(samples []RopeSample) {
	c.ropes = len(samples)
	c.captured = 0
	c.live = 0
	c.visible = 0
	for _, s := range samples {
		if s.Captured {
			c.captured++
			c.wraps = append(c.wraps, s.WrapAngle)
		}
		c.spacingErr = append(c.spacingErr, s.SpacingError)
		c.live += s.LiveCount
		c.visible += s.VisibleLength
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int64) WindowStats {
	errMean, errStd, errP50, errP90 := ComputeSampleStats(c.spacingErr)

	var maxWrap, meanWrap float64
	if len(c.wraps) > 0 {
		meanWrap, _, _, _ = ComputeSampleStats(c.wraps)
		for _, w := range c.wraps {
			maxWrap = math.Max(maxWrap, w)
		}
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Ropes:    c.ropes,
		Captured: c.captured,

		Captures: c.captures,
		Commits:  c.commits,
		Releases: c.releases,
		Deepens:  c.deepens,
		Cuts:     c.cuts,

		MaxWrapDeg:  maxWrap * 180 / math.Pi,
		MeanWrapDeg: meanWrap * 180 / math.Pi,

		LiveParticles: c.live,
		VisibleLength: c.visible,

		SpacingErrMean: errMean,
		SpacingErrStd:  errStd,
		SpacingErrP50:  errP50,
		SpacingErrP90:  errP90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.captures = 0
	c.commits = 0
	c.releases = 0
	c.deepens = 0
	c.cuts = 0
	c.wraps = c.wraps[:0]
	c.spacingErr = c.spacingErr[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
