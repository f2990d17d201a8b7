// Package scene hosts rope instances in an ECS world and plays the
// collaborator roles around them: grab, feeder, post and cutter. It drives
// one rope Tick per fixed step and routes rope events to telemetry.
package scene

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/components"
	"github.com/pthm-cable/coil/config"
	"github.com/pthm-cable/coil/rope"
	"github.com/pthm-cable/coil/telemetry"
)

// Options configures a Scene.
type Options struct {
	Config         *config.Config // nil uses config.Cfg()
	LogStats       bool
	StatsWindowSec float64 // 0 uses the configured window
	OutputDir      string  // empty disables CSV output
	StatsCallback  func(telemetry.WindowStats)
}

type cutRequest struct {
	entity ecs.Entity
	point  r3.Vec
}

// Scene owns the ECS world and every rope in it.
type Scene struct {
	cfg   *config.Config
	world *ecs.World
	dt    float64

	// Grabbable ropes carry the full collaborator set; cut tails only a Body
	// and the post of their source.
	ropeMapper *ecs.Map5[
		components.Body,
		components.Grip,
		components.Anchor,
		components.Feeder,
		components.Mount,
	]
	tailMapper *ecs.Map2[components.Body, components.Mount]
	bodyFilter *ecs.Filter1[components.Body]

	bodyMap   *ecs.Map[components.Body]
	gripMap   *ecs.Map[components.Grip]
	anchorMap *ecs.Map[components.Anchor]
	feederMap *ecs.Map[components.Feeder]
	mountMap  *ecs.Map[components.Mount]

	tick   int64
	nextID uint32
	cuts   []cutRequest

	samples []telemetry.RopeSample
	pending []telemetry.EventRecord

	perf          *telemetry.PerfCollector
	collector     *telemetry.Collector
	sessions      *telemetry.SessionTracker
	bookmarks     *telemetry.BookmarkDetector
	output        *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)
}

// New creates an empty scene.
func New(opts Options) (*Scene, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	window := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		window = opts.StatsWindowSec
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, err
	}

	world := ecs.NewWorld()
	s := &Scene{
		cfg:   cfg,
		world: world,
		dt:    cfg.Physics.DT,
		ropeMapper: ecs.NewMap5[
			components.Body,
			components.Grip,
			components.Anchor,
			components.Feeder,
			components.Mount,
		](world),
		tailMapper:    ecs.NewMap2[components.Body, components.Mount](world),
		bodyFilter:    ecs.NewFilter1[components.Body](world),
		bodyMap:       ecs.NewMap[components.Body](world),
		gripMap:       ecs.NewMap[components.Grip](world),
		anchorMap:     ecs.NewMap[components.Anchor](world),
		feederMap:     ecs.NewMap[components.Feeder](world),
		mountMap:      ecs.NewMap[components.Mount](world),
		nextID:        1,
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:     telemetry.NewCollector(window, cfg.Physics.DT),
		sessions:      telemetry.NewSessionTracker(cfg.Physics.DT),
		bookmarks:     telemetry.NewBookmarkDetector(10),
		output:        output,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}
	return s, nil
}

// Close flushes and closes any CSV output.
func (s *Scene) Close() error {
	return s.output.Close()
}

// AddRope spawns a grabbable rope rooted at root and hanging along dir,
// mounted on the configured post.
func (s *Scene) AddRope(root, dir r3.Vec) ecs.Entity {
	r := rope.New(rope.ParamsFromConfig(s.cfg), root, dir)
	r.SetProfiler(s.perf)

	target := s.cfg.Feeder.Target
	if target <= 0 {
		target = s.cfg.Rope.StartLength
	}

	body := components.Body{Rope: r, ID: s.nextID}
	s.nextID++
	grip := components.Grip{}
	anchor := components.Anchor{Pos: root}
	feeder := components.Feeder{Target: target, Rate: s.cfg.Feeder.Rate, Active: true}
	mount := components.Mount{Post: rope.PostFromConfig(s.cfg), Valid: true}

	e := s.ropeMapper.NewEntity(&body, &grip, &anchor, &feeder, &mount)
	slog.Debug("rope added", "rope", body.ID, "live", r.LiveCount(), "capacity", r.Capacity())
	return e
}

// SetGrip updates the grab handle of a rope. The tip follows pos while
// the rope is free; held decides whether post capture may happen.
func (s *Scene) SetGrip(e ecs.Entity, held bool, pos r3.Vec) {
	if !s.world.Alive(e) || !s.gripMap.Has(e) {
		return
	}
	g := s.gripMap.Get(e)
	g.Held = held
	g.Attached = true
	g.Pos = pos
}

// ReleaseGrip detaches the grab handle entirely.
func (s *Scene) ReleaseGrip(e ecs.Entity) {
	if !s.world.Alive(e) || !s.gripMap.Has(e) {
		return
	}
	*s.gripMap.Get(e) = components.Grip{}
}

// SetAnchor moves the feed root of a rope.
func (s *Scene) SetAnchor(e ecs.Entity, pos r3.Vec) {
	if !s.world.Alive(e) || !s.anchorMap.Has(e) {
		return
	}
	s.anchorMap.Get(e).Pos = pos
}

// SetPost replaces the post a rope winds around.
func (s *Scene) SetPost(e ecs.Entity, post rope.Post) {
	if !s.world.Alive(e) || !s.mountMap.Has(e) {
		return
	}
	*s.mountMap.Get(e) = components.Mount{Post: post, Valid: true}
}

// SetFeedTarget sets the visible length the feeder moves toward.
func (s *Scene) SetFeedTarget(e ecs.Entity, meters float64) {
	if !s.world.Alive(e) || !s.feederMap.Has(e) {
		return
	}
	f := s.feederMap.Get(e)
	f.Target = meters
	f.Active = true
}

// RequestCut queues a cut that is applied at the end of the next Step.
func (s *Scene) RequestCut(e ecs.Entity, point r3.Vec) {
	s.cuts = append(s.cuts, cutRequest{entity: e, point: point})
}

// Cut splits the rope of e at the particle nearest to point. The cut is
// rejected when no particle lies within the cutter's reach or the nearest
// one is at or within the end guard of either end. On success the tail
// becomes a new entity on the same post and the feeder of e sits out the
// next tick. Cut must not be called while a Step is running.
func (s *Scene) Cut(e ecs.Entity, point r3.Vec) (ecs.Entity, bool) {
	if !s.world.Alive(e) || !s.bodyMap.Has(e) {
		return ecs.Entity{}, false
	}
	body := s.bodyMap.Get(e)
	r, id := body.Rope, body.ID

	guard := max(s.cfg.Cutter.EndGuard, 0)
	index := r.ClosestParticleIndex(point, s.cfg.Cutter.MaxDistance)
	if index <= guard || index >= r.LiveCount()-1-guard {
		slog.Debug("cut rejected", "rope", id, "index", index, "live", r.LiveCount())
		return ecs.Entity{}, false
	}

	tail, ok := r.Split(index, point)
	if !ok {
		slog.Debug("cut rejected", "rope", id, "index", index, "reason", "split")
		return ecs.Entity{}, false
	}
	tail.SetProfiler(s.perf)
	if s.feederMap.Has(e) {
		s.feederMap.Get(e).Suspended = true
	}

	tb := components.Body{Rope: tail, ID: s.nextID, Parent: id}
	s.nextID++
	var tm components.Mount
	if s.mountMap.Has(e) {
		tm = *s.mountMap.Get(e)
	}
	te := s.tailMapper.NewEntity(&tb, &tm)

	s.recordEvents(id, tb.ID, r.DrainEvents())
	return te, true
}

// Remove deletes a rope, closing its open winding session. Like Cut it
// must not be called while a Step is running.
func (s *Scene) Remove(e ecs.Entity) {
	if !s.world.Alive(e) {
		return
	}
	if s.bodyMap.Has(e) {
		body := s.bodyMap.Get(e)
		if done := s.sessions.Remove(body.ID, s.tick, body.Rope.LiveCount()); done != nil {
			s.writeSession(*done)
		}
	}
	s.world.RemoveEntity(e)
}

// Step advances every rope by one fixed step.
func (s *Scene) Step() {
	s.perf.StartTick()
	s.tick++
	s.samples = s.samples[:0]

	query := s.bodyFilter.Query()
	for query.Next() {
		e := query.Entity()
		body := query.Get()
		r := body.Rope

		s.perf.StartPhase(telemetry.PhaseFeed)
		s.feed(e, r)

		r.Tick(s.dt, s.input(e))

		s.perf.StartPhase(telemetry.PhaseTelemetry)
		s.recordEvents(body.ID, 0, r.DrainEvents())
		s.samples = append(s.samples, telemetry.RopeSample{
			WrapAngle:     r.WrapAngle(),
			SpacingError:  r.SpacingError(),
			LiveCount:     r.LiveCount(),
			VisibleLength: r.VisibleLength(),
			Captured:      r.State() == rope.StateCaptured,
		})
	}

	// Structural changes wait until the query is done.
	s.perf.StartPhase(telemetry.PhaseCuts)
	s.applyCuts()

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.collector.RecordTick(s.samples)
	if err := s.output.WriteEvents(s.pending); err != nil {
		slog.Error("failed to write events", "error", err)
	}
	s.pending = s.pending[:0]
	s.flushTelemetry()

	s.perf.EndTick()
}

// feed moves the requested length toward the feeder target at its rate.
func (s *Scene) feed(e ecs.Entity, r *rope.Rope) {
	if !s.feederMap.Has(e) {
		return
	}
	f := s.feederMap.Get(e)
	if f.Suspended {
		f.Suspended = false
		return
	}
	if !f.Active {
		return
	}
	cur := r.RequestedLength()
	diff := f.Target - cur
	if math.Abs(diff) < 1e-9 {
		return
	}
	step := f.Rate * s.dt
	if f.Rate <= 0 || math.Abs(diff) <= step {
		r.SetVisibleLength(f.Target)
	} else {
		r.SetVisibleLength(cur + math.Copysign(step, diff))
	}
	// A target outside the rope's range settles on the clamp.
	if r.RequestedLength() == cur {
		f.Active = false
	}
}

func (s *Scene) input(e ecs.Entity) rope.Input {
	var in rope.Input
	if s.gripMap.Has(e) {
		if g := s.gripMap.Get(e); g.Attached {
			pos := g.Pos
			in.Held = g.Held
			in.Grip = &pos
		}
	}
	if s.anchorMap.Has(e) {
		in.Anchor = s.anchorMap.Get(e).Pos
	}
	if s.mountMap.Has(e) {
		if m := s.mountMap.Get(e); m.Valid {
			post := m.Post
			in.Post = &post
		}
	}
	return in
}

func (s *Scene) applyCuts() {
	if len(s.cuts) == 0 {
		return
	}
	cuts := s.cuts
	s.cuts = nil
	for _, c := range cuts {
		s.Cut(c.entity, c.point)
	}
}

// recordEvents routes rope events to the collector, the session tracker
// and the pending events.csv batch. spawned tags cut events with the tail.
func (s *Scene) recordEvents(ropeID, spawned uint32, events []rope.Event) {
	for _, ev := range events {
		s.collector.RecordEvent(ev.Type)
		if done := s.sessions.Observe(ropeID, ev); done != nil {
			s.writeSession(*done)
		}

		rec := telemetry.NewEventRecord(ropeID, ev)
		if ev.Type == rope.EventCut {
			rec = telemetry.NewCutRecord(ropeID, spawned, ev)
		}
		slog.Debug("rope event", "event", rec)
		s.pending = append(s.pending, rec)
	}
}

func (s *Scene) writeSession(done telemetry.SessionStats) {
	if s.logStats {
		slog.Info("session", "rope", done.RopeID, "duration_sec", done.DurationSec, "peak_wrap_deg", done.PeakWrapDeg)
	}
	if err := s.output.WriteSession(done); err != nil {
		slog.Error("failed to write session", "error", err)
	}
}

// Rope returns the rope of e, or nil.
func (s *Scene) Rope(e ecs.Entity) *rope.Rope {
	if !s.world.Alive(e) || !s.bodyMap.Has(e) {
		return nil
	}
	return s.bodyMap.Get(e).Rope
}

// Body returns the body component of e, or nil.
func (s *Scene) Body(e ecs.Entity) *components.Body {
	if !s.world.Alive(e) || !s.bodyMap.Has(e) {
		return nil
	}
	return s.bodyMap.Get(e)
}

// Grip returns the grab handle state of e, or nil for passive ropes.
func (s *Scene) Grip(e ecs.Entity) *components.Grip {
	if !s.world.Alive(e) || !s.gripMap.Has(e) {
		return nil
	}
	return s.gripMap.Get(e)
}

// Feeder returns the feeder state of e, or nil for passive ropes.
func (s *Scene) Feeder(e ecs.Entity) *components.Feeder {
	if !s.world.Alive(e) || !s.feederMap.Has(e) {
		return nil
	}
	return s.feederMap.Get(e)
}

// Post returns the post e winds around.
func (s *Scene) Post(e ecs.Entity) rope.Post {
	if s.world.Alive(e) && s.mountMap.Has(e) {
		if m := s.mountMap.Get(e); m.Valid {
			return m.Post
		}
	}
	return rope.DefaultPost()
}

// Ropes returns every rope entity in creation order.
func (s *Scene) Ropes() []ecs.Entity {
	type entry struct {
		e  ecs.Entity
		id uint32
	}
	var found []entry
	query := s.bodyFilter.Query()
	for query.Next() {
		found = append(found, entry{query.Entity(), query.Get().ID})
	}
	// Archetype order differs from creation order once tails exist.
	slices.SortFunc(found, func(a, b entry) int { return cmp.Compare(a.id, b.id) })
	out := make([]ecs.Entity, len(found))
	for i, f := range found {
		out[i] = f.e
	}
	return out
}

// Tick returns the number of completed steps.
func (s *Scene) Tick() int64 {
	return s.tick
}

// DT returns the fixed step in seconds.
func (s *Scene) DT() float64 {
	return s.dt
}

// Config returns the scene configuration.
func (s *Scene) Config() *config.Config {
	return s.cfg
}

// Perf returns performance stats over the collector window.
func (s *Scene) Perf() telemetry.PerfStats {
	return s.perf.Stats()
}

// RecordFrame marks a rendered frame for FPS reporting.
func (s *Scene) RecordFrame() {
	s.perf.RecordFrame()
}
