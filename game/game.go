// Package game hosts the interactive rope viewer: a raylib window around
// a scene, with an orbit camera, mouse grab and cut tools, and debug panels.
package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/camera"
	"github.com/pthm-cable/coil/config"
	"github.com/pthm-cable/coil/inspector"
	"github.com/pthm-cable/coil/renderer"
	"github.com/pthm-cable/coil/rope"
	"github.com/pthm-cable/coil/scene"
	"github.com/pthm-cable/coil/telemetry"
	"github.com/pthm-cable/coil/ui"
)

// Options configures a viewer session.
type Options struct {
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
	Turns          float64 // Turns wound by the demo script
	StepsPerUpdate int
	Scripted       bool // Start with the demo script playing
}

// Game is the interactive viewer.
type Game struct {
	cfg     *config.Config
	scene   *scene.Scene
	primary ecs.Entity
	turns   float64

	// Demo script, nil while the mouse drives the grip
	script *scene.ScriptRunner

	camera    *camera.Camera
	palette   renderer.Palette
	overlays  *ui.OverlayRegistry
	controls  *ui.ControlsPanel
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	stats     *ui.StatsPanel
	inspector *inspector.Inspector
	lastStats telemetry.WindowStats

	screenWidth    float32
	screenHeight   float32
	paused         bool
	stepsPerUpdate int
	showTuning     bool

	// Mouse tools
	grabbing      bool
	cutMode       bool
	hoverRope     ecs.Entity
	hoverParticle int
	hasHover      bool
}

// NewGameWithOptions creates a viewer with one rope hanging beside the
// configured post. The raylib window must already be open.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()
	g := &Game{
		cfg:            cfg,
		turns:          opts.Turns,
		palette:        renderer.DefaultPalette(),
		overlays:       ui.NewOverlayRegistry(),
		controls:       ui.NewControlsPanel(10, 100, 230),
		hud:            ui.NewHUD(),
		screenWidth:    float32(cfg.Screen.Width),
		screenHeight:   float32(cfg.Screen.Height),
		stepsPerUpdate: max(opts.StepsPerUpdate, 1),
	}
	if g.turns <= 0 {
		g.turns = 1
	}

	sc, err := scene.New(scene.Options{
		Config:         cfg,
		LogStats:       opts.LogStats,
		StatsWindowSec: opts.StatsWindowSec,
		OutputDir:      opts.OutputDir,
		StatsCallback:  func(s telemetry.WindowStats) { g.lastStats = s },
	})
	if err != nil {
		return nil, err
	}
	g.scene = sc

	post := rope.PostFromConfig(cfg)
	g.primary = sc.AddRope(spawnRoot(post), r3.Vec{Y: -1})

	center := post.Center
	g.camera = camera.New(g.screenWidth, g.screenHeight, float32(center.X), float32(center.Y), float32(center.Z), 1.2)
	g.camera.Yaw = 0.6
	g.camera.Pitch = 0.35

	g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-320, int32(g.screenHeight)-200)
	g.stats = ui.NewStatsPanel(10, 100, 230)
	g.inspector = inspector.NewInspector(int32(g.screenWidth), int32(g.screenHeight))
	g.inspector.Select(g.primary)

	if opts.Scripted {
		g.startScript()
	}

	slog.Info("viewer started", "post_radius", post.Radius, "turns", g.turns)
	return g, nil
}

// spawnRoot places the rope root above and to the side of the post.
func spawnRoot(post rope.Post) r3.Vec {
	return r3.Add(post.Center, r3.Vec{X: post.Radius + 0.25, Y: 0.2})
}

// Update handles input and advances the simulation.
func (g *Game) Update() {
	g.scene.RecordFrame()
	g.handleInput()

	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// step advances one fixed tick, driven by the script when one is playing.
func (g *Game) step() {
	if g.script != nil {
		if g.script.Step() {
			return
		}
		slog.Info("script finished", "steps", g.script.Steps())
		g.script = nil
	}
	g.scene.Step()
}

// startScript plays the demo script against the primary rope.
func (g *Game) startScript() {
	if g.scene.Rope(g.primary) == nil {
		return
	}
	g.grabbing = false
	g.script = g.scene.NewScriptRunner(g.primary, scene.DefaultScript(g.cfg, g.turns))
	slog.Info("script started", "turns", g.turns)
}

// reset drops every rope and spawns a fresh primary rope.
func (g *Game) reset() {
	for _, e := range g.scene.Ropes() {
		g.scene.Remove(e)
	}
	g.script = nil
	g.grabbing = false
	g.primary = g.scene.AddRope(spawnRoot(rope.PostFromConfig(g.cfg)), r3.Vec{Y: -1})
	g.inspector.Select(g.primary)
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int64 {
	return g.scene.Tick()
}

// Unload closes the scene output.
func (g *Game) Unload() {
	if err := g.scene.Close(); err != nil {
		slog.Error("closing scene output", "error", err)
	}
}
