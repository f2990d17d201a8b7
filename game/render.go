package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/coil/components"
	"github.com/pthm-cable/coil/inspector"
	"github.com/pthm-cable/coil/renderer"
	"github.com/pthm-cable/coil/ui"
)

const controlsLegend = "[LMB] grab  [C] cut mode  [Enter] script  [R] reset  [Tab] select  [RMB] orbit  [MMB] pan  [Space] pause  [</>] speed  [H] overlays  [U] tuning"

// camera3D builds the raylib camera from the orbit camera.
func (g *Game) camera3D() rl.Camera3D {
	x, y, z := g.camera.Position()
	return rl.Camera3D{
		Position:   rl.NewVector3(x, y, z),
		Target:     rl.NewVector3(g.camera.TargetX, g.camera.TargetY, g.camera.TargetZ),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       g.camera.FovY,
		Projection: rl.CameraPerspective,
	}
}

// Draw renders the viewer.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 24, G: 26, B: 30, A: 255})

	rl.BeginMode3D(g.camera3D())
	g.drawWorld()
	rl.EndMode3D()

	g.drawUI()

	rl.EndDrawing()
}

// drawWorld renders the post and ropes. Must run inside BeginMode3D.
func (g *Game) drawWorld() {
	if g.overlays.IsEnabled(ui.OverlayGrid) {
		rl.DrawGrid(20, 0.1)
	}

	post := g.scene.Post(g.primary)
	renderer.DrawPost(post, g.palette.Post)
	if g.overlays.IsEnabled(ui.OverlayPostAxis) {
		renderer.DrawPostAxis(post, rl.Yellow)
	}

	selected, hasSelected := g.inspector.Selected()
	for _, e := range g.scene.Ropes() {
		r := g.scene.Rope(e)
		color := g.palette.Rope
		if b := g.scene.Body(e); b != nil && b.Parent != 0 {
			color = g.palette.Tail
		}
		if hasSelected && e == selected {
			color = g.palette.Selected
		}

		switch {
		case g.overlays.IsEnabled(ui.OverlayMesh):
			renderer.DrawMesh(r.Mesh(), color)
		case g.overlays.IsEnabled(ui.OverlayWireframe):
			renderer.DrawWireframe(r.Mesh(), color)
		}
		if g.overlays.IsEnabled(ui.OverlayParticles) {
			renderer.DrawParticles(r, g.palette.Particle)
		}

		if grip := g.scene.Grip(e); grip != nil && grip.Attached {
			renderer.DrawGrip(grip.Pos, grip.Held, g.palette)
			if g.overlays.IsEnabled(ui.OverlayGripTarget) {
				renderer.DrawTarget(r.GripTarget(), g.palette.Target)
			}
		}
	}

	if e, i, ok := g.hovered(); ok {
		color := g.palette.Selected
		if g.cutMode {
			color = rl.Red
		}
		r := g.scene.Rope(e)
		rl.DrawSphereWires(renderer.V3(r.Position(i)), float32(r.RestLength()*0.6), 6, 6, color)
	}
}

// drawUI renders the 2D panels on top of the scene.
func (g *Game) drawUI() {
	g.hud.Draw(g.hudData())

	if g.cutMode {
		rl.DrawText("CUT MODE", 10, int32(g.screenHeight)-50, 18, rl.Red)
	}

	y := g.controls.Draw(g.overlays)
	if g.overlays.IsEnabled(ui.OverlayStats) && g.lastStats.WindowEndTick > 0 {
		g.stats.SetPosition(10, y+10)
		g.stats.Draw(g.lastStats)
	}
	if g.overlays.IsEnabled(ui.OverlayInspector) {
		if e, ok := g.inspector.Selected(); ok && g.scene.Rope(e) != nil {
			g.inspector.Draw(fmt.Sprintf("rope %d", g.scene.Body(e).ID), g.inspectorSections(e))
		}
	}
	if g.overlays.IsEnabled(ui.OverlayPerf) {
		g.perfPanel.Draw(g.scene.Perf())
	}
	if g.showTuning {
		g.drawTuning()
	}

	g.hud.DrawControls(int32(g.screenWidth), int32(g.screenHeight), controlsLegend)
}

// hudData collects the HUD values.
func (g *Game) hudData() ui.HUDData {
	ropes := g.scene.Ropes()
	data := ui.HUDData{
		Title:      "Coil",
		Ropes:      len(ropes),
		Tick:       g.scene.Tick(),
		SimTimeSec: float64(g.scene.Tick()) * g.scene.DT(),
		Speed:      g.stepsPerUpdate,
		FPS:        rl.GetFPS(),
		Paused:     g.paused,
		State:      "-",
	}
	for _, e := range ropes {
		data.Particles += g.scene.Rope(e).LiveCount()
	}
	if e, ok := g.inspector.Selected(); ok {
		if r := g.scene.Rope(e); r != nil {
			data.State = r.State().String()
			data.WrapDeg = components.StatusOf(r).WrapDeg
		}
	}
	return data
}

// inspectorSections lists the components of e shown in the inspector.
func (g *Game) inspectorSections(e ecs.Entity) []inspector.Section {
	sections := []inspector.Section{
		{Title: "Body", Component: g.scene.Body(e)},
		{Title: "Status", Component: components.StatusOf(g.scene.Rope(e))},
	}
	if grip := g.scene.Grip(e); grip != nil {
		sections = append(sections, inspector.Section{Title: "Grip", Component: grip})
	}
	if feeder := g.scene.Feeder(e); feeder != nil {
		sections = append(sections, inspector.Section{Title: "Feeder", Component: feeder})
	}
	return sections
}
