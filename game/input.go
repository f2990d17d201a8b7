package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyH) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyU) {
		g.showTuning = !g.showTuning
	}
	if rl.IsKeyPressed(rl.KeyC) {
		g.cutMode = !g.cutMode
	}
	if rl.IsKeyPressed(rl.KeyEnter) {
		g.startScript()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.reset()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.inspector.Cycle(g.scene.Ropes())
	}

	g.overlays.HandleKeys()
	g.handleCameraInput()
	g.handleMouse()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.perfPanel.SetPosition(int32(w)-320, int32(h)-200)
	g.inspector.Resize(int32(w), int32(h))
}

// handleCameraInput processes orbit, pan and zoom controls.
func (g *Game) handleCameraInput() {
	// Right drag orbits, middle drag pans
	delta := rl.GetMouseDelta()
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		g.camera.Orbit(-delta.X*0.008, delta.Y*0.008)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		g.camera.Pan(delta.X, delta.Y)
	}

	// Arrow keys orbit
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Orbit(0.03, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Orbit(-0.03, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Orbit(0, 0.02)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Orbit(0, -0.02)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// handleMouse runs the grab and cut tools. The left button drags the
// primary rope's grip in the post plane, or cuts at the hovered particle
// in cut mode.
func (g *Game) handleMouse() {
	mouse := rl.GetMousePosition()
	if g.showTuning && rl.CheckCollisionPointRec(mouse, g.tuningRect()) {
		g.hasHover = false
		return
	}
	g.updateHover(mouse.X, mouse.Y)

	if g.cutMode {
		if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
			if e, i, ok := g.hovered(); ok {
				r := g.scene.Rope(e)
				g.scene.RequestCut(e, r.Position(i))
				g.inspector.Select(e)
			}
		}
		return
	}

	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		ray := rl.GetScreenToWorldRay(mouse, g.camera3D())
		origin := r3.Vec{X: float64(ray.Position.X), Y: float64(ray.Position.Y), Z: float64(ray.Position.Z)}
		dir := r3.Vec{X: float64(ray.Direction.X), Y: float64(ray.Direction.Y), Z: float64(ray.Direction.Z)}
		if p, ok := g.gripPoint(origin, dir); ok {
			g.script = nil
			g.grabbing = true
			g.scene.SetGrip(g.primary, true, p)
		}
		return
	}
	if g.grabbing {
		g.grabbing = false
		g.scene.ReleaseGrip(g.primary)
	}
}
