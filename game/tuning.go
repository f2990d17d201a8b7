package game

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	tuningWidth  = 340
	tuningHeight = 210
)

// tuningRect is the screen area of the tuning panel.
func (g *Game) tuningRect() rl.Rectangle {
	return rl.Rectangle{
		X:      g.screenWidth/2 - tuningWidth/2,
		Y:      g.screenHeight - tuningHeight - 40,
		Width:  tuningWidth,
		Height: tuningHeight,
	}
}

// drawTuning renders the raygui panel for live feed length, sim speed and
// script controls.
func (g *Game) drawTuning() {
	rect := g.tuningRect()
	rl.DrawRectangleRec(rect, rl.Color{R: 20, G: 20, B: 25, A: 230})
	rl.DrawRectangleLinesEx(rect, 1, rl.Color{R: 70, G: 70, B: 80, A: 255})

	panelX := rect.X + 10
	panelY := rect.Y + 10
	sliderW := float32(tuningWidth - 110)

	rl.DrawText("Tuning", int32(panelX), int32(panelY), 18, rl.White)
	panelY += 28

	// Feed target of the selected rope
	if e, ok := g.inspector.Selected(); ok {
		if feeder := g.scene.Feeder(e); feeder != nil {
			rl.DrawText("Feed target (m)", int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
			minLen, maxLen := float32(g.cfg.Rope.MinLength), float32(g.cfg.Rope.MaxLength)
			target := gui.SliderBar(
				rl.Rectangle{X: panelX + 30, Y: panelY, Width: sliderW, Height: 18},
				fmt.Sprintf("%.1f", minLen), fmt.Sprintf("%.1f", maxLen),
				float32(feeder.Target), minLen, maxLen,
			)
			rl.DrawText(fmt.Sprintf("%.2f", feeder.Target), int32(panelX+sliderW+65), int32(panelY+2), 14, rl.LightGray)
			if target != float32(feeder.Target) {
				g.scene.SetFeedTarget(e, float64(target))
			}
			panelY += 28
		}
	}

	// Steps per update
	rl.DrawText("Speed (steps per frame)", int32(panelX), int32(panelY), 14, rl.Gray)
	panelY += 16
	speed := gui.SliderBar(
		rl.Rectangle{X: panelX + 30, Y: panelY, Width: sliderW, Height: 18},
		"1", "10",
		float32(g.stepsPerUpdate), 1, 10,
	)
	g.stepsPerUpdate = int(speed + 0.5)
	panelY += 28

	// Script turns
	rl.DrawText("Script turns", int32(panelX), int32(panelY), 14, rl.Gray)
	panelY += 16
	turns := gui.SliderBar(
		rl.Rectangle{X: panelX + 30, Y: panelY, Width: sliderW, Height: 18},
		"0.25", "3",
		float32(g.turns), 0.25, 3,
	)
	g.turns = float64(turns)
	rl.DrawText(fmt.Sprintf("%.2f", g.turns), int32(panelX+sliderW+65), int32(panelY+2), 14, rl.LightGray)
	panelY += 30

	scriptLabel := "Play script"
	if g.script != nil {
		scriptLabel = "Stop script"
	}
	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 100, Height: 26}, scriptLabel) {
		if g.script != nil {
			g.script = nil
			g.scene.ReleaseGrip(g.primary)
		} else {
			g.startScript()
		}
	}
	cutLabel := "Cut: off"
	if g.cutMode {
		cutLabel = "Cut: on"
	}
	if gui.Button(rl.Rectangle{X: panelX + 110, Y: panelY, Width: 100, Height: 26}, cutLabel) {
		g.cutMode = !g.cutMode
	}
	if gui.Button(rl.Rectangle{X: panelX + 220, Y: panelY, Width: 100, Height: 26}, "Reset") {
		g.reset()
	}
}
