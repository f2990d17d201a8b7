package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/coil/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title      string
	Ropes      int
	Particles  int
	Tick       int64
	SimTimeSec float64
	Speed      int
	FPS        int32
	Paused     bool
	State      string  // Winding state of the selected rope
	WrapDeg    float64 // Wrap angle of the selected rope
}

// HUD renders the main heads-up display.
type HUD struct{}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Ropes: %d | Particles: %d | State: %s | Wrap: %.1f deg", data.Ropes, data.Particles, data.State, data.WrapDeg),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Time: %.1fs | Speed: %dx | FPS: %d", data.Tick, data.SimTimeSec, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase step timing panel.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel with phases in step order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s | %.0f ticks/s", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range telemetry.PhaseOrder() {
		avg := stats.PhaseAvg[name]
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
