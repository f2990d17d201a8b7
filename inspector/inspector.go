package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"
)

// Panel dimensions
const (
	PanelWidth   = 300
	PanelPadding = 10
	HeaderHeight = 30
	SectionGap   = 28
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 70, B: 80, A: 255}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
	ColorSection     = rl.Color{R: 50, G: 50, B: 60, A: 255}
	ColorSectionText = rl.Color{R: 200, G: 200, B: 220, A: 255}
)

// Section is one titled component shown in the panel.
type Section struct {
	Title     string
	Component any // Struct or pointer to struct with inspect tags
}

// Inspector tracks the selected rope and renders its components.
type Inspector struct {
	selected    ecs.Entity
	hasSelected bool
	panelX      int32
	panelY      int32
}

// NewInspector creates a new inspector anchored to the right screen edge.
func NewInspector(screenWidth, screenHeight int32) *Inspector {
	return &Inspector{
		panelX: screenWidth - PanelWidth - 10,
		panelY: 10,
	}
}

// Resize re-anchors the panel after a window resize.
func (ins *Inspector) Resize(screenWidth, screenHeight int32) {
	ins.panelX = screenWidth - PanelWidth - 10
}

// Select makes e the inspected entity.
func (ins *Inspector) Select(e ecs.Entity) {
	ins.selected = e
	ins.hasSelected = true
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() {
	ins.hasSelected = false
}

// Selected returns the inspected entity.
func (ins *Inspector) Selected() (ecs.Entity, bool) {
	return ins.selected, ins.hasSelected
}

// Cycle selects the entity after the current one in entities, wrapping
// around. An unknown or empty selection picks the first entry.
func (ins *Inspector) Cycle(entities []ecs.Entity) {
	if len(entities) == 0 {
		ins.Deselect()
		return
	}
	next := 0
	if ins.hasSelected {
		for i, e := range entities {
			if e == ins.selected {
				next = (i + 1) % len(entities)
				break
			}
		}
	}
	ins.Select(entities[next])
}

// PanelHeight returns the height Draw uses for sections.
func PanelHeight(sections []Section) int32 {
	height := int32(HeaderHeight + PanelPadding)
	for _, sec := range sections {
		height += SectionGap
		for _, f := range ExtractFields(sec.Component) {
			height += FieldHeight(f)
		}
	}
	return height + PanelPadding
}

// Draw renders the panel for the selected entity.
func (ins *Inspector) Draw(title string, sections []Section) {
	if !ins.hasSelected {
		return
	}

	panelHeight := PanelHeight(sections)
	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, panelHeight, ColorPanelBg)
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: float32(ins.panelX), Y: float32(ins.panelY), Width: PanelWidth, Height: float32(panelHeight)},
		1,
		ColorPanelBorder,
	)

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText(fmt.Sprintf("INSPECTOR  %s", title), ins.panelX+PanelPadding, ins.panelY+7, 16, ColorHeaderText)

	x := ins.panelX + PanelPadding
	y := ins.panelY + HeaderHeight + PanelPadding
	for _, sec := range sections {
		y += 4
		ins.drawSectionHeader(x, y, sec.Title)
		y += SectionGap - 4
		for _, f := range ExtractFields(sec.Component) {
			y += DrawField(x, y, f)
		}
	}
}

// drawSectionHeader renders a section title.
func (ins *Inspector) drawSectionHeader(x, y int32, title string) {
	rl.DrawRectangle(x-2, y-2, PanelWidth-2*PanelPadding+4, 18, ColorSection)
	rl.DrawText(title, x+2, y, 14, ColorSectionText)
}
