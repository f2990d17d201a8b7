package inspector

import (
	"fmt"
	"math"
	
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Widget colors
var (
	ColorBarBg     = rl.Color{R: 40, G: 40, B: 40, A: 255}
	ColorBarFill   = rl.Color{R: 100, G: 180, B: 100, A: 255}
	ColorBarLow    = rl.Color{R: 180, G: 80, B: 80, A: 255}
	ColorText      = rl.Color{R: 220, G: 220, B: 220, A: 255}
	ColorTextDim   = rl.Color{R: 150, G: 150, B: 150, A: 255}
	ColorAngleBg   = rl.Color{R: 50, G: 50, B: 60, A: 255}
	ColorAngleNeedle = rl.Color{R: 255, G: 200, B: 100, A: 255}
	ColorBoolOn    = rl.Color{R: 100, G: 200, B: 100, A: 255}
	ColorBoolOff   = rl.Color{R: 80, G: 80, B: 80, A: 255}
)

// Row heights returned by the Draw functions.
const (
	LabelHeight = 20
	BarHeight   = 18
	AngleHeight = 44
	BoolHeight  = 18
)

// DrawLabel renders a text value.
func DrawLabel(x, y int32, name string, value any, options map[string]string) int32 {
	fmtStr := options["fmt"]
	text := FormatValue(value, fmtStr)
	rl.DrawText(fmt.Sprintf("%s: %s", name, text), x, y, 16, ColorText)
	return LabelHeight
}

// DrawBar renders a horizontal progress bar.
func DrawBar(x, y int32, name string, value float32, options map[string]string) int32 {
	maxVal := GetMax(options)
	ratio := value / maxVal
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}

	barWidth := int32(120)
	barHeight := int32(14)

	// Label
	rl.DrawText(name, x, y, 14, ColorTextDim)

	// Bar background
	barX := x + 80
	rl.DrawRectangle(barX, y, barWidth, barHeight, ColorBarBg)

	// Bar fill
	fillWidth := int32(float32(barWidth) * ratio)
	fillColor := lerpColor(ColorBarLow, ColorBarFill, ratio)
	rl.DrawRectangle(barX, y, fillWidth, barHeight, fillColor)

	// Value text
	valueStr := FormatValue(value, options["fmt"])
	rl.DrawText(valueStr, barX+barWidth+5, y, 14, ColorTextDim)

	return BarHeight
}

// DrawAngle renders a compass-style angle indicator.
func DrawAngle(x, y int32, name string, radians float32, options map[string]string) int32 {
	size := int32(40)
	centerX := x + 60 + size/2
	centerY := y + size/2

	// Label
	rl.DrawText(name, x, y+size/2-7, 14, ColorTextDim)

	// Circle background
	rl.DrawCircle(centerX, centerY, float32(size/2), ColorAngleBg)
	rl.DrawCircleLines(centerX, centerY, float32(size/2), ColorTextDim)

	// Needle
	needleLen := float32(size/2 - 4)
	endX := float32(centerX) + needleLen*float32(math.Cos(float64(radians)))
	endY := float32(centerY) + needleLen*float32(math.Sin(float64(radians)))
	rl.DrawLineEx(
		rl.Vector2{X: float32(centerX), Y: float32(centerY)},
		rl.Vector2{X: endX, Y: endY},
		2,
		ColorAngleNeedle,
	)

	// Degree text
	degrees := radians * 180 / math.Pi
	rl.DrawText(fmt.Sprintf("%.0f deg", degrees), x+60+size+5, y+size/2-7, 14, ColorTextDim)

	return AngleHeight
}

// DrawBool renders an on/off indicator.
func DrawBool(x, y int32, name string, value bool) int32 {
	// Label
	rl.DrawText(name, x, y, 14, ColorTextDim)

	// Indicator
	indicatorX := x + 80
	indicatorSize := int32(14)

	color := ColorBoolOff
	text := "OFF"
	if value {
		color = ColorBoolOn
		text = "ON"
	}

	rl.DrawRectangle(indicatorX, y, indicatorSize, indicatorSize, color)
	rl.DrawText(text, indicatorX+indicatorSize+5, y, 14, color)

	return BoolHeight
}

// FieldHeight returns the row height DrawField uses for field.
func FieldHeight(field Field) int32 {
	switch field.Widget {
	case WidgetBar:
		if _, ok := GetFloatValue(field.Value); ok {
			return BarHeight
		}
	case WidgetAngle:
		if _, ok := GetFloatValue(field.Value); ok {
			return AngleHeight
		}
	case WidgetBool:
		if _, ok := field.Value.(bool); ok {
			return BoolHeight
		}
	}
	return LabelHeight
}

// DrawField renders a field using its widget type.
func DrawField(x, y int32, field Field) int32 {
	switch field.Widget {
	case WidgetBar:
		if v, ok := GetFloatValue(field.Value); ok {
			return DrawBar(x, y, field.Name, v, field.Options)
		}
		return DrawLabel(x, y, field.Name, field.Value, field.Options)

	case WidgetAngle:
		if v, ok := GetFloatValue(field.Value); ok {
			return DrawAngle(x, y, field.Name, v, field.Options)
		}
		return DrawLabel(x, y, field.Name, field.Value, field.Options)

	case WidgetBool:
		if v, ok := field.Value.(bool); ok {
			return DrawBool(x, y, field.Name, v)
		}
		return DrawLabel(x, y, field.Name, field.Value, field.Options)

	default:
		return DrawLabel(x, y, field.Name, field.Value, field.Options)
	}
}

// lerpColor interpolates between two colors.
func lerpColor(a, b rl.Color, t float32) rl.Color {
	return rl.Color{
		R: uint8(float32(a.R) + (float32(b.R)-float32(a.R))*t),
		G: uint8(float32(a.G) + (float32(b.G)-float32(a.G))*t),
		B: uint8(float32(a.B) + (float32(b.B)-float32(a.B))*t),
		A: 255,
	}
}
