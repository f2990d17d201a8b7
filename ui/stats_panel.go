package ui

import (
	"fmt"

	"github.com/pthm-cable/coil/telemetry"
)

func windowStats(data any) telemetry.WindowStats {
	s, _ := data.(telemetry.WindowStats)
	return s
}

func countField(id, label string, get func(telemetry.WindowStats) int) FieldDescriptor {
	return FieldDescriptor{
		ID:     id,
		Label:  label,
		Widget: WidgetText,
		Format: "%.0f",
		Getter: func(d any) float32 { return float32(get(windowStats(d))) },
	}
}

// WindowStatsSections describes the telemetry window panel.
func WindowStatsSections() []SectionDescriptor {
	return []SectionDescriptor{
		{
			ID:    "window",
			Title: "Window",
			Fields: []FieldDescriptor{
				{
					ID: "span", Label: "Ticks", Widget: WidgetText,
					TextGetter: func(d any) string {
						s := windowStats(d)
						return fmt.Sprintf("%d..%d", s.WindowStartTick, s.WindowEndTick)
					},
				},
				countField("ropes", "Ropes", func(s telemetry.WindowStats) int { return s.Ropes }),
				countField("captured", "Captured", func(s telemetry.WindowStats) int { return s.Captured }),
			},
		},
		{
			ID:    "events",
			Title: "Events",
			Fields: []FieldDescriptor{
				countField("captures", "Captures", func(s telemetry.WindowStats) int { return s.Captures }),
				countField("commits", "Commits", func(s telemetry.WindowStats) int { return s.Commits }),
				countField("releases", "Releases", func(s telemetry.WindowStats) int { return s.Releases }),
				countField("deepens", "Deepens", func(s telemetry.WindowStats) int { return s.Deepens }),
				countField("cuts", "Cuts", func(s telemetry.WindowStats) int { return s.Cuts }),
			},
		},
		{
			ID:      "winding",
			Title:   "Winding",
			Visible: func(d any) bool { return windowStats(d).MaxWrapDeg > 0 },
			Fields: []FieldDescriptor{
				{
					ID: "max_wrap", Label: "Max wrap", Widget: WidgetBar,
					Range:  FieldRange{Min: 0, Max: 720},
					Getter: func(d any) float32 { return float32(windowStats(d).MaxWrapDeg) },
				},
				{
					ID: "mean_wrap", Label: "Mean wrap", Widget: WidgetText, Format: "%.1f deg",
					Getter: func(d any) float32 { return float32(windowStats(d).MeanWrapDeg) },
				},
			},
		},
		{
			ID:    "solver",
			Title: "Solver",
			Fields: []FieldDescriptor{
				{
					ID: "err_mean", Label: "Spacing err", Widget: WidgetText, Format: "%.5f",
					Getter: func(d any) float32 { return float32(windowStats(d).SpacingErrMean) },
				},
				{
					ID: "err_p90", Label: "Err p90", Widget: WidgetText, Format: "%.5f",
					Getter: func(d any) float32 { return float32(windowStats(d).SpacingErrP90) },
				},
				{
					ID: "length", Label: "Visible", Widget: WidgetText, Format: "%.2f m",
					Getter: func(d any) float32 { return float32(windowStats(d).VisibleLength) },
				},
			},
		},
	}
}

// StatsPanel renders the most recent telemetry window.
type StatsPanel struct {
	renderer *Renderer
	sections []SectionDescriptor
	x, y     int32
	width    int32
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		sections: WindowStatsSections(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *StatsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel and returns the Y below it.
func (p *StatsPanel) Draw(stats telemetry.WindowStats) int32 {
	r := p.renderer
	padding := r.Theme.Padding

	height := padding * 2
	for _, sd := range p.sections {
		if sd.Visible != nil && !sd.Visible(stats) {
			continue
		}
		height += r.Theme.LineHeight*int32(len(sd.Fields)+1) + int32(len(sd.Fields))*2 + 4
	}
	r.DrawPanel(p.x, p.y, p.width, height)

	y := p.y + padding
	for _, sd := range p.sections {
		y = r.DrawSection(p.x+padding, y, sd, stats, p.width-padding*2)
	}
	return y
}
