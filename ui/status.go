package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fission/systems"
)

func frameOf(data any) systems.Frame {
	f, _ := data.(systems.Frame)
	return f
}

func averageRod(f systems.Frame) float32 {
	return float32(systems.Controls{Rods: f.Rods}.AverageRod())
}

// statusSection describes the reactor readout for a systems.Frame. The heat
// bar is marked at the stable and critical temperatures.
func statusSection(rc systems.ReactorConfig) SectionDescriptor {
	var heatMarks []float32
	if rc.MaxTemp > 0 {
		heatMarks = []float32{float32(rc.StableTemp / rc.MaxTemp), float32(rc.CriticalTemp / rc.MaxTemp)}
	}
	return SectionDescriptor{
		ID:    "status",
		Title: "Reactor Status",
		Fields: []FieldDescriptor{
			{
				ID: "state", Label: "State", Widget: WidgetText,
				TextGetter: func(d any) string { return frameOf(d).Status.String() },
				ColorGetter: func(d any) rl.Color {
					r, g, b := frameOf(d).Tint()
					return rl.Color{R: r, G: g, B: b, A: 255}
				},
			},
			{
				ID: "output", Label: "Output", Widget: WidgetText,
				TextGetter: func(d any) string { return fmt.Sprintf("%d MW", systems.PowerMW(frameOf(d).Power)) },
			},
			{
				ID: "temperature", Label: "Temperature", Widget: WidgetText, Format: "%.0f°C",
				Getter: func(d any) float32 { return float32(frameOf(d).Temperature) },
			},
			{
				ID: "coolant", Label: "Coolant", Widget: WidgetText, Format: "%.0f%%",
				Getter: func(d any) float32 { return float32(frameOf(d).Coolant * 100) },
			},
			{
				ID: "rods", Label: "Rod avg", Widget: WidgetText, Format: "%.0f%%",
				Getter: func(d any) float32 { return averageRod(frameOf(d)) * 100 },
			},
			{
				ID: "particles", Label: "Particles", Widget: WidgetText,
				TextGetter: func(d any) string { return fmt.Sprintf("%d", len(frameOf(d).Particles)) },
			},
			{ID: "gap", Widget: WidgetSpacer},
			{
				ID: "heat", Label: "Core heat", Widget: WidgetBar, Marks: heatMarks,
				Getter: func(d any) float32 {
					if rc.MaxTemp <= 0 {
						return 0
					}
					return float32(frameOf(d).Temperature / rc.MaxTemp)
				},
			},
		},
	}
}
