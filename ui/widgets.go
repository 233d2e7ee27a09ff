package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight + 4
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string, color rl.Color) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, color)
	return y + r.Theme.LineHeight
}

// DrawBar draws a [0, 1] bar. The fill colour steps up at each mark, and
// marks are drawn as ticks across the bar.
func (r *Renderer) DrawBar(x, y int32, label string, value float32, marks []float32, width int32) int32 {
	t := r.Theme
	value = min(max(value, 0), 1)

	barX := x + t.LabelWidth
	barWidth := width - t.LabelWidth - 60

	rl.DrawText(label+":", x, y, t.FontSize, t.LabelColor)
	rl.DrawRectangle(barX, y+3, barWidth, t.BarHeight, t.BarBg)
	rl.DrawRectangle(barX, y+3, int32(float32(barWidth)*value), t.BarHeight, r.levelColor(value, marks))
	for _, m := range marks {
		mx := barX + int32(float32(barWidth)*m)
		rl.DrawLine(mx, y+1, mx, y+5+t.BarHeight, t.BarMark)
	}

	rl.DrawText(fmt.Sprintf("%.0f%%", value*100), barX+barWidth+8, y, t.FontSize, t.ValueColor)
	return y + t.LineHeight + 2
}

// levelColor picks low, medium or high by how many marks value has passed.
func (r *Renderer) levelColor(value float32, marks []float32) rl.Color {
	levels := [...]rl.Color{r.Theme.BarFillLow, r.Theme.BarFillMedium, r.Theme.BarFillHigh}
	n := 0
	for _, m := range marks {
		if value > m {
			n++
		}
	}
	return levels[min(n, len(levels)-1)]
}

// DrawField renders a field based on its descriptor.
func (r *Renderer) DrawField(x, y int32, fd FieldDescriptor, data any, width int32) int32 {
	switch fd.Widget {
	case WidgetText:
		var text string
		if fd.TextGetter != nil {
			text = fd.TextGetter(data)
		} else if fd.Getter != nil {
			text = fmt.Sprintf(fd.Format, fd.Getter(data))
		}
		color := r.Theme.ValueColor
		if fd.ColorGetter != nil {
			color = fd.ColorGetter(data)
		}
		return r.DrawLabelValue(x, y, fd.Label, text, color)

	case WidgetBar:
		var value float32
		if fd.Getter != nil {
			value = fd.Getter(data)
		}
		return r.DrawBar(x, y, fd.Label, value, fd.Marks, width)

	case WidgetSection:
		return r.DrawSectionHeader(x, y, fd.Label)

	case WidgetSpacer:
		return y + 6
	}

	return y
}

// DrawSection renders a section with header and fields.
func (r *Renderer) DrawSection(x, y int32, sd SectionDescriptor, data any, width int32) int32 {
	if sd.Title != "" {
		y = r.DrawSectionHeader(x, y, sd.Title)
	}
	for _, fd := range sd.Fields {
		y = r.DrawField(x, y, fd, data, width)
	}
	return y + 4
}
