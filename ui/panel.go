package ui

import (
	"fmt"
	"log/slog"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fission/game"
	"github.com/pthm-cable/fission/systems"
)

// ControlPanel renders the operator controls and status readout.
type ControlPanel struct {
	renderer *Renderer
	status   SectionDescriptor
	x, y     int32
	width    int32
	height   int32
}

// NewControlPanel creates a panel occupying the given rectangle.
func NewControlPanel(x, y, width, height int32, rc systems.ReactorConfig) *ControlPanel {
	return &ControlPanel{
		renderer: NewRenderer(),
		status:   statusSection(rc),
		x:        x,
		y:        y,
		width:    width,
		height:   height,
	}
}

// Draw renders the panel and applies any control changes to g. It reports
// whether the animation engine toggle was pressed.
func (c *ControlPanel) Draw(g *game.Game, mode RenderMode) bool {
	r := c.renderer
	pad := r.Theme.Padding
	r.DrawPanel(c.x, c.y, c.width, c.height)

	x := float32(c.x + pad)
	y := float32(c.y + pad)
	w := float32(c.width - pad*2)

	rl.DrawText("Reactor Control", int32(x), int32(y), 22, rl.RayWhite)
	y += 34

	// START / SHUTDOWN
	label := "START REACTOR"
	if g.Active() {
		label = "SHUTDOWN"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w/2 - 5, Height: 32}, label) {
		g.ToggleReactor()
	}
	if gui.Button(rl.Rectangle{X: x + w/2 + 5, Y: y, Width: w/2 - 5, Height: 32}, "EMERGENCY SHUTDOWN") {
		g.EmergencyShutdown()
	}
	y += 46

	power := float32(g.Power())
	if v := c.slider(x, &y, w, "Power Level", fmt.Sprintf("%d MW", systems.PowerMW(g.Power())), power); v != power {
		g.SetPower(float64(v))
	}
	coolant := float32(g.Coolant())
	if v := c.slider(x, &y, w, "Coolant Flow", fmt.Sprintf("%.0f%%", g.Coolant()*100), coolant); v != coolant {
		g.SetCoolant(float64(v))
	}

	y = float32(r.DrawSectionHeader(int32(x), int32(y), "Control Rods"))
	for i := 0; i < g.RodCount(); i++ {
		target := float32(g.RodTarget(i))
		v := c.slider(x, &y, w, fmt.Sprintf("Rod %d", i+1), fmt.Sprintf("%.0f%%", target*100), target)
		if v != target {
			if err := g.SetRodTarget(i, float64(v)); err != nil {
				slog.Warn("rod slider", "rod", i+1, "error", err)
			}
		}
	}

	y = float32(r.DrawSection(int32(x), int32(y)+6, c.status, g.Frame(), int32(w)))

	return gui.Button(rl.Rectangle{X: x, Y: y + 6, Width: w, Height: 28}, "Animation: "+mode.String())
}

// slider draws a labelled raygui slider and advances y.
func (c *ControlPanel) slider(x float32, y *float32, w float32, label, value string, v float32) float32 {
	t := c.renderer.Theme
	rl.DrawText(label, int32(x), int32(*y), t.FontSize, t.LabelColor)
	vw := rl.MeasureText(value, t.FontSize)
	rl.DrawText(value, int32(x+w)-vw, int32(*y), t.FontSize, t.ValueColor)
	*y += float32(t.LineHeight)

	out := gui.SliderBar(rl.Rectangle{X: x, Y: *y, Width: w, Height: 14}, "", "", v, 0, 1)
	*y += 24
	return out
}
