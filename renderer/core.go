package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fission/systems"
)

// CoreRenderer draws the reactor vessel behind the field: rod channels,
// coolant level and a status ring.
type CoreRenderer struct {
	VesselRadius float32
	MaxTemp      float64
}

// NewCoreRenderer creates a core renderer.
func NewCoreRenderer(maxTemp float64) *CoreRenderer {
	return &CoreRenderer{
		VesselRadius: 150,
		MaxTemp:      maxTemp,
	}
}

var (
	vesselColor  = rl.Color{R: 30, G: 36, B: 44, A: 255}
	channelColor = rl.Color{R: 20, G: 22, B: 26, A: 255}
	rodColor     = rl.Color{R: 120, G: 130, B: 140, A: 255}
	coolantColor = rl.Color{R: 40, G: 120, B: 220, A: 90}
)

// Render draws one frame.
func (r *CoreRenderer) Render(f systems.Frame) {
	center := vec(f.Origin)
	radius := r.VesselRadius

	rl.DrawCircleV(center, radius, vesselColor)

	// Coolant fills the vessel from the bottom
	if f.Coolant > 0 {
		level := float32(f.Coolant) * radius * 2
		rl.DrawRectangleRec(rl.Rectangle{
			X:      center.X - radius*0.7,
			Y:      center.Y + radius - level,
			Width:  radius * 1.4,
			Height: level,
		}, coolantColor)
	}

	// Heat glow from temperature
	if r.MaxTemp > 0 && f.Temperature > 0 {
		heat := f.Temperature / r.MaxTemp
		drawGlow(center, radius*0.9, 255, 90, 20, heat)
	}

	r.drawRods(f, center)

	// Status ring
	rl.DrawRing(center, radius, radius+4, 0, 360, 64, tint(f, 0.9))

	label := f.Status.String()
	size := int32(16)
	w := rl.MeasureText(label, size)
	rl.DrawText(label, int32(center.X)-w/2, int32(center.Y+radius)+12, size, tint(f, 1))

	temp := fmt.Sprintf("%.0f°C", f.Temperature)
	w = rl.MeasureText(temp, size)
	rl.DrawText(temp, int32(center.X)-w/2, int32(center.Y+radius)+32, size, rl.LightGray)
}

// drawRods draws one channel per rod; the rod body covers the inserted part.
func (r *CoreRenderer) drawRods(f systems.Frame, center rl.Vector2) {
	n := len(f.Rods)
	if n == 0 {
		return
	}
	height := r.VesselRadius * 1.4
	width := float32(10)
	spacing := r.VesselRadius * 1.2 / float32(n)
	top := center.Y - height/2
	left := center.X - spacing*float32(n-1)/2 - width/2

	for i, w := range f.Rods {
		x := left + float32(i)*spacing
		rl.DrawRectangleRec(rl.Rectangle{X: x, Y: top, Width: width, Height: height}, channelColor)

		inserted := float32(1-w) * height
		rl.DrawRectangleRec(rl.Rectangle{X: x, Y: top, Width: width, Height: inserted}, rodColor)
	}
}
