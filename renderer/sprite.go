package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fission/systems"
)

// SpriteRenderer draws the field as flat status-coloured sprites with a flash
// disc behind the core and dashed energy rings at higher intensity.
type SpriteRenderer struct {
	FlashBase         float32 // Flash disc radius at intensity 0
	FlashPerIntensity float32
	RingThreshold     float64 // Rings appear above this intensity
	RingCount         int
	Dashes            int
}

// NewSpriteRenderer creates a sprite renderer with the default layout.
func NewSpriteRenderer() *SpriteRenderer {
	return &SpriteRenderer{
		FlashBase:         50,
		FlashPerIntensity: 50,
		RingThreshold:     0.3,
		RingCount:         3,
		Dashes:            12,
	}
}

// Render draws one frame.
func (r *SpriteRenderer) Render(f systems.Frame) {
	center := vec(f.Origin)

	if len(f.Particles) > 0 {
		flash := r.FlashBase + float32(f.Intensity)*r.FlashPerIntensity
		rl.DrawCircleV(center, flash, tint(f, 0.25*f.Intensity))
	}

	if f.Intensity > r.RingThreshold {
		r.drawRings(f, center)
	}

	for i := range f.Particles {
		p := &f.Particles[i]
		rl.DrawCircleV(vec(p.Pos), float32(p.Size), tint(f, fade(*p)))
	}
}

// drawRings draws concentric dashed rings rotating with the tick count.
func (r *SpriteRenderer) drawRings(f systems.Frame, center rl.Vector2) {
	if r.Dashes < 1 {
		return
	}
	span := float32(360) / float32(r.Dashes)
	spin := float32(math.Mod(float64(f.Tick)*2, 360))

	for k := 1; k <= r.RingCount; k++ {
		radius := float32(40*k) + float32(f.Intensity)*40
		alpha := (f.Intensity - r.RingThreshold) / float64(k)
		color := tint(f, alpha)

		dir := float32(1)
		if k%2 == 0 {
			dir = -1
		}
		for d := 0; d < r.Dashes; d++ {
			start := spin*dir + float32(d)*span
			rl.DrawRing(center, radius, radius+2, start, start+span*0.6, 8, color)
		}
	}
}
