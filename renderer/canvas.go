package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fission/systems"
)

// CanvasRenderer draws the field in immediate mode: palette-coloured circles
// with an additive halo and a central glow sized by intensity.
type CanvasRenderer struct {
	GlowBase         float32 // Central glow radius at intensity 0
	GlowPerIntensity float32
	HaloScale        float32 // Halo radius as a multiple of particle size
}

// NewCanvasRenderer creates a canvas renderer with the default glow.
func NewCanvasRenderer() *CanvasRenderer {
	return &CanvasRenderer{
		GlowBase:         30,
		GlowPerIntensity: 50,
		HaloScale:        2,
	}
}

// Render draws one frame.
func (r *CanvasRenderer) Render(f systems.Frame) {
	center := vec(f.Origin)

	rl.BeginBlendMode(rl.BlendAdditive)

	if len(f.Particles) > 0 {
		cr, cg, cb := f.Tint()
		radius := r.GlowBase + float32(f.Intensity)*r.GlowPerIntensity
		drawGlow(center, radius, cr, cg, cb, 0.5+f.Intensity)
	}

	for i := range f.Particles {
		p := &f.Particles[i]
		alpha := fade(*p)
		pos := vec(p.Pos)
		size := float32(p.Size)

		rl.DrawCircleV(pos, size*r.HaloScale, particleColor(*p, alpha*0.15))
		rl.DrawCircleV(pos, size, particleColor(*p, alpha))
	}

	rl.EndBlendMode()
}
