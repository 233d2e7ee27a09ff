// Package renderer draws the particle field and reactor core with raylib.
// Draw calls must run between rl.BeginDrawing and rl.EndDrawing.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fission/systems"
)

// tint returns the frame's status colour at the given opacity in [0, 1].
func tint(f systems.Frame, alpha float64) rl.Color {
	r, g, b := f.Tint()
	return rl.Color{R: r, G: g, B: b, A: alphaByte(alpha)}
}

// particleColor returns the palette colour of p at the given opacity.
func particleColor(p systems.Particle, alpha float64) rl.Color {
	r, g, b := p.Color.RGB8()
	return rl.Color{R: r, G: g, B: b, A: alphaByte(alpha)}
}

// fade returns the particle opacity: full until the last second of life.
func fade(p systems.Particle) float64 {
	return math.Min(p.Life, 1)
}

func alphaByte(a float64) uint8 {
	switch {
	case a <= 0 || math.IsNaN(a):
		return 0
	case a >= 1:
		return 255
	}
	return uint8(a * 255)
}

func vec(v systems.Vec2) rl.Vector2 {
	return rl.Vector2{X: float32(v.X), Y: float32(v.Y)}
}

// glowLayer is one disc of a layered radial glow.
type glowLayer struct {
	scale float32 // Fraction of the glow radius
	alpha float64
}

var coreGlow = []glowLayer{
	{1.0, 0.06},
	{0.75, 0.10},
	{0.5, 0.16},
	{0.3, 0.28},
	{0.15, 0.5},
}

// drawGlow draws stacked translucent discs fading outward from center.
func drawGlow(center rl.Vector2, radius float32, r, g, b uint8, intensity float64) {
	for _, layer := range coreGlow {
		c := rl.Color{R: r, G: g, B: b, A: alphaByte(layer.alpha * intensity)}
		if c.A == 0 {
			continue
		}
		rl.DrawCircleV(center, radius*layer.scale, c)
	}
}
