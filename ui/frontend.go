package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fission/game"
	"github.com/pthm-cable/fission/renderer"
	"github.com/pthm-cable/fission/telemetry"
)

// RenderMode selects the animation engine drawing the field.
type RenderMode uint8

const (
	ModeCanvas RenderMode = iota
	ModeSprite
)

func (m RenderMode) String() string {
	if m == ModeSprite {
		return "Sprite"
	}
	return "Canvas"
}

// maxFrameDT caps the step after a stall (window drag, breakpoint).
const maxFrameDT = 0.1

// Frontend owns the raylib window contents: reactor view on the left,
// control panel on the right.
type Frontend struct {
	game   *game.Game
	canvas *renderer.CanvasRenderer
	sprite *renderer.SpriteRenderer
	core   *renderer.CoreRenderer
	panel  *ControlPanel
	mode   RenderMode

	showPerf bool
}

// NewFrontend creates the frontend. The raylib window must already be open.
func NewFrontend(g *game.Game) *Frontend {
	cfg := g.Config()
	w := int32(cfg.Screen.Width)
	h := int32(cfg.Screen.Height)

	return &Frontend{
		game:   g,
		canvas: renderer.NewCanvasRenderer(),
		sprite: renderer.NewSpriteRenderer(),
		core:   renderer.NewCoreRenderer(cfg.Reactor.MaxTemp),
		panel:  NewControlPanel(w/2+10, 10, w/2-20, h-20, game.ReactorConfig(cfg)),
	}
}

// Mode returns the active animation engine.
func (f *Frontend) Mode() RenderMode {
	return f.mode
}

// ToggleMode switches between the canvas and sprite engines.
func (f *Frontend) ToggleMode() {
	if f.mode == ModeCanvas {
		f.mode = ModeSprite
	} else {
		f.mode = ModeCanvas
	}
}

// Update handles input and advances the simulation by the frame time.
func (f *Frontend) Update() {
	f.handleInput()

	dt := float64(rl.GetFrameTime())
	if dt > maxFrameDT {
		dt = maxFrameDT
	}
	f.game.Step(dt)
}

// Draw renders the frame.
func (f *Frontend) Draw() {
	f.game.PerfCollector().RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 10, G: 12, B: 16, A: 255})

	frame := f.game.Frame()
	f.core.Render(frame)
	switch f.mode {
	case ModeSprite:
		f.sprite.Render(frame)
	default:
		f.canvas.Render(frame)
	}

	if f.panel.Draw(f.game, f.mode) {
		f.ToggleMode()
	}

	rl.DrawText(fmt.Sprintf("Tick: %d  FPS: %d", f.game.Tick(), rl.GetFPS()), 10, 10, 16, rl.Gray)
	if f.showPerf {
		f.drawPerf(f.game.PerfCollector().Stats())
	}

	rl.EndDrawing()
}

// drawPerf lists the per-phase share of tick time.
func (f *Frontend) drawPerf(stats telemetry.PerfStats) {
	y := int32(32)
	rl.DrawText(fmt.Sprintf("tick %v  %.0f tps", stats.AvgTickDuration, stats.TicksPerSecond), 10, y, 14, rl.Gray)
	for p := telemetry.PhaseReactor; p <= telemetry.PhaseTelemetry; p++ {
		y += 16
		rl.DrawText(fmt.Sprintf("%-10s %5.1f%%", p, stats.PhasePct[p]), 10, y, 14, rl.Gray)
	}
}

// handleInput processes keyboard input.
func (f *Frontend) handleInput() {
	g := f.game

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.ToggleReactor()
	}
	if rl.IsKeyPressed(rl.KeyE) {
		g.EmergencyShutdown()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		f.ToggleMode()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		f.showPerf = !f.showPerf
	}

	// Continuous adjustments while held
	step := float64(rl.GetFrameTime()) * 0.5
	if rl.IsKeyDown(rl.KeyUp) {
		g.AdjustPower(step)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.AdjustPower(-step)
	}
	if rl.IsKeyDown(rl.KeyRight) {
		g.AdjustCoolant(step)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.AdjustCoolant(-step)
	}
	if rl.IsKeyDown(rl.KeyPageUp) {
		g.AdjustRods(step)
	}
	if rl.IsKeyDown(rl.KeyPageDown) {
		g.AdjustRods(-step)
	}
}
