// Package terminal renders the particle field into a character grid with tcell.
package terminal

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/fission/systems"
)

// Screen is the subset of tcell.Screen the renderer draws with.
type Screen interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
	Clear()
	Show()
}

// NewScreen creates and initializes a tcell screen on the controlling terminal.
func NewScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initializing screen: %w", err)
	}
	return screen, nil
}

// Viewport maps a world rectangle anchored at (0, 0) onto a cell grid.
type Viewport struct {
	Width, Height float64 // World units
	Cols, Rows    int
}

// Cell returns the grid cell containing p, ok=false when p is outside.
func (v Viewport) Cell(p systems.Vec2) (x, y int, ok bool) {
	if v.Width <= 0 || v.Height <= 0 || v.Cols <= 0 || v.Rows <= 0 {
		return 0, 0, false
	}
	fx := math.Floor(p.X / v.Width * float64(v.Cols))
	fy := math.Floor(p.Y / v.Height * float64(v.Rows))
	if fx < 0 || fy < 0 || fx >= float64(v.Cols) || fy >= float64(v.Rows) {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// Glyph picks a character for a particle radius.
func Glyph(size float64) rune {
	switch {
	case size < 3:
		return '·'
	case size < 5:
		return '•'
	case size < 7:
		return '●'
	default:
		return '◉'
	}
}

var paletteColors = [...]tcell.Color{
	systems.ColorYellow: tcell.ColorYellow,
	systems.ColorOrange: tcell.ColorOrange,
	systems.ColorRed:    tcell.ColorRed,
}

// ParticleStyle returns the cell style for p. In truecolor mode the palette
// colour fades with remaining life; otherwise short-lived particles are dimmed.
func ParticleStyle(p systems.Particle, trueColor bool) tcell.Style {
	alpha := math.Min(p.Life, 1)
	if trueColor {
		rgb := p.Color.RGB()
		return tcell.StyleDefault.Foreground(tcell.NewRGBColor(
			int32(rgb[0]*255*alpha),
			int32(rgb[1]*255*alpha),
			int32(rgb[2]*255*alpha),
		))
	}

	c := tcell.ColorRed
	if int(p.Color) < len(paletteColors) {
		c = paletteColors[p.Color]
	}
	return tcell.StyleDefault.Foreground(c).Dim(alpha < 0.5)
}

// StatusLine formats the reactor readout shown on the bottom row.
func StatusLine(f systems.Frame) string {
	return fmt.Sprintf("%-8s %4d MW  %5.0f°C  I=%.2f  %d particles  [space] start/stop  [s] scram  [+/-] power  [q] quit",
		f.Status, systems.PowerMW(f.Power), f.Temperature, f.Intensity, len(f.Particles))
}

// Renderer draws frames to a Screen, redrawing every frameInterval-th frame.
type Renderer struct {
	screen        Screen
	worldW        float64
	worldH        float64
	trueColor     bool
	frameInterval int
	frames        int
}

// NewRenderer creates a renderer for a world of the given size.
func NewRenderer(screen Screen, worldW, worldH float64, trueColor bool, frameInterval int) *Renderer {
	if frameInterval < 1 {
		frameInterval = 1
	}
	return &Renderer{
		screen:        screen,
		worldW:        worldW,
		worldH:        worldH,
		trueColor:     trueColor,
		frameInterval: frameInterval,
	}
}

// Render draws the field, the core marker and the status line.
func (r *Renderer) Render(f systems.Frame) {
	r.frames++
	if r.frames%r.frameInterval != 0 {
		return
	}

	cols, rows := r.screen.Size()
	if cols <= 0 || rows < 2 {
		return
	}
	// Bottom row is the status line
	view := Viewport{Width: r.worldW, Height: r.worldH, Cols: cols, Rows: rows - 1}

	r.screen.Clear()

	for _, p := range f.Particles {
		if x, y, ok := view.Cell(p.Pos); ok {
			r.screen.SetContent(x, y, Glyph(p.Size), nil, ParticleStyle(p, r.trueColor))
		}
	}

	tr, tg, tb := f.Tint()
	tint := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(tr), int32(tg), int32(tb)))
	if x, y, ok := view.Cell(f.Origin); ok {
		core := '○'
		if f.Intensity > 0.3 {
			core = '◎'
		}
		r.screen.SetContent(x, y, core, nil, tint.Bold(true))
	}

	for i, ch := range []rune(StatusLine(f)) {
		if i >= cols {
			break
		}
		r.screen.SetContent(i, rows-1, ch, nil, tint)
	}

	r.screen.Show()
}
