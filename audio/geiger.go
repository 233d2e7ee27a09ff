// Package audio turns particle field intensity into Geiger counter clicks.
package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/pthm-cable/fission/systems"
)

// Config holds click synthesis parameters.
type Config struct {
	SampleRate       int
	BaseRate         float64 // Clicks per second with no emission
	RatePerIntensity float64 // Extra clicks per second per unit intensity
	ClickMillis      float64
	Volume           float64 // Linear gain in [0, 1]
}

// Rand is the random source clicks are drawn from.
type Rand interface {
	Float64() float64
}

// Geiger is a beep.Streamer producing clicks as a Poisson process whose rate
// follows the current intensity. Each click is a short burst of decaying noise.
type Geiger struct {
	sr       beep.SampleRate
	rng      Rand
	base     float64
	perI     float64
	clickLen int

	rate      float64 // Clicks per second
	remaining int     // Samples left in the current click
	clicks    int
}

// NewGeiger creates a streamer clicking at the base rate.
func NewGeiger(cfg Config, rng Rand) *Geiger {
	sr := beep.SampleRate(cfg.SampleRate)
	clickLen := sr.N(time.Duration(cfg.ClickMillis * float64(time.Millisecond)))
	if clickLen < 1 {
		clickLen = 1
	}
	return &Geiger{
		sr:       sr,
		rng:      rng,
		base:     cfg.BaseRate,
		perI:     cfg.RatePerIntensity,
		clickLen: clickLen,
		rate:     math.Max(0, cfg.BaseRate),
	}
}

// SetIntensity updates the click rate. When the streamer is playing the caller
// must hold speaker.Lock.
func (g *Geiger) SetIntensity(intensity float64) {
	if math.IsNaN(intensity) || intensity < 0 {
		intensity = 0
	}
	g.rate = math.Max(0, g.base+intensity*g.perI)
}

// Rate returns the current clicks per second.
func (g *Geiger) Rate() float64 {
	return g.rate
}

// Clicks returns how many clicks have started so far.
func (g *Geiger) Clicks() int {
	return g.clicks
}

// Stream fills samples with clicks and silence. It never drains.
func (g *Geiger) Stream(samples [][2]float64) (n int, ok bool) {
	p := g.rate / float64(g.sr)
	for i := range samples {
		if g.remaining == 0 && p > 0 && g.rng.Float64() < p {
			g.remaining = g.clickLen
			g.clicks++
		}

		var s float64
		if g.remaining > 0 {
			env := float64(g.remaining) / float64(g.clickLen)
			s = (g.rng.Float64()*2 - 1) * env * env
			g.remaining--
		}
		samples[i][0] = s
		samples[i][1] = s
	}
	return len(samples), true
}

func (g *Geiger) Err() error {
	return nil
}

// withVolume scales s by a linear gain.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(math.Min(vol, 1)), Silent: false}
}

// Player drives a Geiger streamer from rendered frames.
type Player struct {
	geiger  *Geiger
	volume  float64
	started bool
}

// NewPlayer creates a player; Start opens the audio device.
func NewPlayer(cfg Config, rng Rand) *Player {
	return &Player{geiger: NewGeiger(cfg, rng), volume: cfg.Volume}
}

// Start initializes the speaker and begins playback.
func (p *Player) Start() error {
	if p.started {
		return nil
	}
	if err := speaker.Init(p.geiger.sr, p.geiger.sr.N(time.Second/10)); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}
	speaker.Play(withVolume(p.geiger, p.volume))
	p.started = true
	return nil
}

// Render updates the click rate from the frame. An idle field clicks at the
// background rate only.
func (p *Player) Render(f systems.Frame) {
	intensity := f.Intensity
	if len(f.Particles) == 0 {
		intensity = 0
	}
	if !p.started {
		p.geiger.SetIntensity(intensity)
		return
	}
	speaker.Lock()
	p.geiger.SetIntensity(intensity)
	speaker.Unlock()
}

// Geiger returns the underlying streamer.
func (p *Player) Geiger() *Geiger {
	return p.geiger
}

// Close stops playback and releases the device.
func (p *Player) Close() {
	if !p.started {
		return
	}
	speaker.Clear()
	speaker.Close()
	p.started = false
}
