package systems

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for non-finite or otherwise unusable inputs.
// Rejecting them at the call boundary keeps NaN out of the population.
var ErrInvalidInput = errors.New("invalid input")

// Rand is the random source a ParticleField draws from.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Vec2 is a 2D point or vector.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Finite reports whether both components are finite.
func (v Vec2) Finite() bool {
	return finite(v.X) && finite(v.Y)
}

// ParticleColor identifies a palette entry.
type ParticleColor uint8

const (
	ColorYellow ParticleColor = iota
	ColorOrange
	ColorRed

	paletteSize = 3
)

// palette holds the fixed RGB triples, components in [0, 1].
var palette = [paletteSize][3]float64{
	ColorYellow: {1.0, 0.8, 0.0},
	ColorOrange: {1.0, 0.4, 0.0},
	ColorRed:    {1.0, 0.2, 0.0},
}

// RGB returns the color's components in [0, 1].
func (c ParticleColor) RGB() [3]float64 {
	if int(c) >= paletteSize {
		return palette[ColorRed]
	}
	return palette[c]
}

// RGB8 returns the color's components scaled to 0-255.
func (c ParticleColor) RGB8() (r, g, b uint8) {
	rgb := c.RGB()
	return uint8(rgb[0] * 255), uint8(rgb[1] * 255), uint8(rgb[2] * 255)
}

// String returns the palette name.
func (c ParticleColor) String() string {
	switch c {
	case ColorYellow:
		return "yellow"
	case ColorOrange:
		return "orange"
	case ColorRed:
		return "red"
	default:
		return fmt.Sprintf("color(%d)", uint8(c))
	}
}

// Particle is a single transient emission.
type Particle struct {
	Pos     Vec2
	Vel     Vec2    // Fixed at creation
	Life    float64 // Remaining seconds, > 0 while in the field
	MaxLife float64 // Life at creation
	Size    float64
	Color   ParticleColor
}

// Range is a closed [Min, Max] interval sampled uniformly.
type Range struct {
	Min, Max float64
}

// Mid returns the midpoint of the range.
func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

func (r Range) sample(rng Rand) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// SaturationPolicy selects what happens when a capped field is full.
type SaturationPolicy uint8

const (
	// SaturationStopSpawning suppresses new particles while the field is full.
	SaturationStopSpawning SaturationPolicy = iota
	// SaturationDropOldest evicts the oldest particles to make room.
	SaturationDropOldest
)

// ParseSaturationPolicy maps a config name to a policy. Empty selects stop_spawning.
func ParseSaturationPolicy(name string) (SaturationPolicy, error) {
	switch name {
	case "", "stop_spawning":
		return SaturationStopSpawning, nil
	case "drop_oldest":
		return SaturationDropOldest, nil
	default:
		return 0, fmt.Errorf("saturation policy %q: %w", name, ErrInvalidInput)
	}
}

// String returns the config name of the policy.
func (p SaturationPolicy) String() string {
	if p == SaturationDropOldest {
		return "drop_oldest"
	}
	return "stop_spawning"
}

// FieldConfig holds the emission parameters of a ParticleField.
type FieldConfig struct {
	ScaleFactor       float64 // Position advances by Vel * dt * ScaleFactor
	SpawnChance       float64 // Burst probability per tick = intensity * SpawnChance
	SeedBase          float64
	SeedPerIntensity  float64
	BurstBase         float64
	BurstPerIntensity float64
	Speed             Range // Per-axis velocity
	Life              Range
	Size              Range

	// MaxParticles caps the population; 0 leaves it unbounded.
	MaxParticles int
	Saturation   SaturationPolicy
}

// DefaultFieldConfig returns the reference emission parameters.
func DefaultFieldConfig() FieldConfig {
	return FieldConfig{
		ScaleFactor:       60,
		SpawnChance:       0.3,
		SeedBase:          20,
		SeedPerIntensity:  80,
		BurstBase:         1,
		BurstPerIntensity: 5,
		Speed:             Range{Min: -2, Max: 2},
		Life:              Range{Min: 0.5, Max: 2.0},
		Size:              Range{Min: 2, Max: 8},
	}
}

// validate rejects parameters that would let non-finite values into the
// population. A particle must start with positive life so it is retired in
// finite time.
func (c FieldConfig) validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"scale factor", c.ScaleFactor},
		{"spawn chance", c.SpawnChance},
		{"seed base", c.SeedBase},
		{"seed per intensity", c.SeedPerIntensity},
		{"burst base", c.BurstBase},
		{"burst per intensity", c.BurstPerIntensity},
	} {
		if !finite(v.val) {
			return fmt.Errorf("%s %v: %w", v.name, v.val, ErrInvalidInput)
		}
	}
	for _, r := range []struct {
		name string
		rng  Range
	}{
		{"speed", c.Speed},
		{"life", c.Life},
		{"size", c.Size},
	} {
		if !finite(r.rng.Min) || !finite(r.rng.Max) || r.rng.Min > r.rng.Max {
			return fmt.Errorf("%s range %+v: %w", r.name, r.rng, ErrInvalidInput)
		}
	}
	if c.Life.Min <= 0 {
		return fmt.Errorf("life min %v must be positive: %w", c.Life.Min, ErrInvalidInput)
	}
	if c.MaxParticles < 0 {
		return fmt.Errorf("max particles %d: %w", c.MaxParticles, ErrInvalidInput)
	}
	return nil
}

// SeedCount returns the initial population for the given intensity.
func SeedCount(cfg FieldConfig, intensity float64) int {
	return floorCount(cfg.SeedBase + intensity*cfg.SeedPerIntensity)
}

// BurstCount returns the number of particles spawned by a successful draw.
func BurstCount(cfg FieldConfig, intensity float64) int {
	return floorCount(cfg.BurstBase + intensity*cfg.BurstPerIntensity)
}

// SpawnProbability returns the per-tick burst probability, clamped to [0, 1].
func SpawnProbability(cfg FieldConfig, intensity float64) float64 {
	return clamp(intensity*cfg.SpawnChance, 0, 1)
}

// SteadyStatePopulation estimates the long-run population of an unbounded
// field held at a constant intensity and ticked tickRate times per second:
// expected spawns per second times mean lifetime.
func SteadyStatePopulation(cfg FieldConfig, intensity, tickRate float64) float64 {
	if tickRate <= 0 {
		return 0
	}
	perTick := SpawnProbability(cfg, intensity) * float64(BurstCount(cfg, intensity))
	return tickRate * perTick * cfg.Life.Mid()
}

// TickStats reports what a single Tick did.
type TickStats struct {
	Retired    int // Particles whose life crossed zero
	Spawned    int // Particles added by the spawn draw
	Dropped    int // Particles evicted by SaturationDropOldest
	Suppressed int // Spawns refused by SaturationStopSpawning
	Population int // Population after the tick
}

// ParticleField owns a transient particle population driven by an intensity signal.
// It never schedules itself; the owner calls Tick once per frame.
type ParticleField struct {
	particles []Particle
	origin    Vec2
	intensity float64
	active    bool
	cfg       FieldConfig
	rng       Rand
}

// NewParticleField creates an active field and seeds its initial population.
func NewParticleField(origin Vec2, intensity float64, rng Rand, cfg FieldConfig) (*ParticleField, error) {
	if !origin.Finite() {
		return nil, fmt.Errorf("origin %v: %w", origin, ErrInvalidInput)
	}
	if !finite(intensity) {
		return nil, fmt.Errorf("intensity %v: %w", intensity, ErrInvalidInput)
	}
	if rng == nil {
		return nil, fmt.Errorf("nil random source: %w", ErrInvalidInput)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("field config: %w", err)
	}

	seed := SeedCount(cfg, intensity)
	f := &ParticleField{
		particles: make([]Particle, 0, seed),
		origin:    origin,
		intensity: intensity,
		active:    true,
		cfg:       cfg,
		rng:       rng,
	}
	f.emit(seed)
	return f, nil
}

// Tick advances the field by dt seconds: ages and moves every particle,
// retires the expired ones, then makes one spawn draw.
func (f *ParticleField) Tick(dt float64) (TickStats, error) {
	if !finite(dt) || dt < 0 {
		return TickStats{}, fmt.Errorf("dt %v: %w", dt, ErrInvalidInput)
	}
	if !f.active {
		return TickStats{}, nil
	}

	var stats TickStats
	step := dt * f.cfg.ScaleFactor

	alive := 0
	for i := range f.particles {
		p := &f.particles[i]

		p.Life -= dt
		if p.Life <= 0 {
			stats.Retired++
			continue
		}
		p.Pos = p.Pos.Add(p.Vel.Scale(step))

		// Keep particle
		f.particles[alive] = *p
		alive++
	}
	f.particles = f.particles[:alive]

	// Single Bernoulli draw per tick
	if f.rng.Float64() < f.intensity*f.cfg.SpawnChance {
		dropped, suppressed, spawned := f.emit(BurstCount(f.cfg, f.intensity))
		stats.Spawned = spawned
		stats.Dropped = dropped
		stats.Suppressed = suppressed
	}

	stats.Population = len(f.particles)
	return stats, nil
}

// emit adds n particles at the origin, honoring the saturation policy.
func (f *ParticleField) emit(n int) (dropped, suppressed, spawned int) {
	if n <= 0 {
		return 0, 0, 0
	}

	if limit := f.cfg.MaxParticles; limit > 0 {
		switch f.cfg.Saturation {
		case SaturationDropOldest:
			if n > limit {
				// Only the newest limit particles could survive anyway
				suppressed = n - limit
				n = limit
			}
			if over := len(f.particles) + n - limit; over > 0 {
				// Oldest particles sit at the front; compaction preserves order
				f.particles = append(f.particles[:0], f.particles[over:]...)
				dropped = over
			}
		default:
			room := limit - len(f.particles)
			if room < 0 {
				room = 0
			}
			if n > room {
				suppressed = n - room
				n = room
			}
		}
	}

	for i := 0; i < n; i++ {
		f.particles = append(f.particles, f.spawnOne(f.origin))
	}
	return dropped, suppressed, n
}

// spawnOne samples a fresh particle at origin.
func (f *ParticleField) spawnOne(origin Vec2) Particle {
	vel := Vec2{
		X: f.cfg.Speed.sample(f.rng),
		Y: f.cfg.Speed.sample(f.rng),
	}
	life := f.cfg.Life.sample(f.rng)
	return Particle{
		Pos:     origin,
		Vel:     vel,
		Life:    life,
		MaxLife: life,
		Size:    f.cfg.Size.sample(f.rng),
		Color:   ParticleColor(f.rng.Intn(paletteSize)),
	}
}

// SetIntensity replaces the intensity. It takes effect on the next tick;
// the population is not re-seeded. Out-of-range finite values are accepted.
func (f *ParticleField) SetIntensity(v float64) error {
	if !finite(v) {
		return fmt.Errorf("intensity %v: %w", v, ErrInvalidInput)
	}
	f.intensity = v
	return nil
}

// SetOrigin moves the emission point for future spawns.
func (f *ParticleField) SetOrigin(p Vec2) error {
	if !p.Finite() {
		return fmt.Errorf("origin %v: %w", p, ErrInvalidInput)
	}
	f.origin = p
	return nil
}

// Deactivate clears the population and stops further ticks. Safe to call repeatedly.
func (f *ParticleField) Deactivate() {
	f.particles = f.particles[:0]
	f.active = false
}

// Active reports whether the field still advances.
func (f *ParticleField) Active() bool {
	return f.active
}

// Particles returns the live population. The slice is only valid until the
// next Tick, emit or Deactivate and must not be modified.
func (f *ParticleField) Particles() []Particle {
	return f.particles
}

// Snapshot copies the population into dst (reusing its storage) and returns it.
func (f *ParticleField) Snapshot(dst []Particle) []Particle {
	return append(dst[:0], f.particles...)
}

// Count returns the current number of particles.
func (f *ParticleField) Count() int {
	return len(f.particles)
}

// Intensity returns the current intensity.
func (f *ParticleField) Intensity() float64 {
	return f.intensity
}

// Origin returns the current emission point.
func (f *ParticleField) Origin() Vec2 {
	return f.origin
}

// Config returns the emission parameters.
func (f *ParticleField) Config() FieldConfig {
	return f.cfg
}

func floorCount(v float64) int {
	if !finite(v) || v <= 0 {
		return 0
	}
	return int(math.Floor(v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
