package systems

// EmitterUpdate reports what the emitter did on one frame.
type EmitterUpdate struct {
	Started bool // A fresh field was created and seeded
	Stopped bool // The field was deactivated and released
	Seeded  int
	Stats   TickStats
}

// Emitter owns the lifetime of a ParticleField. The field is created when the
// animation becomes active, fed the current intensity and origin while it
// runs, and released when the animation stops.
type Emitter struct {
	cfg   FieldConfig
	rng   Rand
	field *ParticleField
}

// NewEmitter creates an idle emitter.
func NewEmitter(cfg FieldConfig, rng Rand) *Emitter {
	return &Emitter{cfg: cfg, rng: rng}
}

// Update syncs the field with the animation state and advances it by dt.
// The frame that creates the field does not tick it.
func (e *Emitter) Update(dt float64, active bool, origin Vec2, intensity float64) (EmitterUpdate, error) {
	var u EmitterUpdate

	if !active {
		if e.field != nil {
			e.field.Deactivate()
			e.field = nil
			u.Stopped = true
		}
		return u, nil
	}

	if e.field == nil {
		f, err := NewParticleField(origin, intensity, e.rng, e.cfg)
		if err != nil {
			return u, err
		}
		e.field = f
		u.Started = true
		u.Seeded = f.Count()
		u.Stats.Population = f.Count()
		return u, nil
	}

	if err := e.field.SetIntensity(intensity); err != nil {
		return u, err
	}
	if err := e.field.SetOrigin(origin); err != nil {
		return u, err
	}
	stats, err := e.field.Tick(dt)
	if err != nil {
		return u, err
	}
	u.Stats = stats
	return u, nil
}

// Running reports whether a field is alive.
func (e *Emitter) Running() bool {
	return e.field != nil
}

// Particles returns the live population, nil when idle.
func (e *Emitter) Particles() []Particle {
	if e.field == nil {
		return nil
	}
	return e.field.Particles()
}

// Count returns the live population size.
func (e *Emitter) Count() int {
	if e.field == nil {
		return 0
	}
	return e.field.Count()
}

// Config returns the emission parameters used for new fields.
func (e *Emitter) Config() FieldConfig {
	return e.cfg
}

// Frame is a copy of everything a renderer needs for one frame.
// Renderers must not retain Particles past the Render call.
type Frame struct {
	Tick        int64
	Particles   []Particle
	Origin      Vec2
	Intensity   float64
	Temperature float64
	Status      ReactorStatus
	Stable      bool
	Critical    bool
	Power       float64
	Coolant     float64
	Rods        []float64
}

// Tint returns the status colour for the frame.
func (f Frame) Tint() (uint8, uint8, uint8) {
	return StatusTint(f.Stable, f.Critical)
}
