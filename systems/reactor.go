package systems

import (
	"fmt"
	"math"
)

// ReactorStatus is the coarse state shown to the operator.
type ReactorStatus uint8

const (
	StatusOffline ReactorStatus = iota
	StatusActive
	StatusStable
	StatusCritical
)

// String returns the panel label for the status.
func (s ReactorStatus) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusStable:
		return "STABLE"
	case StatusCritical:
		return "CRITICAL"
	default:
		return "OFFLINE"
	}
}

// ReactorConfig holds the thermal model constants.
type ReactorConfig struct {
	Interval       float64 // Seconds between discrete updates
	AmbientTemp    float64
	MaxTemp        float64
	InitialTemp    float64
	HeatGain       float64
	CoolGain       float64
	IdleCoolRate   float64
	IntensityDecay float64
	StableTemp     float64
	StableCoolant  float64
	CriticalTemp   float64
	CriticalRod    float64
	ScramTemp      float64
	// Particle animation runs only above this power level.
	AnimationPowerThreshold float64
}

// DefaultReactorConfig returns the reference thermal model.
func DefaultReactorConfig() ReactorConfig {
	return ReactorConfig{
		Interval:                0.5,
		AmbientTemp:             25,
		MaxTemp:                 1500,
		InitialTemp:             25,
		HeatGain:                10,
		CoolGain:                5,
		IdleCoolRate:            5,
		IntensityDecay:          0.05,
		StableTemp:              600,
		StableCoolant:           0.4,
		CriticalTemp:            900,
		CriticalRod:             0.8,
		ScramTemp:               1200,
		AnimationPowerThreshold: 0.1,
	}
}

// Controls are the operator inputs, all fractions in [0, 1].
// Rods hold the withdrawal of each control rod (0 = fully inserted).
type Controls struct {
	Power   float64
	Coolant float64
	Rods    []float64
}

// AverageRod returns the mean rod withdrawal, 0 with no rods.
func (c Controls) AverageRod() float64 {
	if len(c.Rods) == 0 {
		return 0
	}
	var sum float64
	for _, r := range c.Rods {
		sum += r
	}
	return sum / float64(len(c.Rods))
}

func (c Controls) validate() error {
	if !finite(c.Power) || !finite(c.Coolant) {
		return fmt.Errorf("controls power=%v coolant=%v: %w", c.Power, c.Coolant, ErrInvalidInput)
	}
	for i, r := range c.Rods {
		if !finite(r) {
			return fmt.Errorf("rod %d withdrawal %v: %w", i, r, ErrInvalidInput)
		}
	}
	return nil
}

// StepResult reports discrete events raised during a Step.
type StepResult struct {
	Updates int  // Discrete model updates applied
	Scram   bool // Automatic shutdown fired; caller must zero power and insert rods
}

// Reactor is a toy thermal model advanced in fixed intervals.
// Step accumulates host time so the model is independent of frame rate.
type Reactor struct {
	cfg ReactorConfig

	temperature float64
	intensity   float64
	active      bool
	stable      bool
	critical    bool
	accum       float64
}

// NewReactor creates an offline reactor at its initial temperature.
func NewReactor(cfg ReactorConfig) *Reactor {
	return &Reactor{
		cfg:         cfg,
		temperature: cfg.InitialTemp,
	}
}

// Start brings the reactor online.
func (r *Reactor) Start() {
	r.active = true
}

// Shutdown takes the reactor offline; it keeps cooling on later steps.
func (r *Reactor) Shutdown() {
	r.active = false
}

// Toggle flips between online and offline and returns the new state.
func (r *Reactor) Toggle() bool {
	r.active = !r.active
	return r.active
}

// Step advances the model by dt seconds of host time.
func (r *Reactor) Step(dt float64, c Controls) (StepResult, error) {
	if !finite(dt) || dt < 0 {
		return StepResult{}, fmt.Errorf("dt %v: %w", dt, ErrInvalidInput)
	}
	if err := c.validate(); err != nil {
		return StepResult{}, err
	}

	var res StepResult
	r.accum += dt
	for r.accum >= r.cfg.Interval {
		r.accum -= r.cfg.Interval
		res.Updates++
		if r.update(c) {
			res.Scram = true
			// Inputs are stale until the caller applies the shutdown
			c = Controls{Coolant: c.Coolant, Rods: make([]float64, len(c.Rods))}
		}
	}
	return res, nil
}

// update applies one discrete interval and reports whether a scram fired.
func (r *Reactor) update(c Controls) bool {
	if !r.active {
		r.temperature = math.Max(r.cfg.AmbientTemp, r.temperature-r.cfg.IdleCoolRate*c.Coolant)
		r.intensity = math.Max(0, r.intensity-r.cfg.IntensityDecay)
		r.stable = false
		r.critical = false
		return false
	}

	avgRod := c.AverageRod()
	reactivity := avgRod * c.Power
	heating := reactivity * r.cfg.HeatGain
	cooling := c.Coolant * r.cfg.CoolGain

	r.temperature = clamp(r.temperature+heating-cooling, r.cfg.AmbientTemp, r.cfg.MaxTemp)
	r.intensity = c.Power * avgRod
	r.stable = r.temperature < r.cfg.StableTemp && c.Coolant > r.cfg.StableCoolant && c.Power > 0
	r.critical = r.temperature > r.cfg.CriticalTemp || avgRod > r.cfg.CriticalRod

	if r.temperature > r.cfg.ScramTemp {
		r.active = false
		r.stable = false
		r.critical = true
		return true
	}
	return false
}

// Temperature returns the core temperature in degrees Celsius.
func (r *Reactor) Temperature() float64 {
	return r.temperature
}

// Intensity returns the animation intensity derived from the last update.
func (r *Reactor) Intensity() float64 {
	return r.intensity
}

// Active reports whether the reaction is running.
func (r *Reactor) Active() bool {
	return r.active
}

// Stable reports the stable flag from the last update.
func (r *Reactor) Stable() bool {
	return r.stable
}

// Critical reports the critical flag from the last update.
func (r *Reactor) Critical() bool {
	return r.critical
}

// Status returns the operator-facing status label.
func (r *Reactor) Status() ReactorStatus {
	switch {
	case !r.active:
		return StatusOffline
	case r.stable:
		return StatusStable
	case r.critical:
		return StatusCritical
	default:
		return StatusActive
	}
}

// Tint returns the status colour used by the core, rings and sprite particles:
// red when critical, green when stable, white otherwise.
func (r *Reactor) Tint() (uint8, uint8, uint8) {
	return StatusTint(r.stable, r.critical)
}

// StatusTint maps the status flags to an RGB colour.
func StatusTint(stable, critical bool) (uint8, uint8, uint8) {
	switch {
	case critical:
		return 255, 59, 48
	case stable:
		return 52, 199, 89
	default:
		return 255, 255, 255
	}
}

// AnimationActive reports whether the particle field should run.
func (r *Reactor) AnimationActive(c Controls) bool {
	return r.active && c.Power > r.cfg.AnimationPowerThreshold
}

// PowerMW returns the displayed power output in megawatts.
func PowerMW(power float64) int {
	return int(math.Round(power * 1000))
}
