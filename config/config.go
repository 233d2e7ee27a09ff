// Package config provides configuration loading and access for the reactor simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen" toml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics" toml:"physics"`
	Field     FieldConfig     `yaml:"field" toml:"field"`
	Reactor   ReactorConfig   `yaml:"reactor" toml:"reactor"`
	Rods      RodsConfig      `yaml:"rods" toml:"rods"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
	Events    EventsConfig    `yaml:"events" toml:"events"`
	Stream    StreamConfig    `yaml:"stream" toml:"stream"`
	Audio     AudioConfig     `yaml:"audio" toml:"audio"`
	Terminal  TerminalConfig  `yaml:"terminal" toml:"terminal"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-" toml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width" toml:"width"`
	Height    int `yaml:"height" toml:"height"`
	TargetFPS int `yaml:"target_fps" toml:"target_fps"`
}

// PhysicsConfig holds the fixed step used when no frame clock is available
// (headless, terminal and scenario runs).
type PhysicsConfig struct {
	DT float64 `yaml:"dt" toml:"dt"`
}

// Range is a closed [Min, Max] interval sampled uniformly.
type Range struct {
	Min float64 `yaml:"min" toml:"min"`
	Max float64 `yaml:"max" toml:"max"`
}

// FieldConfig holds particle field emission parameters.
type FieldConfig struct {
	ScaleFactor       float64 `yaml:"scale_factor" toml:"scale_factor"`               // Velocity units per second = vel * scale
	SpawnChance       float64 `yaml:"spawn_chance" toml:"spawn_chance"`               // Per-tick burst probability = intensity * this
	SeedBase          float64 `yaml:"seed_base" toml:"seed_base"`                     // Initial population at intensity 0
	SeedPerIntensity  float64 `yaml:"seed_per_intensity" toml:"seed_per_intensity"`   // Extra initial particles per unit intensity
	BurstBase         float64 `yaml:"burst_base" toml:"burst_base"`                   // Burst size at intensity 0
	BurstPerIntensity float64 `yaml:"burst_per_intensity" toml:"burst_per_intensity"` // Extra burst particles per unit intensity
	Speed             Range   `yaml:"speed" toml:"speed"`                             // Per-axis velocity range
	Life              Range   `yaml:"life" toml:"life"`                               // Lifetime in seconds
	Size              Range   `yaml:"size" toml:"size"`                               // Radius in pixels
	MaxParticles      int     `yaml:"max_particles" toml:"max_particles"`             // 0 = unbounded
	Saturation        string  `yaml:"saturation" toml:"saturation"`                   // "stop_spawning" or "drop_oldest"
}

// ReactorConfig holds the toy thermal model constants.
type ReactorConfig struct {
	Interval                float64 `yaml:"interval" toml:"interval"` // Seconds between discrete model updates
	AmbientTemp             float64 `yaml:"ambient_temp" toml:"ambient_temp"`
	MaxTemp                 float64 `yaml:"max_temp" toml:"max_temp"`
	InitialTemp             float64 `yaml:"initial_temp" toml:"initial_temp"`
	HeatGain                float64 `yaml:"heat_gain" toml:"heat_gain"`             // Degrees per update at full reactivity
	CoolGain                float64 `yaml:"cool_gain" toml:"cool_gain"`             // Degrees removed per update at full coolant (active)
	IdleCoolRate            float64 `yaml:"idle_cool_rate" toml:"idle_cool_rate"`   // Degrees removed per update at full coolant (offline)
	IntensityDecay          float64 `yaml:"intensity_decay" toml:"intensity_decay"` // Intensity lost per update while offline
	StableTemp              float64 `yaml:"stable_temp" toml:"stable_temp"`
	StableCoolant           float64 `yaml:"stable_coolant" toml:"stable_coolant"`
	CriticalTemp            float64 `yaml:"critical_temp" toml:"critical_temp"`
	CriticalRod             float64 `yaml:"critical_rod" toml:"critical_rod"`
	ScramTemp               float64 `yaml:"scram_temp" toml:"scram_temp"`
	AnimationPowerThreshold float64 `yaml:"animation_power_threshold" toml:"animation_power_threshold"`
	InitialPower            float64 `yaml:"initial_power" toml:"initial_power"`
	InitialCoolant          float64 `yaml:"initial_coolant" toml:"initial_coolant"`
}

// RodsConfig holds control rod bank parameters.
type RodsConfig struct {
	Initial []float64 `yaml:"initial" toml:"initial"` // Initial withdrawal per rod, also sets the rod count
	Speed   float64   `yaml:"speed" toml:"speed"`     // Withdrawal change per second while driving
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window" toml:"stats_window"`
	EventHistorySize    int     `yaml:"event_history_size" toml:"event_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window" toml:"perf_collector_window"`
}

// EventsConfig holds event detection thresholds.
type EventsConfig struct {
	SteadyWindows   int     `yaml:"steady_windows" toml:"steady_windows"`     // Consecutive windows near the estimate
	SteadyTolerance float64 `yaml:"steady_tolerance" toml:"steady_tolerance"` // Relative error allowed vs the estimate
	MinIntensity    float64 `yaml:"min_intensity" toml:"min_intensity"`       // Below this, steady state is not reported
}

// StreamConfig holds websocket frame streaming parameters.
type StreamConfig struct {
	Addr          string `yaml:"addr" toml:"addr"`                     // Listen address, empty = disabled
	FrameInterval int    `yaml:"frame_interval" toml:"frame_interval"` // Ticks between broadcast frames
	SendBuffer    int    `yaml:"send_buffer" toml:"send_buffer"`       // Per-client queued frames before dropping

	AllowAnyOrigin bool `yaml:"allow_any_origin" toml:"allow_any_origin"` // Accept sockets from pages on other origins
}

// AudioConfig holds Geiger counter audio parameters.
type AudioConfig struct {
	Enabled          bool    `yaml:"enabled" toml:"enabled"`
	SampleRate       int     `yaml:"sample_rate" toml:"sample_rate"`
	BaseRate         float64 `yaml:"base_rate" toml:"base_rate"`                   // Clicks per second at intensity 0
	RatePerIntensity float64 `yaml:"rate_per_intensity" toml:"rate_per_intensity"` // Extra clicks per second per unit intensity
	ClickMillis      float64 `yaml:"click_ms" toml:"click_ms"`
	Volume           float64 `yaml:"volume" toml:"volume"`
}

// TerminalConfig holds terminal renderer parameters.
type TerminalConfig struct {
	FrameInterval int  `yaml:"frame_interval" toml:"frame_interval"` // Ticks between redraws
	TrueColor     bool `yaml:"true_color" toml:"true_color"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32 // Screen.Width as float32
	ScreenH32 float32 // Screen.Height as float32
	CenterX   float64 // Reactor view centre (particle origin)
	CenterY   float64
	TickRate  float64 // 1 / Physics.DT
	RodCount  int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML or TOML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := cfg.overlay(path, data); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// overlay decodes data on top of cfg, picking the decoder by file extension.
func (c *Config) overlay(path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	}
	return nil
}

// finiteFields lists every float setting by its config key.
func (c *Config) finiteFields() []namedValue {
	f, r := c.Field, c.Reactor
	vals := []namedValue{
		{"physics.dt", c.Physics.DT},
		{"field.scale_factor", f.ScaleFactor},
		{"field.spawn_chance", f.SpawnChance},
		{"field.seed_base", f.SeedBase},
		{"field.seed_per_intensity", f.SeedPerIntensity},
		{"field.burst_base", f.BurstBase},
		{"field.burst_per_intensity", f.BurstPerIntensity},
		{"field.speed.min", f.Speed.Min},
		{"field.speed.max", f.Speed.Max},
		{"field.life.min", f.Life.Min},
		{"field.life.max", f.Life.Max},
		{"field.size.min", f.Size.Min},
		{"field.size.max", f.Size.Max},
		{"reactor.interval", r.Interval},
		{"reactor.ambient_temp", r.AmbientTemp},
		{"reactor.max_temp", r.MaxTemp},
		{"reactor.initial_temp", r.InitialTemp},
		{"reactor.heat_gain", r.HeatGain},
		{"reactor.cool_gain", r.CoolGain},
		{"reactor.idle_cool_rate", r.IdleCoolRate},
		{"reactor.intensity_decay", r.IntensityDecay},
		{"reactor.stable_temp", r.StableTemp},
		{"reactor.stable_coolant", r.StableCoolant},
		{"reactor.critical_temp", r.CriticalTemp},
		{"reactor.critical_rod", r.CriticalRod},
		{"reactor.scram_temp", r.ScramTemp},
		{"reactor.animation_power_threshold", r.AnimationPowerThreshold},
		{"reactor.initial_power", r.InitialPower},
		{"reactor.initial_coolant", r.InitialCoolant},
		{"rods.speed", c.Rods.Speed},
		{"telemetry.stats_window", c.Telemetry.StatsWindow},
		{"events.steady_tolerance", c.Events.SteadyTolerance},
		{"events.min_intensity", c.Events.MinIntensity},
		{"audio.base_rate", c.Audio.BaseRate},
		{"audio.rate_per_intensity", c.Audio.RatePerIntensity},
		{"audio.click_ms", c.Audio.ClickMillis},
		{"audio.volume", c.Audio.Volume},
	}
	for i, w := range c.Rods.Initial {
		vals = append(vals, namedValue{fmt.Sprintf("rods.initial[%d]", i), w})
	}
	return vals
}

type namedValue struct {
	name string
	val  float64
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	for _, v := range c.finiteFields() {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			return fmt.Errorf("%s must be a finite number, got %v", v.name, v.val)
		}
	}
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be a positive number, got %v", c.Physics.DT)
	}
	for name, r := range map[string]Range{
		"field.speed": c.Field.Speed,
		"field.life":  c.Field.Life,
		"field.size":  c.Field.Size,
	} {
		if r.Min > r.Max {
			return fmt.Errorf("%s: min %v exceeds max %v", name, r.Min, r.Max)
		}
	}
	if c.Field.Life.Min <= 0 {
		return fmt.Errorf("field.life.min must be positive, got %v", c.Field.Life.Min)
	}
	if c.Field.Size.Min <= 0 {
		return fmt.Errorf("field.size.min must be positive, got %v", c.Field.Size.Min)
	}
	if c.Field.MaxParticles < 0 {
		return fmt.Errorf("field.max_particles must not be negative, got %d", c.Field.MaxParticles)
	}
	switch c.Field.Saturation {
	case "", "stop_spawning", "drop_oldest":
	default:
		return fmt.Errorf("field.saturation: unknown policy %q", c.Field.Saturation)
	}
	if c.Reactor.Interval <= 0 {
		return fmt.Errorf("reactor.interval must be positive, got %v", c.Reactor.Interval)
	}
	if c.Reactor.AmbientTemp > c.Reactor.MaxTemp {
		return fmt.Errorf("reactor.ambient_temp %v exceeds max_temp %v", c.Reactor.AmbientTemp, c.Reactor.MaxTemp)
	}
	if len(c.Rods.Initial) == 0 {
		return fmt.Errorf("rods.initial must list at least one rod")
	}
	for i, w := range c.Rods.Initial {
		if w < 0 || w > 1 {
			return fmt.Errorf("rods.initial[%d] must be in [0, 1], got %v", i, w)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	// The reactor view occupies the left half of the window
	c.Derived.CenterX = float64(c.Screen.Width) / 4
	c.Derived.CenterY = float64(c.Screen.Height) / 2

	c.Derived.TickRate = 1 / c.Physics.DT
	c.Derived.RodCount = len(c.Rods.Initial)

	if c.Stream.FrameInterval < 1 {
		c.Stream.FrameInterval = 1
	}
	if c.Terminal.FrameInterval < 1 {
		c.Terminal.FrameInterval = 1
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
