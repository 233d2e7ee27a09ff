// Package game runs the reactor simulation loop: thermal model, control rods,
// particle emission, scenario scripting and telemetry. Frontends drive it with
// Step and read the latest Frame; extra consumers receive every frame.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/scenario"
	"github.com/pthm-cable/fission/systems"
	"github.com/pthm-cable/fission/telemetry"
)

// FieldRenderer consumes one frame per simulation step.
type FieldRenderer interface {
	Render(frame systems.Frame)
}

// Options configures game behavior.
type Options struct {
	Seed           int64   // RNG seed
	LogStats       bool    // Log stats windows via slog
	StatsWindowSec float64 // Stats window duration, 0 = use config
	OutputDir      string  // Directory for CSV output, empty = disabled
	ScenarioPath   string  // Lua scenario driving the controls, empty = manual

	// Consumers receive a copy of every frame after the step that produced it.
	Consumers []FieldRenderer

	// StatsCallback is called with each flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg     *config.Config
	rng     *rand.Rand
	rngSeed int64

	world   *ecs.World
	reactor *systems.Reactor
	rods    *systems.RodBank
	emitter *systems.Emitter

	power   float64
	coolant float64

	scenario  *scenario.Engine
	consumers []FieldRenderer

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	eventDetector *telemetry.EventDetector
	outputManager *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	// State
	tick      int32
	simTime   float64
	frame     systems.Frame
	particles []systems.Particle
}

// NewGameWithOptions creates a game from cfg. The reactor starts offline.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	world := ecs.NewWorld()

	fieldCfg, err := FieldConfig(cfg)
	if err != nil {
		return nil, err
	}
	rods, err := systems.NewRodBank(world, cfg.Rods.Initial, cfg.Rods.Speed)
	if err != nil {
		return nil, fmt.Errorf("creating rod bank: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	g := &Game{
		cfg:           cfg,
		rng:           rng,
		rngSeed:       opts.Seed,
		world:         world,
		reactor:       systems.NewReactor(ReactorConfig(cfg)),
		rods:          rods,
		emitter:       systems.NewEmitter(fieldCfg, rng),
		power:         cfg.Reactor.InitialPower,
		coolant:       cfg.Reactor.InitialCoolant,
		consumers:     opts.Consumers,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	g.collector = telemetry.NewCollector(statsWindow, cfg.Physics.DT, fieldCfg)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	g.eventDetector = telemetry.NewEventDetector(cfg.Telemetry.EventHistorySize, telemetry.EventConfig{
		SteadyWindows:   cfg.Events.SteadyWindows,
		SteadyTolerance: cfg.Events.SteadyTolerance,
		MinIntensity:    cfg.Events.MinIntensity,
	})

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			return nil, err
		}
		if err := om.WriteConfig(cfg); err != nil {
			om.Close()
			return nil, err
		}
		g.outputManager = om
	}

	if opts.ScenarioPath != "" {
		engine, err := scenario.Load(opts.ScenarioPath)
		if err != nil {
			g.Unload()
			return nil, err
		}
		g.scenario = engine
		slog.Info("scenario loaded", "path", opts.ScenarioPath)
	}

	g.frame = g.buildFrame()
	return g, nil
}

// FieldConfig converts the loaded field section into emission parameters.
func FieldConfig(cfg *config.Config) (systems.FieldConfig, error) {
	policy, err := systems.ParseSaturationPolicy(cfg.Field.Saturation)
	if err != nil {
		return systems.FieldConfig{}, err
	}
	f := cfg.Field
	return systems.FieldConfig{
		ScaleFactor:       f.ScaleFactor,
		SpawnChance:       f.SpawnChance,
		SeedBase:          f.SeedBase,
		SeedPerIntensity:  f.SeedPerIntensity,
		BurstBase:         f.BurstBase,
		BurstPerIntensity: f.BurstPerIntensity,
		Speed:             systems.Range{Min: f.Speed.Min, Max: f.Speed.Max},
		Life:              systems.Range{Min: f.Life.Min, Max: f.Life.Max},
		Size:              systems.Range{Min: f.Size.Min, Max: f.Size.Max},
		MaxParticles:      f.MaxParticles,
		Saturation:        policy,
	}, nil
}

// ReactorConfig converts the loaded reactor section into model constants.
func ReactorConfig(cfg *config.Config) systems.ReactorConfig {
	r := cfg.Reactor
	return systems.ReactorConfig{
		Interval:                r.Interval,
		AmbientTemp:             r.AmbientTemp,
		MaxTemp:                 r.MaxTemp,
		InitialTemp:             r.InitialTemp,
		HeatGain:                r.HeatGain,
		CoolGain:                r.CoolGain,
		IdleCoolRate:            r.IdleCoolRate,
		IntensityDecay:          r.IntensityDecay,
		StableTemp:              r.StableTemp,
		StableCoolant:           r.StableCoolant,
		CriticalTemp:            r.CriticalTemp,
		CriticalRod:             r.CriticalRod,
		ScramTemp:               r.ScramTemp,
		AnimationPowerThreshold: r.AnimationPowerThreshold,
	}
}

// AddConsumer registers r to receive every subsequent frame.
func (g *Game) AddConsumer(r FieldRenderer) {
	g.consumers = append(g.consumers, r)
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// SimTime returns the simulated seconds elapsed.
func (g *Game) SimTime() float64 {
	return g.simTime
}

// Seed returns the RNG seed the game was created with.
func (g *Game) Seed() int64 {
	return g.rngSeed
}

// Frame returns the frame produced by the last step. Its slices are reused
// by the next step.
func (g *Game) Frame() systems.Frame {
	return g.frame
}

// Config returns the configuration the game runs with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// PerfCollector returns the tick timing collector.
func (g *Game) PerfCollector() *telemetry.PerfCollector {
	return g.perfCollector
}

// Unload releases the scenario VM and closes output files.
func (g *Game) Unload() {
	if g.scenario != nil {
		g.scenario.Close()
		g.scenario = nil
	}
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
		g.outputManager = nil
	}
}
