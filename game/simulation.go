package game

import (
	"log/slog"

	"github.com/pthm-cable/fission/systems"
	"github.com/pthm-cable/fission/telemetry"
)

// UpdateHeadless runs one step with the configured fixed dt.
func (g *Game) UpdateHeadless() {
	g.Step(g.cfg.Physics.DT)
}

// Step advances the simulation by dt seconds: scenario, reactor, rods,
// particle field, frame dispatch and telemetry, in that order.
func (g *Game) Step(dt float64) {
	perf := g.perfCollector
	perf.StartTick()

	if g.scenario != nil {
		g.runScenario()
	}

	// 1. Reactor thermal model
	perf.StartPhase(telemetry.PhaseReactor)
	res, err := g.reactor.Step(dt, g.Controls())
	if err != nil {
		slog.Error("reactor step failed", "tick", g.tick, "error", err)
	} else if res.Scram {
		g.collector.RecordScram()
		g.insertAll()
		slog.Warn("scram", "tick", g.tick, "temperature", g.reactor.Temperature())
	}

	// 2. Rod drives
	perf.StartPhase(telemetry.PhaseRods)
	g.rods.Update(dt)

	// 3. Particle field
	perf.StartPhase(telemetry.PhaseField)
	origin := systems.Vec2{X: g.cfg.Derived.CenterX, Y: g.cfg.Derived.CenterY}
	upd, err := g.emitter.Update(dt, g.reactor.AnimationActive(g.Controls()), origin, g.reactor.Intensity())
	if err != nil {
		slog.Error("field update failed", "tick", g.tick, "error", err)
	}
	if upd.Started {
		g.collector.RecordSeed(upd.Seeded)
	}

	// 4. Frame consumers
	perf.StartPhase(telemetry.PhaseRender)
	g.frame = g.buildFrame()
	for _, c := range g.consumers {
		c.Render(g.frame)
	}

	// 5. Telemetry
	perf.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordTick(upd.Stats, telemetry.ReactorSample{
		Temperature: g.reactor.Temperature(),
		Intensity:   g.reactor.Intensity(),
		Status:      g.reactor.Status(),
		Critical:    g.reactor.Critical(),
	}, dt)

	perf.EndTick()

	g.tick++
	g.simTime += dt
	g.flushTelemetry()
}

// buildFrame snapshots the state renderers need.
func (g *Game) buildFrame() systems.Frame {
	g.particles = append(g.particles[:0], g.emitter.Particles()...)
	return systems.Frame{
		Tick:        int64(g.tick),
		Particles:   g.particles,
		Origin:      systems.Vec2{X: g.cfg.Derived.CenterX, Y: g.cfg.Derived.CenterY},
		Intensity:   g.reactor.Intensity(),
		Temperature: g.reactor.Temperature(),
		Status:      g.reactor.Status(),
		Stable:      g.reactor.Stable(),
		Critical:    g.reactor.Critical(),
		Power:       g.power,
		Coolant:     g.coolant,
		Rods:        g.rods.Positions(),
	}
}
