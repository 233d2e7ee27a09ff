package game

import (
	"log/slog"

	"github.com/pthm-cable/fission/scenario"
)

// runScenario asks the script for this tick's controls. On error the previous
// controls stay in effect.
func (g *Game) runScenario() {
	d, err := g.scenario.Tick(scenario.State{
		Time:        g.simTime,
		Temperature: g.reactor.Temperature(),
		Intensity:   g.reactor.Intensity(),
		Particles:   g.emitter.Count(),
		Status:      g.reactor.Status(),
		Active:      g.reactor.Active(),
		Controls:    g.Controls(),
	})
	if err != nil {
		slog.Error("scenario tick failed", "tick", g.tick, "error", err)
		return
	}
	g.applyDirective(d)
}

// applyDirective merges a script directive into the controls.
func (g *Game) applyDirective(d scenario.Directive) {
	if d.Empty() {
		return
	}
	if d.Scram {
		g.EmergencyShutdown()
		return
	}

	if d.Active != nil {
		if *d.Active {
			g.Start()
		} else {
			g.Shutdown()
		}
	}

	c := d.Apply(g.Controls())
	g.power = c.Power
	g.coolant = c.Coolant

	for i, v := range d.Rods {
		if err := g.rods.SetTarget(i, v); err != nil {
			slog.Warn("scenario rod target ignored", "rod", i+1, "error", err)
		}
	}
}
