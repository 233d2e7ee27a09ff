package game

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/fission/systems"
)

// Controls returns the operator inputs with the current rod withdrawals.
func (g *Game) Controls() systems.Controls {
	return systems.Controls{
		Power:   g.power,
		Coolant: g.coolant,
		Rods:    g.rods.Positions(),
	}
}

// Active reports whether the reactor is running.
func (g *Game) Active() bool {
	return g.reactor.Active()
}

// Start brings the reactor online.
func (g *Game) Start() {
	if !g.reactor.Active() {
		g.reactor.Start()
		slog.Info("reactor started", "tick", g.tick)
	}
}

// Shutdown takes the reactor offline, leaving the controls as they are.
func (g *Game) Shutdown() {
	if g.reactor.Active() {
		g.reactor.Shutdown()
		slog.Info("reactor shut down", "tick", g.tick)
	}
}

// ToggleReactor starts or stops the reactor and returns the new state.
func (g *Game) ToggleReactor() bool {
	if g.reactor.Active() {
		g.Shutdown()
	} else {
		g.Start()
	}
	return g.reactor.Active()
}

// EmergencyShutdown stops the reactor, cuts power and drops every rod.
func (g *Game) EmergencyShutdown() {
	g.reactor.Shutdown()
	g.insertAll()
	slog.Warn("emergency shutdown", "tick", g.tick, "temperature", g.reactor.Temperature())
}

// insertAll zeroes power and inserts every rod instantly.
func (g *Game) insertAll() {
	g.power = 0
	g.rods.Scram()
}

// Power returns the power setting in [0, 1].
func (g *Game) Power() float64 {
	return g.power
}

// Coolant returns the coolant flow in [0, 1].
func (g *Game) Coolant() float64 {
	return g.coolant
}

// SetPower sets the power level, clamped to [0, 1]. Non-finite values are ignored.
func (g *Game) SetPower(v float64) {
	if f, ok := clamp01(v); ok {
		g.power = f
	}
}

// SetCoolant sets the coolant flow, clamped to [0, 1]. Non-finite values are ignored.
func (g *Game) SetCoolant(v float64) {
	if f, ok := clamp01(v); ok {
		g.coolant = f
	}
}

// AdjustPower nudges the power level by delta.
func (g *Game) AdjustPower(delta float64) {
	g.SetPower(g.power + delta)
}

// AdjustCoolant nudges the coolant flow by delta.
func (g *Game) AdjustCoolant(delta float64) {
	g.SetCoolant(g.coolant + delta)
}

// RodCount returns the number of control rods.
func (g *Game) RodCount() int {
	return g.rods.Len()
}

// RodTarget returns the target withdrawal of rod i.
func (g *Game) RodTarget(i int) float64 {
	return g.rods.Target(i)
}

// SetRodTarget sets the target withdrawal of rod i; the drive moves the rod there.
func (g *Game) SetRodTarget(i int, v float64) error {
	return g.rods.SetTarget(i, v)
}

// AdjustRods moves every rod target by delta.
func (g *Game) AdjustRods(delta float64) {
	for i := 0; i < g.rods.Len(); i++ {
		// Targets are always valid indices and clamped by the bank
		_ = g.rods.SetTarget(i, g.rods.Target(i)+delta)
	}
}

func clamp01(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	switch {
	case v < 0:
		return 0, true
	case v > 1:
		return 1, true
	}
	return v, true
}
