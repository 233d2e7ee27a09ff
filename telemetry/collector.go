// Package telemetry tracks particle field and reactor health over time windows.
package telemetry

import (
	"github.com/pthm-cable/fission/systems"
)

// ReactorSample is the reactor state observed on one tick.
type ReactorSample struct {
	Temperature float64
	Intensity   float64
	Status      systems.ReactorStatus
	Critical    bool
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64
	fieldCfg            systems.FieldConfig

	// Current window tracking
	windowStartTick int32
	windowSimSec    float64 // Simulated seconds stepped in this window

	// Event counters for current window
	spawned       int
	retired       int
	dropped       int
	suppressed    int
	scrams        int
	criticalTicks int

	population   []float64
	intensitySum float64
	last         ReactorSample
	lastPop      int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: nominal seconds per tick, used to size the window and as the tick
// rate when a window recorded no elapsed time
func NewCollector(windowDurationSec, dt float64, fieldCfg systems.FieldConfig) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		fieldCfg:            fieldCfg,
		population:          make([]float64, 0, ticksPerWindow),
	}
}

// RecordTick records one simulation tick of the field and reactor that
// advanced the simulation by dt seconds.
func (c *Collector) RecordTick(stats systems.TickStats, reactor ReactorSample, dt float64) {
	c.windowSimSec += dt
	c.spawned += stats.Spawned
	c.retired += stats.Retired
	c.dropped += stats.Dropped
	c.suppressed += stats.Suppressed

	c.population = append(c.population, float64(stats.Population))
	c.lastPop = stats.Population

	c.intensitySum += reactor.Intensity
	if reactor.Critical {
		c.criticalTicks++
	}
	c.last = reactor
}

// RecordSeed records the initial population of a freshly created field.
func (c *Collector) RecordSeed(n int) {
	c.spawned += n
}

// RecordScram records an automatic shutdown.
func (c *Collector) RecordScram() {
	c.scrams++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// TickRate returns the ticks per simulated second measured over the current
// window. Variable-step runs differ from the nominal 1/dt.
func (c *Collector) TickRate() float64 {
	if n := len(c.population); n > 0 && c.windowSimSec > 0 {
		return float64(n) / c.windowSimSec
	}
	return 1 / c.dt
}

// Flush produces a WindowStats and resets counters for the next window.
// simTime is the simulated seconds elapsed at currentTick.
func (c *Collector) Flush(currentTick int32, simTime float64) WindowStats {
	mean, std, p10, p50, p90 := ComputePopulationStats(c.population)

	var popMax int
	for _, p := range c.population {
		if int(p) > popMax {
			popMax = int(p)
		}
	}

	var intensityMean float64
	if n := len(c.population); n > 0 {
		intensityMean = c.intensitySum / float64(n)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      simTime,

		Population: c.lastPop,

		Spawned:    c.spawned,
		Retired:    c.retired,
		Dropped:    c.dropped,
		Suppressed: c.suppressed,

		PopMean: mean,
		PopStd:  std,
		PopP10:  p10,
		PopP50:  p50,
		PopP90:  p90,
		PopMax:  popMax,

		Temperature:   c.last.Temperature,
		Intensity:     c.last.Intensity,
		IntensityMean: intensityMean,
		Status:        c.last.Status.String(),
		CriticalTicks: c.criticalTicks,
		Scrams:        c.scrams,

		SteadyStateEstimate: systems.SteadyStatePopulation(c.fieldCfg, intensityMean, c.TickRate()),
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.spawned = 0
	c.retired = 0
	c.dropped = 0
	c.suppressed = 0
	c.scrams = 0
	c.criticalTicks = 0
	c.population = c.population[:0]
	c.intensitySum = 0
	c.windowSimSec = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
