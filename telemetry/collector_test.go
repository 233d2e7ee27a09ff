package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/fission/systems"
)

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(1.0, 0.1, systems.DefaultFieldConfig())
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("window = %d ticks, want 10", c.WindowDurationTicks())
	}

	c.RecordSeed(100)
	for tick := int32(1); tick <= 10; tick++ {
		if c.ShouldFlush(tick - 1) {
			t.Fatalf("flush requested early at tick %d", tick-1)
		}
		c.RecordTick(
			systems.TickStats{Spawned: 6, Retired: 2, Population: 100 + int(tick)},
			ReactorSample{Temperature: 300, Intensity: 1, Status: systems.StatusActive, Critical: tick > 8},
			0.1,
		)
	}
	c.RecordScram()

	if !c.ShouldFlush(10) {
		t.Fatal("expected flush at tick 10")
	}
	s := c.Flush(10, 1.0)

	if s.Spawned != 160 || s.Retired != 20 {
		t.Errorf("spawned/retired = %d/%d, want 160/20", s.Spawned, s.Retired)
	}
	if s.Population != 110 || s.PopMax != 110 {
		t.Errorf("population/max = %d/%d, want 110/110", s.Population, s.PopMax)
	}
	if math.Abs(s.PopMean-105.5) > 1e-9 {
		t.Errorf("pop mean = %v, want 105.5", s.PopMean)
	}
	if s.CriticalTicks != 2 || s.Scrams != 1 {
		t.Errorf("critical ticks/scrams = %d/%d, want 2/1", s.CriticalTicks, s.Scrams)
	}
	if s.Status != "ACTIVE" {
		t.Errorf("status = %q, want ACTIVE", s.Status)
	}
	// 10 ticks per second at full intensity: 10 * 0.3 * 6 * 1.25
	if math.Abs(s.SteadyStateEstimate-22.5) > 1e-9 {
		t.Errorf("steady state estimate = %v, want 22.5", s.SteadyStateEstimate)
	}
	if math.Abs(s.SimTimeSec-1.0) > 1e-9 {
		t.Errorf("sim time = %v, want 1.0", s.SimTimeSec)
	}

	// Counters reset for the next window
	if c.ShouldFlush(11) {
		t.Error("flush requested right after reset")
	}
	next := c.Flush(20, 2.0)
	if next.WindowStartTick != 10 || next.Spawned != 0 || next.Scrams != 0 || next.PopMean != 0 {
		t.Errorf("second window not reset: %+v", next)
	}
}

func TestCollectorMinimumWindow(t *testing.T) {
	c := NewCollector(0.001, 1.0/60, systems.DefaultFieldConfig())
	if c.WindowDurationTicks() != 1 {
		t.Errorf("window = %d ticks, want at least 1", c.WindowDurationTicks())
	}
}

func TestCollectorVariableStep(t *testing.T) {
	// Nominal 60 Hz, but frames arrive at 144 Hz
	c := NewCollector(1.0, 1.0/60, systems.DefaultFieldConfig())
	const frameDT = 1.0 / 144

	var simTime float64
	for tick := int32(1); tick <= c.WindowDurationTicks(); tick++ {
		c.RecordTick(
			systems.TickStats{Population: 50},
			ReactorSample{Intensity: 1, Status: systems.StatusActive},
			frameDT,
		)
		simTime += frameDT
	}

	if got := c.TickRate(); math.Abs(got-144) > 1e-6 {
		t.Errorf("tick rate = %v, want 144", got)
	}
	s := c.Flush(c.WindowDurationTicks(), simTime)

	if math.Abs(s.SimTimeSec-simTime) > 1e-12 {
		t.Errorf("sim time = %v, want %v", s.SimTimeSec, simTime)
	}
	// 144 * 0.3 * 6 * 1.25
	if math.Abs(s.SteadyStateEstimate-324) > 1e-6 {
		t.Errorf("steady state estimate = %v, want 324", s.SteadyStateEstimate)
	}
}

func TestCollectorTickRateFallsBackToNominal(t *testing.T) {
	c := NewCollector(1.0, 0.1, systems.DefaultFieldConfig())
	if got := c.TickRate(); math.Abs(got-10) > 1e-9 {
		t.Errorf("tick rate = %v, want nominal 10", got)
	}
}
