package game

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/systems"
	"github.com/pthm-cable/fission/telemetry"
)

type recorder struct {
	frames []systems.Frame
}

func (r *recorder) Render(f systems.Frame) {
	f.Particles = append([]systems.Particle(nil), f.Particles...)
	r.frames = append(r.frames, f)
}

func newTestGame(t *testing.T, cfg *config.Config, opts Options) *Game {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	g, err := NewGameWithOptions(cfg, opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

func TestIdleReactorEmitsNothing(t *testing.T) {
	g := newTestGame(t, nil, Options{Seed: 1})

	for i := 0; i < 120; i++ {
		g.UpdateHeadless()
	}

	f := g.Frame()
	if len(f.Particles) != 0 {
		t.Errorf("offline reactor has %d particles", len(f.Particles))
	}
	if f.Status != systems.StatusOffline {
		t.Errorf("status = %v, want OFFLINE", f.Status)
	}
	if g.Tick() != 120 {
		t.Errorf("tick = %d, want 120", g.Tick())
	}
}

func TestStartSeedsField(t *testing.T) {
	g := newTestGame(t, nil, Options{Seed: 1})
	g.Start()
	g.SetPower(0.5)

	// Intensity is 0 until the first reactor interval, so the seed is 20
	g.UpdateHeadless()
	if n := len(g.Frame().Particles); n != 20 {
		t.Fatalf("seeded %d particles, want 20", n)
	}

	for i := 0; i < 120; i++ {
		g.UpdateHeadless()
	}
	if g.Frame().Intensity <= 0 {
		t.Errorf("intensity = %v, want positive once the reactor has updated", g.Frame().Intensity)
	}
}

func TestLowPowerDoesNotAnimate(t *testing.T) {
	g := newTestGame(t, nil, Options{Seed: 1})
	g.Start()
	g.SetPower(0.1)

	for i := 0; i < 10; i++ {
		g.UpdateHeadless()
	}
	if n := len(g.Frame().Particles); n != 0 {
		t.Errorf("power 0.1 produced %d particles, want 0", n)
	}
}

func TestEmergencyShutdown(t *testing.T) {
	g := newTestGame(t, nil, Options{Seed: 1})
	g.Start()
	g.SetPower(0.8)
	for i := 0; i < 30; i++ {
		g.UpdateHeadless()
	}

	g.EmergencyShutdown()
	g.UpdateHeadless()

	if g.Active() {
		t.Error("reactor still active")
	}
	if g.Power() != 0 {
		t.Errorf("power = %v, want 0", g.Power())
	}
	for i, w := range g.Controls().Rods {
		if w != 0 {
			t.Errorf("rod %d withdrawal = %v, want 0", i, w)
		}
	}
	if n := len(g.Frame().Particles); n != 0 {
		t.Errorf("%d particles after shutdown, want 0", n)
	}
}

func TestAutomaticScram(t *testing.T) {
	cfg := config.Default()
	cfg.Reactor.InitialTemp = 1195
	cfg.Rods.Initial = []float64{1, 1, 1, 1, 1}

	var windows []telemetry.WindowStats
	g := newTestGame(t, cfg, Options{
		Seed:           1,
		StatsWindowSec: 0.5,
		StatsCallback:  func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	g.Start()
	g.SetPower(1)
	g.SetCoolant(0)

	for i := 0; i < 60; i++ {
		g.UpdateHeadless()
	}

	if g.Active() {
		t.Fatal("reactor should have scrammed above 1200")
	}
	if g.Power() != 0 {
		t.Errorf("power = %v after scram, want 0", g.Power())
	}
	for i := 0; i < g.RodCount(); i++ {
		if g.RodTarget(i) != 0 {
			t.Errorf("rod %d target = %v after scram, want 0", i, g.RodTarget(i))
		}
	}

	scrams := 0
	for _, w := range windows {
		scrams += w.Scrams
	}
	if scrams != 1 {
		t.Errorf("recorded %d scrams, want 1", scrams)
	}
}

func TestTelemetryFollowsFrameTime(t *testing.T) {
	var windows []telemetry.WindowStats
	g := newTestGame(t, nil, Options{
		Seed:           2,
		StatsWindowSec: 0.5,
		StatsCallback:  func(s telemetry.WindowStats) { windows = append(windows, s) },
	})

	// Window frames at 144 Hz against the nominal 60 Hz step
	const frameDT = 1.0 / 144
	for i := 0; i < 30; i++ {
		g.Step(frameDT)
	}

	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if math.Abs(windows[0].SimTimeSec-g.SimTime()) > 1e-9 {
		t.Errorf("window sim time = %v, game sim time = %v", windows[0].SimTimeSec, g.SimTime())
	}
	if math.Abs(windows[0].SimTimeSec-30*frameDT) > 1e-9 {
		t.Errorf("window sim time = %v, want %v", windows[0].SimTimeSec, 30*frameDT)
	}
}

func TestControlsClamp(t *testing.T) {
	g := newTestGame(t, nil, Options{Seed: 1})

	g.SetPower(1.5)
	if g.Power() != 1 {
		t.Errorf("power = %v, want 1", g.Power())
	}
	g.AdjustCoolant(-2)
	if g.Coolant() != 0 {
		t.Errorf("coolant = %v, want 0", g.Coolant())
	}

	g.SetPower(0.4)
	g.SetPower(math.NaN())
	if g.Power() != 0.4 {
		t.Errorf("NaN power changed setting to %v", g.Power())
	}

	if err := g.SetRodTarget(g.RodCount(), 0.5); err == nil {
		t.Error("expected error for out-of-range rod")
	}

	g.AdjustRods(1)
	for i := 0; i < g.RodCount(); i++ {
		if g.RodTarget(i) != 1 {
			t.Errorf("rod %d target = %v, want 1", i, g.RodTarget(i))
		}
	}
}

func TestRodsDriveTowardTarget(t *testing.T) {
	g := newTestGame(t, nil, Options{Seed: 1})
	if err := g.SetRodTarget(0, 1); err != nil {
		t.Fatal(err)
	}

	// 3.0 per second from 0.2 reaches 1.0 in under 0.3 s
	for i := 0; i < 30; i++ {
		g.UpdateHeadless()
	}
	if w := g.Controls().Rods[0]; w != 1 {
		t.Errorf("rod 1 withdrawal = %v, want 1", w)
	}
}

func TestConsumersReceiveFrames(t *testing.T) {
	rec := &recorder{}
	g := newTestGame(t, nil, Options{Seed: 7, Consumers: []FieldRenderer{rec}})
	g.Start()
	g.SetPower(1)

	for i := 0; i < 5; i++ {
		g.UpdateHeadless()
	}

	if len(rec.frames) != 5 {
		t.Fatalf("got %d frames, want 5", len(rec.frames))
	}
	for i, f := range rec.frames {
		if f.Tick != int64(i) {
			t.Errorf("frame %d tick = %d", i, f.Tick)
		}
		if f.Origin.X != 320 || f.Origin.Y != 360 {
			t.Errorf("frame %d origin = %v, want (320, 360)", i, f.Origin)
		}
	}
	if len(rec.frames[0].Particles) != 20 {
		t.Errorf("first frame has %d particles, want 20", len(rec.frames[0].Particles))
	}
}

func TestScenarioDrivesControls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive.lua")
	src := `function on_tick(t, state)
  return { active = true, power = 0.7, coolant = 0.9, rods = { 0.5 } }
end`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	g := newTestGame(t, nil, Options{Seed: 1, ScenarioPath: path})
	g.UpdateHeadless()

	if !g.Active() {
		t.Error("scenario should have started the reactor")
	}
	if g.Power() != 0.7 || g.Coolant() != 0.9 {
		t.Errorf("power/coolant = %v/%v, want 0.7/0.9", g.Power(), g.Coolant())
	}
	if g.RodTarget(0) != 0.5 {
		t.Errorf("rod 1 target = %v, want 0.5", g.RodTarget(0))
	}
}

func TestScenarioErrorKeepsControls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.lua")
	src := `function on_tick(t, state)
  if t > 0 then error("boom") end
  return { power = 0.6 }
end`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	g := newTestGame(t, nil, Options{Seed: 1, ScenarioPath: path})
	g.UpdateHeadless()
	g.UpdateHeadless()

	if g.Power() != 0.6 {
		t.Errorf("power = %v, want 0.6 kept after script error", g.Power())
	}
}

func TestScenarioScram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scram.lua")
	src := `function on_tick(t, state)
  if t == 0 then return { active = true, power = 1 } end
  return { scram = true }
end`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	g := newTestGame(t, nil, Options{Seed: 1, ScenarioPath: path})
	g.UpdateHeadless()
	if !g.Active() {
		t.Fatal("reactor should be active after the first tick")
	}
	g.UpdateHeadless()
	if g.Active() || g.Power() != 0 {
		t.Errorf("active=%v power=%v after scripted scram", g.Active(), g.Power())
	}
}

func TestMissingScenarioFails(t *testing.T) {
	_, err := NewGameWithOptions(config.Default(), Options{ScenarioPath: filepath.Join(t.TempDir(), "none.lua")})
	if err == nil {
		t.Fatal("expected error for missing scenario")
	}
}

func TestOutputFiles(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGameWithOptions(config.Default(), Options{Seed: 1, OutputDir: dir, StatsWindowSec: 0.25})
	if err != nil {
		t.Fatal(err)
	}
	g.Start()
	g.SetPower(0.5)
	for i := 0; i < 60; i++ {
		g.UpdateHeadless()
	}
	g.Unload()

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) < 4 {
		t.Errorf("telemetry.csv has %d lines, want a header and several windows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end") {
		t.Errorf("header = %q", lines[0])
	}

	for _, name := range []string{"perf.csv", "events.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestFieldConfigFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Field.MaxParticles = 50
	cfg.Field.Saturation = "drop_oldest"

	fc, err := FieldConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := systems.DefaultFieldConfig()
	want.MaxParticles = 50
	want.Saturation = systems.SaturationDropOldest
	if fc != want {
		t.Errorf("FieldConfig = %+v, want %+v", fc, want)
	}

	if ReactorConfig(config.Default()) != systems.DefaultReactorConfig() {
		t.Error("default reactor config does not match the model defaults")
	}
}
