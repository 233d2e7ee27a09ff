package systems

import (
	"errors"
	"math"
	"testing"
)

func uniformRods(n int, v float64) []float64 {
	rods := make([]float64, n)
	for i := range rods {
		rods[i] = v
	}
	return rods
}

func TestReactorStepAccumulatesInterval(t *testing.T) {
	r := NewReactor(DefaultReactorConfig())
	c := Controls{Coolant: 0.5, Rods: uniformRods(5, 0.2)}

	steps := []struct {
		dt      float64
		updates int
	}{
		{0.2, 0},
		{0.2, 0},
		{0.2, 1}, // 0.6 accumulated
		{0.3, 0}, // 0.4 accumulated
		{1.2, 3}, // 1.6 accumulated
	}

	for i, s := range steps {
		res, err := r.Step(s.dt, c)
		if err != nil {
			t.Fatal(err)
		}
		if res.Updates != s.updates {
			t.Errorf("step %d: %d updates, want %d", i, res.Updates, s.updates)
		}
	}
}

func TestReactorOfflineCooling(t *testing.T) {
	cfg := DefaultReactorConfig()
	cfg.InitialTemp = 800
	r := NewReactor(cfg)

	tests := []struct {
		coolant float64
		want    float64
	}{
		{0.5, 797.5},
		{1.0, 792.5},
		{0, 792.5},
	}

	for _, tt := range tests {
		if _, err := r.Step(0.5, Controls{Coolant: tt.coolant}); err != nil {
			t.Fatal(err)
		}
		if math.Abs(r.Temperature()-tt.want) > 1e-9 {
			t.Errorf("coolant %v: temperature %v, want %v", tt.coolant, r.Temperature(), tt.want)
		}
	}
	if r.Status() != StatusOffline {
		t.Errorf("status = %v, want OFFLINE", r.Status())
	}
}

func TestReactorOfflineFloorsAtAmbient(t *testing.T) {
	cfg := DefaultReactorConfig()
	cfg.InitialTemp = 27
	r := NewReactor(cfg)

	if _, err := r.Step(0.5, Controls{Coolant: 1}); err != nil {
		t.Fatal(err)
	}
	if r.Temperature() != cfg.AmbientTemp {
		t.Errorf("temperature = %v, want ambient %v", r.Temperature(), cfg.AmbientTemp)
	}
}

func TestReactorIntensityDecaysOffline(t *testing.T) {
	r := NewReactor(DefaultReactorConfig())
	r.Start()
	if _, err := r.Step(0.5, Controls{Power: 0.5, Coolant: 1, Rods: uniformRods(5, 0.4)}); err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.Intensity()-0.2) > 1e-9 {
		t.Fatalf("intensity = %v, want 0.2", r.Intensity())
	}

	r.Shutdown()
	want := []float64{0.15, 0.1, 0.05, 0, 0}
	for i, w := range want {
		if _, err := r.Step(0.5, Controls{Coolant: 1}); err != nil {
			t.Fatal(err)
		}
		if math.Abs(r.Intensity()-w) > 1e-9 {
			t.Errorf("interval %d: intensity %v, want %v", i, r.Intensity(), w)
		}
	}
}

func TestReactorActiveHeating(t *testing.T) {
	r := NewReactor(DefaultReactorConfig())
	r.Start()

	c := Controls{Power: 1, Coolant: 0, Rods: uniformRods(5, 1)}
	for i := 1; i <= 3; i++ {
		if _, err := r.Step(0.5, c); err != nil {
			t.Fatal(err)
		}
		want := 25 + float64(i)*10
		if math.Abs(r.Temperature()-want) > 1e-9 {
			t.Errorf("interval %d: temperature %v, want %v", i, r.Temperature(), want)
		}
	}

	if r.Intensity() != 1 {
		t.Errorf("intensity = %v, want 1", r.Intensity())
	}
	// Average rod withdrawal above 0.8 is critical regardless of temperature
	if !r.Critical() || r.Status() != StatusCritical {
		t.Errorf("status = %v critical=%v, want CRITICAL", r.Status(), r.Critical())
	}
}

func TestReactorStatus(t *testing.T) {
	tests := []struct {
		name     string
		initial  float64
		controls Controls
		want     ReactorStatus
	}{
		{
			name:     "stable",
			initial:  25,
			controls: Controls{Power: 0.5, Coolant: 0.5, Rods: uniformRods(5, 0.2)},
			want:     StatusStable,
		},
		{
			name:     "active low coolant",
			initial:  25,
			controls: Controls{Power: 0.5, Coolant: 0.3, Rods: uniformRods(5, 0.2)},
			want:     StatusActive,
		},
		{
			name:     "active hot",
			initial:  700,
			controls: Controls{Power: 0.5, Coolant: 0.5, Rods: uniformRods(5, 0.2)},
			want:     StatusActive,
		},
		{
			name:     "critical temperature",
			initial:  950,
			controls: Controls{Power: 0.5, Coolant: 0.5, Rods: uniformRods(5, 0.2)},
			want:     StatusCritical,
		},
		{
			name:     "zero power is not stable",
			initial:  25,
			controls: Controls{Power: 0, Coolant: 0.5, Rods: uniformRods(5, 0.2)},
			want:     StatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultReactorConfig()
			cfg.InitialTemp = tt.initial
			r := NewReactor(cfg)
			r.Start()

			if _, err := r.Step(0.5, tt.controls); err != nil {
				t.Fatal(err)
			}
			if got := r.Status(); got != tt.want {
				t.Errorf("status = %v, want %v (temp %v)", got, tt.want, r.Temperature())
			}
		})
	}
}

func TestReactorScram(t *testing.T) {
	cfg := DefaultReactorConfig()
	cfg.InitialTemp = 1195
	r := NewReactor(cfg)
	r.Start()

	res, err := r.Step(0.5, Controls{Power: 1, Coolant: 0, Rods: uniformRods(5, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Scram {
		t.Fatal("expected scram above 1200C")
	}
	if r.Active() {
		t.Error("reactor still active after scram")
	}
	if !r.Critical() {
		t.Error("scram should leave the critical flag set")
	}
	if r.Status() != StatusOffline {
		t.Errorf("status = %v, want OFFLINE", r.Status())
	}

	// Next interval runs offline and clears the flag
	if _, err := r.Step(0.5, Controls{Coolant: 0.5}); err != nil {
		t.Fatal(err)
	}
	if r.Critical() {
		t.Error("critical flag survived an offline interval")
	}
	if math.Abs(r.Temperature()-1202.5) > 1e-9 {
		t.Errorf("temperature = %v, want 1202.5", r.Temperature())
	}
}

func TestReactorScramStopsHeatingWithinStep(t *testing.T) {
	cfg := DefaultReactorConfig()
	cfg.InitialTemp = 1195
	r := NewReactor(cfg)
	r.Start()

	// Two intervals in one step: the second runs offline with no coolant
	res, err := r.Step(1.0, Controls{Power: 1, Coolant: 0, Rods: uniformRods(5, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Updates != 2 || !res.Scram {
		t.Fatalf("result = %+v, want 2 updates with scram", res)
	}
	if math.Abs(r.Temperature()-1205) > 1e-9 {
		t.Errorf("temperature = %v, want 1205", r.Temperature())
	}
}

func TestReactorTemperatureClamped(t *testing.T) {
	cfg := DefaultReactorConfig()
	cfg.HeatGain = 10000
	cfg.ScramTemp = math.Inf(1)
	r := NewReactor(cfg)
	r.Start()

	if _, err := r.Step(0.5, Controls{Power: 1, Rods: uniformRods(5, 1)}); err != nil {
		t.Fatal(err)
	}
	if r.Temperature() != cfg.MaxTemp {
		t.Errorf("temperature = %v, want clamp at %v", r.Temperature(), cfg.MaxTemp)
	}
}

func TestReactorRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		dt   float64
		c    Controls
	}{
		{"negative dt", -0.1, Controls{}},
		{"nan dt", math.NaN(), Controls{}},
		{"nan power", 0.5, Controls{Power: math.NaN()}},
		{"inf coolant", 0.5, Controls{Coolant: math.Inf(1)}},
		{"nan rod", 0.5, Controls{Rods: []float64{0.1, math.NaN()}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReactor(DefaultReactorConfig())
			if _, err := r.Step(tt.dt, tt.c); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAnimationActive(t *testing.T) {
	r := NewReactor(DefaultReactorConfig())
	if r.AnimationActive(Controls{Power: 1}) {
		t.Error("offline reactor should not animate")
	}

	r.Start()
	tests := []struct {
		power float64
		want  bool
	}{
		{0, false},
		{0.1, false},
		{0.11, true},
		{1, true},
	}
	for _, tt := range tests {
		if got := r.AnimationActive(Controls{Power: tt.power}); got != tt.want {
			t.Errorf("AnimationActive(power=%v) = %v, want %v", tt.power, got, tt.want)
		}
	}
}

func TestToggle(t *testing.T) {
	r := NewReactor(DefaultReactorConfig())
	if !r.Toggle() || !r.Active() {
		t.Error("first Toggle should start the reactor")
	}
	if r.Toggle() || r.Active() {
		t.Error("second Toggle should stop the reactor")
	}
}

func TestPowerMW(t *testing.T) {
	tests := []struct {
		power float64
		want  int
	}{
		{0, 0},
		{0.4567, 457},
		{0.5, 500},
		{1, 1000},
	}
	for _, tt := range tests {
		if got := PowerMW(tt.power); got != tt.want {
			t.Errorf("PowerMW(%v) = %d, want %d", tt.power, got, tt.want)
		}
	}
}

func TestStatusLabelsAndTint(t *testing.T) {
	labels := map[ReactorStatus]string{
		StatusOffline:  "OFFLINE",
		StatusActive:   "ACTIVE",
		StatusStable:   "STABLE",
		StatusCritical: "CRITICAL",
	}
	for s, want := range labels {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}

	tests := []struct {
		stable, critical bool
		r, g, b          uint8
	}{
		{false, false, 255, 255, 255},
		{true, false, 52, 199, 89},
		{false, true, 255, 59, 48},
		{true, true, 255, 59, 48},
	}
	for _, tt := range tests {
		r, g, b := StatusTint(tt.stable, tt.critical)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("StatusTint(%v, %v) = (%d, %d, %d), want (%d, %d, %d)",
				tt.stable, tt.critical, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}
