package audio

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/fission/systems"
)

func testConfig() Config {
	return Config{
		SampleRate:       44100,
		BaseRate:         0,
		RatePerIntensity: 100,
		ClickMillis:      2,
		Volume:           0.6,
	}
}

func TestGeigerSilentAtZeroRate(t *testing.T) {
	g := NewGeiger(testConfig(), rand.New(rand.NewSource(1)))

	samples := make([][2]float64, 4410)
	n, ok := g.Stream(samples)
	if n != len(samples) || !ok {
		t.Fatalf("Stream = (%d, %v), want (%d, true)", n, ok, len(samples))
	}
	for i, s := range samples {
		if s[0] != 0 || s[1] != 0 {
			t.Fatalf("sample %d = %v, want silence", i, s)
		}
	}
	if g.Clicks() != 0 {
		t.Errorf("clicks = %d, want 0", g.Clicks())
	}
}

func TestGeigerRateFollowsIntensity(t *testing.T) {
	cfg := testConfig()
	cfg.BaseRate = 0.5
	g := NewGeiger(cfg, rand.New(rand.NewSource(1)))

	tests := []struct {
		intensity float64
		want      float64
	}{
		{0, 0.5},
		{0.5, 50.5},
		{1, 100.5},
		{-1, 0.5},
		{math.NaN(), 0.5},
	}
	for _, tt := range tests {
		g.SetIntensity(tt.intensity)
		if math.Abs(g.Rate()-tt.want) > 1e-9 {
			t.Errorf("SetIntensity(%v): rate %v, want %v", tt.intensity, g.Rate(), tt.want)
		}
	}
}

func TestGeigerClickCount(t *testing.T) {
	g := NewGeiger(testConfig(), rand.New(rand.NewSource(42)))
	g.SetIntensity(1)

	// 10 seconds at 100 clicks/s, less dead time while a click plays
	buf := make([][2]float64, 4410)
	for i := 0; i < 100; i++ {
		g.Stream(buf)
		for _, s := range buf {
			if s[0] < -1 || s[0] > 1 || s[0] != s[1] {
				t.Fatalf("sample %v out of range or not mono", s)
			}
		}
	}

	if c := g.Clicks(); c < 700 || c > 950 {
		t.Errorf("clicks = %d, want roughly 830", c)
	}
}

func TestWithVolumeSilent(t *testing.T) {
	g := NewGeiger(testConfig(), rand.New(rand.NewSource(1)))
	g.SetIntensity(1)

	s := withVolume(g, 0)
	buf := make([][2]float64, 44100)
	s.Stream(buf)
	for _, v := range buf {
		if v[0] != 0 {
			t.Fatal("zero volume should be silent")
		}
	}
}

func TestPlayerRenderWithoutDevice(t *testing.T) {
	cfg := testConfig()
	cfg.BaseRate = 1
	p := NewPlayer(cfg, rand.New(rand.NewSource(1)))

	p.Render(systems.Frame{Intensity: 0.8, Particles: make([]systems.Particle, 10)})
	if math.Abs(p.Geiger().Rate()-81) > 1e-9 {
		t.Errorf("rate = %v, want 81", p.Geiger().Rate())
	}

	p.Render(systems.Frame{Intensity: 0.8})
	if p.Geiger().Rate() != 1 {
		t.Errorf("idle rate = %v, want background 1", p.Geiger().Rate())
	}

	p.Close()
}
