package systems

import (
	"errors"
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
)

func TestRodBankInitialPositions(t *testing.T) {
	initial := []float64{0.2, 0.3, 0.1, 0.4, 0.2}
	b, err := NewRodBank(ecs.NewWorld(), initial, 3)
	if err != nil {
		t.Fatal(err)
	}

	if b.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", b.Len())
	}
	for i, want := range initial {
		if math.Abs(b.Positions()[i]-want) > 1e-6 {
			t.Errorf("rod %d at %v, want %v", i, b.Positions()[i], want)
		}
		if math.Abs(b.Target(i)-want) > 1e-6 {
			t.Errorf("rod %d target %v, want %v", i, b.Target(i), want)
		}
	}
}

func TestRodBankDrive(t *testing.T) {
	b, err := NewRodBank(ecs.NewWorld(), []float64{0, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetTarget(0, 0.9); err != nil {
		t.Fatal(err)
	}
	if err := b.SetTarget(1, 0.4); err != nil {
		t.Fatal(err)
	}

	// 3.0 per second: 0.1s moves each rod by 0.3
	b.Update(0.1)
	if math.Abs(b.Positions()[0]-0.3) > 1e-6 {
		t.Errorf("rod 0 at %v, want 0.3", b.Positions()[0])
	}
	if math.Abs(b.Positions()[1]-0.7) > 1e-6 {
		t.Errorf("rod 1 at %v, want 0.7", b.Positions()[1])
	}

	// A long step lands exactly on the target without overshoot
	b.Update(1)
	if math.Abs(b.Positions()[0]-0.9) > 1e-6 || math.Abs(b.Positions()[1]-0.4) > 1e-6 {
		t.Errorf("positions = %v, want [0.9 0.4]", b.Positions())
	}
}

func TestRodBankTargetClamped(t *testing.T) {
	b, err := NewRodBank(ecs.NewWorld(), []float64{0.5}, 3)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in, want float64
	}{
		{1.7, 1},
		{-0.3, 0},
		{0.25, 0.25},
	}
	for _, tt := range tests {
		if err := b.SetTarget(0, tt.in); err != nil {
			t.Fatal(err)
		}
		if math.Abs(b.Target(0)-tt.want) > 1e-6 {
			t.Errorf("SetTarget(%v) -> %v, want %v", tt.in, b.Target(0), tt.want)
		}
	}
}

func TestRodBankScram(t *testing.T) {
	b, err := NewRodBank(ecs.NewWorld(), []float64{0.2, 0.3, 0.1, 0.4, 0.2}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetTarget(3, 1); err != nil {
		t.Fatal(err)
	}

	b.Scram()
	for i, p := range b.Positions() {
		if p != 0 {
			t.Errorf("rod %d at %v after scram, want 0", i, p)
		}
		if b.Target(i) != 0 {
			t.Errorf("rod %d target %v after scram, want 0", i, b.Target(i))
		}
	}

	// Rods stay in until the operator withdraws them again
	b.Update(1)
	if avg := (Controls{Rods: b.Positions()}).AverageRod(); avg != 0 {
		t.Errorf("average rod %v after scram, want 0", avg)
	}
}

func TestRodBankRejectsInvalidInput(t *testing.T) {
	if _, err := NewRodBank(ecs.NewWorld(), nil, 3); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty bank error = %v, want ErrInvalidInput", err)
	}
	if _, err := NewRodBank(ecs.NewWorld(), []float64{0.1}, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero speed error = %v, want ErrInvalidInput", err)
	}

	b, err := NewRodBank(ecs.NewWorld(), []float64{0.1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetTarget(1, 0.5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("out of range index error = %v, want ErrInvalidInput", err)
	}
	if err := b.SetTarget(0, math.NaN()); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NaN target error = %v, want ErrInvalidInput", err)
	}
}
