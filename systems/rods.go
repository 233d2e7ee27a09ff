package systems

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fission/components"
)

// RodBank owns the control rod entities and drives them toward their targets.
type RodBank struct {
	mapper   *ecs.Map2[components.Rod, components.RodDrive]
	filter   *ecs.Filter2[components.Rod, components.RodDrive]
	rodMap   *ecs.Map[components.Rod]
	driveMap *ecs.Map[components.RodDrive]

	entities  []ecs.Entity
	positions []float64
}

// NewRodBank creates one rod entity per initial withdrawal, at rest on its target.
func NewRodBank(world *ecs.World, initial []float64, speed float64) (*RodBank, error) {
	if len(initial) == 0 {
		return nil, fmt.Errorf("rod bank needs at least one rod: %w", ErrInvalidInput)
	}
	if !finite(speed) || speed <= 0 {
		return nil, fmt.Errorf("rod speed %v: %w", speed, ErrInvalidInput)
	}

	b := &RodBank{
		mapper:    ecs.NewMap2[components.Rod, components.RodDrive](world),
		filter:    ecs.NewFilter2[components.Rod, components.RodDrive](world),
		rodMap:    ecs.NewMap[components.Rod](world),
		driveMap:  ecs.NewMap[components.RodDrive](world),
		entities:  make([]ecs.Entity, len(initial)),
		positions: make([]float64, len(initial)),
	}

	for i, w := range initial {
		if !finite(w) {
			return nil, fmt.Errorf("rod %d withdrawal %v: %w", i, w, ErrInvalidInput)
		}
		w = clamp(w, 0, 1)
		rod := components.Rod{Index: i, Withdrawal: float32(w)}
		drive := components.RodDrive{Target: float32(w), Speed: float32(speed)}
		b.entities[i] = b.mapper.NewEntity(&rod, &drive)
		b.positions[i] = w
	}
	return b, nil
}

// Len returns the number of rods.
func (b *RodBank) Len() int {
	return len(b.entities)
}

// SetTarget sets the operator target of rod i, clamped to [0, 1].
func (b *RodBank) SetTarget(i int, v float64) error {
	if i < 0 || i >= len(b.entities) {
		return fmt.Errorf("rod index %d out of range [0, %d): %w", i, len(b.entities), ErrInvalidInput)
	}
	if !finite(v) {
		return fmt.Errorf("rod %d target %v: %w", i, v, ErrInvalidInput)
	}
	b.driveMap.Get(b.entities[i]).Target = float32(clamp(v, 0, 1))
	return nil
}

// Target returns the operator target of rod i.
func (b *RodBank) Target(i int) float64 {
	return float64(b.driveMap.Get(b.entities[i]).Target)
}

// Update moves every rod toward its target by at most Speed*dt.
func (b *RodBank) Update(dt float64) {
	query := b.filter.Query()
	for query.Next() {
		rod, drive := query.Get()

		step := drive.Speed * float32(dt)
		diff := drive.Target - rod.Withdrawal
		switch {
		case diff > step:
			rod.Withdrawal += step
		case diff < -step:
			rod.Withdrawal -= step
		default:
			rod.Withdrawal = drive.Target
		}

		b.positions[rod.Index] = float64(rod.Withdrawal)
	}
}

// Scram drops every rod to fully inserted, bypassing the drive.
func (b *RodBank) Scram() {
	for i, e := range b.entities {
		b.rodMap.Get(e).Withdrawal = 0
		b.driveMap.Get(e).Target = 0
		b.positions[i] = 0
	}
}

// Positions returns the current withdrawals ordered by rod index.
// The slice is reused by the next Update.
func (b *RodBank) Positions() []float64 {
	return b.positions
}
