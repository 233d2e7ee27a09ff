// Package components defines ECS components for the reactor control rods.
package components

// Rod identifies a control rod and holds its current withdrawal.
// Withdrawal is a fraction in [0, 1]; 0 is fully inserted.
type Rod struct {
	Index      int
	Withdrawal float32
}

// RodDrive moves a rod toward the operator's target position.
type RodDrive struct {
	Target float32
	Speed  float32 // Withdrawal units per second
}
