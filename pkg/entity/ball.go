// pkg/entity/ball.go

// Package entity holds the single moving body of the simulation.
package entity

import (
	"github.com/polyball/polyball/pkg/physics"
)

// Ball represents the point-mass projectile bouncing inside the boundary.
// It is created once per session and reset, never destroyed.
type Ball struct {
	Position physics.Vector2D
	Velocity physics.Vector2D
	Radius   float64
	Launched bool
}

// NewBall creates an idle ball resting at the given center.
func NewBall(center physics.Vector2D, radius float64) *Ball {
	return &Ball{
		Position: center,
		Radius:   radius,
	}
}

// Reset returns the ball to the idle state at the given center point.
// The owner calls this whenever the boundary shape changes.
func (b *Ball) Reset(center physics.Vector2D) {
	b.Position = center
	b.Velocity = physics.Vector2D{}
	b.Launched = false
}

// Launch transitions the ball from idle to launched, aiming at the given
// world-space point. A second call is a no-op; the ball launches exactly
// once per life. An aim point equal to the current position normalizes to
// the zero vector, so the ball is launched with zero velocity: inert but
// valid.
func (b *Ball) Launch(aim physics.Vector2D, speed float64) bool {
	if b.Launched {
		return false
	}
	dir := aim.Sub(b.Position).Normalize()
	b.Velocity = dir.Scale(speed)
	b.Launched = true
	return true
}

// Update advances the ball by one tick of explicit Euler integration:
// gravity accelerates the vertical velocity component, damping removes a
// linear fraction of velocity per second, then position moves along the
// updated velocity. Idle balls do not move.
func (b *Ball) Update(dt, gravity, friction float64) {
	if !b.Launched {
		return
	}

	b.Velocity.Y += gravity * dt
	b.Velocity = b.Velocity.Scale(1.0 - friction*dt)
	b.Position = b.Position.Add(b.Velocity.Scale(dt))
}
