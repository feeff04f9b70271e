// pkg/engine/sim.go

// Package engine owns the simulation context: one ball, one rotating
// boundary, and the per-tick control flow between them.
package engine

import (
	"sync"

	"github.com/polyball/polyball/pkg/boundary"
	"github.com/polyball/polyball/pkg/config"
	"github.com/polyball/polyball/pkg/entity"
	"github.com/polyball/polyball/pkg/event"
	"github.com/polyball/polyball/pkg/physics"
)

// Simulation is the session context passed by reference to every
// operation; there is no hidden global state. A tick runs to completion
// on one logical thread of control; the mutex only exists so the network
// layer can take consistent snapshots while the tick loop runs.
type Simulation struct {
	config   config.SimConfig
	ball     *entity.Ball
	boundary *boundary.Boundary
	events   *event.Bus
	tick     uint64
	mu       sync.RWMutex
}

// BallState is a read-only snapshot of the ball for rendering.
type BallState struct {
	Position physics.Vector2D `json:"position"`
	Velocity physics.Vector2D `json:"velocity"`
	Radius   float64          `json:"radius"`
	Launched bool             `json:"launched"`
}

// NewSimulation creates a simulation session from the given parameters.
// The event bus may be shared with other components; it must not be nil.
func NewSimulation(cfg config.SimConfig, events *event.Bus) (*Simulation, error) {
	b, err := boundary.New(cfg.BoundaryCenter, cfg.BoundaryRadius, cfg.Sides, cfg.RotationRate)
	if err != nil {
		return nil, err
	}

	return &Simulation{
		config:   cfg,
		ball:     entity.NewBall(cfg.BoundaryCenter, cfg.BallRadius),
		boundary: b,
		events:   events,
	}, nil
}

// Tick advances the session by one frame: the boundary rotates, then a
// launched ball integrates gravity, damping, and motion, then the moved
// ball is resolved against every edge sequentially in edge order. The
// per-edge pass is a discrete post-move correction, not a swept check;
// near a corner two edges may both resolve in the same tick and the
// second acts on the state the first produced. That composite-normal
// corner response is the reference behavior.
//
// dt is the externally measured elapsed time and is assumed to be
// non-negative and reasonably small; the caller clamps pathological
// values before they reach the core.
//
// Events are published after the lock is released so handlers may call
// back into the snapshot accessors without deadlocking.
func (s *Simulation) Tick(dt float64) {
	s.mu.Lock()

	s.boundary.Advance(dt)

	var pending []event.Event
	if s.ball.Launched {
		s.ball.Update(dt, s.config.Gravity, s.config.Friction)
		pending = s.resolveCollisions()
	}

	s.tick++
	s.mu.Unlock()

	for _, e := range pending {
		s.events.Publish(e)
	}
}

// resolveCollisions applies the circle-vs-edge resolver once per edge, in
// order, feeding each correction into the next check. It returns the
// bounce events for the caller to publish outside the lock.
func (s *Simulation) resolveCollisions() []event.Event {
	var bounces []event.Event
	for i, edge := range s.boundary.Edges() {
		pos, vel, contact := physics.ResolveCircleEdge(edge, s.ball.Position, s.ball.Velocity, s.ball.Radius)
		if !contact.Collided {
			continue
		}
		s.ball.Position = pos
		s.ball.Velocity = vel
		bounces = append(bounces, event.NewBounceEvent(s, i, contact.Normal, vel.Length()))
	}
	return bounces
}

// Launch transitions the ball from idle to launched toward the given aim
// point. A launch while already launched is ignored; it reports whether
// the transition happened.
func (s *Simulation) Launch(aim physics.Vector2D) bool {
	s.mu.Lock()
	if !s.ball.Launch(aim, s.config.LaunchSpeed) {
		s.mu.Unlock()
		return false
	}
	launched := event.NewLaunchEvent(s, aim, s.ball.Velocity)
	s.mu.Unlock()

	s.events.Publish(launched)
	return true
}

// SetBoundarySides rebuilds the boundary with n sides and resets the ball
// to idle at the boundary center. n below 3 is rejected with
// boundary.ErrInvalidSideCount and leaves the session untouched. The
// rotation angle carries over to the new shape.
func (s *Simulation) SetBoundarySides(n int) error {
	s.mu.Lock()
	oldSides := s.boundary.SideCount()
	if err := s.boundary.SetSideCount(n); err != nil {
		s.mu.Unlock()
		return err
	}
	s.ball.Reset(s.boundary.Center())
	s.mu.Unlock()

	s.events.Publish(event.NewBoundaryEvent(s, n, oldSides))
	s.events.Publish(&event.BaseEvent{EventType: event.BallReset, Source: s})
	return nil
}

// BallState returns a read-only snapshot of the ball.
func (s *Simulation) BallState() BallState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return BallState{
		Position: s.ball.Position,
		Velocity: s.ball.Velocity,
		Radius:   s.ball.Radius,
		Launched: s.ball.Launched,
	}
}

// BoundaryEdges returns the current world-space edges in order.
func (s *Simulation) BoundaryEdges() []physics.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.boundary.Edges()
}

// SideCount returns the current number of boundary sides.
func (s *Simulation) SideCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.boundary.SideCount()
}

// Rotation returns the boundary's current rotation angle in radians.
func (s *Simulation) Rotation() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.boundary.Rotation()
}

// CurrentTick returns the number of completed ticks.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tick
}
