// pkg/event/event.go
package event

import (
	"sync"

	"github.com/polyball/polyball/pkg/physics"
)

// Type represents the type of event
type Type string

// Common event types
const (
	BallLaunched    Type = "ball_launched"
	BallReset       Type = "ball_reset"
	WallBounce      Type = "wall_bounce"
	BoundaryChanged Type = "boundary_changed"
	SessionStarted  Type = "session_started"
	SessionStopped  Type = "session_stopped"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers, ok := b.handlers[event.GetType()]
	b.mu.RUnlock()

	if !ok {
		return
	}

	for _, handler := range handlers {
		handler(event)
	}
}

// Specific event implementations

// LaunchEvent carries the aim point and resulting velocity of a launch.
type LaunchEvent struct {
	BaseEvent
	AimPoint physics.Vector2D
	Velocity physics.Vector2D
}

// NewLaunchEvent creates a new launch event
func NewLaunchEvent(source interface{}, aim, velocity physics.Vector2D) *LaunchEvent {
	return &LaunchEvent{
		BaseEvent: BaseEvent{
			EventType: BallLaunched,
			Source:    source,
		},
		AimPoint: aim,
		Velocity: velocity,
	}
}

// BounceEvent records a single edge reflection during a tick.
type BounceEvent struct {
	BaseEvent
	EdgeIndex int
	Normal    physics.Vector2D
	Speed     float64
}

// NewBounceEvent creates a new bounce event
func NewBounceEvent(source interface{}, edgeIndex int, normal physics.Vector2D, speed float64) *BounceEvent {
	return &BounceEvent{
		BaseEvent: BaseEvent{
			EventType: WallBounce,
			Source:    source,
		},
		EdgeIndex: edgeIndex,
		Normal:    normal,
		Speed:     speed,
	}
}

// BoundaryEvent records a shape change of the boundary.
type BoundaryEvent struct {
	BaseEvent
	Sides    int
	OldSides int
}

// NewBoundaryEvent creates a new boundary event
func NewBoundaryEvent(source interface{}, sides, oldSides int) *BoundaryEvent {
	return &BoundaryEvent{
		BaseEvent: BaseEvent{
			EventType: BoundaryChanged,
			Source:    source,
		},
		Sides:    sides,
		OldSides: oldSides,
	}
}
