// pkg/boundary/boundary.go

// Package boundary provides the rotating regular-polygon boundary that
// constrains the ball. World-space geometry is regenerated on every query
// from the fixed local-space vertex template, so rotation and collision
// can never disagree about where the walls are.
package boundary

import (
	"errors"
	"fmt"
	"math"

	"github.com/polyball/polyball/pkg/physics"
)

// MinSides is the smallest side count that forms a closed convex boundary.
const MinSides = 3

// ErrInvalidSideCount is returned when a requested side count cannot form
// a polygon.
var ErrInvalidSideCount = errors.New("side count must be at least 3")

// shapeNames matches the catalogue offered by the shape selector UI.
var shapeNames = map[int]string{
	3:  "Triangle",
	4:  "Square",
	5:  "Pentagon",
	6:  "Hexagon",
	7:  "Heptagon",
	8:  "Octagon",
	9:  "Nonagon",
	10: "Decagon",
}

// ShapeName returns the conventional name for an n-sided regular polygon,
// or "n-gon" for side counts outside the named catalogue.
func ShapeName(n int) string {
	if name, ok := shapeNames[n]; ok {
		return name
	}
	return fmt.Sprintf("%d-gon", n)
}

// Boundary is a regular convex polygon spinning about its fixed center.
// Vertices are generated counter-clockwise with the first vertex at the
// top, matching angle 2*pi*i/n - pi/2 in local space.
type Boundary struct {
	center       physics.Vector2D
	radius       float64
	rotationRate float64 // radians per second
	rotation     float64 // current angle, kept in [0, 2*pi)
	local        []physics.Vector2D
}

// New creates a boundary with the given center, circumradius, side count,
// and rotation rate in radians per second.
func New(center physics.Vector2D, radius float64, sides int, rotationRate float64) (*Boundary, error) {
	b := &Boundary{
		center:       center,
		radius:       radius,
		rotationRate: rotationRate,
	}
	if err := b.SetSideCount(sides); err != nil {
		return nil, err
	}
	return b, nil
}

// SetSideCount rebuilds the local-space vertex template. The current
// rotation angle is deliberately preserved; resetting the ball on a shape
// change is the owner's job, not the geometry's.
func (b *Boundary) SetSideCount(sides int) error {
	if sides < MinSides {
		return fmt.Errorf("%w: got %d", ErrInvalidSideCount, sides)
	}

	local := make([]physics.Vector2D, sides)
	for i := 0; i < sides; i++ {
		angle := 2*math.Pi*float64(i)/float64(sides) - math.Pi/2
		local[i] = physics.FromAngle(angle, b.radius)
	}
	b.local = local
	return nil
}

// Advance increases the rotation angle by rotationRate*dt, wrapped to
// [0, 2*pi) so the angle stays well-conditioned over long sessions.
func (b *Boundary) Advance(dt float64) {
	b.rotation = math.Mod(b.rotation+b.rotationRate*dt, 2*math.Pi)
	if b.rotation < 0 {
		b.rotation += 2 * math.Pi
	}
}

// Rotation returns the current rotation angle in radians.
func (b *Boundary) Rotation() float64 {
	return b.rotation
}

// Center returns the fixed world-space center of the boundary.
func (b *Boundary) Center() physics.Vector2D {
	return b.center
}

// SideCount returns the number of sides of the current shape.
func (b *Boundary) SideCount() int {
	return len(b.local)
}

// Vertices returns the current world-space vertices in counter-clockwise
// order, derived fresh from the local template (rotation then translation).
func (b *Boundary) Vertices() []physics.Vector2D {
	world := make([]physics.Vector2D, len(b.local))
	for i, v := range b.local {
		world[i] = v.Rotate(b.rotation).Add(b.center)
	}
	return world
}

// Edges returns the current world-space edges as consecutive vertex pairs,
// wrapping from the last vertex back to the first.
func (b *Boundary) Edges() []physics.Edge {
	verts := b.Vertices()
	edges := make([]physics.Edge, len(verts))
	for i := range verts {
		edges[i] = physics.Edge{
			A: verts[i],
			B: verts[(i+1)%len(verts)],
		}
	}
	return edges
}
