// pkg/physics/edge.go
package physics

// Edge represents one side of a convex boundary, directed from A to B.
// For a polygon wound counter-clockwise, the inward normal is the
// left-hand perpendicular of B-A.
type Edge struct {
	A Vector2D `json:"a"`
	B Vector2D `json:"b"`
}

// InwardNormal returns the unit normal pointing into the polygon interior.
// A degenerate (zero-length) edge yields the zero vector, which makes the
// edge inert during resolution instead of crashing.
func (e Edge) InwardNormal() Vector2D {
	return e.B.Sub(e.A).Perp().Normalize()
}

// Contact describes the outcome of resolving a circle against an edge.
type Contact struct {
	Collided    bool
	Normal      Vector2D
	Penetration float64
}

// ResolveCircleEdge checks a circular body against a single edge and, when
// the body penetrates the edge line while moving toward it, returns the
// corrected position and reflected velocity.
//
// The signed distance of the center from the edge line is positive on the
// interior side. Penetration means dist < radius; the approach guard
// (vel·n < 0) prevents re-reflecting a body that is already receding,
// which would inject energy and jitter against a resting contact. On a
// hit the velocity is mirrored about the normal and the position pushed
// back along the normal by exactly radius-dist, leaving the body tangent
// to the edge line.
func ResolveCircleEdge(edge Edge, pos, vel Vector2D, radius float64) (Vector2D, Vector2D, Contact) {
	normal := edge.InwardNormal()

	dist := pos.Sub(edge.A).Dot(normal)
	if dist >= radius {
		return pos, vel, Contact{}
	}

	contact := Contact{
		Normal:      normal,
		Penetration: radius - dist,
	}

	if vel.Dot(normal) >= 0 {
		// Penetrating but already moving away, e.g. just resolved against
		// an adjacent edge this tick. Leave the state alone.
		return pos, vel, contact
	}

	contact.Collided = true
	vel = vel.Sub(normal.Scale(2 * vel.Dot(normal)))
	pos = pos.Add(normal.Scale(radius - dist))
	return pos, vel, contact
}
