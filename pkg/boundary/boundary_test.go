// pkg/boundary/boundary_test.go
package boundary

import (
	"errors"
	"math"
	"testing"

	"github.com/polyball/polyball/pkg/physics"
)

var testCenter = physics.Vector2D{X: 400, Y: 320}

func TestNew_RejectsInvalidSideCount(t *testing.T) {
	tests := []struct {
		name    string
		sides   int
		wantErr bool
	}{
		{name: "triangle", sides: 3, wantErr: false},
		{name: "decagon", sides: 10, wantErr: false},
		{name: "two_sides", sides: 2, wantErr: true},
		{name: "zero_sides", sides: 0, wantErr: true},
		{name: "negative_sides", sides: -5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(testCenter, 250, tt.sides, 0)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSideCount) {
					t.Errorf("New() error = %v, expected ErrInvalidSideCount", err)
				}
			} else if err != nil {
				t.Errorf("New() unexpected error: %v", err)
			}
		})
	}
}

func TestBoundary_FirstVertexAtTop(t *testing.T) {
	b, err := New(testCenter, 250, 4, 0)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	verts := b.Vertices()
	if len(verts) != 4 {
		t.Fatalf("got %d vertices, expected 4", len(verts))
	}

	// Local angle for i=0 is -pi/2: straight up from the center by the
	// circumradius.
	expected := physics.Vector2D{X: testCenter.X, Y: testCenter.Y - 250}
	if math.Abs(verts[0].X-expected.X) > 1e-9 || math.Abs(verts[0].Y-expected.Y) > 1e-9 {
		t.Errorf("first vertex = %v, expected %v", verts[0], expected)
	}
}

func TestBoundary_AllVerticesOnCircumcircle(t *testing.T) {
	b, err := New(testCenter, 250, 7, 0)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	for i, v := range b.Vertices() {
		if d := v.Distance(testCenter); math.Abs(d-250) > 1e-9 {
			t.Errorf("vertex %d at distance %v from center, expected 250", i, d)
		}
	}
}

func TestBoundary_EdgeNormalsPointInward(t *testing.T) {
	for _, sides := range []int{3, 4, 5, 6, 10} {
		b, err := New(testCenter, 250, sides, 0)
		if err != nil {
			t.Fatalf("New(%d) failed: %v", sides, err)
		}

		// Rotate a little so the check is not axis-aligned by accident
		b.Advance(0.37)

		for i, edge := range b.Edges() {
			normal := edge.InwardNormal()
			toCenter := testCenter.Sub(edge.A)
			if toCenter.Dot(normal) <= 0 {
				t.Errorf("sides=%d edge %d: inward normal %v points away from center", sides, i, normal)
			}
		}
	}
}

func TestBoundary_EdgesWrapAround(t *testing.T) {
	b, err := New(testCenter, 250, 5, 0)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	edges := b.Edges()
	verts := b.Vertices()
	if len(edges) != 5 {
		t.Fatalf("got %d edges, expected 5", len(edges))
	}
	last := edges[len(edges)-1]
	if last.A != verts[len(verts)-1] || last.B != verts[0] {
		t.Error("last edge does not wrap from the final vertex back to the first")
	}
}

func TestBoundary_RotationWrapsFullTurn(t *testing.T) {
	rate := math.Pi / 3 // radians per second
	b, err := New(testCenter, 250, 6, rate)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	before := b.Vertices()

	// Advance in uneven steps summing to exactly one full turn
	total := 2 * math.Pi / rate
	steps := []float64{total * 0.3, total * 0.25, total * 0.45}
	for _, dt := range steps {
		b.Advance(dt)
	}

	if rot := b.Rotation(); math.Abs(rot) > 1e-9 && math.Abs(rot-2*math.Pi) > 1e-9 {
		t.Errorf("rotation after full turn = %v, expected 0", rot)
	}

	after := b.Vertices()
	for i := range before {
		if before[i].Distance(after[i]) > 1e-6 {
			t.Errorf("vertex %d moved after full turn: %v vs %v", i, before[i], after[i])
		}
	}
}

func TestBoundary_RotationStaysInRange(t *testing.T) {
	b, err := New(testCenter, 250, 3, 1.5)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	for i := 0; i < 10000; i++ {
		b.Advance(0.016)
		rot := b.Rotation()
		if rot < 0 || rot >= 2*math.Pi {
			t.Fatalf("rotation %v out of [0, 2*pi) after %d steps", rot, i+1)
		}
	}
}

func TestBoundary_SetSideCountPreservesRotation(t *testing.T) {
	b, err := New(testCenter, 250, 3, 1)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	b.Advance(0.5)
	rotBefore := b.Rotation()

	if err := b.SetSideCount(8); err != nil {
		t.Fatalf("SetSideCount() failed: %v", err)
	}

	if b.SideCount() != 8 {
		t.Errorf("SideCount() = %d, expected 8", b.SideCount())
	}
	if b.Rotation() != rotBefore {
		t.Errorf("rotation changed from %v to %v on shape change", rotBefore, b.Rotation())
	}
}

func TestBoundary_SetSideCountInvalidLeavesShape(t *testing.T) {
	b, err := New(testCenter, 250, 5, 0)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := b.SetSideCount(1); !errors.Is(err, ErrInvalidSideCount) {
		t.Fatalf("SetSideCount(1) error = %v, expected ErrInvalidSideCount", err)
	}
	if b.SideCount() != 5 {
		t.Errorf("SideCount() = %d after failed change, expected 5", b.SideCount())
	}
}

func TestShapeName(t *testing.T) {
	tests := []struct {
		sides    int
		expected string
	}{
		{3, "Triangle"},
		{4, "Square"},
		{6, "Hexagon"},
		{10, "Decagon"},
		{12, "12-gon"},
	}

	for _, tt := range tests {
		if got := ShapeName(tt.sides); got != tt.expected {
			t.Errorf("ShapeName(%d) = %q, expected %q", tt.sides, got, tt.expected)
		}
	}
}
