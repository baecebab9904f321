package geo

import (
	"testing"

	"github.com/paulmach/orb"
)

// square spans latitude 10..20 and longitude 30..40.
var square = Polygon{At(10, 30), At(10, 40), At(20, 40), At(20, 30)}

func TestWithin(t *testing.T) {
	tests := []struct {
		name  string
		point Coordinate
		poly  Polygon
		want  bool
	}{
		{"inside", At(15, 35), square, true},
		{"outside north", At(25, 35), square, false},
		{"outside east", At(15, 45), square, false},
		{"outside far", At(-15, -35), square, false},
		{"south edge", At(10, 35), square, true},
		{"west edge", At(15, 30), square, true},
		{"north edge", At(20, 35), square, false},
		{"east edge", At(15, 40), square, false},
		{"south west corner", At(10, 30), square, true},
		{"north east corner", At(20, 40), square, false},
		{"closed ring", At(15, 35), append(square[:len(square):len(square)], square[0]), true},
		{"triangle inside", At(1, 1), Polygon{At(0, 0), At(0, 4), At(4, 0)}, true},
		{"triangle outside", At(3, 3), Polygon{At(0, 0), At(0, 4), At(4, 0)}, false},
		{"too few vertices", At(0, 0), Polygon{At(0, 0), At(1, 1)}, false},
		{"empty", At(0, 0), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Within(tt.point, tt.poly); got != tt.want {
				t.Fatalf("Within(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

func TestWithinConcave(t *testing.T) {
	// U shape opening to the north
	u := Polygon{At(0, 0), At(0, 3), At(3, 3), At(3, 2), At(1, 2), At(1, 1), At(3, 1), At(3, 0)}

	if !Within(At(2, 0.5), u) {
		t.Fatalf("point in the west arm reported outside")
	}
	if Within(At(2, 1.5), u) {
		t.Fatalf("point in the notch reported inside")
	}
}

func TestPolygonRing(t *testing.T) {
	ring := square.Ring()
	if !ring.Closed() || len(ring) != len(square)+1 {
		t.Fatalf("ring not closed: %v", ring)
	}
	if ring[1] != (orb.Point{40, 10}) {
		t.Fatalf("ring[1] = %v, want [40 10]", ring[1])
	}

	back := PolygonFromRing(ring)
	if len(back) != len(square) {
		t.Fatalf("round trip has %d vertices, want %d", len(back), len(square))
	}
	for i := range square {
		if back[i] != square[i] {
			t.Fatalf("vertex %d = %v, want %v", i, back[i], square[i])
		}
	}

	b := square.Bound()
	if b.Min != (orb.Point{30, 10}) || b.Max != (orb.Point{40, 20}) {
		t.Fatalf("bound = %v", b)
	}
}
