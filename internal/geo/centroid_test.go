package geo

import (
	"math"
	"testing"
)

var chicago = []Coordinate{
	At(41.9461021, -87.6977005),
	At(41.9215927, -87.6953278),
	At(41.9121971, -87.6807251),
	At(41.8827209, -87.6352386),
	At(41.8839951, -87.6347198),
	At(41.8830872, -87.6359787),
	At(41.883255, -87.6354523),
	At(41.8830147, -87.6354752),
	At(41.881218, -87.6351395),
	At(41.8841934, -87.6364594),
	At(41.8837547, -87.6352844),
	At(41.8826141, -87.6353912),
	At(41.8827934, -87.6357727),
	At(41.8830872, -87.6352005),
	At(41.8839989, -87.632843),
	At(41.8855286, -87.6347198),
	At(41.8848267, -87.6368179),
	At(41.943203, -87.7009201),
}

func TestCentroidEmpty(t *testing.T) {
	if got := Centroid([]Coordinate{}); got != (Coordinate{}) {
		t.Fatalf("Centroid(empty) = %+v, want zero", got)
	}
	if got := CentroidRefs[Coordinate](nil); got != (Coordinate{}) {
		t.Fatalf("CentroidRefs(nil) = %+v, want zero", got)
	}
}

func TestCentroidSingle(t *testing.T) {
	p := Coordinate{Lat: 43.1234, Lng: -87.876, Accuracy: 5}

	got := Centroid([]Coordinate{p})
	if got.Lat != p.Lat || got.Lng != p.Lng {
		t.Fatalf("Centroid(single) = %+v, want %+v", got, p)
	}

	got = CentroidRefs([]*Coordinate{&p})
	if got.Lat != p.Lat || got.Lng != p.Lng {
		t.Fatalf("CentroidRefs(single) = %+v, want %+v", got, p)
	}
}

func TestCentroidDiffersFromInputs(t *testing.T) {
	tests := []struct {
		name   string
		points []Coordinate
	}{
		{"two far points", []Coordinate{At(63.8066559, -83.6791916), At(60.244442, -149.6915436)}},
		{"chicago", chicago},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Centroid(tt.points)
			for _, p := range tt.points {
				if got.Lat == p.Lat || got.Lng == p.Lng {
					t.Fatalf("centroid %+v coincides with input %+v", got, p)
				}
			}
		})
	}
}

func TestCentroidIgnoresOrder(t *testing.T) {
	reversed := make([]Coordinate, len(chicago))
	for i, p := range chicago {
		reversed[len(chicago)-1-i] = p
	}

	a, b := Centroid(chicago), Centroid(reversed)
	if math.Abs(a.Lat-b.Lat) > 1e-9 || math.Abs(a.Lng-b.Lng) > 1e-9 {
		t.Fatalf("centroid depends on order: %+v vs %+v", a, b)
	}
}

func TestCentroidAntimeridian(t *testing.T) {
	got := Centroid([]Coordinate{At(0, 179), At(0, -179)})
	if math.Abs(got.Lat) > 1e-9 || math.Abs(math.Abs(got.Lng)-180) > 1e-9 {
		t.Fatalf("centroid = %+v, want (0, ±180)", got)
	}
}

func TestCentroidRefsMatchesValues(t *testing.T) {
	refs := make([]*Coordinate, len(chicago))
	for i := range chicago {
		refs[i] = &chicago[i]
	}

	if a, b := Centroid(chicago), CentroidRefs(refs); a != b {
		t.Fatalf("CentroidRefs = %+v, want %+v", b, a)
	}
}
