// Package geo handles geodesic distance, spherical centroids, k-means
// clustering and polygon membership for geographic coordinates.
//
// All algorithms are generic over LatLng, so callers can cluster or measure
// their own types and keep whatever payload they carry.
package geo

import "math"

// LatLng is implemented by anything that has a position in degrees.
type LatLng interface {
	Latitude() float64
	Longitude() float64
}

// Coordinate is a WGS-84 position in degrees with an optional accuracy value.
// Accuracy meaning depends on the producer (metres for address lookups,
// code length for decoded location codes).
type Coordinate struct {
	Lat      float64 `json:"lat" yaml:"lat"`
	Lng      float64 `json:"lng" yaml:"lng"`
	Accuracy float64 `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
}

// Latitude returns the latitude in degrees.
func (c Coordinate) Latitude() float64 { return c.Lat }

// Longitude returns the longitude in degrees.
func (c Coordinate) Longitude() float64 { return c.Lng }

// At builds a Coordinate without accuracy.
func At(lat, lng float64) Coordinate {
	return Coordinate{Lat: lat, Lng: lng}
}

// From copies the position of any LatLng into a Coordinate.
func From[P LatLng](p P) Coordinate {
	return Coordinate{Lat: p.Latitude(), Lng: p.Longitude()}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
