// Package olc encodes and decodes Open Location Codes (plus codes).
package olc

import (
	"errors"
	"fmt"

	"github.com/woozymasta/geocode/internal/geo"

	pluscode "github.com/google/open-location-code/go"
)

const (
	// DefaultLength gives roughly 14x14 metre areas.
	DefaultLength = 10
	// MaxLength is the longest code produced or read.
	MaxLength = 15

	pairCodeLen = 10
)

var (
	// ErrInvalidCode is returned for malformed codes.
	ErrInvalidCode = errors.New("invalid open location code")
	// ErrShortCode is returned when a short code is decoded without a reference.
	ErrShortCode = errors.New("short open location code")
	// ErrInvalidLength is returned for unsupported encode lengths.
	ErrInvalidLength = errors.New("invalid code length")
)

// Area is the rectangle a code stands for.
type Area struct {
	LatLo float64 `json:"lat_lo"`
	LngLo float64 `json:"lng_lo"`
	LatHi float64 `json:"lat_hi"`
	LngHi float64 `json:"lng_hi"`
	Len   int     `json:"length"`
}

// Center returns the centroid of the area's corners, with the code length
// as accuracy.
func (a Area) Center() geo.Coordinate {
	c := geo.Centroid([]geo.Coordinate{geo.At(a.LatLo, a.LngLo), geo.At(a.LatHi, a.LngHi)})
	c.Accuracy = float64(a.Len)
	return c
}

// Encode returns the code of the given length for a position. Latitude is
// clipped to [-90, 90] and longitude wrapped to [-180, 180). Lengths above
// MaxLength are clamped; below 10 only even lengths are allowed.
func Encode(lat, lng float64, length int) (string, error) {
	if length < 2 || (length < pairCodeLen && length%2 == 1) {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	return pluscode.Encode(lat, lng, min(length, MaxLength)), nil
}

// EncodeDefault encodes p with DefaultLength.
func EncodeDefault[P geo.LatLng](p P) string {
	return pluscode.Encode(p.Latitude(), p.Longitude(), DefaultLength)
}

// Decode returns the centre of a full code's area. The Accuracy field holds
// the number of significant digits.
func Decode(code string) (geo.Coordinate, error) {
	area, err := DecodeArea(code)
	if err != nil {
		return geo.Coordinate{}, err
	}

	return area.Center(), nil
}

// DecodeArea returns the area covered by a full code.
func DecodeArea(code string) (Area, error) {
	if err := CheckFull(code); err != nil {
		return Area{}, err
	}

	ca, err := pluscode.Decode(code)
	if err != nil {
		return Area{}, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}

	return Area{
		LatLo: ca.LatLo,
		LngLo: ca.LngLo,
		LatHi: ca.LatHi,
		LngHi: ca.LngHi,
		Len:   ca.Len,
	}, nil
}
