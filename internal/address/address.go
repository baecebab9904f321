// Package address resolves coordinates to postal addresses and back using
// the positionstack geocoding API.
package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/woozymasta/geocode/internal/geo"
)

// Address is a reverse geocoding result.
type Address struct {
	Location   *geo.Coordinate `json:"location,omitempty"`
	City       string          `json:"city,omitempty"`
	State      string          `json:"state,omitempty"`
	County     string          `json:"county,omitempty"`
	PostalCode string          `json:"postalCode,omitempty"`
	Country    string          `json:"country,omitempty"`
	Text       string          `json:"text,omitempty"`
	Street     []string        `json:"street,omitempty"`
}

// Resolver looks up addresses and coordinates.
type Resolver interface {
	Reverse(ctx context.Context, lat, lng float64) (Address, error)
	Forward(ctx context.Context, text string) (geo.Coordinate, error)
}

var (
	ErrMissingKey    = errors.New("missing access key")
	ErrEmptyAddress  = errors.New("empty address")
	ErrDecode        = errors.New("invalid JSON in response")
	ErrNoData        = errors.New("no data in response")
	ErrInvalidData   = errors.New("invalid type for data in response")
	ErrEmptyData     = errors.New("empty response data")
	ErrNonObject     = errors.New("non-object in data array")
	ErrNoCoordinates = errors.New("data does not contain coordinates")
)

// StatusError is returned when the API answers with a non-200 status.
type StatusError struct {
	Body string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Temporary reports whether the request is worth retrying.
func (e *StatusError) Temporary() bool {
	switch e.Code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}
