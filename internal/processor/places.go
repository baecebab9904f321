// Package processor loads point sets and exports clustering results.
package processor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// maxInput caps remote and stdin input.
const maxInput = 64 << 20

// Place is a named point that keeps its source properties through clustering.
type Place struct {
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Name       string         `json:"name,omitempty" yaml:"name,omitempty"`
	Lat        float64        `json:"lat" yaml:"lat"`
	Lng        float64        `json:"lng" yaml:"lng"`
}

// Latitude returns the latitude in degrees.
func (p Place) Latitude() float64 { return p.Lat }

// Longitude returns the longitude in degrees.
func (p Place) Longitude() float64 { return p.Lng }

// LoadPlaces reads places from a file path, "-" for stdin, or an http(s) URL.
// See ParsePlaces for the accepted formats.
func LoadPlaces(client *http.Client, source string) ([]Place, error) {
	var data []byte
	var err error

	switch {
	case source == "-":
		data, err = io.ReadAll(io.LimitReader(os.Stdin, maxInput))
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		data, err = download(client, source)
	default:
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	places, err := ParsePlaces(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	log.Debug().
		Str("source", source).
		Int("places", len(places)).
		Msg("Places loaded")

	return places, nil
}

func download(client *http.Client, url string) ([]byte, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxInput))
}

// ParsePlaces accepts a GeoJSON FeatureCollection of Point features, a JSON
// array of [lat, lng] pairs, or a JSON or YAML list of places.
// Non-point features are skipped.
func ParsePlaces(data []byte) ([]Place, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty input")
	}

	if trimmed[0] == '{' {
		return parseFeatureCollection(trimmed)
	}

	if trimmed[0] == '[' {
		var pairs [][]float64
		if err := json.Unmarshal(trimmed, &pairs); err == nil {
			return fromPairs(pairs)
		}
	}

	var places []Place
	if err := yaml.Unmarshal(trimmed, &places); err != nil {
		return nil, fmt.Errorf("unrecognized places format: %w", err)
	}

	return places, nil
}

func parseFeatureCollection(data []byte) ([]Place, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	places := make([]Place, 0, len(fc.Features))
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			log.Trace().Int("feature", i).Msg("Skipping non-point feature")
			continue
		}

		p := Place{Lat: pt.Lat(), Lng: pt.Lon()}
		if len(f.Properties) > 0 {
			p.Properties = map[string]any(f.Properties)
			p.Name, _ = f.Properties["name"].(string)
		}
		places = append(places, p)
	}

	return places, nil
}

func fromPairs(pairs [][]float64) ([]Place, error) {
	places := make([]Place, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("entry %d: want [lat, lng], got %d values", i, len(pair))
		}
		places[i] = Place{Lat: pair[0], Lng: pair[1]}
	}

	return places, nil
}
