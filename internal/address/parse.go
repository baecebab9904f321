package address

import (
	"encoding/json"
	"fmt"

	"github.com/woozymasta/geocode/internal/geo"
)

// firstEntry returns the first object of the "data" array in a response.
func firstEntry(body []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	raw, ok := doc["data"]
	if !ok {
		return nil, ErrNoData
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, ErrInvalidData
	}
	if len(list) == 0 {
		return nil, ErrEmptyData
	}

	entry, ok := list[0].(map[string]any)
	if !ok {
		return nil, ErrNonObject
	}

	return entry, nil
}

// parseAddress maps a reverse lookup entry. The queried position becomes
// the location, with the reported distance as accuracy.
func parseAddress(entry map[string]any, lat, lng float64) Address {
	var a Address

	if name, ok := entry["name"].(string); ok {
		a.Street = append(a.Street, name)
	}
	a.City, _ = entry["locality"].(string)
	a.State = firstString(entry, "region", "region_code")
	a.County, _ = entry["county"].(string)
	a.PostalCode, _ = entry["postal_code"].(string)
	a.Country = firstString(entry, "country", "country_code")
	a.Text, _ = entry["label"].(string)

	loc := geo.At(lat, lng)
	if d, ok := entry["distance"].(float64); ok {
		loc.Accuracy = d
	}
	a.Location = &loc

	return a
}

// parseCoordinate maps a forward lookup entry. Non numeric coordinates
// read as 0.
func parseCoordinate(entry map[string]any) (geo.Coordinate, error) {
	lat, hasLat := entry["latitude"]
	lng, hasLng := entry["longitude"]
	if !hasLat || !hasLng {
		return geo.Coordinate{}, ErrNoCoordinates
	}

	var c geo.Coordinate
	c.Lat, _ = lat.(float64)
	c.Lng, _ = lng.(float64)
	if d, ok := entry["distance"].(float64); ok {
		c.Accuracy = d
	}

	return c, nil
}

func firstString(entry map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := entry[k].(string); ok {
			return s
		}
	}
	return ""
}
