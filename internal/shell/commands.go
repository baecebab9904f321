package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/woozymasta/geocode/internal/geo"
	"github.com/woozymasta/geocode/internal/olc"
)

// clusterView is the printed form of a geo.Cluster.
type clusterView struct {
	Centroid [2]float64   `json:"centroid"`
	Points   [][2]float64 `json:"points"`
}

// addressView is the printed form of an address.Address.
type addressView struct {
	Street     []string `json:"street,omitempty"`
	City       string   `json:"city,omitempty"`
	County     string   `json:"county,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Country    string   `json:"country,omitempty"`
	Distance   *float64 `json:"distance,omitempty"`
}

type coordinateView struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

func (s *Shell) distance(_ context.Context, arg string) error {
	points, err := parsePoints(arg)
	if err != nil {
		return err
	}
	if len(points) != 2 {
		return fmt.Errorf("value is not an array of two points (%s)", arg)
	}

	d := geo.Distance(points[0], points[1])
	fmt.Fprintf(s.out, "%s%s, azimuth %s%s\n",
		strconv.FormatFloat(d.Meters, 'f', 4, 64), s.paint(colorBlue, " metres"),
		strconv.FormatFloat(d.AzimuthDegrees(), 'f', 4, 64), s.paint(colorBlue, "°"))

	return nil
}

func (s *Shell) centroid(_ context.Context, arg string) error {
	points, err := parsePoints(arg)
	if err != nil {
		return err
	}
	if len(points) < 2 {
		return fmt.Errorf("value needs at least two points (%s)", arg)
	}

	c := geo.Centroid(points)
	return s.printJSON([2]float64{c.Lat, c.Lng})
}

func (s *Shell) cluster(_ context.Context, arg string) error {
	kText, rest, _ := strings.Cut(arg, " ")
	k, err := strconv.Atoi(kText)
	if err != nil || k < 1 {
		return fmt.Errorf("cluster count must be a positive integer, got %q", kText)
	}

	points, err := parsePoints(rest)
	if err != nil {
		return err
	}

	clusters := geo.KMeans(points, s.cfg.Cluster.Rounds, k, s.cfg.Cluster.Options()...)

	out := make([]clusterView, len(clusters))
	for i, c := range clusters {
		out[i].Centroid = [2]float64{c.Centroid.Lat, c.Centroid.Lng}
		out[i].Points = make([][2]float64, len(c.Points))
		for j, p := range c.Points {
			out[i].Points[j] = [2]float64{p.Lat, p.Lng}
		}
	}

	return s.printJSON(out)
}

func (s *Shell) within(_ context.Context, arg string) error {
	dec := json.NewDecoder(strings.NewReader(arg))

	var pt []float64
	if err := dec.Decode(&pt); err != nil {
		return fmt.Errorf("JSON parse error: %w", err)
	}
	point, err := toCoordinate(pt)
	if err != nil {
		return err
	}

	rest := strings.TrimSpace(arg[dec.InputOffset():])
	if rest == "" {
		return errors.New("missing fence name or polygon")
	}

	var poly geo.Polygon
	if strings.HasPrefix(rest, "[") {
		vertices, err := parsePoints(rest)
		if err != nil {
			return err
		}
		poly = geo.Polygon(vertices)
	} else {
		var ok bool
		if poly, ok = s.cfg.Fence(rest); !ok {
			return fmt.Errorf("unknown fence %q", rest)
		}
	}

	s.print(strconv.FormatBool(geo.Within(point, poly)) + "\n")
	return nil
}

func (s *Shell) encode(_ context.Context, arg string) error {
	point, err := parsePoint(arg)
	if err != nil {
		return err
	}

	s.print(olc.EncodeDefault(point) + "\n")
	return nil
}

func (s *Shell) decode(_ context.Context, arg string) error {
	c, err := olc.Decode(arg)
	if err != nil {
		return err
	}

	return s.printJSON(coordinateView{Latitude: c.Lat, Longitude: c.Lng, Accuracy: &c.Accuracy})
}

func (s *Shell) address(ctx context.Context, arg string) error {
	if s.resolver == nil {
		return errNoResolver
	}

	point, err := parsePoint(arg)
	if err != nil {
		return err
	}

	addr, err := s.resolver.Reverse(ctx, point.Lat, point.Lng)
	if err != nil {
		return err
	}

	view := addressView{
		Street:     addr.Street,
		City:       addr.City,
		County:     addr.County,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
	}
	if addr.Location != nil {
		view.Distance = &addr.Location.Accuracy
	}

	return s.printJSON(view)
}

func (s *Shell) coordinates(ctx context.Context, arg string) error {
	if s.resolver == nil {
		return errNoResolver
	}

	c, err := s.resolver.Forward(ctx, arg)
	if err != nil {
		return err
	}

	return s.printJSON(coordinateView{Latitude: c.Lat, Longitude: c.Lng})
}

func (s *Shell) printJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.print(string(data) + "\n")
	return nil
}

func parsePoint(text string) (geo.Coordinate, error) {
	var pt []float64
	if err := json.Unmarshal([]byte(text), &pt); err != nil {
		return geo.Coordinate{}, fmt.Errorf("JSON parse error: %w", err)
	}

	return toCoordinate(pt)
}

func parsePoints(text string) ([]geo.Coordinate, error) {
	var raw [][]float64
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}

	points := make([]geo.Coordinate, len(raw))
	for i, pt := range raw {
		c, err := toCoordinate(pt)
		if err != nil {
			return nil, err
		}
		points[i] = c
	}

	return points, nil
}

func toCoordinate(pt []float64) (geo.Coordinate, error) {
	if len(pt) != 2 {
		return geo.Coordinate{}, fmt.Errorf("value is not a [lat, lng] point (%v)", pt)
	}
	if pt[0] < -90 || pt[0] > 90 || pt[1] < -180 || pt[1] > 180 {
		return geo.Coordinate{}, fmt.Errorf("coordinate out of range (%v)", pt)
	}

	return geo.At(pt[0], pt[1]), nil
}
