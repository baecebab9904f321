// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/woozymasta/geocode/internal/address"
	"github.com/woozymasta/geocode/internal/geo"
	"github.com/woozymasta/geocode/internal/olc"
	"github.com/woozymasta/geocode/internal/processor"

	"github.com/rs/zerolog/log"
)

// maxBody limits JSON request bodies.
const maxBody = 4 << 20

type distanceResponse struct {
	Meters         float64 `json:"meters"`
	Azimuth        float64 `json:"azimuth"`
	AzimuthDegrees float64 `json:"azimuth_degrees"`
}

type clusterRequest struct {
	K      *int         `json:"k,omitempty"`
	Rounds *int         `json:"rounds,omitempty"`
	Points [][2]float64 `json:"points"`
}

type clusterResponse struct {
	Centroid geo.Coordinate `json:"centroid"`
	Points   [][2]float64   `json:"points"`
}

type withinRequest struct {
	Fence   string       `json:"fence,omitempty"`
	Polygon [][2]float64 `json:"polygon,omitempty"`
	Point   [2]float64   `json:"point"`
}

type decodeResponse struct {
	Area     olc.Area `json:"area"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Accuracy float64  `json:"accuracy"`
}

// HandleDistance serves GET /api/distance?from=lat,lng&to=lat,lng.
func (s *ServerContext) HandleDistance(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	from, err := parseLatLng(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := parseLatLng(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}

	d := geo.Distance(from, to)
	writeJSON(w, http.StatusOK, distanceResponse{
		Meters:         d.Meters,
		Azimuth:        d.Azimuth,
		AzimuthDegrees: d.AzimuthDegrees(),
	})
}

// HandleCentroid serves POST /api/centroid with a [[lat, lng], ...] body.
func (s *ServerContext) HandleCentroid(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var pairs [][2]float64
	if err := decodeBody(r, &pairs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	points, err := toCoordinates(pairs)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, geo.Centroid(points))
}

// HandleCluster serves POST /api/cluster. k and rounds default to the
// configuration. With ?format=geojson the result is a minified
// FeatureCollection instead of a cluster list.
func (s *ServerContext) HandleCluster(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req clusterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	k, rounds := s.Config.Cluster.K, s.Config.Cluster.Rounds
	if req.K != nil {
		k = *req.K
	}
	if req.Rounds != nil {
		rounds = *req.Rounds
	}
	if k < 1 || rounds < 0 {
		writeError(w, http.StatusBadRequest, "k must be >= 1 and rounds >= 0")
		return
	}

	places := make([]processor.Place, len(req.Points))
	for i, p := range req.Points {
		if err := checkRange(p[0], p[1]); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("point %d: %v", i, err))
			return
		}
		places[i] = processor.Place{Lat: p[0], Lng: p[1]}
	}

	clusters := geo.KMeans(places, rounds, k, s.Config.Cluster.Options()...)

	if r.URL.Query().Get("format") == "geojson" {
		w.Header().Set("Content-Type", "application/geo+json")
		if err := processor.WriteGeoJSON(w, processor.ClustersToGeoJSON(clusters), true); err != nil {
			log.Error().Err(err).Msg("Failed to write cluster GeoJSON")
		}
		return
	}

	out := make([]clusterResponse, len(clusters))
	for i, c := range clusters {
		out[i].Centroid = c.Centroid
		out[i].Points = make([][2]float64, len(c.Points))
		for j, p := range c.Points {
			out[i].Points[j] = [2]float64{p.Lat, p.Lng}
		}
	}

	writeJSON(w, http.StatusOK, out)
}

// HandleWithin serves GET /api/within?point=lat,lng&fence=name and POST
// /api/within with a point plus a fence name or an inline polygon.
func (s *ServerContext) HandleWithin(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	var req withinRequest
	if r.Method == http.MethodPost {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		pt, err := parseLatLng(r.URL.Query().Get("point"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "point: "+err.Error())
			return
		}
		req.Point = [2]float64{pt.Lat, pt.Lng}
		req.Fence = r.URL.Query().Get("fence")
	}

	if err := checkRange(req.Point[0], req.Point[1]); err != nil {
		writeError(w, http.StatusBadRequest, "point: "+err.Error())
		return
	}

	var poly geo.Polygon
	switch {
	case len(req.Polygon) > 0:
		vertices, err := toCoordinates(req.Polygon)
		if err != nil {
			writeError(w, http.StatusBadRequest, "polygon: "+err.Error())
			return
		}
		poly = vertices
	case req.Fence != "":
		var ok bool
		if poly, ok = s.Fences[req.Fence]; !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown fence %q", req.Fence))
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "fence or polygon required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{
		"within": geo.Within(geo.At(req.Point[0], req.Point[1]), poly),
	})
}

// HandleEncode serves GET /api/encode?point=lat,lng[&length=n].
func (s *ServerContext) HandleEncode(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	pt, err := parseLatLng(r.URL.Query().Get("point"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "point: "+err.Error())
		return
	}

	length := olc.DefaultLength
	if v := r.URL.Query().Get("length"); v != "" {
		if length, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "length: "+err.Error())
			return
		}
	}

	code, err := olc.Encode(pt.Lat, pt.Lng, length)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

// HandleDecode serves GET /api/decode?code=....
func (s *ServerContext) HandleDecode(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	area, err := olc.DecodeArea(r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := area.Center()
	writeJSON(w, http.StatusOK, decodeResponse{Lat: c.Lat, Lng: c.Lng, Accuracy: c.Accuracy, Area: area})
}

// HandleFences serves the configured fence names in sorted order.
func (s *ServerContext) HandleFences(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	names := make([]string, 0, len(s.Fences))
	for name := range s.Fences {
		names = append(names, name)
	}
	sort.Strings(names)

	writeJSON(w, http.StatusOK, names)
}

// HandleAddress serves GET /api/address?point=lat,lng.
func (s *ServerContext) HandleAddress(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	if s.Resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "address lookups are disabled")
		return
	}

	pt, err := parseLatLng(r.URL.Query().Get("point"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "point: "+err.Error())
		return
	}

	addr, err := s.Resolver.Reverse(r.Context(), pt.Lat, pt.Lng)
	if err != nil {
		writeError(w, resolverStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, addr)
}

// HandleCoordinates serves GET /api/coordinates?q=address.
func (s *ServerContext) HandleCoordinates(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	if s.Resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "address lookups are disabled")
		return
	}

	c, err := s.Resolver.Forward(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, resolverStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// resolverStatus maps lookup failures onto response codes.
func resolverStatus(err error) int {
	switch {
	case errors.Is(err, address.ErrEmptyAddress):
		return http.StatusBadRequest
	case errors.Is(err, address.ErrEmptyData), errors.Is(err, address.ErrNoCoordinates):
		return http.StatusNotFound
	case errors.Is(err, address.ErrMissingKey):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}

	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		status = http.StatusInternalServerError
		data = []byte(`{"error":"failed to encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseLatLng reads a "lat,lng" query value.
func parseLatLng(v string) (geo.Coordinate, error) {
	latText, lngText, ok := strings.Cut(v, ",")
	if !ok {
		return geo.Coordinate{}, errors.New("want lat,lng")
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return geo.Coordinate{}, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngText), 64)
	if err != nil {
		return geo.Coordinate{}, err
	}

	if err := checkRange(lat, lng); err != nil {
		return geo.Coordinate{}, err
	}

	return geo.At(lat, lng), nil
}

func toCoordinates(pairs [][2]float64) ([]geo.Coordinate, error) {
	out := make([]geo.Coordinate, len(pairs))
	for i, p := range pairs {
		if err := checkRange(p[0], p[1]); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = geo.At(p[0], p[1])
	}
	return out, nil
}

func checkRange(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return fmt.Errorf("coordinate (%v, %v) is not a finite number", lat, lng)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("coordinate (%v, %v) out of range", lat, lng)
	}
	return nil
}
