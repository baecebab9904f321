package geo

import "github.com/paulmach/orb"

// Polygon is a closed ring of vertices. The closing vertex may be repeated
// but does not have to be.
type Polygon []Coordinate

// Bound returns the bounding box of the polygon, with longitude as X.
func (p Polygon) Bound() orb.Bound {
	return p.Ring().Bound()
}

// Ring converts the polygon into a closed orb ring (X = longitude).
func (p Polygon) Ring() orb.Ring {
	ring := make(orb.Ring, 0, len(p)+1)
	for _, v := range p {
		ring = append(ring, orb.Point{v.Lng, v.Lat})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}

	return ring
}

// PolygonFromRing converts an orb ring back into a Polygon, dropping the
// closing vertex.
func PolygonFromRing(ring orb.Ring) Polygon {
	if len(ring) > 1 && ring.Closed() {
		ring = ring[:len(ring)-1]
	}

	poly := make(Polygon, len(ring))
	for i, pt := range ring {
		poly[i] = Coordinate{Lat: pt.Lat(), Lng: pt.Lon()}
	}

	return poly
}

// Within reports whether point lies inside poly.
//
// Latitude and longitude are treated as plane coordinates, which is only
// valid for small polygons that neither cross the antimeridian nor enclose
// a pole. A ray is cast toward increasing longitude; an edge counts when
// exactly one of its ends lies strictly north of the point. Points on a
// southern or western edge are inside, points on a northern or eastern edge
// are outside. Fewer than three vertices contain nothing.
func Within[P LatLng](point P, poly Polygon) bool {
	if len(poly) < 3 {
		return false
	}

	x, y := point.Longitude(), point.Latitude()
	if !poly.Bound().Contains(orb.Point{x, y}) {
		return false
	}

	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		xi, yi := poly[i].Lng, poly[i].Lat
		xj, yj := poly[j].Lng, poly[j].Lat
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}

	return inside
}
