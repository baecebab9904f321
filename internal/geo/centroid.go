package geo

import "math"

// Centroid returns the spherical mean of points. Each position is turned
// into a unit vector, the vectors are averaged and the mean is projected
// back, so sets straddling the antimeridian average correctly.
//
// An empty set yields the zero Coordinate and a single point is returned
// as is.
func Centroid[P LatLng](points []P) Coordinate {
	return centroid(len(points), func(i int) (float64, float64) {
		return points[i].Latitude(), points[i].Longitude()
	})
}

// CentroidRefs is Centroid over borrowed references, as held by Cluster.
func CentroidRefs[P LatLng](points []*P) Coordinate {
	return centroid(len(points), func(i int) (float64, float64) {
		p := *points[i]
		return p.Latitude(), p.Longitude()
	})
}

func centroid(n int, at func(int) (float64, float64)) Coordinate {
	switch n {
	case 0:
		return Coordinate{}
	case 1:
		lat, lng := at(0)
		return Coordinate{Lat: lat, Lng: lng}
	}

	var x, y, z float64
	for i := 0; i < n; i++ {
		lat, lng := at(i)
		sinLat, cosLat := math.Sincos(radians(lat))
		sinLng, cosLng := math.Sincos(radians(lng))
		x += cosLat * cosLng
		y += cosLat * sinLng
		z += sinLat
	}

	count := float64(n)
	x /= count
	y /= count
	z /= count

	return Coordinate{
		Lat: degrees(math.Atan2(z, math.Hypot(x, y))),
		Lng: degrees(math.Atan2(y, x)),
	}
}
