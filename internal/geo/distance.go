package geo

import "math"

// WGS-84 ellipsoid.
const (
	equatorialRadius = 6378137.0
	flattening       = 1 / 298.257223563
	polarRadius      = (1 - flattening) * equatorialRadius

	// sphereRadius is used by the haversine fallback.
	sphereRadius = 6372797.56085

	vincentyTolerance  = 1e-12
	vincentyIterations = 1000
)

// Geodesic is the result of a distance computation.
// Azimuth is the initial bearing at the first point in radians, clockwise
// from north. It is 0 when the points are equal or when the ellipsoidal
// solution did not converge and the haversine value was used instead.
type Geodesic struct {
	Meters  float64 `json:"meters"`
	Azimuth float64 `json:"azimuth"`
}

// AzimuthDegrees returns Azimuth converted to degrees.
func (g Geodesic) AzimuthDegrees() float64 { return degrees(g.Azimuth) }

// Distance solves the inverse geodesic problem between a and b on the
// WGS-84 ellipsoid using Vincenty's formula. Nearly antipodal points, where
// the iteration does not converge, fall back to Haversine with a zero azimuth.
func Distance[P, Q LatLng](a P, b Q) Geodesic {
	if g, ok := vincenty(a.Latitude(), a.Longitude(), b.Latitude(), b.Longitude()); ok {
		return g
	}

	return Geodesic{Meters: haversine(a.Latitude(), a.Longitude(), b.Latitude(), b.Longitude())}
}

// Haversine returns the great-circle distance between a and b in metres.
func Haversine[P, Q LatLng](a P, b Q) float64 {
	return haversine(a.Latitude(), a.Longitude(), b.Latitude(), b.Longitude())
}

func vincenty(lat1, lng1, lat2, lng2 float64) (Geodesic, bool) {
	L := math.Remainder(radians(lng2-lng1), 2*math.Pi)
	u1 := math.Atan((1 - flattening) * math.Tan(radians(lat1)))
	u2 := math.Atan((1 - flattening) * math.Tan(radians(lat2)))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	var (
		sinLambda, cosLambda float64
		sinSigma, cosSigma   float64
		sigma, cosSqAlpha    float64
		cos2SigmaM           float64
	)

	lambda := L
	converged := false
	for i := 0; i < vincentyIterations; i++ {
		sinLambda, cosLambda = math.Sincos(lambda)

		t1 := cosU2 * sinLambda
		t2 := cosU1*sinU2 - sinU1*cosU2*cosLambda
		sinSigma = math.Sqrt(t1*t1 + t2*t2)
		if sinSigma == 0 {
			// coincident points
			return Geodesic{}, true
		}

		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha

		cos2SigmaM = 0
		if cosSqAlpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		}

		C := flattening / 16 * cosSqAlpha * (4 + flattening*(4-3*cosSqAlpha))
		prev := lambda
		lambda = L + (1-C)*flattening*sinAlpha*
			(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda) > math.Pi {
			break
		}
		if math.Abs(lambda-prev) < vincentyTolerance {
			converged = true
			break
		}
	}

	if !converged {
		return Geodesic{}, false
	}

	uSq := cosSqAlpha * (equatorialRadius*equatorialRadius - polarRadius*polarRadius) /
		(polarRadius * polarRadius)
	A := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	B := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	return Geodesic{
		Meters:  polarRadius * A * (sigma - deltaSigma),
		Azimuth: math.Atan2(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda),
	}, true
}

func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(radians(lat1))*math.Cos(radians(lat2))*sinLng*sinLng

	return 2 * sphereRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}
