// Package geo provides great-circle distance math for farmer discovery.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for all distance calculations.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between two
// latitude/longitude points using the spherical law of cosines:
//
//	d = R * acos(cos(lat1)*cos(lat2)*cos(lon2-lon1) + sin(lat1)*sin(lat2))
//
// The formula is symmetric in its arguments. Antipodal points and the 180th
// meridian get no special handling; inputs are expected at city scale.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rLat1 := radians(lat1)
	rLat2 := radians(lat2)
	dLon := radians(lon2) - radians(lon1)

	cosine := math.Cos(rLat1)*math.Cos(rLat2)*math.Cos(dLon) + math.Sin(rLat1)*math.Sin(rLat2)
	// Floating point can push the value just outside acos's domain for
	// identical or near-identical points.
	if cosine > 1 {
		cosine = 1
	}
	if cosine < -1 {
		cosine = -1
	}

	return EarthRadiusKm * math.Acos(cosine)
}

// ValidCoordinates reports whether the pair is a usable WGS84 coordinate.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
