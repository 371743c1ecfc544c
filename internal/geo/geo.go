package geo

import "math"

// earthRadiusMeters is the mean Earth radius used for great-circle distance.
const earthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Distance returns the great-circle distance between a and b in meters,
// computed with the haversine formula.
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Within reports whether point lies within radius meters of center.
// The boundary is inclusive: a point at exactly radius meters is within.
func Within(radius float64, center, point Point) bool {
	return Distance(center, point) <= radius
}
