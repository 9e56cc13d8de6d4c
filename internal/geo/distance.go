// Package geo holds the pure distance helpers the proximity rule is built
// on. Road distance from the routing engine is never used here: proximity
// checks must stay fast and dependency-free.
package geo

import "math"

// EarthRadiusMeters is the sphere radius the Haversine formula assumes.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HaversineDistanceMeters returns the great-circle distance between two
// points in meters.
func HaversineDistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Distance returns the great-circle distance between two points in meters.
func Distance(p, q Point) float64 {
	return HaversineDistanceMeters(p.Latitude, p.Longitude, q.Latitude, q.Longitude)
}

// IsWithinThreshold reports whether the two points are at most
// thresholdMeters apart. The boundary is inclusive.
func IsWithinThreshold(lat, lon, fixedLat, fixedLon, thresholdMeters float64) bool {
	return HaversineDistanceMeters(lat, lon, fixedLat, fixedLon) <= thresholdMeters
}

// ValidLatitude reports whether lat is a usable latitude in degrees.
func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lon is a usable longitude in degrees.
func ValidLongitude(lon float64) bool {
	return !math.IsNaN(lon) && lon >= -180 && lon <= 180
}
