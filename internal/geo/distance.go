package geo

import (
	"math"
	"time"
)

const (
	// EarthRadiusKm is Earth's radius in kilometers for the Haversine formula.
	EarthRadiusKm = 6371.0
	// DefaultRiderSpeedKmh is the average rider speed assumed for ETA display
	// when the rider reports no speed.
	DefaultRiderSpeedKmh = 25.0
)

// HaversineKm calculates the great-circle distance between two points on
// Earth in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// ETA estimates time to cover distanceKm at speedKmh. A zero or negative
// speed falls back to DefaultRiderSpeedKmh. Display only, never used for
// zone or fee decisions.
func ETA(distanceKm, speedKmh float64) time.Duration {
	if speedKmh <= 0 {
		speedKmh = DefaultRiderSpeedKmh
	}

	hours := distanceKm / speedKmh

	return time.Duration(hours * float64(time.Hour))
}
