package model

import (
	"math"
	"math/rand"
)

// Coordinates is a WGS84 latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// RandomNearby returns a point drawn uniformly from the disk of the given
// radius around center. Uses the small-distance approximation, which is fine
// for a city-scale service area.
func RandomNearby(rng *rand.Rand, center Coordinates, radiusKm float64) Coordinates {
	d := radiusKm * math.Sqrt(rng.Float64())
	theta := 2 * math.Pi * rng.Float64()
	dLat := d * math.Cos(theta) / 110.574
	dLon := d * math.Sin(theta) / (111.320 * math.Cos(center.Lat*math.Pi/180))
	return Coordinates{Lat: center.Lat + dLat, Lon: center.Lon + dLon}
}
