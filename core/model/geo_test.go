package model

import (
	"math/rand"
	"testing"
)

func TestHaversineZero(t *testing.T) {
	p := Coordinates{Lat: 48.8566, Lon: 2.3522}
	if d := Haversine(p, p); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	paris := Coordinates{Lat: 48.8566, Lon: 2.3522}
	london := Coordinates{Lat: 51.5074, Lon: -0.1278}
	d := Haversine(paris, london)
	if d < 330 || d > 350 {
		t.Fatalf("Paris-London = %.1f km, want ~343", d)
	}
}

func TestHaversineMonotonic(t *testing.T) {
	origin := Coordinates{Lat: 40.0, Lon: 2.0}
	prev := 0.0
	for i := 1; i <= 10; i++ {
		p := Coordinates{Lat: 40.0, Lon: 2.0 + float64(i)*0.1}
		d := Haversine(origin, p)
		if d <= prev {
			t.Fatalf("distance not increasing at step %d: %v <= %v", i, d, prev)
		}
		prev = d
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := Coordinates{Lat: 40.0, Lon: 2.0}
	b := Coordinates{Lat: 41.0, Lon: 3.0}
	if d1, d2 := Haversine(a, b), Haversine(b, a); d1 != d2 {
		t.Fatalf("asymmetric: %v != %v", d1, d2)
	}
}

func TestRandomNearbyWithinRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	center := Coordinates{Lat: 48.8566, Lon: 2.3522}
	const radius = 5.0
	for i := 0; i < 500; i++ {
		p := RandomNearby(rng, center, radius)
		// Small slack for the flat-earth approximation in RandomNearby.
		if d := Haversine(center, p); d > radius*1.01 {
			t.Fatalf("point %d at %.3f km, outside radius %v", i, d, radius)
		}
	}
}

func TestNextJobIDMonotonic(t *testing.T) {
	a := NextJobID()
	b := NextJobID()
	if b <= a {
		t.Fatalf("ids not increasing: %d then %d", a, b)
	}
}
