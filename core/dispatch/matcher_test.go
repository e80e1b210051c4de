package dispatch

import (
	"testing"

	"github.com/swiftdrop/hub/core/model"
)

func courierAt(id string, lat, lon float64) model.Courier {
	return model.Courier{ID: id, Status: model.CourierAvailable, Position: model.Coordinates{Lat: lat, Lon: lon}}
}

func TestMatchBestEmpty(t *testing.T) {
	j := &model.Job{Origin: model.Coordinates{Lat: 48.85, Lon: 2.35}}
	if _, ok := MatchBest(j, nil); ok {
		t.Fatal("match with no candidates succeeded")
	}
}

func TestMatchBestPicksNearest(t *testing.T) {
	j := &model.Job{Origin: model.Coordinates{Lat: 48.85, Lon: 2.35}}
	candidates := []model.Courier{
		courierAt("far", 48.95, 2.35),
		courierAt("near", 48.86, 2.35),
		courierAt("mid", 48.90, 2.35),
	}
	c, ok := MatchBest(j, candidates)
	if !ok || c.ID != "near" {
		t.Fatalf("matched %s", c.ID)
	}
}

func TestMatchBestTieKeepsFirstSeen(t *testing.T) {
	j := &model.Job{Origin: model.Coordinates{Lat: 48.85, Lon: 2.35}}
	candidates := []model.Courier{
		courierAt("first", 48.86, 2.35),
		courierAt("second", 48.86, 2.35),
	}
	c, ok := MatchBest(j, candidates)
	if !ok || c.ID != "first" {
		t.Fatalf("tie broke to %s, want first", c.ID)
	}
}

func TestMatchBestDeterministic(t *testing.T) {
	j := &model.Job{Origin: model.Coordinates{Lat: 48.85, Lon: 2.35}}
	candidates := []model.Courier{
		courierAt("a", 48.87, 2.36),
		courierAt("b", 48.84, 2.33),
		courierAt("c", 48.88, 2.30),
	}
	first, _ := MatchBest(j, candidates)
	for i := 0; i < 10; i++ {
		again, _ := MatchBest(j, candidates)
		if again.ID != first.ID {
			t.Fatalf("run %d matched %s, first run matched %s", i, again.ID, first.ID)
		}
	}
}
