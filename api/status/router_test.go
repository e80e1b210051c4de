package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/swiftdrop/hub/core/model"
	"github.com/swiftdrop/hub/core/protocol"
)

type fakeFleet []model.Courier

func (f fakeFleet) Couriers() []model.Courier { return f }

type fakeJobs []model.Job

func (f fakeJobs) Jobs() []model.Job { return f }

func newTestRouter() http.Handler {
	fleet := fakeFleet{
		{ID: "C-a", Name: "a", Status: model.CourierBusy, Completed: 4, SatisfactionSum: 380},
		{ID: "C-b", Name: "b", Status: model.CourierAvailable, Completed: 9, SatisfactionSum: 855},
	}
	jobs := fakeJobs{
		{ID: 1, CustomerID: "K-x", Status: model.JobPreparing, AssignedCourier: "C-a"},
	}
	return NewRouter(fleet, jobs, Config{TopN: 5})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET %s: status %d", path, rr.Code)
	}
	return rr
}

func TestCouriersEndpoint(t *testing.T) {
	rr := get(t, newTestRouter(), "/couriers")
	var out []model.Courier
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].ID != "C-a" {
		t.Fatalf("unexpected output %#v", out)
	}
}

func TestJobsEndpoint(t *testing.T) {
	rr := get(t, newTestRouter(), "/jobs")
	var out []model.Job
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].AssignedCourier != "C-a" {
		t.Fatalf("unexpected output %#v", out)
	}
}

func TestLeaderboardEndpointRanksByCompleted(t *testing.T) {
	rr := get(t, newTestRouter(), "/leaderboard")
	var out []protocol.BoardEntry
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].Name != "b" || out[1].Name != "a" {
		t.Fatalf("unexpected ranking %#v", out)
	}
}

func TestHealthz(t *testing.T) {
	rr := get(t, newTestRouter(), "/healthz")
	if rr.Body.String() != "ok" {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestMetricsEndpointServes(t *testing.T) {
	get(t, newTestRouter(), "/metrics")
}
