// Package status exposes the hub's read-only ops surface over HTTP: fleet
// and job snapshots, the current leaderboard, health and Prometheus metrics.
package status

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/swiftdrop/hub/core/leaderboard"
	"github.com/swiftdrop/hub/core/model"
)

// Config holds the ops API settings.
type Config struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
	TopN    int    `json:"top_n"`
}

// SetDefaults applies default values to the configuration.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.TopN <= 0 {
		c.TopN = 5
	}
}

// CourierSource yields the current fleet snapshot.
type CourierSource interface {
	Couriers() []model.Courier
}

// JobSource yields the current in-flight job snapshot.
type JobSource interface {
	Jobs() []model.Job
}

// NewRouter assembles the ops API routes.
func NewRouter(couriers CourierSource, jobs JobSource, cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/couriers", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, couriers.Couriers())
	})
	r.Get("/jobs", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, jobs.Jobs())
	})
	r.Get("/leaderboard", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, leaderboard.Top(couriers.Couriers(), cfg.TopN))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
