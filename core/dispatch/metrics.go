package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobsEnqueued     *prometheus.CounterVec
	jobsDispatched   *prometheus.CounterVec
	dispatchFailures prometheus.Counter
	queueDepth       *prometheus.GaugeVec
	matchDistance    prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, *prometheus.GaugeVec, prometheus.Histogram) {
	enq := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_enqueued_total",
			Help: "Number of jobs accepted into the dispatch queue",
		},
		[]string{"priority"},
	)
	disp := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_dispatched_total",
			Help: "Number of jobs assigned to a courier",
		},
		[]string{"priority"},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_failures_total",
			Help: "Number of dispatch attempts with no assignable courier",
		},
	)
	depth := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Jobs currently waiting per priority class",
		},
		[]string{"priority"},
	)
	dist := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_distance_km",
			Help:    "Great-circle distance between matched courier and job origin",
			Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 21},
		},
	)
	return enq, disp, fail, depth, dist
}

func init() {
	jobsEnqueued, jobsDispatched, dispatchFailures, queueDepth, matchDistance = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(jobsEnqueued, jobsDispatched, dispatchFailures, queueDepth, matchDistance)
}

// ResetMetrics reinitializes the collectors for tests and registers them on
// the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	jobsEnqueued, jobsDispatched, dispatchFailures, queueDepth, matchDistance = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
