package ledger

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveriesCompleted *prometheus.CounterVec
	stealAttempts       *prometheus.CounterVec
)

func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec) {
	del := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deliveries_completed_total",
			Help: "Number of jobs confirmed delivered",
		},
		[]string{"priority"},
	)
	steal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steal_attempts_total",
			Help: "Number of steal requests by outcome",
		},
		[]string{"outcome"},
	)
	return del, steal
}

func init() {
	deliveriesCompleted, stealAttempts = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers ledger metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(deliveriesCompleted, stealAttempts)
}

// ResetMetrics reinitializes the collectors for tests.
func ResetMetrics(reg prometheus.Registerer) {
	deliveriesCompleted, stealAttempts = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
