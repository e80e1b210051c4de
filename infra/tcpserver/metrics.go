package tcpserver

import "github.com/prometheus/client_golang/prometheus"

var connectedSessions *prometheus.GaugeVec

func newCollectors() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "connected_sessions",
			Help: "Currently connected sessions per role",
		},
		[]string{"role"},
	)
}

func init() {
	connectedSessions = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers session metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(connectedSessions)
}

// ResetMetrics reinitializes the collectors for tests.
func ResetMetrics(reg prometheus.Registerer) {
	connectedSessions = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
