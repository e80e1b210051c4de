package broadcast

import "github.com/prometheus/client_golang/prometheus"

var locationsBroadcast prometheus.Counter

func newCollectors() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locations_broadcast_total",
		Help: "Location datagrams emitted on the broadcast channel",
	})
}

func init() {
	locationsBroadcast = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers broadcast metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(locationsBroadcast)
}

// ResetMetrics reinitializes the collectors for tests.
func ResetMetrics(reg prometheus.Registerer) {
	locationsBroadcast = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
