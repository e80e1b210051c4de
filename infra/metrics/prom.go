package metrics

import (
	coremetrics "github.com/swiftdrop/hub/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records completed deliveries in Prometheus metrics.
type PromSink struct {
	deliveries   *prometheus.CounterVec
	duration     prometheus.Histogram
	satisfaction prometheus.Histogram
}

// NewPromSink registers delivery metrics on the default Prometheus
// registerer.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_events_total",
		Help: "Total number of completed deliveries",
	}, []string{"courier_id", "priority"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "delivery_duration_seconds",
		Help:    "Time between assignment and delivery confirmation",
		Buckets: []float64{5, 10, 15, 20, 25, 30, 40, 50, 75, 120},
	})
	satisfaction := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "delivery_satisfaction",
		Help:    "Satisfaction score per delivery",
		Buckets: []float64{50, 55, 65, 75, 85, 90, 95, 100},
	})

	if err := reg.Register(deliveries); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			deliveries = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(satisfaction); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			satisfaction = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &PromSink{deliveries: deliveries, duration: duration, satisfaction: satisfaction}, nil
}

// RecordDeliveries increments the counters for each delivery.
func (s *PromSink) RecordDeliveries(recs []coremetrics.DeliveryRecord) error {
	for _, r := range recs {
		s.deliveries.WithLabelValues(r.CourierID, r.Priority).Inc()
		s.duration.Observe(r.DurationSeconds)
		s.satisfaction.Observe(float64(r.Satisfaction))
	}
	return nil
}
