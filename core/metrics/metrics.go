// Package metrics defines the delivery-metrics contract implemented by the
// sinks under infra/metrics.
package metrics

import "time"

// DeliveryRecord captures one completed delivery.
type DeliveryRecord struct {
	JobID           int64
	CourierID       string
	Priority        string
	ETASeconds      int
	DurationSeconds float64
	Satisfaction    int
	Stolen          bool
	DeliveredAt     time.Time
}

// Sink receives completed-delivery records. Implementations must be safe for
// concurrent use.
type Sink interface {
	RecordDeliveries([]DeliveryRecord) error
}

// NopSink discards all records.
type NopSink struct{}

// RecordDeliveries implements Sink.
func (NopSink) RecordDeliveries([]DeliveryRecord) error { return nil }

// Config selects and parameterizes the enabled sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
