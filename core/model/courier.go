package model

import "time"

// CourierStatus reflects whether a courier can take work. Busy means exactly
// one in-flight job references the courier.
type CourierStatus int

const (
	CourierAvailable CourierStatus = iota
	CourierBusy
	CourierOffline
)

func (s CourierStatus) String() string {
	switch s {
	case CourierAvailable:
		return "available"
	case CourierBusy:
		return "busy"
	case CourierOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Courier is a connected mobile worker.
type Courier struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Status          CourierStatus `json:"status"`
	Position        Coordinates   `json:"position"`
	Completed       int           `json:"completed"`
	SatisfactionSum int           `json:"satisfaction_sum"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// AvgSatisfaction returns the mean satisfaction over completed deliveries,
// or zero when nothing has been delivered yet.
func (c Courier) AvgSatisfaction() float64 {
	if c.Completed == 0 {
		return 0
	}
	return float64(c.SatisfactionSum) / float64(c.Completed)
}

// LocationSample is an ephemeral courier position broadcast over the
// best-effort channel. It is never persisted.
type LocationSample struct {
	CourierID string
	Position  Coordinates
	At        time.Time
}
