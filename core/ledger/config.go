package ledger

import "fmt"

// Config defines the delivery-time model.
type Config struct {
	// SecondsPerKm converts match distance into a base delivery duration.
	SecondsPerKm float64 `json:"seconds_per_km"`
	// MinETASeconds/MaxETASeconds clamp the base duration.
	MinETASeconds int `json:"min_eta_seconds"`
	MaxETASeconds int `json:"max_eta_seconds"`
	// TrafficProbability is the chance a given assignment is flagged with
	// traffic, drawn independently per assignment.
	TrafficProbability float64 `json:"traffic_probability"`
	// TrafficPenalty is the extra fraction added to the ETA under traffic.
	TrafficPenalty float64 `json:"traffic_penalty"`
	// Seed makes ETA jitter and traffic draws reproducible when non-zero.
	Seed int64 `json:"seed"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.SecondsPerKm <= 0 {
		c.SecondsPerKm = 8
	}
	if c.MinETASeconds <= 0 {
		c.MinETASeconds = 10
	}
	if c.MaxETASeconds <= 0 {
		c.MaxETASeconds = 60
	}
	if c.TrafficProbability == 0 {
		c.TrafficProbability = 0.20
	}
	if c.TrafficPenalty == 0 {
		c.TrafficPenalty = 0.5
	}
}

// Validate checks the model parameters.
func (c Config) Validate() error {
	if c.MinETASeconds > c.MaxETASeconds {
		return fmt.Errorf("min_eta_seconds %d exceeds max_eta_seconds %d", c.MinETASeconds, c.MaxETASeconds)
	}
	if c.TrafficProbability < 0 || c.TrafficProbability > 1 {
		return fmt.Errorf("traffic_probability must be in [0,1]")
	}
	return nil
}
