package dispatch

import "fmt"

// Config defines the dispatch loop timing parameters.
type Config struct {
	// PollIntervalMS is how often the loop scans the queues.
	PollIntervalMS int `json:"poll_interval_ms"`
	// PacingDelayMS is the delay inserted between consecutive assignments
	// within one tick, bounding burst load on couriers.
	PacingDelayMS int `json:"pacing_delay_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = 1000
	}
	if c.PacingDelayMS <= 0 {
		c.PacingDelayMS = 200
	}
}

// Validate checks that intervals make sense together.
func (c Config) Validate() error {
	if c.PollIntervalMS <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive")
	}
	if c.PacingDelayMS < 0 {
		return fmt.Errorf("pacing_delay_ms must not be negative")
	}
	return nil
}
