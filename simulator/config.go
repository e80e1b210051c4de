// Package simulator runs scripted courier and customer clients against a
// hub, exercising the full protocol without real devices on the street.
package simulator

import "fmt"

// Config sizes the simulated fleet.
type Config struct {
	HubAddr string `json:"hub_addr"`
	// Couriers and Customers are the number of scripted clients of each role.
	Couriers  int `json:"couriers"`
	Customers int `json:"customers"`
	// OrderIntervalMS is how often each customer submits an order.
	OrderIntervalMS int `json:"order_interval_ms"`
	// RushRatio is the fraction of orders flagged rush.
	RushRatio float64 `json:"rush_ratio"`
	// MaxDeliverySeconds caps how long a scripted courier pretends to ride,
	// whatever the announced ETA says.
	MaxDeliverySeconds int   `json:"max_delivery_seconds"`
	Seed               int64 `json:"seed"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.HubAddr == "" {
		c.HubAddr = "127.0.0.1:7777"
	}
	if c.Couriers <= 0 {
		c.Couriers = 3
	}
	if c.Customers <= 0 {
		c.Customers = 5
	}
	if c.OrderIntervalMS <= 0 {
		c.OrderIntervalMS = 4000
	}
	if c.RushRatio == 0 {
		c.RushRatio = 0.25
	}
	if c.MaxDeliverySeconds <= 0 {
		c.MaxDeliverySeconds = 20
	}
}

// Validate checks the fleet parameters.
func (c Config) Validate() error {
	if c.RushRatio < 0 || c.RushRatio > 1 {
		return fmt.Errorf("rush_ratio must be in [0,1]")
	}
	return nil
}
