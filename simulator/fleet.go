package simulator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swiftdrop/hub/infra/logger"
)

// Fleet runs the whole scripted population against one hub.
type Fleet struct {
	couriers  []*Courier
	customers []*Customer
	log       logger.Logger
}

// NewFleet builds the scripted clients from the configuration.
func NewFleet(cfg Config, log logger.Logger) *Fleet {
	f := &Fleet{log: log}
	maxRide := time.Duration(cfg.MaxDeliverySeconds) * time.Second
	for i := 0; i < cfg.Couriers; i++ {
		name := fmt.Sprintf("sim-courier-%d", i+1)
		f.couriers = append(f.couriers, NewCourier(name, cfg.HubAddr, maxRide, log))
	}
	interval := time.Duration(cfg.OrderIntervalMS) * time.Millisecond
	for i := 0; i < cfg.Customers; i++ {
		name := fmt.Sprintf("sim-customer-%d", i+1)
		seed := cfg.Seed + int64(i) + 1
		f.customers = append(f.customers, NewCustomer(name, cfg.HubAddr, interval, cfg.RushRatio, seed, log))
	}
	return f
}

// Run starts every client and blocks until the context is canceled or a
// client fails.
func (f *Fleet) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range f.couriers {
		c := c
		g.Go(func() error { return c.Run(ctx) })
	}
	for _, c := range f.customers {
		c := c
		g.Go(func() error { return c.Run(ctx) })
	}
	return g.Wait()
}

// Summary totals the fleet's activity.
func (f *Fleet) Summary() (ordered, delivered int) {
	for _, c := range f.customers {
		o, d := c.Counts()
		ordered += o
		delivered += d
	}
	return ordered, delivered
}
