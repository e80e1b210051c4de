// Package app wires the hub components together and runs them as one
// process.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swiftdrop/hub/api/status"
	"github.com/swiftdrop/hub/config"
	"github.com/swiftdrop/hub/core/dispatch"
	"github.com/swiftdrop/hub/core/events"
	"github.com/swiftdrop/hub/core/leaderboard"
	"github.com/swiftdrop/hub/core/ledger"
	"github.com/swiftdrop/hub/core/registry"
	"github.com/swiftdrop/hub/infra/broadcast"
	"github.com/swiftdrop/hub/infra/logger"
	"github.com/swiftdrop/hub/infra/metrics"
	"github.com/swiftdrop/hub/infra/mqtt"
	"github.com/swiftdrop/hub/infra/tcpserver"
	"github.com/swiftdrop/hub/internal/eventbus"
)

// Service owns the hub's components and their lifecycle.
type Service struct {
	cfg *config.Config
	log logger.Logger

	registry    *registry.Registry
	queue       *dispatch.Queue
	ledger      *ledger.Ledger
	server      *tcpserver.Server
	loop        *dispatch.Loop
	broadcaster *broadcast.Broadcaster
	updater     *leaderboard.Updater
	bus         eventbus.EventBus
	bridge      *mqtt.LocationBridge
	api         *http.Server
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("hub")

	sink, err := metrics.NewSink(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.New()
	reg := registry.New(cfg.Registry, logger.New("registry"))
	queue := dispatch.NewQueue()
	led := ledger.New(reg, cfg.Ledger, logger.New("ledger"), bus, sink)

	var bridge *mqtt.LocationBridge
	if cfg.MQTT.Enabled {
		bridge, err = mqtt.NewLocationBridge(cfg.MQTT, logger.New("mqtt"))
		if err != nil {
			return nil, fmt.Errorf("location bridge: %w", err)
		}
	}
	var pub broadcast.Publisher
	if bridge != nil {
		pub = bridge
	}

	svc := &Service{
		cfg:         cfg,
		log:         log,
		registry:    reg,
		queue:       queue,
		ledger:      led,
		server:      tcpserver.New(cfg.Server.Addr, reg, queue, led, logger.New("tcpserver")),
		loop:        dispatch.NewLoop(queue, reg, led, cfg.Dispatch, logger.New("dispatch")),
		broadcaster: broadcast.New(reg, pub, cfg.Broadcast, logger.New("broadcast")),
		updater:     leaderboard.NewUpdater(reg, reg, cfg.Leaderboard, logger.New("leaderboard")),
		bus:         bus,
		bridge:      bridge,
	}
	if cfg.API.Enabled {
		svc.api = &http.Server{
			Addr:    cfg.API.Addr,
			Handler: status.NewRouter(reg, led, cfg.API),
		}
	}
	return svc, nil
}

// Run starts every component and blocks until the context is canceled or a
// fatal error occurs.
func (s *Service) Run(ctx context.Context) error {
	if err := s.server.Start(); err != nil {
		return err
	}
	if err := s.broadcaster.Start(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.server.Serve(ctx) })
	g.Go(func() error { s.loop.Run(ctx); return nil })
	g.Go(func() error { s.broadcaster.Run(ctx); return nil })
	g.Go(func() error { s.updater.Run(ctx); return nil })
	g.Go(func() error { s.logEvents(ctx); return nil })
	if s.api != nil {
		g.Go(func() error {
			s.log.Infof("ops api listening on %s", s.cfg.API.Addr)
			err := s.api.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.api.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

// logEvents drains the bus into the structured log so every dispatch
// decision leaves a trace even with metrics disabled.
func (s *Service) logEvents(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			switch ev := e.(type) {
			case events.AssignmentEvent:
				s.log.Infow("job assigned", map[string]any{
					"job_id": ev.JobID, "courier_id": ev.CourierID,
					"eta_s": ev.ETASeconds, "traffic": ev.Traffic, "stolen": ev.Stolen,
				})
			case events.DeliveryEvent:
				s.log.Infow("job delivered", map[string]any{
					"job_id": ev.JobID, "courier_id": ev.CourierID,
					"satisfaction": ev.Satisfaction, "duration_s": ev.DurationSeconds,
				})
			case events.StealEvent:
				s.log.Infow("steal attempt", map[string]any{
					"job_id": ev.JobID, "thief_id": ev.ThiefID,
					"accepted": ev.Accepted, "reason": ev.Reason,
				})
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.bridge != nil {
		s.bridge.Close()
	}
	return nil
}
