// Package broadcast pushes courier location records over the lossy channel:
// one UDP datagram per courier per tick, fire and forget.
package broadcast

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/swiftdrop/hub/core/model"
	"github.com/swiftdrop/hub/core/protocol"
	"github.com/swiftdrop/hub/infra/logger"
)

// Config holds the broadcast channel settings.
type Config struct {
	TargetAddr string `json:"target_addr"`
	IntervalMS int    `json:"interval_ms"`
}

// SetDefaults applies default values to the configuration.
func (c *Config) SetDefaults() {
	if c.TargetAddr == "" {
		c.TargetAddr = "255.255.255.255:9876"
	}
	if c.IntervalMS == 0 {
		c.IntervalMS = 2000
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.IntervalMS <= 0 {
		return fmt.Errorf("interval_ms must be positive")
	}
	if _, _, err := net.SplitHostPort(c.TargetAddr); err != nil {
		return fmt.Errorf("target_addr: %w", err)
	}
	return nil
}

// Source provides the courier snapshot each tick reads.
type Source interface {
	Couriers() []model.Courier
}

// Publisher receives a copy of every broadcast sample. Used to bridge
// locations onto an external broker; may be nil.
type Publisher interface {
	PublishLocation(s model.LocationSample) error
}

// Broadcaster periodically emits one LOC datagram per known courier.
// Datagram loss and write errors are tolerated; the next tick resends
// current positions anyway.
type Broadcaster struct {
	src      Source
	bridge   Publisher
	interval time.Duration
	addr     string
	log      logger.Logger

	conn net.Conn
}

// New creates a Broadcaster. bridge may be nil.
func New(src Source, bridge Publisher, cfg Config, log logger.Logger) *Broadcaster {
	return &Broadcaster{
		src:      src,
		bridge:   bridge,
		interval: time.Duration(cfg.IntervalMS) * time.Millisecond,
		addr:     cfg.TargetAddr,
		log:      log,
	}
}

// Start opens the UDP socket. Like a TCP bind failure, this is fatal to
// startup; everything after Start degrades gracefully instead.
func (b *Broadcaster) Start() error {
	conn, err := net.Dial("udp", b.addr)
	if err != nil {
		return fmt.Errorf("broadcast: dial %s: %w", b.addr, err)
	}
	b.conn = conn
	b.log.Infof("broadcasting locations to %s every %s", b.addr, b.interval)
	return nil
}

// Run emits location ticks until the context is canceled.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	defer func() { _ = b.conn.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.tick(time.Now())
		}
	}
}

func (b *Broadcaster) tick(now time.Time) {
	for _, c := range b.src.Couriers() {
		sample := model.LocationSample{CourierID: c.ID, Position: c.Position, At: now}
		if _, err := b.conn.Write([]byte(protocol.Location(sample).Encode())); err != nil {
			// Lossy by contract. Log and keep going.
			b.log.Debugf("location datagram for %s dropped: %v", c.ID, err)
		}
		locationsBroadcast.Inc()
		if b.bridge != nil {
			if err := b.bridge.PublishLocation(sample); err != nil {
				b.log.Warnf("location bridge publish for %s failed: %v", c.ID, err)
			}
		}
	}
}
