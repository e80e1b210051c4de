package simulator

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/swiftdrop/hub/core/protocol"
	"github.com/swiftdrop/hub/infra/logger"
)

var addresses = []string{
	"12 Rue de Rivoli",
	"3 Quai Voltaire",
	"9 Rue Oberkampf",
	"27 Boulevard Saint-Germain",
	"5 Place des Vosges",
	"18 Rue de la Roquette",
	"44 Avenue Parmentier",
}

// Customer is a scripted customer session submitting orders on a fixed
// cadence and counting how many come back delivered.
type Customer struct {
	name      string
	addr      string
	interval  time.Duration
	rushRatio float64
	rng       *rand.Rand
	log       logger.Logger

	mu        sync.Mutex
	ordered   int
	delivered int
}

// NewCustomer creates a scripted customer.
func NewCustomer(name, hubAddr string, interval time.Duration, rushRatio float64, seed int64, log logger.Logger) *Customer {
	return &Customer{
		name:      name,
		addr:      hubAddr,
		interval:  interval,
		rushRatio: rushRatio,
		rng:       rand.New(rand.NewSource(seed)),
		log:       log,
	}
}

// Counts reports how many orders were submitted and delivered.
func (c *Customer) Counts() (ordered, delivered int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ordered, c.delivered
}

// Run connects and submits orders until the context is canceled or the
// connection drops.
func (c *Customer) Run(ctx context.Context) error {
	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("customer %s: dial: %w", c.name, err)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	var wmu sync.Mutex
	send := func(m protocol.Message) error {
		wmu.Lock()
		defer wmu.Unlock()
		_, err := fmt.Fprint(conn, m.Encode())
		return err
	}

	if err := send(protocol.Hello(protocol.RoleCustomer, c.name)); err != nil {
		return err
	}
	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return fmt.Errorf("customer %s: handshake: %w", c.name, scanner.Err())
	}
	welcome, err := protocol.Decode(scanner.Text())
	if err != nil || welcome.Tag != protocol.TagWelcome {
		return fmt.Errorf("customer %s: handshake rejected", c.name)
	}

	go c.orderLoop(ctx, send)

	for scanner.Scan() {
		msg, err := protocol.Decode(scanner.Text())
		if err != nil {
			continue
		}
		if msg.Tag == protocol.TagStatus && msg.Fields[1] == "DELIVERED" {
			c.mu.Lock()
			c.delivered++
			c.mu.Unlock()
			c.log.Debugf("customer %s: job %s delivered", c.name, msg.Fields[0])
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}

func (c *Customer) orderLoop(ctx context.Context, send func(protocol.Message) error) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			address := addresses[c.rng.Intn(len(addresses))]
			rush := c.rng.Float64() < c.rushRatio
			c.mu.Unlock()
			if err := send(protocol.Order(address, rush)); err != nil {
				return
			}
			c.mu.Lock()
			c.ordered++
			c.mu.Unlock()
		}
	}
}
