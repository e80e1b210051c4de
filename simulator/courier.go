package simulator

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/swiftdrop/hub/core/protocol"
	"github.com/swiftdrop/hub/infra/logger"
)

// Courier is a scripted courier session: it accepts every assignment, waits
// out the announced ETA (capped) and confirms delivery. A cancellation
// received mid-ride abandons the job silently, like a real courier shrugging
// at a reassignment.
type Courier struct {
	name    string
	addr    string
	maxRide time.Duration
	log     logger.Logger

	mu        sync.Mutex
	cancelled map[int64]bool
	delivered int
}

// NewCourier creates a scripted courier.
func NewCourier(name, hubAddr string, maxRide time.Duration, log logger.Logger) *Courier {
	return &Courier{
		name:      name,
		addr:      hubAddr,
		maxRide:   maxRide,
		log:       log,
		cancelled: make(map[int64]bool),
	}
}

// Delivered reports how many jobs this courier confirmed.
func (c *Courier) Delivered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delivered
}

// Run connects and serves assignments until the context is canceled or the
// connection drops.
func (c *Courier) Run(ctx context.Context) error {
	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("courier %s: dial: %w", c.name, err)
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

	if err := send(protocol.Hello(protocol.RoleCourier, c.name)); err != nil {
		return err
	}
	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return fmt.Errorf("courier %s: handshake: %w", c.name, scanner.Err())
	}
	welcome, err := protocol.Decode(scanner.Text())
	if err != nil || welcome.Tag != protocol.TagWelcome {
		return fmt.Errorf("courier %s: handshake rejected", c.name)
	}
	c.log.Infof("courier %s connected as %s", c.name, welcome.Fields[0])

	for scanner.Scan() {
		msg, err := protocol.Decode(scanner.Text())
		if err != nil {
			continue
		}
		switch msg.Tag {
		case protocol.TagAssign:
			asg, err := protocol.ParseAssign(msg)
			if err != nil {
				continue
			}
			go c.ride(ctx, asg, send)
		case protocol.TagStatus:
			// The only status a courier receives is a cancellation.
			if id, err := parseStatusJobID(msg); err == nil {
				c.mu.Lock()
				c.cancelled[id] = true
				c.mu.Unlock()
			}
		case protocol.TagBoard:
			c.log.Debugf("courier %s leaderboard: %s", c.name, msg.Fields[0])
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}

// ride simulates the delivery and confirms it unless the job was cancelled
// while riding.
func (c *Courier) ride(ctx context.Context, asg protocol.Assignment, send func(protocol.Message) error) {
	d := time.Duration(asg.ETASeconds) * time.Second
	if d > c.maxRide {
		d = c.maxRide
	}
	select {
	case <-ctx.Done():
		return
	case <-time.After(d):
	}

	c.mu.Lock()
	cancelled := c.cancelled[asg.JobID]
	delete(c.cancelled, asg.JobID)
	c.mu.Unlock()
	if cancelled {
		c.log.Debugf("courier %s dropped cancelled job %d", c.name, asg.JobID)
		return
	}
	if err := send(protocol.Delivered(asg.JobID)); err != nil {
		return
	}
	c.mu.Lock()
	c.delivered++
	c.mu.Unlock()
}

func parseStatusJobID(m protocol.Message) (int64, error) {
	if m.Tag != protocol.TagStatus {
		return 0, fmt.Errorf("not a STATUS record")
	}
	var id int64
	if _, err := fmt.Sscanf(m.Fields[0], "%d", &id); err != nil {
		return 0, err
	}
	return id, nil
}
