// Package registry tracks connected courier and customer sessions and owns
// the in-memory courier records. All operations are atomic behind one lock;
// callers get point-in-time copies and must tolerate staleness.
package registry

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/swiftdrop/hub/core/logger"
	"github.com/swiftdrop/hub/core/model"
	"github.com/swiftdrop/hub/core/protocol"
)

// Sender is the write side of a connected session.
type Sender interface {
	Send(protocol.Message) error
}

// ErrNoSession is returned when a send targets an id with no live session.
var ErrNoSession = fmt.Errorf("registry: no such session")

type courierEntry struct {
	courier model.Courier
	sender  Sender
}

// Config controls where newly registered couriers spawn.
type Config struct {
	// CenterLat/CenterLon is the hub reference point.
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	// SpawnRadiusKm bounds the random starting position of a courier.
	SpawnRadiusKm float64 `json:"spawn_radius_km"`
	// Seed makes spawn positions reproducible when non-zero.
	Seed int64 `json:"seed"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.CenterLat == 0 && c.CenterLon == 0 {
		c.CenterLat = 48.8566
		c.CenterLon = 2.3522
	}
	if c.SpawnRadiusKm <= 0 {
		c.SpawnRadiusKm = 5
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.SpawnRadiusKm <= 0 {
		return fmt.Errorf("spawn_radius_km must be positive")
	}
	return nil
}

// Registry is the authoritative map of connected sessions.
type Registry struct {
	mu        sync.RWMutex
	couriers  map[string]*courierEntry
	order     []string // courier ids in first-registration order
	customers map[string]Sender

	rngMu  sync.Mutex
	rng    *rand.Rand
	center model.Coordinates
	radius float64
	log    logger.Logger
}

// New creates a Registry spawning couriers around the configured center.
func New(cfg Config, log logger.Logger) *Registry {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Registry{
		couriers:  make(map[string]*courierEntry),
		customers: make(map[string]Sender),
		rng:       rand.New(rand.NewSource(seed)),
		center:    model.Coordinates{Lat: cfg.CenterLat, Lon: cfg.CenterLon},
		radius:    cfg.SpawnRadiusKm,
		log:       log,
	}
}

// RandomPoint draws a point within the service area. Used for courier spawn
// positions and job pickup origins.
func (r *Registry) RandomPoint() model.Coordinates {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return model.RandomNearby(r.rng, r.center, r.radius)
}

// RegisterCourier inserts a courier session, overwriting any existing entry
// with the same display name. Overwrite-on-reconnect is the accepted
// behavior for colliding names. Returns the created courier record.
func (r *Registry) RegisterCourier(name string, s Sender) model.Courier {
	id := "C-" + name
	pos := r.RandomPoint()
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.couriers[id]; ok {
		// Reconnect: replace the transport but keep stats and position.
		r.log.Warnf("courier %s already registered, overwriting session", id)
		old.sender = s
		old.courier.Status = model.CourierAvailable
		old.courier.UpdatedAt = time.Now()
		return old.courier
	}
	c := model.Courier{
		ID:        id,
		Name:      name,
		Status:    model.CourierAvailable,
		Position:  pos,
		UpdatedAt: time.Now(),
	}
	r.couriers[id] = &courierEntry{courier: c, sender: s}
	r.order = append(r.order, id)
	return c
}

// RegisterCustomer inserts a customer session and returns its session id.
func (r *Registry) RegisterCustomer(name string, s Sender) string {
	id := "K-" + name
	r.mu.Lock()
	if _, ok := r.customers[id]; ok {
		r.log.Warnf("customer %s already registered, overwriting session", id)
	}
	r.customers[id] = s
	r.mu.Unlock()
	return id
}

// Unregister removes the session for id. Idempotent; unknown ids are a no-op.
// A courier's in-flight job, if any, stays assigned to it (no automatic
// reassignment on disconnect).
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.couriers[id]; ok {
		delete(r.couriers, id)
		for i, oid := range r.order {
			if oid == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
		return
	}
	delete(r.customers, id)
}

// AvailableCouriers returns a point-in-time copy of couriers with status
// Available, in first-registration order. The snapshot may go stale at any
// moment; a failed match requeues the job rather than corrupting state.
func (r *Registry) AvailableCouriers() []model.Courier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Courier, 0, len(r.order))
	for _, id := range r.order {
		if e := r.couriers[id]; e != nil && e.courier.Status == model.CourierAvailable {
			out = append(out, e.courier)
		}
	}
	return out
}

// Couriers returns a snapshot of every registered courier in
// first-registration order.
func (r *Registry) Couriers() []model.Courier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Courier, 0, len(r.order))
	for _, id := range r.order {
		if e := r.couriers[id]; e != nil {
			out = append(out, e.courier)
		}
	}
	return out
}

// Courier returns a copy of the courier record for id.
func (r *Registry) Courier(id string) (model.Courier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.couriers[id]
	if !ok {
		return model.Courier{}, false
	}
	return e.courier, true
}

// SetCourierStatus flips the courier's status from from to to atomically.
// Returns false when the courier is missing or not in the expected state.
func (r *Registry) SetCourierStatus(id string, from, to model.CourierStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.couriers[id]
	if !ok || e.courier.Status != from {
		return false
	}
	e.courier.Status = to
	e.courier.UpdatedAt = time.Now()
	return true
}

// UpdateLocation moves the courier to pos.
func (r *Registry) UpdateLocation(id string, pos model.Coordinates) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.couriers[id]
	if !ok {
		return false
	}
	e.courier.Position = pos
	e.courier.UpdatedAt = time.Now()
	return true
}

// RecordDelivery credits a completed delivery and its satisfaction score.
func (r *Registry) RecordDelivery(id string, score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.couriers[id]
	if !ok {
		return
	}
	e.courier.Completed++
	e.courier.SatisfactionSum += score
	e.courier.UpdatedAt = time.Now()
}

// SendToCourier writes a record to the courier's reliable channel.
func (r *Registry) SendToCourier(id string, m protocol.Message) error {
	r.mu.RLock()
	e, ok := r.couriers[id]
	r.mu.RUnlock()
	if !ok || e.sender == nil {
		return fmt.Errorf("%w: courier %s", ErrNoSession, id)
	}
	return e.sender.Send(m)
}

// SendToCustomer writes a record to the customer's reliable channel.
func (r *Registry) SendToCustomer(id string, m protocol.Message) error {
	r.mu.RLock()
	s, ok := r.customers[id]
	r.mu.RUnlock()
	if !ok || s == nil {
		return fmt.Errorf("%w: customer %s", ErrNoSession, id)
	}
	return s.Send(m)
}

// BroadcastCouriers sends m to every connected courier. Per-session failures
// are logged and do not stop the fan-out.
func (r *Registry) BroadcastCouriers(m protocol.Message) {
	r.mu.RLock()
	senders := make(map[string]Sender, len(r.couriers))
	for id, e := range r.couriers {
		senders[id] = e.sender
	}
	r.mu.RUnlock()
	for id, s := range senders {
		if s == nil {
			continue
		}
		if err := s.Send(m); err != nil {
			r.log.Debugf("broadcast to %s failed: %v", id, err)
		}
	}
}

// SessionCounts returns the number of connected courier and customer sessions.
func (r *Registry) SessionCounts() (couriers, customers int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.couriers), len(r.customers)
}
