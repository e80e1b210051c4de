// Package ledger owns the in-flight job map and every job state transition:
// assignment, delivery confirmation and mid-flight reassignment (steal).
package ledger

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/swiftdrop/hub/core/events"
	"github.com/swiftdrop/hub/core/logger"
	coremetrics "github.com/swiftdrop/hub/core/metrics"
	"github.com/swiftdrop/hub/core/model"
	"github.com/swiftdrop/hub/core/protocol"
	"github.com/swiftdrop/hub/internal/eventbus"
)

var (
	// ErrJobNotFound means the job id is not in the ledger.
	ErrJobNotFound = errors.New("ledger: job not found")
	// ErrNotAssigned means the job is not currently assigned as expected.
	ErrNotAssigned = errors.New("ledger: job not currently assigned as expected")
	// ErrNotCloseEnough means the steal distance condition was unmet.
	ErrNotCloseEnough = errors.New("ledger: thief not close enough")
	// ErrCourierUnavailable means the courier could not be claimed.
	ErrCourierUnavailable = errors.New("ledger: courier unavailable")
)

// CourierDirectory is the registry surface the ledger needs: atomic courier
// state transitions, stats accounting and per-session notification.
type CourierDirectory interface {
	Courier(id string) (model.Courier, bool)
	SetCourierStatus(id string, from, to model.CourierStatus) bool
	RecordDelivery(id string, score int)
	SendToCourier(id string, m protocol.Message) error
	SendToCustomer(id string, m protocol.Message) error
}

// menu is the fixed item catalog orders draw from.
var menu = []string{
	"margherita", "pad thai", "ramen", "burrito", "falafel wrap",
	"bibimbap", "butter chicken", "pho", "gyoza", "tiramisu",
}

type jobRecord struct {
	job        *model.Job
	assignedAt time.Time
	etaSeconds int
	traffic    bool
	stolen     bool
}

// Ledger is the authoritative map of in-flight jobs. All transitions happen
// under one mutex, so concurrent delivery confirmations and steal attempts
// serialize; the loser of a steal race observes ErrNotAssigned.
type Ledger struct {
	mu   sync.Mutex
	jobs map[int64]*jobRecord
	rng  *rand.Rand

	dir  CourierDirectory
	cfg  Config
	log  logger.Logger
	bus  eventbus.EventBus
	sink coremetrics.Sink
}

// New creates a Ledger. bus and sink may be nil.
func New(dir CourierDirectory, cfg Config, log logger.Logger, bus eventbus.EventBus, sink coremetrics.Sink) *Ledger {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Ledger{
		jobs: make(map[int64]*jobRecord),
		rng:  rand.New(rand.NewSource(seed)),
		dir:  dir,
		cfg:  cfg,
		log:  log,
		bus:  bus,
		sink: sink,
	}
}

// NewJob builds a Pending job for a customer order. Items are drawn from the
// fixed menu; the pickup origin is supplied by the caller.
func (l *Ledger) NewJob(customerID, address string, rush bool, origin model.Coordinates) *model.Job {
	priority := model.PriorityNormal
	if rush {
		priority = model.PriorityRush
	}
	l.mu.Lock()
	n := 1 + l.rng.Intn(3)
	items := make([]string, n)
	for i := range items {
		items[i] = menu[l.rng.Intn(len(menu))]
	}
	l.mu.Unlock()
	return &model.Job{
		ID:         model.NextJobID(),
		CustomerID: customerID,
		Items:      items,
		Address:    address,
		Priority:   priority,
		Status:     model.JobPending,
		CreatedAt:  time.Now(),
		Origin:     origin,
	}
}

// etaSeconds computes the delivery duration estimate: linear in distance,
// clamped, with ±20% jitter and a traffic penalty.
func (l *Ledger) etaSeconds(distKm float64, traffic bool) int {
	base := distKm * l.cfg.SecondsPerKm
	if min := float64(l.cfg.MinETASeconds); base < min {
		base = min
	}
	if max := float64(l.cfg.MaxETASeconds); base > max {
		base = max
	}
	base *= 0.8 + 0.4*l.rng.Float64()
	if traffic {
		base *= 1 + l.cfg.TrafficPenalty
	}
	return int(base)
}

// Assign claims the courier and records the job as in-flight. The courier is
// flipped Available->Busy first; on failure the caller requeues the job.
// Notification failures are logged only, the assignment stands.
func (l *Ledger) Assign(job *model.Job, courier model.Courier) error {
	if !l.dir.SetCourierStatus(courier.ID, model.CourierAvailable, model.CourierBusy) {
		return fmt.Errorf("%w: %s", ErrCourierUnavailable, courier.ID)
	}
	dist := model.Haversine(job.Origin, courier.Position)
	l.mu.Lock()
	traffic := l.rng.Float64() < l.cfg.TrafficProbability
	eta := l.etaSeconds(dist, traffic)
	job.Status = model.JobPreparing
	job.AssignedCourier = courier.ID
	l.jobs[job.ID] = &jobRecord{job: job, assignedAt: time.Now(), etaSeconds: eta, traffic: traffic}
	l.mu.Unlock()

	if err := l.dir.SendToCourier(courier.ID, protocol.Assign(job, eta, traffic)); err != nil {
		l.log.Warnf("assign notification to %s failed: %v", courier.ID, err)
	}
	detail := fmt.Sprintf("assigned to %s, eta %ds", courier.Name, eta)
	if err := l.dir.SendToCustomer(job.CustomerID, protocol.Status(job.ID, model.JobPreparing.String(), detail)); err != nil {
		l.log.Warnf("status notification to %s failed: %v", job.CustomerID, err)
	}
	l.publish(events.AssignmentEvent{JobID: job.ID, CourierID: courier.ID, ETASeconds: eta, Traffic: traffic})
	return nil
}

// Deliver closes a job on the claiming courier's confirmation. The claimed
// courier identity is trusted without cross-checking the recorded
// assignment; a courier confirming another courier's job is accepted. Known
// gap, kept as-is.
func (l *Ledger) Deliver(jobID int64, courierID string) (int, error) {
	l.mu.Lock()
	rec, ok := l.jobs[jobID]
	if !ok {
		l.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrJobNotFound, jobID)
	}
	rec.job.Status = model.JobDelivered
	elapsed := time.Since(rec.assignedAt)
	delete(l.jobs, jobID)
	job := rec.job
	l.mu.Unlock()

	score := model.SatisfactionScore(elapsed)
	l.dir.SetCourierStatus(courierID, model.CourierBusy, model.CourierAvailable)
	l.dir.RecordDelivery(courierID, score)
	deliveriesCompleted.WithLabelValues(job.Priority.String()).Inc()

	detail := fmt.Sprintf("delivered in %.0fs, satisfaction %d", elapsed.Seconds(), score)
	if err := l.dir.SendToCustomer(job.CustomerID, protocol.Status(jobID, model.JobDelivered.String(), detail)); err != nil {
		l.log.Warnf("delivery notification to %s failed: %v", job.CustomerID, err)
	}
	l.publish(events.DeliveryEvent{JobID: jobID, CourierID: courierID, Satisfaction: score, DurationSeconds: elapsed.Seconds()})
	if l.sink != nil {
		err := l.sink.RecordDeliveries([]coremetrics.DeliveryRecord{{
			JobID:           jobID,
			CourierID:       courierID,
			Priority:        job.Priority.String(),
			ETASeconds:      rec.etaSeconds,
			DurationSeconds: elapsed.Seconds(),
			Satisfaction:    score,
			Stolen:          rec.stolen,
			DeliveredAt:     time.Now(),
		}})
		if err != nil {
			l.log.Errorf("delivery metrics error: %v", err)
		}
	}
	return score, nil
}

// Job returns a copy of the in-flight job with the given id.
func (l *Ledger) Job(jobID int64) (model.Job, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.jobs[jobID]
	if !ok {
		return model.Job{}, false
	}
	return *rec.job, true
}

// Jobs returns a snapshot of all in-flight jobs.
func (l *Ledger) Jobs() []model.Job {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Job, 0, len(l.jobs))
	for _, rec := range l.jobs {
		out = append(out, *rec.job)
	}
	return out
}

func (l *Ledger) publish(e eventbus.Event) {
	if l.bus != nil {
		l.bus.Publish(e)
	}
}
