package dispatch

import (
	"context"
	"time"

	"github.com/swiftdrop/hub/core/logger"
	"github.com/swiftdrop/hub/core/model"
)

// CourierSource yields a point-in-time snapshot of assignable couriers.
type CourierSource interface {
	AvailableCouriers() []model.Courier
}

// Assigner commits a matched job/courier pair. An error means the courier
// could not be claimed (typically a stale snapshot) and the job must be
// retried later.
type Assigner interface {
	Assign(job *model.Job, courier model.Courier) error
}

// Loop drains the queue on a fixed poll interval with strict two-class
// priority: every matchable rush job is assigned before any normal job is
// examined. Sustained rush load can therefore starve normal jobs; that
// tradeoff is deliberate.
type Loop struct {
	queue    *Queue
	couriers CourierSource
	assigner Assigner
	poll     time.Duration
	pacing   time.Duration
	log      logger.Logger
}

// NewLoop creates a dispatch loop. cfg must have been defaulted/validated.
func NewLoop(q *Queue, src CourierSource, a Assigner, cfg Config, log logger.Logger) *Loop {
	return &Loop{
		queue:    q,
		couriers: src,
		assigner: a,
		poll:     time.Duration(cfg.PollIntervalMS) * time.Millisecond,
		pacing:   time.Duration(cfg.PacingDelayMS) * time.Millisecond,
		log:      log,
	}
}

// Run polls until the context is canceled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick drains rush to exhaustion or unmatchability, then normal.
func (l *Loop) tick(ctx context.Context) {
	l.drain(ctx, model.PriorityRush)
	l.drain(ctx, model.PriorityNormal)
}

// drain assigns head jobs of one priority class until the class is empty or
// its head cannot be matched. On a failed match the head job moves to the
// tail of its own queue and the class is abandoned for this tick, which
// avoids busy-spinning on an unassignable batch.
func (l *Loop) drain(ctx context.Context, p model.Priority) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		job, ok := l.queue.PopHead(p)
		if !ok {
			return
		}
		candidates := l.couriers.AvailableCouriers()
		courier, ok := MatchBest(job, candidates)
		if !ok {
			l.queue.RequeueTail(job)
			dispatchFailures.Inc()
			l.log.Debugf("no courier for %s job %d, requeued", p, job.ID)
			return
		}
		if err := l.assigner.Assign(job, courier); err != nil {
			// Snapshot went stale between match and claim.
			l.queue.RequeueTail(job)
			dispatchFailures.Inc()
			l.log.Debugf("claim of %s for job %d failed: %v", courier.ID, job.ID, err)
			return
		}
		jobsDispatched.WithLabelValues(p.String()).Inc()
		matchDistance.Observe(model.Haversine(job.Origin, courier.Position))
		l.log.Infof("job %d assigned to %s", job.ID, courier.ID)
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.pacing):
		}
	}
}
