package ledger

import (
	"fmt"

	"github.com/swiftdrop/hub/core/events"
	"github.com/swiftdrop/hub/core/model"
	"github.com/swiftdrop/hub/core/protocol"
)

// closeEnough is the steal admission rule: the thief must be strictly more
// than twice as close to the job origin than the incumbent. Equality fails.
func closeEnough(thiefDist, incumbentDist float64) bool {
	return thiefDist < 0.5*incumbentDist
}

// AttemptSteal reassigns an in-flight job to the thief if the thief is
// strictly more than twice as close to the job's origin as the incumbent:
// thiefDist < 0.5 * incumbentDist, equality fails. The whole check-and-swap
// runs under the ledger mutex, so concurrent attempts on one job resolve to
// whichever caller locks first; the loser sees ErrNotAssigned.
func (l *Ledger) AttemptSteal(jobID int64, thiefID string) error {
	l.mu.Lock()
	err := l.stealLocked(jobID, thiefID)
	l.mu.Unlock()
	outcome := "accepted"
	if err != nil {
		outcome = "rejected"
	}
	stealAttempts.WithLabelValues(outcome).Inc()
	return err
}

func (l *Ledger) stealLocked(jobID int64, thiefID string) error {
	rec, ok := l.jobs[jobID]
	if !ok {
		l.publish(events.StealEvent{JobID: jobID, ThiefID: thiefID, Reason: "not found"})
		return fmt.Errorf("%w: %d", ErrJobNotFound, jobID)
	}
	incumbentID := rec.job.AssignedCourier
	if incumbentID == "" || incumbentID == thiefID {
		l.publish(events.StealEvent{JobID: jobID, ThiefID: thiefID, IncumbentID: incumbentID, Reason: "not assigned"})
		return fmt.Errorf("%w: job %d", ErrNotAssigned, jobID)
	}
	thief, ok := l.dir.Courier(thiefID)
	if !ok || thief.Status != model.CourierAvailable {
		l.publish(events.StealEvent{JobID: jobID, ThiefID: thiefID, IncumbentID: incumbentID, Reason: "thief unavailable"})
		return fmt.Errorf("%w: %s", ErrCourierUnavailable, thiefID)
	}
	incumbent, ok := l.dir.Courier(incumbentID)
	if !ok {
		// Incumbent vanished (disconnect); the job stays orphaned rather
		// than silently changing hands.
		l.publish(events.StealEvent{JobID: jobID, ThiefID: thiefID, IncumbentID: incumbentID, Reason: "incumbent gone"})
		return fmt.Errorf("%w: job %d", ErrNotAssigned, jobID)
	}

	thiefDist := model.Haversine(thief.Position, rec.job.Origin)
	incumbentDist := model.Haversine(incumbent.Position, rec.job.Origin)
	if !closeEnough(thiefDist, incumbentDist) {
		l.publish(events.StealEvent{JobID: jobID, ThiefID: thiefID, IncumbentID: incumbentID, Reason: "not close enough"})
		return fmt.Errorf("%w: %.2f km vs %.2f km", ErrNotCloseEnough, thiefDist, incumbentDist)
	}

	if !l.dir.SetCourierStatus(thiefID, model.CourierAvailable, model.CourierBusy) {
		l.publish(events.StealEvent{JobID: jobID, ThiefID: thiefID, IncumbentID: incumbentID, Reason: "thief claim lost"})
		return fmt.Errorf("%w: %s", ErrCourierUnavailable, thiefID)
	}
	l.dir.SetCourierStatus(incumbentID, model.CourierBusy, model.CourierAvailable)
	rec.job.AssignedCourier = thiefID
	rec.stolen = true
	// assignedAt is kept: satisfaction measures the customer's total wait.

	if err := l.dir.SendToCourier(incumbentID, protocol.Status(jobID, "CANCELLED", fmt.Sprintf("job reassigned to %s", thief.Name))); err != nil {
		l.log.Warnf("cancellation notice to %s failed: %v", incumbentID, err)
	}
	if err := l.dir.SendToCourier(thiefID, protocol.Assign(rec.job, rec.etaSeconds, rec.traffic)); err != nil {
		l.log.Warnf("steal assignment notice to %s failed: %v", thiefID, err)
	}
	l.log.Infof("job %d stolen by %s from %s", jobID, thiefID, incumbentID)
	l.publish(events.StealEvent{JobID: jobID, ThiefID: thiefID, IncumbentID: incumbentID, Accepted: true})
	l.publish(events.AssignmentEvent{JobID: jobID, CourierID: thiefID, ETASeconds: rec.etaSeconds, Traffic: rec.traffic, Stolen: true})
	return nil
}
