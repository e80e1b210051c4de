// Package events defines the event types published on the hub's internal bus.
package events

import "github.com/swiftdrop/hub/core/model"

// OrderEvent is published when a customer order is accepted into the queue.
type OrderEvent struct {
	Job model.Job
}

// AssignmentEvent is published when a job is handed to a courier, either by
// the dispatch loop or by a successful steal.
type AssignmentEvent struct {
	JobID      int64
	CourierID  string
	ETASeconds int
	Traffic    bool
	Stolen     bool
}

// DeliveryEvent is published when a courier confirms delivery.
type DeliveryEvent struct {
	JobID           int64
	CourierID       string
	Satisfaction    int
	DurationSeconds float64
}

// StealEvent is published for every steal attempt, accepted or not.
type StealEvent struct {
	JobID       int64
	ThiefID     string
	IncumbentID string
	Accepted    bool
	Reason      string
}

// SessionEvent is published when a session registers or goes away.
type SessionEvent struct {
	SessionID string
	Role      string
	Connected bool
}
