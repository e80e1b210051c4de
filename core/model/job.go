package model

import (
	"sync/atomic"
	"time"
)

// Priority is the scheduling class of a job. Rush jobs are always drained
// before normal jobs within a dispatch tick.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityRush
)

func (p Priority) String() string {
	if p == PriorityRush {
		return "rush"
	}
	return "normal"
}

// JobStatus tracks the lifecycle of a job. Transitions only move forward:
// Pending -> Preparing -> Delivered.
type JobStatus int

const (
	JobPending JobStatus = iota
	JobPreparing
	JobDelivered
)

func (s JobStatus) String() string {
	switch s {
	case JobPending:
		return "PENDING"
	case JobPreparing:
		return "PREPARING"
	case JobDelivered:
		return "DELIVERED"
	default:
		return "UNKNOWN"
	}
}

// Job is a customer's delivery request. At most one courier is assigned at a
// time; a non-empty AssignedCourier implies status Preparing or later.
type Job struct {
	ID              int64       `json:"id"`
	CustomerID      string      `json:"customer_id"`
	Items           []string    `json:"items"`
	Address         string      `json:"address"`
	Priority        Priority    `json:"priority"`
	Status          JobStatus   `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	AssignedCourier string      `json:"assigned_courier,omitempty"`
	Origin          Coordinates `json:"origin"`
}

var jobSeq atomic.Int64

// NextJobID returns a process-unique, monotonically increasing job id.
func NextJobID() int64 { return jobSeq.Add(1) }
