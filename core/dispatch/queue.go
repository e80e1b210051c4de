package dispatch

import (
	"sync"

	"github.com/swiftdrop/hub/core/model"
)

// Queue holds pending jobs in two unbounded FIFO collections, one per
// priority class. All operations are O(1) appends or head pops under one
// mutex so session handlers and the dispatch loop can share it freely.
type Queue struct {
	mu     sync.Mutex
	rush   []*model.Job
	normal []*model.Job
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue { return &Queue{} }

// Enqueue appends the job to the queue matching its priority.
func (q *Queue) Enqueue(j *model.Job) {
	q.mu.Lock()
	if j.Priority == model.PriorityRush {
		q.rush = append(q.rush, j)
	} else {
		q.normal = append(q.normal, j)
	}
	q.mu.Unlock()
	jobsEnqueued.WithLabelValues(j.Priority.String()).Inc()
	queueDepth.WithLabelValues(j.Priority.String()).Inc()
}

// PopHead removes and returns the head job of the given priority class.
func (q *Queue) PopHead(p model.Priority) (*model.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if p == model.PriorityRush {
		if len(q.rush) == 0 {
			return nil, false
		}
		j := q.rush[0]
		q.rush = q.rush[1:]
		queueDepth.WithLabelValues(p.String()).Dec()
		return j, true
	}
	if len(q.normal) == 0 {
		return nil, false
	}
	j := q.normal[0]
	q.normal = q.normal[1:]
	queueDepth.WithLabelValues(p.String()).Dec()
	return j, true
}

// RequeueTail puts an unassignable job back at the tail of its own queue.
// This is the single exception to FIFO ordering within a priority class.
func (q *Queue) RequeueTail(j *model.Job) {
	q.mu.Lock()
	if j.Priority == model.PriorityRush {
		q.rush = append(q.rush, j)
	} else {
		q.normal = append(q.normal, j)
	}
	q.mu.Unlock()
	queueDepth.WithLabelValues(j.Priority.String()).Inc()
}

// Len returns the pending counts per priority class.
func (q *Queue) Len() (rush, normal int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.rush), len(q.normal)
}
