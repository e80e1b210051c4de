package dispatch

import (
	"testing"

	"github.com/swiftdrop/hub/core/model"
)

func job(id int64, p model.Priority) *model.Job {
	return &model.Job{ID: id, Priority: p}
}

func TestQueueFIFOPerClass(t *testing.T) {
	q := NewQueue()
	q.Enqueue(job(1, model.PriorityNormal))
	q.Enqueue(job(2, model.PriorityRush))
	q.Enqueue(job(3, model.PriorityNormal))
	q.Enqueue(job(4, model.PriorityRush))

	if r, n := q.Len(); r != 2 || n != 2 {
		t.Fatalf("len = %d/%d", r, n)
	}
	for _, want := range []int64{2, 4} {
		j, ok := q.PopHead(model.PriorityRush)
		if !ok || j.ID != want {
			t.Fatalf("rush pop = %v, want %d", j, want)
		}
	}
	for _, want := range []int64{1, 3} {
		j, ok := q.PopHead(model.PriorityNormal)
		if !ok || j.ID != want {
			t.Fatalf("normal pop = %v, want %d", j, want)
		}
	}
	if _, ok := q.PopHead(model.PriorityRush); ok {
		t.Fatal("pop from empty rush queue succeeded")
	}
}

func TestRequeueTailMovesHeadToTail(t *testing.T) {
	q := NewQueue()
	q.Enqueue(job(1, model.PriorityNormal))
	q.Enqueue(job(2, model.PriorityNormal))
	q.Enqueue(job(3, model.PriorityNormal))

	head, _ := q.PopHead(model.PriorityNormal)
	q.RequeueTail(head)

	var order []int64
	for {
		j, ok := q.PopHead(model.PriorityNormal)
		if !ok {
			break
		}
		order = append(order, j.ID)
	}
	want := []int64{2, 3, 1}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
