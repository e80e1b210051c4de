package ledger

import (
	"errors"
	"sync"
	"testing"

	"github.com/swiftdrop/hub/core/model"
	"github.com/swiftdrop/hub/core/protocol"
)

// offsetKm places a courier roughly km kilometers north of the job origin.
func offsetKm(km float64) model.Coordinates {
	return model.Coordinates{Lat: origin.Lat + km/110.574, Lon: origin.Lon}
}

func stealFixture(t *testing.T, incumbentKm, thiefKm float64) (*Ledger, *fakeDirectory, *model.Job) {
	t.Helper()
	dir := newFakeDirectory()
	dir.add("C-far", model.CourierAvailable, offsetKm(incumbentKm))
	l := testLedger(dir)
	job := pendingJob(l, "K-x")
	if err := l.Assign(job, mustCourier(t, dir, "C-far")); err != nil {
		t.Fatal(err)
	}
	dir.add("C-near", model.CourierAvailable, offsetKm(thiefKm))
	return l, dir, job
}

func TestStealSucceedsWhenTwiceAsClose(t *testing.T) {
	l, dir, job := stealFixture(t, 4.0, 0.5)
	if err := l.AttemptSteal(job.ID, "C-near"); err != nil {
		t.Fatal(err)
	}
	got, _ := l.Job(job.ID)
	if got.AssignedCourier != "C-near" {
		t.Fatalf("assigned = %s", got.AssignedCourier)
	}
	if c, _ := dir.Courier("C-near"); c.Status != model.CourierBusy {
		t.Fatal("thief not busy")
	}
	if c, _ := dir.Courier("C-far"); c.Status != model.CourierAvailable {
		t.Fatal("incumbent not released")
	}
	// Incumbent got a cancellation, thief got the assignment.
	msgs := dir.courier["C-far"]
	last := msgs[len(msgs)-1]
	if last.Tag != protocol.TagStatus || last.Fields[1] != "CANCELLED" {
		t.Fatalf("incumbent notice = %v", last)
	}
	thiefMsgs := dir.courier["C-near"]
	if thiefMsgs[len(thiefMsgs)-1].Tag != protocol.TagAssign {
		t.Fatalf("thief notice = %v", thiefMsgs)
	}
}

func TestStealBoundaryEqualityFails(t *testing.T) {
	if closeEnough(2.0, 4.0) {
		t.Fatal("thiefDist == 0.5*incumbentDist must fail")
	}
	if !closeEnough(1.999, 4.0) {
		t.Fatal("strictly closer than half must succeed")
	}
	if closeEnough(0, 0) {
		t.Fatal("zero incumbent distance can never be beaten")
	}

	l, _, job := stealFixture(t, 4.0, 2.05) // just outside the threshold
	if err := l.AttemptSteal(job.ID, "C-near"); !errors.Is(err, ErrNotCloseEnough) {
		t.Fatalf("err = %v, want ErrNotCloseEnough", err)
	}
	got, _ := l.Job(job.ID)
	if got.AssignedCourier != "C-far" {
		t.Fatal("job moved on rejected steal")
	}
}

func TestStealNotCloseEnough(t *testing.T) {
	l, _, job := stealFixture(t, 4.0, 3.0)
	if err := l.AttemptSteal(job.ID, "C-near"); !errors.Is(err, ErrNotCloseEnough) {
		t.Fatalf("err = %v", err)
	}
}

func TestStealUnknownJob(t *testing.T) {
	l, _, _ := stealFixture(t, 4.0, 0.5)
	if err := l.AttemptSteal(9999, "C-near"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestStealOwnJobRejected(t *testing.T) {
	l, _, job := stealFixture(t, 4.0, 0.5)
	if err := l.AttemptSteal(job.ID, "C-far"); !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("err = %v", err)
	}
}

func TestStealBusyThiefRejected(t *testing.T) {
	l, dir, job := stealFixture(t, 4.0, 0.5)
	dir.SetCourierStatus("C-near", model.CourierAvailable, model.CourierBusy)
	if err := l.AttemptSteal(job.ID, "C-near"); !errors.Is(err, ErrCourierUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestConcurrentStealsOneWinner(t *testing.T) {
	l, dir, job := stealFixture(t, 8.0, 0.2)
	dir.add("C-near2", model.CourierAvailable, offsetKm(0.3))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, thief := range []string{"C-near", "C-near2"} {
		wg.Add(1)
		go func(i int, thief string) {
			defer wg.Done()
			errs[i] = l.AttemptSteal(job.ID, thief)
		}(i, thief)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("steal winners = %d, errs = %v", wins, errs)
	}
	// Exactly one courier flipped to Busy.
	busy := 0
	for _, id := range []string{"C-near", "C-near2"} {
		if c, _ := dir.Courier(id); c.Status == model.CourierBusy {
			busy++
		}
	}
	if busy != 1 {
		t.Fatalf("busy thieves = %d", busy)
	}
}

func TestStealAfterIncumbentDisconnect(t *testing.T) {
	l, dir, job := stealFixture(t, 4.0, 0.5)
	dir.mu.Lock()
	delete(dir.couriers, "C-far")
	dir.mu.Unlock()
	if err := l.AttemptSteal(job.ID, "C-near"); !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("err = %v", err)
	}
}
