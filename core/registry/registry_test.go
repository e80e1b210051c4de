package registry

import (
	"errors"
	"testing"

	"github.com/swiftdrop/hub/core/model"
	"github.com/swiftdrop/hub/core/protocol"
	"github.com/swiftdrop/hub/infra/logger"
)

type fakeSender struct {
	sent []protocol.Message
	err  error
}

func (f *fakeSender) Send(m protocol.Message) error {
	f.sent = append(f.sent, m)
	return f.err
}

func testConfig() Config {
	cfg := Config{Seed: 7}
	cfg.SetDefaults()
	return cfg
}

func TestRegisterCourierSpawnsWithinRadius(t *testing.T) {
	r := New(testConfig(), logger.NopLogger{})
	c := r.RegisterCourier("alice", &fakeSender{})
	if c.ID != "C-alice" {
		t.Fatalf("id = %s", c.ID)
	}
	if c.Status != model.CourierAvailable {
		t.Fatalf("status = %v", c.Status)
	}
	center := model.Coordinates{Lat: 48.8566, Lon: 2.3522}
	if d := model.Haversine(center, c.Position); d > 5.1 {
		t.Fatalf("spawned %.2f km from center", d)
	}
}

func TestRegisterCourierOverwriteKeepsStats(t *testing.T) {
	r := New(testConfig(), logger.NopLogger{})
	first := &fakeSender{}
	r.RegisterCourier("alice", first)
	r.RecordDelivery("C-alice", 95)

	second := &fakeSender{}
	c := r.RegisterCourier("alice", second)
	if c.Completed != 1 || c.SatisfactionSum != 95 {
		t.Fatalf("stats lost on reconnect: %+v", c)
	}
	if err := r.SendToCourier("C-alice", protocol.Welcome("C-alice")); err != nil {
		t.Fatal(err)
	}
	if len(second.sent) != 1 || len(first.sent) != 0 {
		t.Fatal("send went to the stale session")
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	r := New(testConfig(), logger.NopLogger{})
	r.RegisterCourier("alice", &fakeSender{})
	r.Unregister("C-alice")
	r.Unregister("C-alice")
	if _, ok := r.Courier("C-alice"); ok {
		t.Fatal("courier still present")
	}
	if err := r.SendToCourier("C-alice", protocol.Welcome("x")); err == nil {
		t.Fatal("send to removed courier succeeded")
	}
}

func TestAvailableCouriersSnapshotOrder(t *testing.T) {
	r := New(testConfig(), logger.NopLogger{})
	r.RegisterCourier("a", &fakeSender{})
	r.RegisterCourier("b", &fakeSender{})
	r.RegisterCourier("c", &fakeSender{})
	if !r.SetCourierStatus("C-b", model.CourierAvailable, model.CourierBusy) {
		t.Fatal("CAS failed")
	}
	avail := r.AvailableCouriers()
	if len(avail) != 2 || avail[0].ID != "C-a" || avail[1].ID != "C-c" {
		t.Fatalf("snapshot = %+v", avail)
	}
	// Mutating the snapshot must not affect the registry.
	avail[0].Status = model.CourierOffline
	if c, _ := r.Courier("C-a"); c.Status != model.CourierAvailable {
		t.Fatal("snapshot aliases registry state")
	}
}

func TestSetCourierStatusCAS(t *testing.T) {
	r := New(testConfig(), logger.NopLogger{})
	r.RegisterCourier("a", &fakeSender{})
	if r.SetCourierStatus("C-a", model.CourierBusy, model.CourierAvailable) {
		t.Fatal("CAS from wrong state succeeded")
	}
	if !r.SetCourierStatus("C-a", model.CourierAvailable, model.CourierBusy) {
		t.Fatal("CAS from correct state failed")
	}
	if r.SetCourierStatus("C-missing", model.CourierAvailable, model.CourierBusy) {
		t.Fatal("CAS on missing courier succeeded")
	}
}

func TestBroadcastCouriersSurvivesSendErrors(t *testing.T) {
	r := New(testConfig(), logger.NopLogger{})
	bad := &fakeSender{err: errors.New("write: broken pipe")}
	good := &fakeSender{}
	r.RegisterCourier("bad", bad)
	r.RegisterCourier("good", good)
	r.BroadcastCouriers(protocol.Board(nil))
	if len(good.sent) != 1 {
		t.Fatal("healthy courier missed the broadcast")
	}
}

func TestSessionCounts(t *testing.T) {
	r := New(testConfig(), logger.NopLogger{})
	r.RegisterCourier("a", &fakeSender{})
	r.RegisterCustomer("k", &fakeSender{})
	r.RegisterCustomer("k2", &fakeSender{})
	couriers, customers := r.SessionCounts()
	if couriers != 1 || customers != 2 {
		t.Fatalf("counts = %d/%d", couriers, customers)
	}
}
