package leaderboard

import (
	"testing"

	"github.com/swiftdrop/hub/core/model"
	"github.com/swiftdrop/hub/core/protocol"
	"github.com/swiftdrop/hub/infra/logger"
)

func courier(id string, completed, satSum int) model.Courier {
	return model.Courier{ID: id, Name: id, Completed: completed, SatisfactionSum: satSum}
}

func TestTopRanksByCompletedThenSatisfaction(t *testing.T) {
	couriers := []model.Courier{
		courier("a", 2, 150), // avg 75
		courier("b", 5, 400), // avg 80
		courier("c", 5, 475), // avg 95
		courier("d", 1, 100), // avg 100
		courier("e", 0, 0),   // never delivered
	}
	got := Top(couriers, 10)
	want := []string{"c", "b", "a", "d", "e"}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("rank %d = %s, want %s (full: %+v)", i, got[i].Name, name, got)
		}
	}
}

func TestTopTruncatesToN(t *testing.T) {
	couriers := []model.Courier{
		courier("a", 3, 300),
		courier("b", 2, 200),
		courier("c", 1, 100),
	}
	got := Top(couriers, 2)
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "b" {
		t.Fatalf("top 2 = %+v", got)
	}
}

func TestTopEqualStatsStableById(t *testing.T) {
	couriers := []model.Courier{
		courier("z", 4, 360),
		courier("a", 4, 360),
	}
	got := Top(couriers, 5)
	if got[0].Name != "a" || got[1].Name != "z" {
		t.Fatalf("order = %+v", got)
	}
}

type fakePush struct{ msgs []protocol.Message }

func (f *fakePush) BroadcastCouriers(m protocol.Message) { f.msgs = append(f.msgs, m) }

type fakeSrc struct{ couriers []model.Courier }

func (f *fakeSrc) Couriers() []model.Courier { return f.couriers }

func TestPushOnceSkipsEmptyFleet(t *testing.T) {
	push := &fakePush{}
	cfg := Config{}
	cfg.SetDefaults()
	u := NewUpdater(&fakeSrc{}, push, cfg, logger.NopLogger{})
	u.pushOnce()
	if len(push.msgs) != 0 {
		t.Fatal("broadcast with no couriers")
	}
}

func TestPushOnceBroadcastsBoard(t *testing.T) {
	push := &fakePush{}
	cfg := Config{TopN: 1}
	cfg.SetDefaults()
	u := NewUpdater(&fakeSrc{couriers: []model.Courier{courier("a", 1, 90)}}, push, cfg, logger.NopLogger{})
	u.pushOnce()
	if len(push.msgs) != 1 || push.msgs[0].Tag != protocol.TagBoard {
		t.Fatalf("msgs = %+v", push.msgs)
	}
}
