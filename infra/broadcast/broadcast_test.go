package broadcast

import (
	"net"
	"testing"
	"time"

	"github.com/swiftdrop/hub/core/model"
	"github.com/swiftdrop/hub/core/protocol"
	"github.com/swiftdrop/hub/infra/logger"
)

type staticSource []model.Courier

func (s staticSource) Couriers() []model.Courier { return s }

type captureBridge struct {
	samples []model.LocationSample
}

func (b *captureBridge) PublishLocation(s model.LocationSample) error {
	b.samples = append(b.samples, s)
	return nil
}

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestTickSendsOneDatagramPerCourier(t *testing.T) {
	recv := listenUDP(t)
	src := staticSource{
		{ID: "C-a", Position: model.Coordinates{Lat: 48.85, Lon: 2.35}},
		{ID: "C-b", Position: model.Coordinates{Lat: 48.86, Lon: 2.36}},
	}
	b := New(src, nil, Config{TargetAddr: recv.LocalAddr().String(), IntervalMS: 50}, logger.NopLogger{})
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	defer b.conn.Close()

	now := time.Now()
	b.tick(now)

	seen := map[string]model.LocationSample{}
	buf := make([]byte, 512)
	for range src {
		_ = recv.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := recv.ReadFromUDP(buf)
		if err != nil {
			t.Fatal(err)
		}
		msg, err := protocol.Decode(string(buf[:n]))
		if err != nil {
			t.Fatal(err)
		}
		sample, err := protocol.ParseLocation(msg)
		if err != nil {
			t.Fatal(err)
		}
		seen[sample.CourierID] = sample
	}
	for _, c := range src {
		s, ok := seen[c.ID]
		if !ok {
			t.Fatalf("no datagram for %s", c.ID)
		}
		// Positions travel with 6 decimal places; sub-meter drift is fine.
		if model.Haversine(s.Position, c.Position) > 0.001 {
			t.Fatalf("position for %s drifted: %+v vs %+v", c.ID, s.Position, c.Position)
		}
		if s.At.UnixMilli() != now.UnixMilli() {
			t.Fatalf("timestamp mismatch for %s", c.ID)
		}
	}
}

func TestTickForwardsToBridge(t *testing.T) {
	recv := listenUDP(t)
	src := staticSource{{ID: "C-a", Position: model.Coordinates{Lat: 48.85, Lon: 2.35}}}
	bridge := &captureBridge{}
	b := New(src, bridge, Config{TargetAddr: recv.LocalAddr().String(), IntervalMS: 50}, logger.NopLogger{})
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	defer b.conn.Close()

	b.tick(time.Now())
	if len(bridge.samples) != 1 || bridge.samples[0].CourierID != "C-a" {
		t.Fatalf("bridge samples = %+v", bridge.samples)
	}
}

func TestConfigDefaultsAndValidation(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	bad := Config{TargetAddr: "nonsense", IntervalMS: 10}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected address validation error")
	}
}
