// Package leaderboard periodically ranks courier performance and pushes the
// snapshot to every connected courier. Pure read of registry state.
package leaderboard

import (
	"context"
	"sort"
	"time"

	"github.com/swiftdrop/hub/core/logger"
	"github.com/swiftdrop/hub/core/model"
	"github.com/swiftdrop/hub/core/protocol"
)

// Source yields a snapshot of all registered couriers.
type Source interface {
	Couriers() []model.Courier
}

// Pusher fans a record out to every connected courier.
type Pusher interface {
	BroadcastCouriers(protocol.Message)
}

// Config controls ranking cadence and snapshot size.
type Config struct {
	IntervalSeconds int `json:"interval_seconds"`
	TopN            int `json:"top_n"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 30
	}
	if c.TopN <= 0 {
		c.TopN = 5
	}
}

// Top ranks couriers by completed deliveries descending, ties broken by
// average satisfaction descending, then by id for a stable order, and
// returns at most n entries.
func Top(couriers []model.Courier, n int) []protocol.BoardEntry {
	ranked := append([]model.Courier(nil), couriers...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Completed != ranked[j].Completed {
			return ranked[i].Completed > ranked[j].Completed
		}
		ai, aj := ranked[i].AvgSatisfaction(), ranked[j].AvgSatisfaction()
		if ai != aj {
			return ai > aj
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	entries := make([]protocol.BoardEntry, len(ranked))
	for i, c := range ranked {
		entries[i] = protocol.BoardEntry{
			Name:         c.Name,
			Completed:    c.Completed,
			Satisfaction: c.AvgSatisfaction(),
		}
	}
	return entries
}

// Updater runs the periodic ranking push.
type Updater struct {
	src      Source
	push     Pusher
	interval time.Duration
	topN     int
	log      logger.Logger
}

// NewUpdater creates an Updater. cfg must have been defaulted.
func NewUpdater(src Source, push Pusher, cfg Config, log logger.Logger) *Updater {
	return &Updater{
		src:      src,
		push:     push,
		interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		topN:     cfg.TopN,
		log:      log,
	}
}

// Run pushes snapshots until the context is canceled.
func (u *Updater) Run(ctx context.Context) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.pushOnce()
		}
	}
}

func (u *Updater) pushOnce() {
	couriers := u.src.Couriers()
	if len(couriers) == 0 {
		return
	}
	entries := Top(couriers, u.topN)
	u.push.BroadcastCouriers(protocol.Board(entries))
	u.log.Debugf("pushed leaderboard with %d entries", len(entries))
}
