// Package refresh owns the snapshot: one timer-driven goroutine fetches,
// filters and installs it; everyone else reads.
package refresh

import (
	"context"
	"time"

	"calticker/internal/calendar"
	"calticker/internal/config"
	"calticker/internal/filter"
	appLog "calticker/internal/log"
	"calticker/internal/model"
	"calticker/internal/pubsub"
)

// fetchTimeout bounds a single provider round trip. A refresh that takes
// longer is abandoned; the next tick retries.
const fetchTimeout = 30 * time.Second

// Loop drives the refresh cycle. All refreshes — scheduled ticks, the
// /refresh endpoint, client refresh messages — run on the one goroutine
// inside Run, so the Cell has exactly one writer. A failed fetch leaves
// the previous snapshot in place; the next tick is the only retry.
type Loop struct {
	provider calendar.Provider
	cfg      *config.Config
	cell     *Cell
	broker   *pubsub.Broker[model.Snapshot]

	// wake coalesces refresh requests: a poke while a refresh is already
	// pending is a no-op.
	wake chan struct{}

	now func() time.Time
}

// NewLoop wires the loop to its provider, snapshot cell and broker.
func NewLoop(provider calendar.Provider, cfg *config.Config, cell *Cell, broker *pubsub.Broker[model.Snapshot]) *Loop {
	return &Loop{
		provider: provider,
		cfg:      cfg,
		cell:     cell,
		broker:   broker,
		wake:     make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Trigger requests a refresh. Safe to call from any goroutine; requests
// arriving while one is already queued are coalesced.
func (l *Loop) Trigger() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run performs one immediate refresh, then serves triggers until ctx is
// done. The cron schedule (and any manual refresh surface) drives it by
// calling Trigger.
func (l *Loop) Run(ctx context.Context) {
	l.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
			l.refresh(ctx)
		}
	}
}

// refresh runs a single fetch-filter-install cycle.
func (l *Loop) refresh(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	now := l.now().In(l.cfg.Location())
	to := now.Add(time.Duration(l.cfg.Filters.HoursAhead) * time.Hour)

	raw, err := l.provider.Events(fetchCtx, now, to)
	if err != nil {
		appLog.Error("refresh failed; keeping previous snapshot", err)
		return
	}

	events := filter.Apply(raw, l.cfg, now)
	snap := model.Snapshot{Events: events, RefreshedAt: l.now()}

	l.cell.Replace(snap)
	l.broker.Publish(snap)

	appLog.Info("refreshed events", "count", len(events), "fetched", len(raw))
}
