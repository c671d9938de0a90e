// Package ics implements the calendar provider against subscribed ICS
// feeds: HTTP fetch with disk caching, VEVENT parsing and recurrence
// expansion into the requested window.
package ics

import (
	"context"
	"sort"
	"time"

	"calticker/internal/calendar"
	"calticker/internal/config"
	appLog "calticker/internal/log"
)

// Provider fetches and expands events from ICS subscription feeds.
type Provider struct {
	fetcher *Fetcher
	sources []config.ICSSource
	loc     *time.Location
}

// New creates an ICS provider. cacheDir backs the HTTP cache so feeds keep
// serving through network failures.
func New(sources []config.ICSSource, cacheDir string, loc *time.Location) *Provider {
	if loc == nil {
		loc = time.Local
	}
	return &Provider{
		fetcher: NewFetcher(cacheDir),
		sources: sources,
		loc:     loc,
	}
}

// Events fetches every configured feed and expands occurrences within
// [from, to). A feed that fails is logged and skipped; the call fails only
// when every feed failed.
func (p *Provider) Events(ctx context.Context, from, to time.Time) ([]calendar.RawEvent, error) {
	results, errs := p.fetcher.FetchAll(ctx, p.sources)
	if len(results) == 0 && len(errs) > 0 {
		return nil, errs[0]
	}

	parsed := make([]parsedEvent, 0)
	for _, res := range results {
		events, err := parseFeed(res.Source, res.Body)
		if err != nil {
			appLog.Error("ics: feed parse failed", err, "id", res.Source.ID)
			continue
		}
		parsed = append(parsed, events...)
	}

	out := expandWindow(parsed, from, to, p.loc)

	// Feeds may interleave; give callers a consistent order anyway.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})

	return out, nil
}

// Close releases provider resources. The fetcher has nothing to close.
func (p *Provider) Close() error { return nil }
