// Package calendar defines the provider boundary: a read-only "list events
// between T1 and T2" capability. Implementations own their authentication.
package calendar

import (
	"context"
	"time"
)

// RawEvent is an event record as returned by a provider, before filtering
// and display transformation.
type RawEvent struct {
	ID           string
	Title        string
	Start        time.Time
	End          time.Time
	CalendarID   string
	CalendarName string
	IsAllDay     bool
	Location     string
	Description  string
	Status       string
}

// Provider lists upcoming events across all of its configured calendars.
//
// Implementations return events for [from, to) sorted by start time where
// the backend supports it; callers must not rely on ordering. A provider
// that can serve some calendars but not others returns the events it has;
// it returns an error only when nothing could be fetched.
type Provider interface {
	Events(ctx context.Context, from, to time.Time) ([]RawEvent, error)
	Close() error
}
