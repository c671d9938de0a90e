// Package filter turns raw provider records into the ordered, colour-coded
// event list the ticker displays.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"calticker/internal/calendar"
	"calticker/internal/config"
	"calticker/internal/model"
)

// Apply filters and transforms raw events per the configured rules:
//
//   - drop titles matching any exclude keyword (case-insensitive substring)
//   - drop all-day events unless include_all_day
//   - drop events starting after now+hours_ahead, and events already ended
//   - mark important on an important-keyword match
//   - assign a colour per source calendar, falling back to the default
//   - derive the human-readable time string
//
// Output is sorted by start time ascending; ties keep provider order.
func Apply(raw []calendar.RawEvent, cfg *config.Config, now time.Time) []model.Event {
	cutoff := now.Add(time.Duration(cfg.Filters.HoursAhead) * time.Hour)

	exclude := lowerAll(cfg.Filters.ExcludeKeywords)
	important := lowerAll(cfg.Filters.ImportantKeywords)

	out := make([]model.Event, 0, len(raw))
	for _, ev := range raw {
		if ev.IsAllDay && !cfg.Filters.IncludeAllDay {
			continue
		}
		if ev.Start.After(cutoff) {
			continue
		}
		// Events that already finished are stale on a ticker.
		if !ev.End.IsZero() && ev.End.Before(now) {
			continue
		}

		title := strings.ToLower(ev.Title)
		if containsAny(title, exclude) {
			continue
		}

		minsUntil := int(ev.Start.Sub(now).Minutes())

		out = append(out, model.Event{
			ID:           ev.ID,
			Title:        ev.Title,
			Start:        ev.Start,
			End:          ev.End,
			TimeStr:      timeString(ev.Start, minsUntil, cfg.Display),
			MinsUntil:    minsUntil,
			CalendarID:   ev.CalendarID,
			CalendarName: ev.CalendarName,
			Colour:       cfg.ColourFor(ev.CalendarID),
			IsAllDay:     ev.IsAllDay,
			IsImportant:  containsAny(title, important),
			Location:     ev.Location,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})

	return out
}

// timeString renders the start time: relative ("in 20 mins", "in 2 hours")
// for events starting soon, otherwise a clock time per the configured
// format.
func timeString(start time.Time, minsUntil int, d config.Display) string {
	if minsUntil > 0 && minsUntil <= d.RelativeTimeThresholdMins {
		if minsUntil < 60 {
			return fmt.Sprintf("in %d %s", minsUntil, plural("min", minsUntil))
		}
		hours := minsUntil / 60
		return fmt.Sprintf("in %d %s", hours, plural("hour", hours))
	}

	if d.TimeFormat == "24h" {
		return start.Format("15:04")
	}
	return strings.ToLower(start.Format("3:04 PM"))
}

func plural(unit string, n int) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
