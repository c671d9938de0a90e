package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"calticker/internal/calendar"
	appLog "calticker/internal/log"
)

// maxOccurrencesPerEvent caps expansion of a single recurring event; the
// ticker window is hours, so hitting this means a broken rule.
const maxOccurrencesPerEvent = 1000

// expandWindow turns parsed events into concrete occurrences inside
// [from, to), handling RRULE recurrence, EXDATE exceptions and
// RECURRENCE-ID overrides, normalized into loc.
func expandWindow(events []parsedEvent, from, to time.Time, loc *time.Location) []calendar.RawEvent {
	// Overrides replace individual instances of their base event.
	overrides := make(map[string][]parsedEvent)
	bases := make([]parsedEvent, 0, len(events))
	for _, ev := range events {
		if ev.Recurrence != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		} else {
			bases = append(bases, ev)
		}
	}

	out := make([]calendar.RawEvent, 0, len(bases))
	for _, ev := range bases {
		if ev.RawRRule == "" {
			out = append(out, expandSingle(ev, overrides[ev.UID], from, to, loc)...)
			continue
		}
		out = append(out, expandRecurring(ev, overrides[ev.UID], from, to, loc)...)
	}
	return out
}

func expandSingle(ev parsedEvent, ovs []parsedEvent, from, to time.Time, loc *time.Location) []calendar.RawEvent {
	start, end := ev.Start, ev.End
	if o, ok := overrideFor(ovs, start); ok {
		ev, start, end = o, o.Start, o.End
	}
	if !overlaps(start, end, from, to) {
		return nil
	}
	return []calendar.RawEvent{makeRawEvent(ev, start, end, loc)}
}

func expandRecurring(ev parsedEvent, ovs []parsedEvent, from, to time.Time, loc *time.Location) []calendar.RawEvent {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("ics: RRULE parse failed", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Between works in the event's own location.
	times := set.Between(from.In(ev.Start.Location()), to.In(ev.Start.Location()), true)
	if len(times) > maxOccurrencesPerEvent {
		appLog.Error("ics: recurrence truncated", errors.New("occurrence cap reached"),
			"uid", ev.UID, "cap", maxOccurrencesPerEvent)
		times = times[:maxOccurrencesPerEvent]
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]calendar.RawEvent, 0, len(times))
	for _, start := range times {
		var end time.Time
		if ev.AllDay {
			day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			start = day
			end = day.Add(24 * time.Hour)
		} else {
			end = start.Add(dur)
		}

		inst, instStart, instEnd := ev, start, end
		if o, ok := overrideFor(ovs, start); ok {
			inst, instStart, instEnd = o, o.Start, o.End
		}
		out = append(out, makeRawEvent(inst, instStart, instEnd, loc))
	}
	return out
}

// overrideFor finds the override whose RECURRENCE-ID matches start exactly.
func overrideFor(ovs []parsedEvent, start time.Time) (parsedEvent, bool) {
	for _, o := range ovs {
		if o.Recurrence != nil && o.Recurrence.In(start.Location()).Equal(start) {
			return o, true
		}
	}
	return parsedEvent{}, false
}

func makeRawEvent(ev parsedEvent, start, end time.Time, loc *time.Location) calendar.RawEvent {
	startLocal := start.In(loc)
	name := ev.Source.Name
	if name == "" {
		name = ev.Source.ID
	}
	return calendar.RawEvent{
		// Recurring instances share a UID; key each one by its start.
		ID:           ev.UID + "/" + startLocal.Format(time.RFC3339),
		Title:        ev.Summary,
		Start:        startLocal,
		End:          end.In(loc),
		CalendarID:   ev.Source.ID,
		CalendarName: name,
		IsAllDay:     ev.AllDay,
		Location:     ev.Location,
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
