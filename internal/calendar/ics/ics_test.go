package ics

import (
	"strings"
	"testing"
	"time"

	"calticker/internal/config"
)

var src = config.ICSSource{ID: "home", Name: "Home", URL: "https://example.com/home.ics"}

// icsBody joins VEVENT blocks into a calendar with CRLF line endings.
func icsBody(events ...string) []byte {
	doc := "BEGIN:VCALENDAR\nVERSION:2.0\nPRODID:-//calticker test//EN\n" +
		strings.Join(events, "") + "END:VCALENDAR\n"
	return []byte(strings.ReplaceAll(doc, "\n", "\r\n"))
}

func TestParseFeed(t *testing.T) {
	t.Run("timed event", func(t *testing.T) {
		body := icsBody("BEGIN:VEVENT\nUID:evt-1\nSUMMARY:Dentist\nDTSTART:20260901T090000Z\nDTEND:20260901T100000Z\nLOCATION:Clinic\nEND:VEVENT\n")

		events, err := parseFeed(src, body)
		if err != nil {
			t.Fatalf("parseFeed: %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("got %d events", len(events))
		}
		ev := events[0]
		if ev.UID != "evt-1" || ev.Summary != "Dentist" || ev.Location != "Clinic" {
			t.Errorf("event = %+v", ev)
		}
		if ev.AllDay {
			t.Error("timed event marked all-day")
		}
		want := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
		if !ev.Start.Equal(want) {
			t.Errorf("Start = %v, want %v", ev.Start, want)
		}
	})

	t.Run("all-day via VALUE=DATE", func(t *testing.T) {
		body := icsBody("BEGIN:VEVENT\nUID:evt-2\nSUMMARY:Holiday\nDTSTART;VALUE=DATE:20260902\nDTEND;VALUE=DATE:20260903\nEND:VEVENT\n")

		events, err := parseFeed(src, body)
		if err != nil {
			t.Fatalf("parseFeed: %v", err)
		}
		if len(events) != 1 || !events[0].AllDay {
			t.Fatalf("expected one all-day event, got %+v", events)
		}
	})

	t.Run("missing UID skipped, rest kept", func(t *testing.T) {
		body := icsBody(
			"BEGIN:VEVENT\nSUMMARY:No UID\nDTSTART:20260901T090000Z\nDTEND:20260901T100000Z\nEND:VEVENT\n",
			"BEGIN:VEVENT\nUID:evt-3\nSUMMARY:Kept\nDTSTART:20260901T110000Z\nDTEND:20260901T120000Z\nEND:VEVENT\n",
		)

		events, err := parseFeed(src, body)
		if err != nil {
			t.Fatalf("parseFeed: %v", err)
		}
		if len(events) != 1 || events[0].Summary != "Kept" {
			t.Fatalf("events = %+v", events)
		}
	})

	t.Run("cancelled event skipped", func(t *testing.T) {
		body := icsBody("BEGIN:VEVENT\nUID:evt-4\nSUMMARY:Gone\nSTATUS:CANCELLED\nDTSTART:20260901T090000Z\nDTEND:20260901T100000Z\nEND:VEVENT\n")

		events, err := parseFeed(src, body)
		if err != nil {
			t.Fatalf("parseFeed: %v", err)
		}
		if len(events) != 0 {
			t.Fatalf("cancelled event survived: %+v", events)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		if _, err := parseFeed(src, nil); err == nil {
			t.Fatal("expected error for empty body")
		}
	})
}

func TestExpandWindow(t *testing.T) {
	loc := time.UTC

	t.Run("single event inside window", func(t *testing.T) {
		ev := parsedEvent{
			Source:  src,
			UID:     "evt-1",
			Summary: "Dentist",
			Start:   time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
			End:     time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		}
		from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		to := from.Add(24 * time.Hour)

		out := expandWindow([]parsedEvent{ev}, from, to, loc)
		if len(out) != 1 || out[0].Title != "Dentist" {
			t.Fatalf("out = %+v", out)
		}
		if out[0].CalendarID != "home" || out[0].CalendarName != "Home" {
			t.Errorf("source mapping wrong: %+v", out[0])
		}
	})

	t.Run("single event outside window", func(t *testing.T) {
		ev := parsedEvent{
			Source: src,
			UID:    "evt-1",
			Start:  time.Date(2026, 9, 5, 9, 0, 0, 0, time.UTC),
			End:    time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC),
		}
		from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

		out := expandWindow([]parsedEvent{ev}, from, from.Add(24*time.Hour), loc)
		if len(out) != 0 {
			t.Fatalf("out-of-window event expanded: %+v", out)
		}
	})

	t.Run("daily recurrence", func(t *testing.T) {
		ev := parsedEvent{
			Source:   src,
			UID:      "evt-r",
			Summary:  "Standup",
			Start:    time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
			End:      time.Date(2026, 9, 1, 9, 15, 0, 0, time.UTC),
			RawRRule: "FREQ=DAILY;COUNT=10",
		}
		from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)

		out := expandWindow([]parsedEvent{ev}, from, to, loc)
		if len(out) != 3 {
			t.Fatalf("got %d occurrences, want 3: %+v", len(out), out)
		}
		// Same UID, distinct per-instance IDs.
		if out[0].ID == out[1].ID {
			t.Errorf("occurrence IDs collide: %q", out[0].ID)
		}
		if dur := out[1].End.Sub(out[1].Start); dur != 15*time.Minute {
			t.Errorf("occurrence duration = %v, want 15m", dur)
		}
	})

	t.Run("exdate removes an instance", func(t *testing.T) {
		ev := parsedEvent{
			Source:   src,
			UID:      "evt-r",
			Summary:  "Standup",
			Start:    time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
			End:      time.Date(2026, 9, 1, 9, 15, 0, 0, time.UTC),
			RawRRule: "FREQ=DAILY;COUNT=10",
			ExDates:  []time.Time{time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)},
		}
		from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)

		out := expandWindow([]parsedEvent{ev}, from, to, loc)
		if len(out) != 2 {
			t.Fatalf("got %d occurrences, want 2 after EXDATE: %+v", len(out), out)
		}
	})
}

func TestParseICSTime(t *testing.T) {
	t.Run("utc", func(t *testing.T) {
		got, err := parseICSTime("20260901T090000Z")
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)) {
			t.Errorf("got %v", got)
		}
	})
	t.Run("date only", func(t *testing.T) {
		got, err := parseICSTime("20260901")
		if err != nil {
			t.Fatal(err)
		}
		if got.Year() != 2026 || got.Month() != 9 || got.Day() != 1 {
			t.Errorf("got %v", got)
		}
	})
	t.Run("empty", func(t *testing.T) {
		if _, err := parseICSTime(""); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://example.com/private/feed.ics?token=abcd")
	if strings.Contains(got, "token") || !strings.HasPrefix(got, "https://example.com") {
		t.Errorf("redactURL = %q", got)
	}
}
