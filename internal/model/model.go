package model

import (
	"time"

	"calticker/internal/config"
)

// Event is a single ticker entry as sent to clients. It is produced by the
// filter/transform step from a provider record and is immutable after that;
// every refresh discards the previous list wholesale.
type Event struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// TimeStr is the human-readable start time ("in 20 mins", "3:05 pm").
	TimeStr string `json:"time_str"`
	// MinsUntil is the whole number of minutes until the event starts;
	// negative once it has started.
	MinsUntil int `json:"mins_until"`

	CalendarID   string `json:"calendar_id"`
	CalendarName string `json:"calendar_name"`

	Colour      string `json:"colour"`
	IsAllDay    bool   `json:"is_all_day"`
	IsImportant bool   `json:"is_important"`

	Location string `json:"location,omitempty"`
}

// Snapshot pairs the current event list with the time it was produced.
// Exactly one snapshot is current at any time; a failed refresh keeps the
// previous one in place.
type Snapshot struct {
	Events      []Event
	RefreshedAt time.Time
}

// ClientConfig is the configuration subset forwarded to clients inside
// every snapshot message.
type ClientConfig struct {
	Display         config.Display `json:"display"`
	NoEventsMessage string         `json:"no_events_message"`
}

// EventsMessage is the single server-to-client message kind, sent on
// connect and on every refresh.
type EventsMessage struct {
	Type        string       `json:"type"` // always "events"
	Data        []Event      `json:"data"`
	RefreshedAt *time.Time   `json:"refreshed_at"`
	Config      ClientConfig `json:"config"`
}

// NewEventsMessage builds the wire message for a snapshot.
func NewEventsMessage(snap Snapshot, cfg *config.Config) EventsMessage {
	msg := EventsMessage{
		Type: "events",
		Data: snap.Events,
		Config: ClientConfig{
			Display:         cfg.Display,
			NoEventsMessage: cfg.NoEventsMessage,
		},
	}
	if msg.Data == nil {
		msg.Data = []Event{}
	}
	if !snap.RefreshedAt.IsZero() {
		t := snap.RefreshedAt
		msg.RefreshedAt = &t
	}
	return msg
}
