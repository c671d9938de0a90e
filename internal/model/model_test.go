package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"calticker/internal/config"
)

func TestNewEventsMessage(t *testing.T) {
	cfg := config.DefaultConfig()

	t.Run("empty snapshot serializes with empty array and null refreshed_at", func(t *testing.T) {
		msg := NewEventsMessage(Snapshot{}, cfg)

		data, err := json.Marshal(msg)
		if err != nil {
			t.Fatal(err)
		}
		s := string(data)
		if !strings.Contains(s, `"type":"events"`) {
			t.Errorf("missing type: %s", s)
		}
		if !strings.Contains(s, `"data":[]`) {
			t.Errorf("data must be [] not null: %s", s)
		}
		if !strings.Contains(s, `"refreshed_at":null`) {
			t.Errorf("refreshed_at must be null before first refresh: %s", s)
		}
	})

	t.Run("carries display config and no-events message", func(t *testing.T) {
		snap := Snapshot{
			Events:      []Event{{ID: "1", Title: "x"}},
			RefreshedAt: time.Now(),
		}
		msg := NewEventsMessage(snap, cfg)

		if msg.RefreshedAt == nil || len(msg.Data) != 1 {
			t.Fatalf("msg = %+v", msg)
		}
		if msg.Config.NoEventsMessage != cfg.NoEventsMessage {
			t.Errorf("NoEventsMessage = %q", msg.Config.NoEventsMessage)
		}
		if msg.Config.Display.ScrollSpeed != cfg.Display.ScrollSpeed {
			t.Errorf("Display not forwarded: %+v", msg.Config.Display)
		}
	})
}
