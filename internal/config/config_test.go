package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RefreshInterval != 300 {
		t.Errorf("RefreshInterval = %d, want default 300", cfg.RefreshInterval)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file perms = %o, want 600", perm)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
listen: "127.0.0.1:9000"
refresh_interval: 60
calendars: ["primary", "family@example.com"]
calendar_colours:
  primary: "#4f9cf9"
filters:
  hours_ahead: 12
  exclude_keywords: ["lunch"]
display:
  time_format: "24h"
  position: "sideways"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Listen != "127.0.0.1:9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.RefreshEvery() != time.Minute {
		t.Errorf("RefreshEvery = %v, want 1m", cfg.RefreshEvery())
	}
	if cfg.Filters.HoursAhead != 12 {
		t.Errorf("HoursAhead = %d", cfg.Filters.HoursAhead)
	}
	if len(cfg.Filters.ExcludeKeywords) != 1 || cfg.Filters.ExcludeKeywords[0] != "lunch" {
		t.Errorf("ExcludeKeywords = %v", cfg.Filters.ExcludeKeywords)
	}
	// Unset and invalid values get defaults.
	if cfg.NoEventsMessage == "" {
		t.Error("NoEventsMessage not defaulted")
	}
	if cfg.Display.Position != "bottom" {
		t.Errorf("invalid position normalized to %q, want bottom", cfg.Display.Position)
	}
	if cfg.Display.ScrollSpeed != 60 {
		t.Errorf("ScrollSpeed = %d, want default 60", cfg.Display.ScrollSpeed)
	}
	if cfg.Display.TimeFormat != "24h" {
		t.Errorf("TimeFormat = %q, want 24h kept", cfg.Display.TimeFormat)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Provider = ProviderICS
	cfg.ICS = []ICSSource{{ID: "home", Name: "Home", URL: "https://example.com/home.ics"}}
	cfg.CalendarColours = map[string]string{"home": "#00ff00"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Provider != ProviderICS {
		t.Errorf("Provider = %q", got.Provider)
	}
	if len(got.ICS) != 1 || got.ICS[0].URL != "https://example.com/home.ics" {
		t.Errorf("ICS = %+v", got.ICS)
	}
	if got.ColourFor("home") != "#00ff00" {
		t.Errorf("ColourFor(home) = %q", got.ColourFor("home"))
	}
	if got.ColourFor("unknown") != got.DefaultColour {
		t.Errorf("ColourFor(unknown) = %q, want default", got.ColourFor("unknown"))
	}
}
