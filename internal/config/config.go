package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider selects which calendar backend the refresh loop talks to.
const (
	ProviderGoogle = "google"
	ProviderICS    = "ics"
)

// ICSSource describes a single ICS subscription feed.
type ICSSource struct {
	// ID is an internal identifier used for colour lookup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown on the ticker.
	Name string `yaml:"name" json:"name"`
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
}

// Filters controls which provider events survive the transform step.
type Filters struct {
	// HoursAhead is the lookahead window; events starting later are dropped.
	HoursAhead int `yaml:"hours_ahead" json:"hours_ahead"`
	// ImportantKeywords mark matching events as important (case-insensitive
	// substring match against the title).
	ImportantKeywords []string `yaml:"important_keywords" json:"important_keywords"`
	// ExcludeKeywords drop matching events entirely.
	ExcludeKeywords []string `yaml:"exclude_keywords" json:"exclude_keywords"`
	// IncludeAllDay keeps all-day events in the output.
	IncludeAllDay bool `yaml:"include_all_day" json:"include_all_day"`
}

// Display holds ticker rendering preferences. These are forwarded verbatim
// to connected clients inside every snapshot message.
type Display struct {
	// ScrollSpeed is the horizontal scroll rate in pixels per second.
	ScrollSpeed int `yaml:"scroll_speed" json:"scroll_speed"`
	// PauseDuration is reserved; it is carried on the wire but not
	// interpreted by the ticker.
	PauseDuration int `yaml:"pause_duration" json:"pause_duration"`
	// TimeFormat is "12h" or "24h".
	TimeFormat string `yaml:"time_format" json:"time_format"`
	// Position is "top" or "bottom".
	Position string `yaml:"position" json:"position"`
	// FontSize is the base event font size in pixels.
	FontSize int `yaml:"font_size" json:"font_size"`
	// ShowClock toggles the clock overlay.
	ShowClock bool `yaml:"show_clock" json:"show_clock"`
	// EventGap is the horizontal gap between events in pixels.
	EventGap int `yaml:"event_gap" json:"event_gap"`
	// RelativeTimeThresholdMins bounds how far ahead an event may start and
	// still get a relative "in N min" time string instead of a clock time.
	RelativeTimeThresholdMins int `yaml:"relative_time_threshold_mins" json:"relative_time_threshold_mins"`
}

// Config is the top-level application configuration. It is loaded once at
// startup and treated as read-only for the process lifetime.
type Config struct {
	// Listen is the HTTP listen address for the API and ticker UI.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display timezone (e.g. "Australia/Melbourne").
	Timezone string `yaml:"timezone" json:"timezone"`

	// Provider is "google" or "ics".
	Provider string `yaml:"provider" json:"provider"`

	// RefreshInterval is the number of seconds between calendar refreshes.
	RefreshInterval int `yaml:"refresh_interval" json:"refresh_interval"`

	// NoEventsMessage is shown by the ticker when the snapshot is empty.
	NoEventsMessage string `yaml:"no_events_message" json:"no_events_message"`

	// DefaultColour is used for calendars without a configured colour.
	DefaultColour string `yaml:"default_colour" json:"default_colour"`

	// Calendars is the list of Google calendar IDs ("primary" for the
	// account's main calendar). Used when Provider is "google".
	Calendars []string `yaml:"calendars" json:"calendars"`

	// ICS is the list of subscribed ICS feeds. Used when Provider is "ics".
	ICS []ICSSource `yaml:"ics" json:"ics"`

	// CalendarColours maps calendar ID to a display colour.
	CalendarColours map[string]string `yaml:"calendar_colours" json:"calendar_colours"`

	Filters Filters `yaml:"filters" json:"filters"`
	Display Display `yaml:"display" json:"display"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "0.0.0.0:8000",
		Timezone:        "Australia/Melbourne",
		Provider:        ProviderGoogle,
		RefreshInterval: 300,
		NoEventsMessage: "No upcoming events",
		DefaultColour:   "#9e9e9e",
		Calendars:       []string{"primary"},
		ICS:             []ICSSource{},
		CalendarColours: map[string]string{},
		Filters: Filters{
			HoursAhead:        24,
			ImportantKeywords: []string{},
			ExcludeKeywords:   []string{},
			IncludeAllDay:     true,
		},
		Display: Display{
			ScrollSpeed:               60,
			PauseDuration:             0,
			TimeFormat:                "12h",
			Position:                  "bottom",
			FontSize:                  48,
			ShowClock:                 true,
			EventGap:                  80,
			RelativeTimeThresholdMins: 120,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch c.Provider {
	case ProviderGoogle, ProviderICS:
	default:
		c.Provider = ProviderGoogle
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = def.RefreshInterval
	}
	if c.NoEventsMessage == "" {
		c.NoEventsMessage = def.NoEventsMessage
	}
	if c.DefaultColour == "" {
		c.DefaultColour = def.DefaultColour
	}
	if c.Calendars == nil {
		c.Calendars = def.Calendars
	}
	if c.ICS == nil {
		c.ICS = []ICSSource{}
	}
	if c.CalendarColours == nil {
		c.CalendarColours = map[string]string{}
	}
	if c.Filters.HoursAhead <= 0 {
		c.Filters.HoursAhead = def.Filters.HoursAhead
	}
	if c.Filters.ImportantKeywords == nil {
		c.Filters.ImportantKeywords = []string{}
	}
	if c.Filters.ExcludeKeywords == nil {
		c.Filters.ExcludeKeywords = []string{}
	}
	if c.Display.ScrollSpeed <= 0 {
		c.Display.ScrollSpeed = def.Display.ScrollSpeed
	}
	switch c.Display.TimeFormat {
	case "12h", "24h":
	default:
		c.Display.TimeFormat = def.Display.TimeFormat
	}
	switch c.Display.Position {
	case "top", "bottom":
	default:
		c.Display.Position = def.Display.Position
	}
	if c.Display.FontSize <= 0 {
		c.Display.FontSize = def.Display.FontSize
	}
	if c.Display.EventGap <= 0 {
		c.Display.EventGap = def.Display.EventGap
	}
	if c.Display.RelativeTimeThresholdMins <= 0 {
		c.Display.RelativeTimeThresholdMins = def.Display.RelativeTimeThresholdMins
	}
}

// RefreshEvery returns the refresh interval as a duration.
func (c *Config) RefreshEvery() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}

// Location resolves the configured timezone, falling back to time.Local on
// an invalid name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ColourFor returns the display colour for a calendar ID, falling back to
// the default colour when the calendar has no mapping.
func (c *Config) ColourFor(calendarID string) string {
	if colour, ok := c.CalendarColours[calendarID]; ok && colour != "" {
		return colour
	}
	return c.DefaultColour
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (creating
// the parent directory if needed) and returned. If it exists, it is
// unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path atomically (temp file + rename)
// with 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calticker-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
