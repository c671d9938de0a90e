// Package google implements the calendar provider against the Google
// Calendar API with OAuth2 installed-app credentials.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"calticker/internal/calendar"
	appLog "calticker/internal/log"
)

const scope = gcal.CalendarReadonlyScope

// maxResultsPerCalendar bounds a single list call; the lookahead window is
// short enough that one page is always sufficient.
const maxResultsPerCalendar = 50

// Options configures the Google provider.
type Options struct {
	// CredentialsPath is the OAuth client secret file (from the Google
	// Cloud console).
	CredentialsPath string
	// TokenPath is the stored user token obtained by a prior interactive
	// authorization. A missing or expired-beyond-refresh token is a
	// startup error; the token flow itself is owned by the operator.
	TokenPath string
	// CalendarIDs lists the calendars to fetch ("primary" for the main one).
	CalendarIDs []string
	// Location is the display timezone used for all-day date parsing.
	Location *time.Location
}

// Provider fetches events from the Google Calendar API.
type Provider struct {
	svc           *gcal.Service
	calendarIDs   []string
	calendarNames map[string]string
	loc           *time.Location
}

// New authenticates against the Google Calendar API and resolves calendar
// display names. Missing or unreadable credentials are returned as errors;
// the caller treats them as fatal.
func New(ctx context.Context, opts Options) (*Provider, error) {
	if len(opts.CalendarIDs) == 0 {
		return nil, errors.New("google: no calendars configured")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	client, err := oauthClient(ctx, opts.CredentialsPath, opts.TokenPath)
	if err != nil {
		return nil, err
	}

	svc, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("google: create service: %w", err)
	}

	p := &Provider{
		svc:           svc,
		calendarIDs:   opts.CalendarIDs,
		calendarNames: map[string]string{},
		loc:           loc,
	}
	p.loadCalendarNames(ctx)

	return p, nil
}

func oauthClient(ctx context.Context, credentialsPath, tokenPath string) (*http.Client, error) {
	secret, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("google: read credentials %s: %w", credentialsPath, err)
	}
	conf, err := googleauth.ConfigFromJSON(secret, scope)
	if err != nil {
		return nil, fmt.Errorf("google: parse credentials: %w", err)
	}

	tokenData, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("google: read token %s (run the authorization flow first): %w", tokenPath, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenData, &tok); err != nil {
		return nil, fmt.Errorf("google: parse token %s: %w", tokenPath, err)
	}

	return conf.Client(ctx, &tok), nil
}

// loadCalendarNames resolves human-readable names for the configured
// calendars. Failure is non-fatal; IDs are used as names instead.
func (p *Provider) loadCalendarNames(ctx context.Context) {
	list, err := p.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		appLog.Error("google: calendar list failed; using IDs as names", err)
		return
	}
	for _, item := range list.Items {
		name := item.Summary
		if name == "" {
			name = item.Id
		}
		p.calendarNames[item.Id] = name
	}
}

// Events lists events from every configured calendar within [from, to).
// A calendar that fails is logged and skipped; the call fails only when
// every calendar failed.
func (p *Provider) Events(ctx context.Context, from, to time.Time) ([]calendar.RawEvent, error) {
	var (
		out     []calendar.RawEvent
		failed  int
		lastErr error
	)

	for _, id := range p.calendarIDs {
		items, err := p.listCalendar(ctx, id, from, to)
		if err != nil {
			failed++
			lastErr = err
			appLog.Error("google: calendar fetch failed", err, "calendar_id", id)
			continue
		}
		out = append(out, items...)
	}

	if failed == len(p.calendarIDs) {
		return nil, fmt.Errorf("google: all %d calendars failed: %w", failed, lastErr)
	}
	return out, nil
}

func (p *Provider) listCalendar(ctx context.Context, id string, from, to time.Time) ([]calendar.RawEvent, error) {
	result, err := p.svc.Events.List(id).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResultsPerCalendar).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	name := p.calendarNames[id]
	if name == "" {
		name = id
	}

	events := make([]calendar.RawEvent, 0, len(result.Items))
	for _, item := range result.Items {
		if item.Status == "cancelled" {
			continue
		}

		start, allDay := p.parseEventTime(item.Start)
		end, _ := p.parseEventTime(item.End)

		title := item.Summary
		if title == "" {
			title = "Untitled Event"
		}

		events = append(events, calendar.RawEvent{
			ID:           item.Id,
			Title:        title,
			Start:        start,
			End:          end,
			CalendarID:   id,
			CalendarName: name,
			IsAllDay:     allDay,
			Location:     item.Location,
			Description:  item.Description,
			Status:       item.Status,
		})
	}

	appLog.Debug("google: calendar fetched", "calendar_id", id, "event_count", len(events))
	return events, nil
}

// parseEventTime handles both timed events (dateTime) and all-day events,
// which carry a bare date instead.
func (p *Provider) parseEventTime(edt *gcal.EventDateTime) (time.Time, bool) {
	if edt == nil {
		return time.Now().In(p.loc), false
	}
	if edt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", edt.Date, p.loc)
		if err != nil {
			return time.Now().In(p.loc), true
		}
		return t, true
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err == nil {
			return t, false
		}
	}
	return time.Now().In(p.loc), false
}

// Close releases provider resources. The API client has nothing to close.
func (p *Provider) Close() error { return nil }
