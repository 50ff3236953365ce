package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleCredentials OAuth2 credentials с refresh token
type GoogleCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
	RefreshToken string `json:"refresh_token"`
}

// GoogleProvider провайдер календаря через Google Calendar API
type GoogleProvider struct {
	service     *gcal.Service
	calendarIDs []string
}

// NewGoogleProvider создает провайдер из файла credentials
func NewGoogleProvider(ctx context.Context, credsPath string, calendarIDs []string) (*GoogleProvider, error) {
	data, err := os.ReadFile(credsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar credentials %s: %w", credsPath, err)
	}
	var creds GoogleCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse calendar credentials: %w", err)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       []string{gcal.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}
	token := &oauth2.Token{RefreshToken: creds.RefreshToken}
	httpClient := oauthCfg.Client(ctx, token)

	service, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	if len(calendarIDs) == 0 {
		calendarIDs = []string{"primary"}
	}
	return &GoogleProvider{service: service, calendarIDs: calendarIDs}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	var all []Event
	for _, calendarID := range p.calendarIDs {
		resp, err := p.service.Events.List(calendarID).
			Context(ctx).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(50).
			Do()
		if err != nil {
			log.Printf("⚠️ failed to fetch events from calendar %s: %v", calendarID, err)
			continue
		}
		for _, item := range resp.Items {
			all = append(all, mapGoogleEvent(item, calendarID))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })
	return all, nil
}

func (p *GoogleProvider) FindEventByTitle(ctx context.Context, title string, around time.Time) (*Event, error) {
	if around.IsZero() {
		around = time.Now()
	}
	from := around.Add(-7 * 24 * time.Hour)
	to := around.Add(30 * 24 * time.Hour)

	events, err := p.ListEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(title)
	for i := range events {
		if strings.Contains(strings.ToLower(events[i].Title), needle) {
			return &events[i], nil
		}
	}
	return nil, nil
}

func mapGoogleEvent(item *gcal.Event, calendarID string) Event {
	ev := Event{
		ID:       item.Id,
		Title:    item.Summary,
		Location: item.Location,
		Calendar: calendarID,
	}
	if ev.Title == "" {
		ev.Title = "(No title)"
	}
	if item.Start != nil {
		ev.Start = parseEventTime(item.Start.DateTime, item.Start.Date)
	}
	if item.End != nil {
		ev.End = parseEventTime(item.End.DateTime, item.End.Date)
	}
	for _, a := range item.Attendees {
		if a.Email != "" {
			ev.Attendees = append(ev.Attendees, a.Email)
		} else if a.DisplayName != "" {
			ev.Attendees = append(ev.Attendees, a.DisplayName)
		}
	}
	return ev
}

func parseEventTime(dateTime, date string) time.Time {
	if dateTime != "" {
		if t, err := time.Parse(time.RFC3339, dateTime); err == nil {
			return t
		}
	}
	if date != "" {
		if t, err := time.Parse("2006-01-02", date); err == nil {
			return t
		}
	}
	return time.Time{}
}
