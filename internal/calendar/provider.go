package calendar

import (
	"context"
	"time"
)

// Event событие календаря
type Event struct {
	ID        string
	Title     string
	Start     time.Time
	End       time.Time
	Location  string
	Attendees []string
	Calendar  string
}

// Provider источник событий календаря
type Provider interface {
	Name() string
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	// FindEventByTitle ищет событие по названию (нестрогое совпадение по подстроке)
	FindEventByTitle(ctx context.Context, title string, around time.Time) (*Event, error)
}

// NullProvider заглушка: календарь не настроен
type NullProvider struct{}

func (NullProvider) Name() string { return "null" }

func (NullProvider) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	return nil, nil
}

func (NullProvider) FindEventByTitle(ctx context.Context, title string, around time.Time) (*Event, error) {
	return nil, nil
}
