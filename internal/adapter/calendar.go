package adapter

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	DefaultCalendarEndpoint = "https://www.googleapis.com/calendar/v3/"

	maxEvents = 50
)

type Calendar struct {
	client
	now func() time.Time
}

func NewCalendar(httpClient *http.Client, baseURL string) *Calendar {
	return &Calendar{
		client: newClient(ProviderCalendar, httpClient, baseURL),
		now:    time.Now,
	}
}

// UpcomingEvents returns single events from the primary calendar starting
// now, ordered by start time.
func (c *Calendar) UpcomingEvents(ctx context.Context, token string, max int) ([]CalendarEvent, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(c.bearer(ctx, token)), option.WithEndpoint(c.baseURL))
	if err != nil {
		return nil, classify(c.provider, "create service", err)
	}

	if err := c.wait(ctx, tokenKey(token)); err != nil {
		return nil, err
	}
	events, err := svc.Events.List("primary").
		TimeMin(c.now().UTC().Format(time.RFC3339)).
		MaxResults(int64(clamp(max, maxEvents, maxEvents))).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(c.provider, "list events", err)
	}

	out := make([]CalendarEvent, 0, len(events.Items))
	for _, item := range events.Items {
		ev := CalendarEvent{
			ID:          item.Id,
			Title:       item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Link:        item.HtmlLink,
			Attendees:   make([]string, 0, len(item.Attendees)),
		}
		if ev.Title == "" {
			ev.Title = "Untitled Event"
		}
		ev.Start, ev.AllDay = eventTime(item.Start)
		ev.End, _ = eventTime(item.End)
		for _, a := range item.Attendees {
			if a != nil && a.Email != "" {
				ev.Attendees = append(ev.Attendees, a.Email)
			}
		}
		out = append(out, ev)
	}
	return out, nil
}

// eventTime prefers the timed value; all-day events only carry a date.
func eventTime(t *calendar.EventDateTime) (string, bool) {
	if t == nil {
		return "", false
	}
	if t.DateTime != "" {
		return t.DateTime, false
	}
	return t.Date, t.Date != ""
}
