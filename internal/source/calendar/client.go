// Package calendar lists events from Google Calendar.
package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/nhle/branch-tracker/internal/model"
	"github.com/nhle/branch-tracker/internal/source"
)

// Client implements source.EventLister on the Calendar v3 API.
type Client struct {
	svc *gcal.Service
}

var _ source.EventLister = (*Client)(nil)

// NewClient creates a Calendar client authorized by ts.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	return NewClientWithOptions(ctx, option.WithTokenSource(ts))
}

// NewClientWithOptions creates a Calendar client from raw API options.
func NewClientWithOptions(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListEvents returns single (expanded recurring) events of calendarID
// starting in [start, end), ordered by start time. Only the first page
// of up to max events is read.
func (c *Client) ListEvents(
	ctx context.Context,
	calendarID string,
	start, end time.Time,
	max int64,
) ([]model.Event, error) {
	resp, err := c.svc.Events.List(calendarID).
		TimeMin(start.UTC().Format(time.RFC3339)).
		TimeMax(end.UTC().Format(time.RFC3339)).
		MaxResults(max).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing events of %s: %w", calendarID, err)
	}

	events := make([]model.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, toEvent(item))
	}
	return events, nil
}

// toEvent maps an API event to model.Event. All-day events carry a
// date, timed events a date-time.
func toEvent(item *gcal.Event) model.Event {
	ev := model.Event{
		Title:       item.Summary,
		Description: item.Description,
	}
	if ev.Title == "" {
		ev.Title = model.DefaultEventTitle
	}
	if item.Start != nil {
		ev.Date = item.Start.DateTime
		if ev.Date == "" {
			ev.Date = item.Start.Date
		}
	}
	return ev
}
