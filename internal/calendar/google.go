package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/tyhsiao/bookline/internal/model"
)

// googleTransport is the primary transport: the official Calendar v3
// client with recurring events expanded and page tokens honoured.
type googleTransport struct {
	svc *gcal.Service
	loc *time.Location
}

func newGoogleTransport(svc *gcal.Service, loc *time.Location) *googleTransport {
	return &googleTransport{svc: svc, loc: loc}
}

func (t *googleTransport) List(ctx context.Context, calendarID string, start, end time.Time, maxResults int64, pageToken string) (*eventsPage, error) {
	call := t.svc.Events.List(calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("events.list %s: %w", calendarID, err)
	}

	page := &eventsPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Status == "cancelled" {
			continue
		}
		ev, err := t.adapt(calendarID, item)
		if err != nil {
			continue
		}
		page.Events = append(page.Events, ev)
	}
	return page, nil
}

func (t *googleTransport) adapt(calendarID string, item *gcal.Event) (model.CalendarEvent, error) {
	allDay := item.Start != nil && item.Start.Date != ""

	startDT, startD := eventTimeParts(item.Start)
	start, err := parseEventTime(startDT, startD, t.loc)
	if err != nil {
		return model.CalendarEvent{}, err
	}
	endDT, endD := eventTimeParts(item.End)
	end, err := parseEventTime(endDT, endD, t.loc)
	if err != nil {
		// Date-only events may omit the end; an all-day event covers
		// its whole day.
		if allDay {
			end = start.AddDate(0, 0, 1)
		} else {
			end = start.Add(time.Hour)
		}
	}

	return model.CalendarEvent{
		ID:         item.Id,
		Title:      item.Summary,
		Start:      start,
		End:        end,
		AllDay:     allDay,
		CalendarID: calendarID,
	}, nil
}

func eventTimeParts(edt *gcal.EventDateTime) (dateTime, date string) {
	if edt == nil {
		return "", ""
	}
	return edt.DateTime, edt.Date
}
