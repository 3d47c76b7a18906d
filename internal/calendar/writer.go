package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/tyhsiao/bookline/internal/model"
)

// Writer creates the booking-calendar event linked to a committed booking.
// Creation is best-effort from the commit protocol's point of view.
type Writer struct {
	svc           *gcal.Service
	calendarID    string
	loc           *time.Location
	durationHours float64
}

func NewWriter(svc *gcal.Service, calendarID string, loc *time.Location, durationHours float64) *Writer {
	return &Writer{
		svc:           svc,
		calendarID:    calendarID,
		loc:           loc,
		durationHours: durationHours,
	}
}

// NewGoogleWriter builds a Writer with its own read-write client.
func NewGoogleWriter(ctx context.Context, credentialsFile, calendarID string, loc *time.Location, durationHours float64) (*Writer, error) {
	opts := []option.ClientOption{option.WithScopes(gcal.CalendarEventsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return NewWriter(svc, calendarID, loc, durationHours), nil
}

// CreateBookingEvent inserts one event for the booking and returns the
// upstream event id, which the caller attaches to the stored record.
func (w *Writer) CreateBookingEvent(ctx context.Context, b *model.BookingRecord) (string, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, w.loc)
	if err != nil {
		return "", fmt.Errorf("parse booking time: %w", err)
	}
	end := start.Add(time.Duration(w.durationHours * float64(time.Hour)))

	summary := b.Name
	if len(b.Services) > 0 {
		summary = fmt.Sprintf("%s %s", b.Name, strings.Join(b.Services, "、"))
	}

	ev := &gcal.Event{
		Summary:     summary,
		Description: fmt.Sprintf("booking %s\nphone: %s\nremarks: %s", b.ID, b.Phone, b.Remarks),
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}

	created, err := w.svc.Events.Insert(w.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("events.insert: %w", err)
	}
	return created.Id, nil
}
