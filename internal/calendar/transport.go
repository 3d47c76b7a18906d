// Package calendar fetches events from the upstream calendar service,
// choosing between one direct request and an adaptive paginated strategy,
// with a simpler fallback transport when the primary API fails.
package calendar

import (
	"context"
	"time"

	"github.com/tyhsiao/bookline/internal/model"
)

// eventsPage is one page of adapted events plus the continuation token.
type eventsPage struct {
	Events        []model.CalendarEvent
	NextPageToken string
}

// transport lists events for one calendar and window. Implementations
// adapt their provider representation into model.CalendarEvent at this
// boundary so nothing downstream branches on representation.
type transport interface {
	List(ctx context.Context, calendarID string, start, end time.Time, maxResults int64, pageToken string) (*eventsPage, error)
}
