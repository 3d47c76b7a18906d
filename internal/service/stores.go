package service

import (
	"context"
	"time"

	"github.com/tyhsiao/bookline/internal/model"
)

// EventSource fetches the events of one calendar inside a window.
type EventSource interface {
	GetEvents(ctx context.Context, calendarID string, start, end time.Time) ([]model.CalendarEvent, error)
}

// BookingStore is the bookings side of the tabular store.
type BookingStore interface {
	Create(ctx context.Context, b *model.BookingRecord) error
	AttachCalendarEvent(ctx context.Context, bookingID, eventID string) error
	All(ctx context.Context) ([]model.BookingRecord, error)
}

// CustomerStore is the customers side of the tabular store.
type CustomerStore interface {
	RecordBooking(ctx context.Context, c *model.Customer) error
	All(ctx context.Context) ([]model.Customer, error)
}

// EventWriter creates the booking-calendar event for a committed booking.
type EventWriter interface {
	CreateBookingEvent(ctx context.Context, b *model.BookingRecord) (string, error)
}

// Notifier dispatches best-effort confirmation notifications.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b *model.BookingRecord) error
}
