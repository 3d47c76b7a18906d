package model

import "time"

// BookingRecord is one committed appointment, persisted in the tabular
// store. Immutable once written, except CalendarEventID which is attached
// after the linked booking-calendar event is created.
type BookingRecord struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"` // opaque external identity
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Date            string    `json:"date"` // "2006-01-02"
	Time            string    `json:"time"` // "15:04"
	Services        []string  `json:"services"`
	Removal         string    `json:"removal"`
	Extension       string    `json:"extension"`
	Remarks         string    `json:"remarks"`
	CreatedAt       time.Time `json:"created_at"`
	CalendarEventID string    `json:"calendar_event_id,omitempty"`
}
