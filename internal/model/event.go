package model

import "time"

// CalendarEvent is an immutable snapshot of one upstream calendar event.
// It is populated only by the calendar adapter; downstream code never sees
// provider-specific representations.
type CalendarEvent struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	AllDay     bool      `json:"all_day"`
	CalendarID string    `json:"calendar_id"`
}
