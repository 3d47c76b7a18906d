package model

// AvailabilityRecord is the result of checking one (date, time) pair against
// the booking calendar. Computed on demand, never persisted.
type AvailabilityRecord struct {
	Date          string          `json:"date"` // "2006-01-02"
	Time          string          `json:"time"` // "15:04"
	Available     bool            `json:"available"`
	ConflictCount int             `json:"conflict_count"`
	Conflicts     []CalendarEvent `json:"conflicts,omitempty"`
}
