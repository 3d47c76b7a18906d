package model

type DayPeriod string

const (
	PeriodMorning   DayPeriod = "morning"   // 06:00–11:59
	PeriodAfternoon DayPeriod = "afternoon" // 12:00–17:59
	PeriodEvening   DayPeriod = "evening"
)

type SlotSource string

const (
	SlotFromTitle SlotSource = "title"
	SlotFromStart SlotSource = "start_time"
)

// TimeSlot is one bookable time-of-day candidate on a given date.
// Slots are keyed by their HH:MM string; uniqueness is per day.
type TimeSlot struct {
	Time   string     `json:"time"` // "15:04"
	Period DayPeriod  `json:"period"`
	Source SlotSource `json:"source"`
}
