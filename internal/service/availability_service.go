package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tyhsiao/bookline/internal/apperror"
	"github.com/tyhsiao/bookline/internal/model"
	"github.com/tyhsiao/bookline/internal/timeslot"
)

const dateLayout = "2006-01-02"

// AvailabilitySettings carries the orchestration knobs.
type AvailabilitySettings struct {
	SourceCalendarID  string
	BookingCalendarID string
	SlotDurationHours float64
	BusinessOpenHour  int
	BusinessCloseHour int
	MaxRangeDays      int
	Location          *time.Location
}

// AvailabilityService reconciles the two calendars into per-day, per-time
// availability. Availability is never cached; only event lists may be.
type AvailabilityService struct {
	source   EventSource
	settings AvailabilitySettings
	logger   *zap.Logger
}

func NewAvailabilityService(source EventSource, settings AvailabilitySettings, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		source:   source,
		settings: settings,
		logger:   logger,
	}
}

// DayAvailability is one date's slice of a batch result. A day whose
// source calendar declared no slots carries an empty (non-nil) Slots map;
// a day that failed carries Error and a nil map.
type DayAvailability struct {
	Slots map[string]model.AvailabilityRecord `json:"slots"`
	Error string                              `json:"error,omitempty"`
}

// BatchResult is the nested per-date, per-time availability map. Warning
// is set when an upstream fetch degraded to partial or empty results.
type BatchResult struct {
	Days    map[string]DayAvailability `json:"days"`
	Warning string                     `json:"warning,omitempty"`
}

// CheckDay answers the single-day query: each requested HH:MM checked
// against that day's booking-calendar events.
func (s *AvailabilityService) CheckDay(ctx context.Context, date string, times []string) (map[string]model.AvailabilityRecord, error) {
	day, err := time.ParseInLocation(dateLayout, date, s.settings.Location)
	if err != nil {
		return nil, apperror.InvalidDateFormat(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date))
	}
	for _, hhmm := range times {
		if _, err := time.Parse("15:04", hhmm); err != nil {
			return nil, apperror.InvalidDateFormat(fmt.Sprintf("invalid time %q, want HH:MM", hhmm))
		}
	}

	winStart, winEnd := s.dayWindow(day)
	events, err := s.source.GetEvents(ctx, s.settings.BookingCalendarID, winStart, winEnd)
	if err != nil {
		// The caller decides whether to degrade; availability shown
		// without booking data would overpromise.
		return nil, fmt.Errorf("fetch booking calendar: %w", err)
	}

	result := make(map[string]model.AvailabilityRecord, len(times))
	for _, hhmm := range times {
		result[hhmm] = timeslot.CheckAvailability(events, day, hhmm, s.settings.SlotDurationHours, s.settings.Location)
	}
	return result, nil
}

// CheckSlot is the commit protocol's re-validation: one (date, time) pair,
// fetched fresh, never cached.
func (s *AvailabilityService) CheckSlot(ctx context.Context, date, hhmm string) (model.AvailabilityRecord, error) {
	recs, err := s.CheckDay(ctx, date, []string{hhmm})
	if err != nil {
		return model.AvailabilityRecord{}, err
	}
	return recs[hhmm], nil
}

// BatchAvailability answers the multi-day query with exactly two upstream
// fetches regardless of the day count: one per calendar, then bucketed by
// local date.
func (s *AvailabilityService) BatchAvailability(ctx context.Context, startDate, endDate string) (*BatchResult, error) {
	start, err := time.ParseInLocation(dateLayout, startDate, s.settings.Location)
	if err != nil {
		return nil, apperror.InvalidDateFormat(fmt.Sprintf("invalid start date %q, want YYYY-MM-DD", startDate))
	}
	end, err := time.ParseInLocation(dateLayout, endDate, s.settings.Location)
	if err != nil {
		return nil, apperror.InvalidDateFormat(fmt.Sprintf("invalid end date %q, want YYYY-MM-DD", endDate))
	}
	if end.Before(start) {
		return nil, apperror.InvalidDateFormat("end date before start date")
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days > s.settings.MaxRangeDays {
		return nil, apperror.RangeTooLarge(
			fmt.Sprintf("range of %d days exceeds the maximum of %d", days, s.settings.MaxRangeDays),
			map[string]any{"days": days, "max_days": s.settings.MaxRangeDays},
		)
	}

	// One shared time-of-day window for the whole range: business hours
	// intersected with day boundaries, instead of scanning 24h per day.
	rangeStart := start.Add(time.Duration(s.settings.BusinessOpenHour) * time.Hour)
	rangeEnd := end.Add(time.Duration(s.settings.BusinessCloseHour) * time.Hour)

	result := &BatchResult{Days: make(map[string]DayAvailability, days)}

	sourceEvents, err := s.source.GetEvents(ctx, s.settings.SourceCalendarID, rangeStart, rangeEnd)
	if err != nil {
		s.logger.Warn("Source calendar degraded to partial results", zap.Error(err))
		result.Warning = "calendar temporarily unavailable, offered slots may be incomplete"
	}
	bookingEvents, bookingErr := s.source.GetEvents(ctx, s.settings.BookingCalendarID, rangeStart, rangeEnd)
	if bookingErr != nil {
		s.logger.Warn("Booking calendar unavailable, availability unknown", zap.Error(bookingErr))
		result.Warning = "calendar temporarily unavailable, availability may be incomplete"
	}

	sourceByDay := s.bucketByStartDay(sourceEvents)
	bookingByDay := s.bucketBySpannedDays(bookingEvents)

	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		key := day.Format(dateLayout)
		if bookingErr != nil {
			// Without booking data every slot would come back free;
			// unknown state must not read as available.
			result.Days[key] = DayAvailability{Error: "booking calendar unavailable"}
			continue
		}
		result.Days[key] = s.dayAvailability(day, sourceByDay[key], bookingByDay[key])
	}

	return result, nil
}

// dayAvailability computes one day in isolation; a failure is confined to
// that day's entry rather than aborting the rest of the range.
func (s *AvailabilityService) dayAvailability(day time.Time, sourceEvents, bookingEvents []model.CalendarEvent) (out DayAvailability) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Per-day availability failed",
				zap.String("date", day.Format(dateLayout)),
				zap.Any("panic", r),
			)
			out = DayAvailability{Error: fmt.Sprintf("availability computation failed: %v", r)}
		}
	}()

	slots := timeslot.ExtractDaySlots(sourceEvents)
	records := make(map[string]model.AvailabilityRecord, len(slots))
	for _, slot := range slots {
		records[slot.Time] = timeslot.CheckAvailability(bookingEvents, day, slot.Time, s.settings.SlotDurationHours, s.settings.Location)
	}
	return DayAvailability{Slots: records}
}

// dayWindow narrows one day's query window to business hours.
func (s *AvailabilityService) dayWindow(day time.Time) (time.Time, time.Time) {
	return day.Add(time.Duration(s.settings.BusinessOpenHour) * time.Hour),
		day.Add(time.Duration(s.settings.BusinessCloseHour) * time.Hour)
}

// bucketByStartDay groups events under their local start date. Offered
// slots are declared by same-day events.
func (s *AvailabilityService) bucketByStartDay(events []model.CalendarEvent) map[string][]model.CalendarEvent {
	byDay := make(map[string][]model.CalendarEvent)
	for _, ev := range events {
		key := ev.Start.In(s.settings.Location).Format(dateLayout)
		byDay[key] = append(byDay[key], ev)
	}
	return byDay
}

// bucketBySpannedDays groups events under every local date they cover, so
// a multi-day booking blocks each of its days.
func (s *AvailabilityService) bucketBySpannedDays(events []model.CalendarEvent) map[string][]model.CalendarEvent {
	byDay := make(map[string][]model.CalendarEvent)
	for _, ev := range events {
		startLocal := ev.Start.In(s.settings.Location)
		day := time.Date(startLocal.Year(), startLocal.Month(), startLocal.Day(), 0, 0, 0, 0, s.settings.Location)
		end := ev.End
		if end.IsZero() || !end.After(ev.Start) {
			end = ev.Start.Add(time.Hour)
		}
		// End is exclusive: an event ending exactly at midnight does not
		// spill into the next day.
		for d := day; d.Before(end); d = d.AddDate(0, 0, 1) {
			key := d.Format(dateLayout)
			byDay[key] = append(byDay[key], ev)
		}
	}
	return byDay
}
