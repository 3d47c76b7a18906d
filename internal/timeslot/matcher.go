package timeslot

import (
	"time"

	"github.com/tyhsiao/bookline/internal/model"
)

// CheckAvailability computes one (date, time) pair's availability against
// the booking calendar's events for that day.
//
// The slot occupies the half-open window [slotStart, slotStart+duration);
// an event conflicts iff slotStart < eventEnd && slotEnd > eventStart, so
// boundary-touching events never conflict. All-day events occupy the whole
// day and conflict with every slot. Pure function; results must never be
// memoized across queries.
func CheckAvailability(bookingEvents []model.CalendarEvent, date time.Time, hhmm string, durationHours float64, loc *time.Location) model.AvailabilityRecord {
	local := date.In(loc)
	rec := model.AvailabilityRecord{
		Date: local.Format("2006-01-02"),
		Time: hhmm,
	}

	hour, minute, err := parseHHMM(hhmm)
	if err != nil {
		// An unparseable slot time can never be booked.
		return rec
	}

	y, m, d := local.Date()
	slotStart := time.Date(y, m, d, hour, minute, 0, 0, loc)
	slotEnd := slotStart.Add(time.Duration(durationHours * float64(time.Hour)))

	for _, ev := range bookingEvents {
		if ev.AllDay {
			rec.ConflictCount++
			rec.Conflicts = append(rec.Conflicts, ev)
			continue
		}
		evEnd := ev.End
		if evEnd.IsZero() {
			evEnd = ev.Start.Add(time.Hour)
		}
		if slotStart.Before(evEnd) && slotEnd.After(ev.Start) {
			rec.ConflictCount++
			rec.Conflicts = append(rec.Conflicts, ev)
		}
	}

	rec.Available = rec.ConflictCount == 0
	return rec
}
