// Package timeslot extracts offered time slots from calendar event titles
// and matches them against booking-calendar events.
package timeslot

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tyhsiao/bookline/internal/model"
)

// timePattern is one recognised natural-language time expression. Patterns
// are applied in order and a later pattern never claims text already
// matched by an earlier one, so "下午2:00" yields 14:00 once instead of
// 14:00 plus a spurious 02:00.
type timePattern struct {
	re    *regexp.Regexp
	parse func(m []string, title string) (hour, minute int, ok bool)
}

var patterns = []timePattern{
	{
		// Period-prefixed hour: 下午2, 上午10:30, 晚上7點半.
		re: regexp.MustCompile(`(上午|早上|下午|晚上)\s*(\d{1,2})(?::(\d{2})|[點点時时](?:(\d{1,2})分?|(半))?)?`),
		parse: func(m []string, _ string) (int, int, bool) {
			hour, err := strconv.Atoi(m[2])
			if err != nil {
				return 0, 0, false
			}
			minute := 0
			switch {
			case m[3] != "":
				minute, _ = strconv.Atoi(m[3])
			case m[4] != "":
				minute, _ = strconv.Atoi(m[4])
			case m[5] != "":
				minute = 30
			}
			return correctHour(hour, m[1]), minute, true
		},
	},
	{
		// 24-hour clock: 14:00.
		re: regexp.MustCompile(`(\d{1,2}):(\d{2})`),
		parse: func(m []string, title string) (int, int, bool) {
			hour, _ := strconv.Atoi(m[1])
			minute, _ := strconv.Atoi(m[2])
			return correctHour(hour, titleMarker(title)), minute, true
		},
	},
	{
		// Bare hour with 點/時 suffix: 2點, 14時30分, 7點半.
		re: regexp.MustCompile(`(\d{1,2})[點点時时](?:(\d{1,2})分?|(半))?`),
		parse: func(m []string, title string) (int, int, bool) {
			hour, _ := strconv.Atoi(m[1])
			minute := 0
			switch {
			case m[2] != "":
				minute, _ = strconv.Atoi(m[2])
			case m[3] != "":
				minute = 30
			}
			return correctHour(hour, titleMarker(title)), minute, true
		},
	},
}

// correctHour applies the 12-hour to 24-hour correction for a day-period
// marker: afternoon/evening below 12 gains 12, morning 12 becomes 0.
func correctHour(hour int, marker string) int {
	switch marker {
	case "下午", "晚上":
		if hour < 12 {
			return hour + 12
		}
	case "上午", "早上":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

// titleMarker reports the day-period marker a title carries, if any, for
// correcting matches that have no marker of their own.
func titleMarker(title string) string {
	for _, m := range []string{"下午", "晚上", "上午", "早上"} {
		if strings.Contains(title, m) {
			return m
		}
	}
	return ""
}

// ExtractSlots parses every time expression out of one event title. A title
// may declare several times. When nothing parses, the event's own start
// time is used as a single fallback slot; a zero eventStart suppresses the
// fallback (all-day events carry no meaningful start time).
func ExtractSlots(title string, eventStart time.Time) []model.TimeSlot {
	var (
		slots   []model.TimeSlot
		seen    = map[string]bool{}
		claimed [][2]int
	)

	for _, p := range patterns {
		idxs := p.re.FindAllStringSubmatchIndex(title, -1)
		for _, idx := range idxs {
			span := [2]int{idx[0], idx[1]}
			if overlapsClaimed(span, claimed) {
				continue
			}
			m := submatches(title, idx, p.re.NumSubexp()+1)
			hour, minute, ok := p.parse(m, title)
			if !ok || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
				continue
			}
			claimed = append(claimed, span)
			hhmm := fmt.Sprintf("%02d:%02d", hour, minute)
			if seen[hhmm] {
				continue
			}
			seen[hhmm] = true
			slots = append(slots, model.TimeSlot{
				Time:   hhmm,
				Period: PeriodOf(hhmm),
				Source: model.SlotFromTitle,
			})
		}
	}

	if len(slots) == 0 && !eventStart.IsZero() {
		hhmm := eventStart.Format("15:04")
		slots = append(slots, model.TimeSlot{
			Time:   hhmm,
			Period: PeriodOf(hhmm),
			Source: model.SlotFromStart,
		})
	}

	return slots
}

// ExtractDaySlots collects the deduplicated, chronologically sorted slot
// list declared by one day's source-calendar events. First occurrence of a
// HH:MM wins.
func ExtractDaySlots(events []model.CalendarEvent) []model.TimeSlot {
	var all []model.TimeSlot
	for _, ev := range events {
		start := ev.Start
		if ev.AllDay {
			start = time.Time{}
		}
		all = append(all, ExtractSlots(ev.Title, start)...)
	}
	return DedupeSorted(all)
}

// DedupeSorted deduplicates slots by HH:MM (first wins) and sorts them
// ascending. Lexicographic order on zero-padded HH:MM is chronological.
func DedupeSorted(slots []model.TimeSlot) []model.TimeSlot {
	seen := map[string]bool{}
	out := make([]model.TimeSlot, 0, len(slots))
	for _, s := range slots {
		if seen[s.Time] {
			continue
		}
		seen[s.Time] = true
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// PeriodOf classifies a HH:MM into its day period.
func PeriodOf(hhmm string) model.DayPeriod {
	hour, _, err := parseHHMM(hhmm)
	if err != nil {
		return model.PeriodEvening
	}
	switch {
	case hour >= 6 && hour < 12:
		return model.PeriodMorning
	case hour >= 12 && hour < 18:
		return model.PeriodAfternoon
	default:
		return model.PeriodEvening
	}
}

func overlapsClaimed(span [2]int, claimed [][2]int) bool {
	for _, c := range claimed {
		if span[0] < c[1] && span[1] > c[0] {
			return true
		}
	}
	return false
}

func submatches(s string, idx []int, n int) []string {
	m := make([]string, n)
	for i := 0; i < n && 2*i+1 < len(idx); i++ {
		if idx[2*i] >= 0 {
			m[i] = s[idx[2*i]:idx[2*i+1]]
		}
	}
	return m
}

func parseHHMM(hhmm string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
