package timeslot

import (
	"reflect"
	"testing"
	"time"

	"github.com/tyhsiao/bookline/internal/model"
)

func TestExtractSlots_TitlePatterns(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{"period prefixed with colon", "下午2:00", []string{"14:00"}},
		{"period prefixed bare hour", "下午3", []string{"15:00"}},
		{"plain 24h clock", "14:00 美甲", []string{"14:00"}},
		{"bare hour with suffix", "19時", []string{"19:00"}},
		{"hour with minute suffix", "14時30分", []string{"14:30"}},
		{"half past", "晚上7點半", []string{"19:30"}},
		{"morning marker noon wraps", "上午12:00", []string{"00:00"}},
		{"evening marker corrects clock time", "晚上 8:30 開放", []string{"20:30"}},
		{"multiple times in one title", "開放 10:00 14:00", []string{"10:00", "14:00"}},
		{"mixed markers", "早上9點 下午2點", []string{"09:00", "14:00"}},
		{"duplicate expressions collapse", "14:00 下午2:00", []string{"14:00"}},
		{"already 24h with pm marker unchanged", "下午14:00", []string{"14:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := ExtractSlots(tt.title, time.Time{})
			got := times(DedupeSorted(slots))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractSlots(%q) = %v, want %v", tt.title, got, tt.want)
			}
			for _, s := range slots {
				if s.Source != model.SlotFromTitle {
					t.Errorf("slot %s source = %s, want %s", s.Time, s.Source, model.SlotFromTitle)
				}
			}
		})
	}
}

func TestExtractSlots_FallbackFromStart(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	start := time.Date(2025, 7, 15, 9, 15, 0, 0, loc)

	slots := ExtractSlots("雙人預約", start)
	if len(slots) != 1 {
		t.Fatalf("expected one fallback slot, got %v", slots)
	}
	if slots[0].Time != "09:15" {
		t.Errorf("fallback slot time = %s, want 09:15", slots[0].Time)
	}
	if slots[0].Period != model.PeriodMorning {
		t.Errorf("fallback slot period = %s, want morning", slots[0].Period)
	}
	if slots[0].Source != model.SlotFromStart {
		t.Errorf("fallback slot source = %s, want %s", slots[0].Source, model.SlotFromStart)
	}
}

func TestExtractSlots_NoTimeNoStart(t *testing.T) {
	if slots := ExtractSlots("公休", time.Time{}); len(slots) != 0 {
		t.Errorf("expected no slots, got %v", slots)
	}
}

func TestExtractDaySlots_DedupAndOrder(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	events := []model.CalendarEvent{
		{ID: "1", Title: "下午2:00", Start: time.Date(2025, 7, 15, 14, 0, 0, 0, loc)},
		{ID: "2", Title: "10:00", Start: time.Date(2025, 7, 15, 10, 0, 0, 0, loc)},
		{ID: "3", Title: "14:00", Start: time.Date(2025, 7, 15, 14, 0, 0, 0, loc)},
		{ID: "4", Title: "無時間", Start: time.Date(2025, 7, 15, 16, 30, 0, 0, loc)},
	}

	got := times(ExtractDaySlots(events))
	want := []string{"10:00", "14:00", "16:30"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractDaySlots = %v, want %v", got, want)
	}
}

func TestExtractDaySlots_Idempotent(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	events := []model.CalendarEvent{
		{Title: "下午2:00 下午4:00", Start: time.Date(2025, 7, 15, 14, 0, 0, 0, loc)},
		{Title: "上午10點", Start: time.Date(2025, 7, 15, 10, 0, 0, 0, loc)},
	}

	first := ExtractDaySlots(events)
	second := ExtractDaySlots(events)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction drifted between runs: %v vs %v", first, second)
	}
}

func TestExtractDaySlots_AllDayEventHasNoFallback(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	events := []model.CalendarEvent{
		{Title: "公休", Start: time.Date(2025, 7, 15, 0, 0, 0, 0, loc), AllDay: true},
	}

	if got := ExtractDaySlots(events); len(got) != 0 {
		t.Errorf("all-day event without time pattern yielded slots: %v", got)
	}
}

func TestPeriodOf(t *testing.T) {
	tests := []struct {
		hhmm string
		want model.DayPeriod
	}{
		{"06:00", model.PeriodMorning},
		{"11:59", model.PeriodMorning},
		{"12:00", model.PeriodAfternoon},
		{"17:59", model.PeriodAfternoon},
		{"18:00", model.PeriodEvening},
		{"05:59", model.PeriodEvening},
		{"00:00", model.PeriodEvening},
	}

	for _, tt := range tests {
		if got := PeriodOf(tt.hhmm); got != tt.want {
			t.Errorf("PeriodOf(%s) = %s, want %s", tt.hhmm, got, tt.want)
		}
	}
}

func times(slots []model.TimeSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Time)
	}
	return out
}
