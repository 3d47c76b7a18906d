package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tyhsiao/bookline/internal/model"
)

const restAPIBase = "https://www.googleapis.com/calendar/v3"

// restTransport is the fallback: a minimal single-shot REST call with no
// pagination, used only when the primary transport has failed outright.
type restTransport struct {
	httpClient *http.Client
	apiKey     string
	base       string
	loc        *time.Location
}

func newRESTTransport(apiKey string, loc *time.Location) *restTransport {
	return &restTransport{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		base:       restAPIBase,
		loc:        loc,
	}
}

func (t *restTransport) List(ctx context.Context, calendarID string, start, end time.Time, maxResults int64, _ string) (*eventsPage, error) {
	endpoint := fmt.Sprintf("%s/calendars/%s/events", t.base, url.PathEscape(calendarID))

	params := url.Values{}
	params.Set("timeMin", start.Format(time.RFC3339))
	params.Set("timeMax", end.Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))
	params.Set("key", t.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("calendar API error: %d - %s", resp.StatusCode, string(body))
	}

	var listResp restListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, err
	}

	page := &eventsPage{}
	for _, item := range listResp.Items {
		if item.Status == "cancelled" {
			continue
		}
		allDay := item.Start.Date != ""
		start, err := parseEventTime(item.Start.DateTime, item.Start.Date, t.loc)
		if err != nil {
			continue
		}
		end, err := parseEventTime(item.End.DateTime, item.End.Date, t.loc)
		if err != nil {
			if allDay {
				end = start.AddDate(0, 0, 1)
			} else {
				end = start.Add(time.Hour)
			}
		}
		page.Events = append(page.Events, model.CalendarEvent{
			ID:         item.ID,
			Title:      item.Summary,
			Start:      start,
			End:        end,
			AllDay:     allDay,
			CalendarID: calendarID,
		})
	}
	return page, nil
}

type restListResponse struct {
	Items []restEvent `json:"items"`
}

type restEvent struct {
	ID      string        `json:"id"`
	Summary string        `json:"summary"`
	Status  string        `json:"status"`
	Start   restEventTime `json:"start"`
	End     restEventTime `json:"end"`
}

type restEventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
	TimeZone string `json:"timeZone"`
}

// parseEventTime handles the two upstream time representations: RFC3339
// dateTime for timed events and bare dates for all-day events, normalised
// into the engine's fixed zone.
func parseEventTime(dateTime, date string, loc *time.Location) (time.Time, error) {
	if dateTime != "" {
		t, err := time.Parse(time.RFC3339, dateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse dateTime %q: %w", dateTime, err)
		}
		return t.In(loc), nil
	}
	if date != "" {
		t, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("event time missing")
}
