package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/tyhsiao/bookline/internal/apperror"
	"github.com/tyhsiao/bookline/internal/model"
)

// maxPages caps the pagination loop; a pathological token stream must not
// hold a request open indefinitely.
const maxPages = 20

// Source fetches calendar events through the primary transport, degrading
// to the fallback transport and finally to an empty result. It never
// panics past this boundary: slot display degrades to "show nothing".
type Source struct {
	primary  transport
	fallback transport // nil when no fallback is configured
	tuning   Tuning
	logger   *zap.Logger
}

func NewSource(primary, fallback transport, tuning Tuning, logger *zap.Logger) *Source {
	return &Source{
		primary:  primary,
		fallback: fallback,
		tuning:   tuning,
		logger:   logger,
	}
}

// NewGoogleSource wires the official Calendar v3 client as primary and,
// when an API key is configured, the plain REST transport as fallback.
func NewGoogleSource(ctx context.Context, credentialsFile, apiKey string, loc *time.Location, tuning Tuning, logger *zap.Logger) (*Source, error) {
	opts := []option.ClientOption{option.WithScopes(gcal.CalendarReadonlyScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	var fallback transport
	if apiKey != "" {
		fallback = newRESTTransport(apiKey, loc)
	}

	return NewSource(newGoogleTransport(svc, loc), fallback, tuning, logger), nil
}

// GetEvents returns the events of one calendar inside [start, end). On
// total upstream failure it returns an empty slice together with an
// UpstreamUnavailable error so display callers can degrade and commit
// callers can refuse.
func (s *Source) GetEvents(ctx context.Context, calendarID string, start, end time.Time) ([]model.CalendarEvent, error) {
	plan := planQuery(start, end, s.tuning)

	events, err := s.fetchPrimary(ctx, calendarID, start, end, plan)
	if err == nil {
		return events, nil
	}
	s.logger.Warn("Primary calendar fetch failed, trying fallback",
		zap.String("calendar_id", calendarID),
		zap.Error(err),
	)

	if s.fallback != nil {
		page, ferr := s.fallback.List(ctx, calendarID, start, end, int64(s.tuning.MaxPageSize), "")
		if ferr == nil {
			return page.Events, nil
		}
		s.logger.Error("Fallback calendar fetch failed",
			zap.String("calendar_id", calendarID),
			zap.Error(ferr),
		)
	}

	return []model.CalendarEvent{}, apperror.UpstreamUnavailable(
		fmt.Sprintf("calendar %s unreachable", calendarID))
}

func (s *Source) fetchPrimary(ctx context.Context, calendarID string, start, end time.Time, plan queryPlan) ([]model.CalendarEvent, error) {
	if !plan.Paginate {
		page, err := s.listPage(ctx, calendarID, start, end, plan.PageSize, "")
		if err != nil {
			return nil, err
		}
		return page.Events, nil
	}

	var events []model.CalendarEvent
	token := ""
	for page := 0; page < maxPages; page++ {
		p, err := s.listPage(ctx, calendarID, start, end, plan.PageSize, token)
		if err != nil {
			if page == 0 {
				// Nothing accumulated yet; let the fallback have a go.
				return nil, err
			}
			s.logger.Warn("Page fetch failed, returning accumulated events",
				zap.String("calendar_id", calendarID),
				zap.Int("pages_fetched", page),
				zap.Int("events", len(events)),
				zap.Error(err),
			)
			return events, nil
		}
		events = append(events, p.Events...)
		token = p.NextPageToken
		if token == "" {
			return events, nil
		}
	}

	s.logger.Warn("Pagination stopped at hard page cap",
		zap.String("calendar_id", calendarID),
		zap.Int("max_pages", maxPages),
		zap.Int("events", len(events)),
	)
	return events, nil
}

// listPage fetches one page with a short fibonacci backoff around
// transient transport errors.
func (s *Source) listPage(ctx context.Context, calendarID string, start, end time.Time, maxResults int64, token string) (*eventsPage, error) {
	var page *eventsPage
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(200*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := s.primary.List(ctx, calendarID, start, end, maxResults, token)
		if err != nil {
			return retry.RetryableError(err)
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}
