package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tyhsiao/bookline/internal/apperror"
	"github.com/tyhsiao/bookline/internal/cache"
	"github.com/tyhsiao/bookline/internal/model"
)

// SlotChecker re-validates a single slot straight against the booking
// calendar. The commit protocol never trusts a cached availability result.
type SlotChecker interface {
	CheckSlot(ctx context.Context, date, hhmm string) (model.AvailabilityRecord, error)
}

// BookingRequest is the payload of one commit attempt. The CSRF token is
// checked for presence at the transport layer; verification is delegated.
type BookingRequest struct {
	UserID    string   `json:"userId"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Services  []string `json:"services"`
	Removal   string   `json:"removal"`
	Extension string   `json:"extension"`
	Remarks   string   `json:"remarks"`
}

// BookingService runs the commit protocol: lock, re-validate, persist,
// invalidate caches, then best-effort linking and notification.
//
// The lock is a bounded-wait in-process mutex. A caller retrying after a
// LockTimeout may duplicate a booking whose first attempt succeeded after
// the caller gave up waiting; that tradeoff is accepted.
type BookingService struct {
	availability SlotChecker
	bookings     BookingStore
	customers    CustomerStore
	caches       *cache.Service
	writer       EventWriter // nil disables event linking
	notifier     Notifier    // nil disables notifications
	logger       *zap.Logger

	lock     chan struct{}
	lockWait time.Duration
	now      func() time.Time
}

func NewBookingService(
	availability SlotChecker,
	bookings BookingStore,
	customers CustomerStore,
	caches *cache.Service,
	writer EventWriter,
	notifier Notifier,
	lockWait time.Duration,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		availability: availability,
		bookings:     bookings,
		customers:    customers,
		caches:       caches,
		writer:       writer,
		notifier:     notifier,
		logger:       logger,
		lock:         make(chan struct{}, 1),
		lockWait:     lockWait,
		now:          time.Now,
	}
}

// Commit books one slot. The returned warning is non-empty when the
// booking persisted but a best-effort follow-up (calendar event,
// notification) failed.
func (s *BookingService) Commit(ctx context.Context, req BookingRequest) (*model.BookingRecord, string, error) {
	if err := validateRequest(req); err != nil {
		return nil, "", err
	}

	if err := s.acquire(ctx); err != nil {
		return nil, "", err
	}
	defer s.release()

	// Close the race window between the client's last availability view
	// and this commit: one fresh check under the lock.
	rec, err := s.availability.CheckSlot(ctx, req.Date, req.Time)
	if err != nil {
		return nil, "", fmt.Errorf("re-validate slot: %w", err)
	}
	if !rec.Available {
		return nil, "", apperror.SlotConflict(map[string]any{
			"date":           req.Date,
			"time":           req.Time,
			"conflict_count": rec.ConflictCount,
		})
	}

	booking := &model.BookingRecord{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Name:      req.Name,
		Phone:     req.Phone,
		Date:      req.Date,
		Time:      req.Time,
		Services:  req.Services,
		Removal:   req.Removal,
		Extension: req.Extension,
		Remarks:   req.Remarks,
		CreatedAt: s.now(),
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, "", fmt.Errorf("persist booking: %w", err)
	}
	if err := s.customers.RecordBooking(ctx, &model.Customer{
		UserID: req.UserID,
		Name:   req.Name,
		Phone:  req.Phone,
	}); err != nil {
		return nil, "", fmt.Errorf("update customer counters: %w", err)
	}

	// Subsequent reads must see the new state.
	s.caches.InvalidateBookingIndex()
	s.caches.InvalidateCustomerIndex()

	s.logger.Info("Booking committed",
		zap.String("booking_id", booking.ID),
		zap.String("user_id", booking.UserID),
		zap.String("date", booking.Date),
		zap.String("time", booking.Time),
	)

	warning := s.linkAndNotify(ctx, booking)
	return booking, warning, nil
}

// linkAndNotify performs the best-effort follow-ups. Failures never roll
// back the already-persisted booking.
func (s *BookingService) linkAndNotify(ctx context.Context, booking *model.BookingRecord) string {
	var warning string

	if s.writer != nil {
		eventID, err := s.writer.CreateBookingEvent(ctx, booking)
		if err != nil {
			s.logger.Error("Booking calendar event creation failed",
				zap.String("booking_id", booking.ID),
				zap.Error(err),
			)
			warning = "booking saved, calendar event creation failed"
		} else {
			booking.CalendarEventID = eventID
			if err := s.bookings.AttachCalendarEvent(ctx, booking.ID, eventID); err != nil {
				s.logger.Error("Attaching calendar event id failed",
					zap.String("booking_id", booking.ID),
					zap.String("event_id", eventID),
					zap.Error(err),
				)
				warning = "booking saved, calendar event link not recorded"
			}
		}
	}

	if s.notifier != nil {
		if err := s.notifier.BookingConfirmed(ctx, booking); err != nil {
			s.logger.Error("Booking notification failed",
				zap.String("booking_id", booking.ID),
				zap.Error(err),
			)
			if warning == "" {
				warning = "booking saved, confirmation notification failed"
			}
		}
	}

	return warning
}

// acquire takes the commit lock with a bounded wait.
func (s *BookingService) acquire(ctx context.Context) error {
	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()

	select {
	case s.lock <- struct{}{}:
		return nil
	case <-timer.C:
		return apperror.LockTimeout()
	case <-ctx.Done():
		return fmt.Errorf("acquire commit lock: %w", ctx.Err())
	}
}

func (s *BookingService) release() {
	<-s.lock
}

func validateRequest(req BookingRequest) error {
	missing := map[string]any{}
	if req.UserID == "" {
		missing["userId"] = "required"
	}
	if req.Name == "" {
		missing["name"] = "required"
	}
	if req.Phone == "" {
		missing["phone"] = "required"
	}
	if req.Date == "" {
		missing["date"] = "required"
	}
	if req.Time == "" {
		missing["time"] = "required"
	}
	if len(missing) > 0 {
		return apperror.Validation("missing required booking fields", missing)
	}

	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return apperror.Validation(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", req.Date), nil)
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		return apperror.Validation(fmt.Sprintf("invalid time %q, want HH:MM", req.Time), nil)
	}

	return nil
}
