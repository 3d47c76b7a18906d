package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tyhsiao/bookline/internal/model"
	"github.com/tyhsiao/bookline/internal/repository/base"
)

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(handles *base.HandleProvider) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(handles)}
}

// Create appends one booking row. The record is immutable afterwards
// except for the linked calendar event id.
func (r *BookingRepository) Create(ctx context.Context, b *model.BookingRecord) error {
	query := `
		INSERT INTO bookings (id, line_user_id, name, phone, booking_date, booking_time,
		                      services, removal, extension, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.ExecAffected(ctx, query,
		b.ID,
		b.UserID,
		b.Name,
		b.Phone,
		b.Date,
		b.Time,
		b.Services,
		b.Removal,
		b.Extension,
		b.Remarks,
		b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// AttachCalendarEvent links the booking to its calendar event after the
// event has been created upstream.
func (r *BookingRepository) AttachCalendarEvent(ctx context.Context, bookingID, eventID string) error {
	query := `UPDATE bookings SET calendar_event_id = $2 WHERE id = $1`

	affected, err := r.ExecAffected(ctx, query, bookingID, eventID)
	if err != nil {
		return fmt.Errorf("attach calendar event: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("attach calendar event: booking %s not found", bookingID)
	}

	return nil
}

// GetByID returns one booking, or nil when none exists.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*model.BookingRecord, error) {
	query := selectBookings + ` WHERE id = $1`

	row, err := r.QueryRow(ctx, query, id)
	if err != nil {
		return nil, err
	}

	b, err := scanBooking(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}
	return b, nil
}

// All scans the whole bookings table for wholesale index rebuilds.
func (r *BookingRepository) All(ctx context.Context) ([]model.BookingRecord, error) {
	query := selectBookings + ` ORDER BY created_at`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("scan bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.BookingRecord
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, *b)
	}

	return bookings, rows.Err()
}

const selectBookings = `
	SELECT id, line_user_id, name, phone, booking_date, booking_time,
	       services, removal, extension, remarks, created_at, calendar_event_id
	FROM bookings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.BookingRecord, error) {
	var (
		b    model.BookingRecord
		date time.Time
	)
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.Name,
		&b.Phone,
		&date,
		&b.Time,
		&b.Services,
		&b.Removal,
		&b.Extension,
		&b.Remarks,
		&b.CreatedAt,
		&b.CalendarEventID,
	)
	if err != nil {
		return nil, err
	}
	b.Date = date.Format("2006-01-02")
	return &b, nil
}
